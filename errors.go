package rulesynth

import (
	"errors"
	"fmt"

	"github.com/hupe1980/rulesynth/blobstore"
	"github.com/hupe1980/rulesynth/dataset"
	"github.com/hupe1980/rulesynth/model"
	"github.com/hupe1980/rulesynth/objective"
	"github.com/hupe1980/rulesynth/optimize/genetic"
	"github.com/hupe1980/rulesynth/optimize/trajectory"
	"github.com/hupe1980/rulesynth/persistence"
	"github.com/hupe1980/rulesynth/representation"
	"github.com/hupe1980/rulesynth/rule"
)

var (
	// ErrNotFound is returned when a stored rule set does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for invalid configuration or inputs.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCorrupt is returned when a stored rule set cannot be decoded.
	ErrCorrupt = errors.New("corrupt rule set")

	// ErrNoRepository is returned by Save and Load when no store is configured.
	ErrNoRepository = errors.New("no rule-set store configured")

	// ErrEmptyCandidates is returned when an optimization has nothing to choose from.
	ErrEmptyCandidates = errors.New("no candidates to optimize")
)

// ErrLabelMismatch indicates a rule whose label differs from the set's label.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrLabelMismatch struct {
	Expected string
	Actual   string
	cause    error
}

func (e *ErrLabelMismatch) Error() string {
	return fmt.Sprintf("label mismatch: expected %s, got %s", e.Expected, e.Actual)
}

func (e *ErrLabelMismatch) Unwrap() error { return e.cause }

// ErrNotCategorical indicates a feature of the wrong kind.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrNotCategorical struct {
	Feature string
	cause   error
}

func (e *ErrNotCategorical) Error() string {
	return fmt.Sprintf("feature %q is not categorical", e.Feature)
}

func (e *ErrNotCategorical) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	// Typed errors.
	var lm *rule.LabelMismatchError
	if errors.As(err, &lm) {
		return &ErrLabelMismatch{Expected: lm.Expected.String(), Actual: lm.Actual.String(), cause: err}
	}
	var fk *model.FeatureKindError
	if errors.As(err, &fk) {
		return &ErrNotCategorical{Feature: fk.Feature, cause: err}
	}

	// Storage integrity.
	if persistence.IsChecksumMismatch(err) ||
		errors.Is(err, persistence.ErrInvalidMagic) ||
		errors.Is(err, persistence.ErrInvalidVersion) ||
		errors.Is(err, persistence.ErrCorrupt) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	// Argument normalization.
	for _, target := range []error{
		genetic.ErrInvalidConfig,
		trajectory.ErrInvalidNeighborhood,
		objective.ErrInvalidWeights,
		representation.ErrLengthMismatch,
		representation.ErrNotRepresentable,
		rule.ErrEmptyLabel,
		rule.ErrEmptySet,
		rule.ErrNilMember,
		model.ErrNotCategorical,
		persistence.ErrInvalidName,
		persistence.ErrRowCountMismatch,
		dataset.ErrRowOutOfRange,
		dataset.ErrMissingLabel,
	} {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
	}

	return err
}
