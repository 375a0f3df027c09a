package rule

import (
	"errors"
	"fmt"

	"github.com/hupe1980/rulesynth/model"
)

var (
	// ErrLabelMismatch is returned when explanations with different labels are
	// joined into one Set.
	ErrLabelMismatch = errors.New("explanation label does not match set label")

	// ErrEmptySet is returned when a Set is built without members.
	ErrEmptySet = errors.New("explanation set must not be empty")

	// ErrNilMember is returned when a Set is built with a nil explanation.
	ErrNilMember = errors.New("explanation set member must not be nil")

	// ErrEmptyLabel is returned when an explanation is built without a label.
	ErrEmptyLabel = model.ErrEmptyLabel
)

// LabelMismatchError reports the conflicting labels of a Set construction.
type LabelMismatchError struct {
	Expected model.Label
	Actual   model.Label
	Index    int
}

func (e *LabelMismatchError) Error() string {
	return fmt.Sprintf("member %d has label %s, set label is %s", e.Index, e.Actual, e.Expected)
}

func (e *LabelMismatchError) Unwrap() error { return ErrLabelMismatch }
