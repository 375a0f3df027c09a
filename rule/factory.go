package rule

import (
	"github.com/hupe1980/rulesynth/bitmap"
	"github.com/hupe1980/rulesynth/coverage"
	"github.com/hupe1980/rulesynth/model"
)

// Factory creates explanations.
type Factory interface {
	New(conds model.Conditions, label model.Label) (*Explanation, error)
}

// StandardFactory computes coverage for the literal condition map.
type StandardFactory struct {
	calc *coverage.Calculator
}

var _ Factory = (*StandardFactory)(nil)

// NewStandardFactory creates a StandardFactory.
func NewStandardFactory(calc *coverage.Calculator) *StandardFactory {
	return &StandardFactory{calc: calc}
}

// New implements Factory.
func (f *StandardFactory) New(conds model.Conditions, label model.Label) (*Explanation, error) {
	if err := validateInputs(conds, label); err != nil {
		return nil, err
	}
	return newExplanation(conds, label, f.calc.Compute(conds, label)), nil
}

// MinimalCoversFactory drops condition values whose rows never reach the final
// cover before storing the conditions.
//
// Values of one categorical feature are disjoint row sets, so value v of
// feature f is redundant exactly when rows(f=v) ∩ covered = ∅. Removing all
// redundant values at once leaves the cover unchanged and the reduced map is
// unique. Features left without values are dropped.
type MinimalCoversFactory struct {
	calc *coverage.Calculator
}

var _ Factory = (*MinimalCoversFactory)(nil)

// NewMinimalCoversFactory creates a MinimalCoversFactory.
func NewMinimalCoversFactory(calc *coverage.Calculator) *MinimalCoversFactory {
	return &MinimalCoversFactory{calc: calc}
}

// New implements Factory.
func (f *MinimalCoversFactory) New(conds model.Conditions, label model.Label) (*Explanation, error) {
	if err := validateInputs(conds, label); err != nil {
		return nil, err
	}
	covered := f.calc.Covered(conds)
	reduced := f.reduce(conds, covered)
	return newExplanation(reduced, label, f.calc.FromCovered(covered, label)), nil
}

// Reduce returns the minimal condition map with the same cover as conds.
func (f *MinimalCoversFactory) Reduce(conds model.Conditions) model.Conditions {
	return f.reduce(conds, f.calc.Covered(conds))
}

func (f *MinimalCoversFactory) reduce(conds model.Conditions, covered *bitmap.Bitmap) model.Conditions {
	idx := f.calc.Index()
	kept := make(map[*model.Feature][]int, conds.Len())
	for _, e := range conds.Entries() {
		for _, v := range e.Values {
			if idx.Intersects(model.FeatureValue{Feature: e.Feature, Value: v}, covered) {
				kept[e.Feature] = append(kept[e.Feature], v)
			}
		}
	}
	return model.NewConditions(kept)
}

func validateInputs(conds model.Conditions, label model.Label) error {
	if label.IsZero() {
		return ErrEmptyLabel
	}
	if err := model.RequireCategorical(label.Feature); err != nil {
		return err
	}
	return conds.Validate()
}
