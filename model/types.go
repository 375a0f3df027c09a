package model

import (
	"fmt"
)

// RowID is a dense, 0-based identifier of a dataset instance.
// Row ids form the universe over which all bitmaps are defined.
type RowID uint32

// Missing marks a row without a value for a feature.
const Missing = -1

// FeatureValue is a (feature, value) pair.
type FeatureValue struct {
	Feature *Feature
	Value   int
}

// String returns "name=display".
func (fv FeatureValue) String() string {
	if fv.Feature == nil {
		return fmt.Sprintf("?=%d", fv.Value)
	}
	return fmt.Sprintf("%s=%s", fv.Feature.Name(), fv.Feature.Display(fv.Value))
}

// Compare orders feature values by feature name, then by value.
func (fv FeatureValue) Compare(other FeatureValue) int {
	a, b := fv.Feature.Name(), other.Feature.Name()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	case fv.Value < other.Value:
		return -1
	case fv.Value > other.Value:
		return 1
	}
	return 0
}

// Label is the target (labelFeature, labelValue) a rule predicts.
type Label struct {
	Feature *Feature
	Value   int
}

// NewLabel creates a label for a categorical feature.
func NewLabel(f *Feature, value int) (Label, error) {
	if f == nil {
		return Label{}, ErrEmptyLabel
	}
	if !f.IsCategorical() {
		return Label{}, &FeatureKindError{Feature: f.Name(), Kind: f.Kind()}
	}
	return Label{Feature: f, Value: value}, nil
}

// IsZero reports whether the label is unset.
func (l Label) IsZero() bool {
	return l.Feature == nil
}

// Equal compares two labels by feature name and value.
func (l Label) Equal(other Label) bool {
	if l.Feature == nil || other.Feature == nil {
		return l.Feature == nil && other.Feature == nil && l.Value == other.Value
	}
	return l.Feature.Name() == other.Feature.Name() && l.Value == other.Value
}

// String returns "name=display".
func (l Label) String() string {
	return FeatureValue(l).String()
}
