package model

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

var (
	// ErrNotCategorical is returned when a non-categorical feature is used
	// where a categorical one is required.
	ErrNotCategorical = errors.New("feature is not categorical")

	// ErrEmptyLabel is returned when a rule is built without a label feature.
	ErrEmptyLabel = errors.New("label feature must be set")

	// ErrInvalidDomain is returned for an empty or duplicated feature domain.
	ErrInvalidDomain = errors.New("invalid feature domain")
)

// FeatureKindError reports a feature of the wrong kind.
type FeatureKindError struct {
	Feature string
	Kind    Kind
}

func (e *FeatureKindError) Error() string {
	return fmt.Sprintf("feature %q has kind %s: %v", e.Feature, e.Kind, ErrNotCategorical)
}

func (e *FeatureKindError) Unwrap() error { return ErrNotCategorical }

// Kind is the kind of a feature.
type Kind uint8

const (
	// KindCategorical is a pre-discretized feature with an integer-coded domain.
	KindCategorical Kind = iota
	// KindNumeric is a continuous feature. It is accepted by the schema but
	// rejected by every rule-building component.
	KindNumeric
)

func (k Kind) String() string {
	switch k {
	case KindCategorical:
		return "categorical"
	case KindNumeric:
		return "numeric"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Feature is an immutable dataset column description.
//
// Features compare by name: two Feature instances with the same name (e.g. from
// a train and a test split) address the same index entries.
type Feature struct {
	name    string
	kind    Kind
	domain  []int
	display map[int]string
}

// NewCategorical creates a categorical feature whose domain is 0..len(names)-1,
// with names[i] as display string of value i.
func NewCategorical(name string, names ...string) (*Feature, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: feature %q has no values", ErrInvalidDomain, name)
	}
	domain := make([]int, len(names))
	display := make(map[int]string, len(names))
	for i, n := range names {
		domain[i] = i
		display[i] = n
	}
	return &Feature{name: name, kind: KindCategorical, domain: domain, display: display}, nil
}

// NewCategoricalDomain creates a categorical feature with an explicit domain
// and display mapping. Values missing from display render as their integer.
func NewCategoricalDomain(name string, domain []int, display map[int]string) (*Feature, error) {
	if len(domain) == 0 {
		return nil, fmt.Errorf("%w: feature %q has no values", ErrInvalidDomain, name)
	}
	d := slices.Clone(domain)
	slices.Sort(d)
	if len(slices.Compact(slices.Clone(d))) != len(d) {
		return nil, fmt.Errorf("%w: feature %q has duplicate values", ErrInvalidDomain, name)
	}
	m := make(map[int]string, len(display))
	for k, v := range display {
		m[k] = v
	}
	return &Feature{name: name, kind: KindCategorical, domain: d, display: m}, nil
}

// NewNumeric creates a numeric feature.
func NewNumeric(name string) *Feature {
	return &Feature{name: name, kind: KindNumeric}
}

// MustCategorical is like NewCategorical but panics on error.
func MustCategorical(name string, names ...string) *Feature {
	f, err := NewCategorical(name, names...)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the feature name.
func (f *Feature) Name() string {
	if f == nil {
		return ""
	}
	return f.name
}

// Kind returns the feature kind.
func (f *Feature) Kind() Kind { return f.kind }

// IsCategorical reports whether f is a categorical feature.
func (f *Feature) IsCategorical() bool {
	return f != nil && f.kind == KindCategorical
}

// Domain returns a copy of the ordered value domain.
func (f *Feature) Domain() []int {
	return slices.Clone(f.domain)
}

// Contains reports whether v is in the domain.
func (f *Feature) Contains(v int) bool {
	_, ok := slices.BinarySearch(f.domain, v)
	return ok
}

// Display returns the display string of v.
func (f *Feature) Display(v int) string {
	if s, ok := f.display[v]; ok {
		return s
	}
	return strconv.Itoa(v)
}

// DisplayMap returns a copy of the value → display mapping.
func (f *Feature) DisplayMap() map[int]string {
	m := make(map[int]string, len(f.display))
	for k, v := range f.display {
		m[k] = v
	}
	return m
}

// Values returns all (f, v) pairs of the domain.
func (f *Feature) Values() []FeatureValue {
	out := make([]FeatureValue, len(f.domain))
	for i, v := range f.domain {
		out[i] = FeatureValue{Feature: f, Value: v}
	}
	return out
}

// RequireCategorical returns a *FeatureKindError unless f is categorical.
func RequireCategorical(f *Feature) error {
	if f == nil {
		return fmt.Errorf("%w: nil feature", ErrNotCategorical)
	}
	if f.kind != KindCategorical {
		return &FeatureKindError{Feature: f.name, Kind: f.kind}
	}
	return nil
}

func (f *Feature) String() string {
	return f.Name()
}
