package model

import (
	"slices"
	"strconv"
	"strings"
)

// Condition restricts one feature to a set of allowed values.
type Condition struct {
	Feature *Feature
	Values  []int // sorted, unique, non-empty
}

// Conditions is an immutable condition map: feature → allowed values.
//
// Entries are kept sorted by feature name; each feature appears once.
// The zero value is the empty condition map.
type Conditions struct {
	entries []Condition
}

// NewConditions builds a condition map. Values are sorted and deduplicated;
// features with an empty value set are dropped. Entries with the same feature
// name are merged.
func NewConditions(m map[*Feature][]int) Conditions {
	byName := make(map[string]*Condition, len(m))
	for f, vals := range m {
		if f == nil || len(vals) == 0 {
			continue
		}
		c, ok := byName[f.Name()]
		if !ok {
			c = &Condition{Feature: f}
			byName[f.Name()] = c
		}
		c.Values = append(c.Values, vals...)
	}
	entries := make([]Condition, 0, len(byName))
	for _, c := range byName {
		slices.Sort(c.Values)
		c.Values = slices.Compact(c.Values)
		entries = append(entries, *c)
	}
	slices.SortFunc(entries, func(a, b Condition) int {
		return strings.Compare(a.Feature.Name(), b.Feature.Name())
	})
	return Conditions{entries: entries}
}

// FromFeatureValues groups feature values by feature into a condition map.
func FromFeatureValues(fvs []FeatureValue) Conditions {
	m := make(map[*Feature][]int)
	byName := make(map[string]*Feature)
	for _, fv := range fvs {
		f, ok := byName[fv.Feature.Name()]
		if !ok {
			f = fv.Feature
			byName[f.Name()] = f
		}
		m[f] = append(m[f], fv.Value)
	}
	return NewConditions(m)
}

// Len returns the number of constrained features.
func (c Conditions) Len() int { return len(c.entries) }

// IsEmpty reports whether no feature is constrained.
func (c Conditions) IsEmpty() bool { return len(c.entries) == 0 }

// Entries returns the conditions ordered by feature name.
// The returned slices must not be modified.
func (c Conditions) Entries() []Condition { return c.entries }

// Values returns the allowed values of the named feature.
func (c Conditions) Values(name string) ([]int, bool) {
	i, ok := slices.BinarySearchFunc(c.entries, name, func(e Condition, n string) int {
		return strings.Compare(e.Feature.Name(), n)
	})
	if !ok {
		return nil, false
	}
	return slices.Clone(c.entries[i].Values), true
}

// FeatureValues flattens the map into (feature, value) pairs ordered by
// feature name, then value.
func (c Conditions) FeatureValues() []FeatureValue {
	var out []FeatureValue
	for _, e := range c.entries {
		for _, v := range e.Values {
			out = append(out, FeatureValue{Feature: e.Feature, Value: v})
		}
	}
	return out
}

// Size returns the total number of (feature, value) pairs.
func (c Conditions) Size() int {
	n := 0
	for _, e := range c.entries {
		n += len(e.Values)
	}
	return n
}

// Key returns a canonical string identifying the condition map.
func (c Conditions) Key() string {
	var sb strings.Builder
	for i, e := range c.entries {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(e.Feature.Name())
		sb.WriteByte('=')
		for j, v := range e.Values {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Itoa(v))
		}
	}
	return sb.String()
}

// Equal compares two condition maps structurally.
func (c Conditions) Equal(other Conditions) bool {
	if len(c.entries) != len(other.entries) {
		return false
	}
	for i, e := range c.entries {
		o := other.entries[i]
		if e.Feature.Name() != o.Feature.Name() || !slices.Equal(e.Values, o.Values) {
			return false
		}
	}
	return true
}

// Validate checks that every constrained feature is categorical.
func (c Conditions) Validate() error {
	for _, e := range c.entries {
		if err := RequireCategorical(e.Feature); err != nil {
			return err
		}
	}
	return nil
}

// String renders the antecedent, e.g. "color ∈ {red, blue} AND size = M".
func (c Conditions) String() string {
	if len(c.entries) == 0 {
		return "<empty>"
	}
	parts := make([]string, len(c.entries))
	for i, e := range c.entries {
		names := make([]string, len(e.Values))
		for j, v := range e.Values {
			names[j] = e.Feature.Display(v)
		}
		if len(names) == 1 {
			parts[i] = e.Feature.Name() + " = " + names[0]
		} else {
			parts[i] = e.Feature.Name() + " ∈ {" + strings.Join(names, ", ") + "}"
		}
	}
	return strings.Join(parts, " AND ")
}
