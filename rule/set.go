package rule

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/rulesynth/bitmap"
	"github.com/hupe1980/rulesynth/model"
)

// Set is an immutable collection of explanations sharing one label.
type Set struct {
	label   model.Label
	members []*Explanation
}

// NewSet builds a set from at least one explanation. All members must share
// the label of the first one.
func NewSet(members ...*Explanation) (*Set, error) {
	if len(members) == 0 {
		return nil, ErrEmptySet
	}
	if err := checkMembers(members); err != nil {
		return nil, err
	}
	label := members[0].Label()
	for i, m := range members[1:] {
		if !m.Label().Equal(label) {
			return nil, &LabelMismatchError{Expected: label, Actual: m.Label(), Index: i + 1}
		}
	}
	return &Set{label: label, members: slices.Clone(members)}, nil
}

// NewLabeledSet builds a set whose label is given explicitly. Every member
// must carry that label.
func NewLabeledSet(label model.Label, members ...*Explanation) (*Set, error) {
	if label.IsZero() {
		return nil, ErrEmptyLabel
	}
	if len(members) == 0 {
		return nil, ErrEmptySet
	}
	if err := checkMembers(members); err != nil {
		return nil, err
	}
	for i, m := range members {
		if !m.Label().Equal(label) {
			return nil, &LabelMismatchError{Expected: label, Actual: m.Label(), Index: i}
		}
	}
	return &Set{label: label, members: slices.Clone(members)}, nil
}

func checkMembers(members []*Explanation) error {
	for i, m := range members {
		if m == nil {
			return fmt.Errorf("%w: index %d", ErrNilMember, i)
		}
	}
	return nil
}

// EmptySet returns the degenerate member-less set for label. It represents
// the all-zero membership vector during optimization.
func EmptySet(label model.Label) *Set {
	return &Set{label: label}
}

// Label returns the shared label.
func (s *Set) Label() model.Label { return s.label }

// Len returns the number of members.
func (s *Set) Len() int { return len(s.members) }

// IsEmpty reports whether the set has no members.
func (s *Set) IsEmpty() bool { return len(s.members) == 0 }

// Members returns the members in insertion order.
func (s *Set) Members() []*Explanation { return slices.Clone(s.members) }

// Member returns the i-th member.
func (s *Set) Member(i int) *Explanation { return s.members[i] }

// Subset returns the set of the members at the given positions.
func (s *Set) Subset(positions []int) *Set {
	out := &Set{label: s.label, members: make([]*Explanation, 0, len(positions))}
	for _, p := range positions {
		out.members = append(out.members, s.members[p])
	}
	return out
}

// FeatureValues returns the distinct (feature, value) pairs across all
// members, ordered by feature name and value.
func (s *Set) FeatureValues() []model.FeatureValue {
	seen := make(map[string]map[int]struct{})
	var out []model.FeatureValue
	for _, m := range s.members {
		for _, fv := range m.FeatureValues() {
			vals, ok := seen[fv.Feature.Name()]
			if !ok {
				vals = make(map[int]struct{})
				seen[fv.Feature.Name()] = vals
			}
			if _, dup := vals[fv.Value]; dup {
				continue
			}
			vals[fv.Value] = struct{}{}
			out = append(out, fv)
		}
	}
	slices.SortFunc(out, model.FeatureValue.Compare)
	return out
}

// Covered returns the union of the members' covers.
func (s *Set) Covered() *bitmap.Bitmap {
	return bitmap.FastOr(s.collect((*Explanation).Covered)...)
}

// CorrectlyCovered returns the union of the members' correctly covered rows.
func (s *Set) CorrectlyCovered() *bitmap.Bitmap {
	return bitmap.FastOr(s.collect((*Explanation).CorrectlyCovered)...)
}

// IncorrectlyCovered returns the union of the members' incorrectly covered rows.
func (s *Set) IncorrectlyCovered() *bitmap.Bitmap {
	return bitmap.FastOr(s.collect((*Explanation).IncorrectlyCovered)...)
}

func (s *Set) collect(fn func(*Explanation) *bitmap.Bitmap) []*bitmap.Bitmap {
	out := make([]*bitmap.Bitmap, len(s.members))
	for i, m := range s.members {
		out[i] = fn(m)
	}
	return out
}

// Index returns the position of an equal explanation, or -1.
func (s *Set) Index(e *Explanation) int {
	return slices.IndexFunc(s.members, e.Equal)
}

// Equal reports whether both sets have the same label and equal members in
// the same order.
func (s *Set) Equal(other *Set) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.label.Equal(other.label) && slices.EqualFunc(s.members, other.members, (*Explanation).Equal)
}

// String renders one rule per line.
func (s *Set) String() string {
	lines := make([]string, len(s.members))
	for i, m := range s.members {
		lines[i] = m.String()
	}
	return strings.Join(lines, "\n")
}
