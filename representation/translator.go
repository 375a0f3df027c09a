package representation

import (
	"fmt"
	"sync"

	"github.com/hupe1980/rulesynth/model"
	"github.com/hupe1980/rulesynth/rule"
)

// Translator converts between genotypes and domain entities.
type Translator[T any] interface {
	// Length returns the number of positions.
	Length() int
	// Translate maps a genotype to its entity.
	Translate(g Genotype) (T, error)
	// Encode maps an entity back to its genotype.
	Encode(entity T) (Genotype, error)
}

// Foundation supplies the candidate feature values for rule translation.
// Both *rule.Explanation and *rule.Set satisfy it.
type Foundation interface {
	Label() model.Label
	FeatureValues() []model.FeatureValue
}

var (
	_ Foundation = (*rule.Explanation)(nil)
	_ Foundation = (*rule.Set)(nil)
)

// RuleTranslator maps bit i to the i-th candidate feature value. A genotype
// translates to the rule whose conditions are the selected feature values.
type RuleTranslator struct {
	mu        sync.RWMutex
	ready     bool
	label     model.Label
	factory   rule.Factory
	values    []model.FeatureValue
	positions map[string]int
}

var _ Translator[*rule.Explanation] = (*RuleTranslator)(nil)

// NewRuleTranslator returns an uninitialized translator.
func NewRuleTranslator() *RuleTranslator {
	return &RuleTranslator{}
}

// Initialize fixes the position ordering from the foundation's distinct
// feature values. It must be called exactly once, before Translate; later
// calls fail with ErrAlreadyInitialized and leave the ordering unchanged.
func (t *RuleTranslator) Initialize(foundation Foundation, factory rule.Factory) error {
	label := foundation.Label()
	if label.IsZero() {
		return rule.ErrEmptyLabel
	}
	values := foundation.FeatureValues()
	positions := make(map[string]int, len(values))
	for i, fv := range values {
		positions[fvKey(fv)] = i
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ready {
		return ErrAlreadyInitialized
	}
	t.label = label
	t.factory = factory
	t.values = values
	t.positions = positions
	t.ready = true
	return nil
}

// Length implements Translator.
func (t *RuleTranslator) Length() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

// Values returns the candidate feature values in position order.
func (t *RuleTranslator) Values() []model.FeatureValue {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]model.FeatureValue(nil), t.values...)
}

// Translate implements Translator.
func (t *RuleTranslator) Translate(g Genotype) (*rule.Explanation, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.ready {
		return nil, ErrNotInitialized
	}
	if g.Len() != len(t.values) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, g.Len(), len(t.values))
	}
	selected := make([]model.FeatureValue, 0, g.Weight())
	for _, p := range g.Ones() {
		selected = append(selected, t.values[p])
	}
	return t.factory.New(model.FromFeatureValues(selected), t.label)
}

// Encode implements Translator.
func (t *RuleTranslator) Encode(e *rule.Explanation) (Genotype, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.ready {
		return Genotype{}, ErrNotInitialized
	}
	g := NewGenotype(len(t.values))
	for _, fv := range e.FeatureValues() {
		p, ok := t.positions[fvKey(fv)]
		if !ok {
			return Genotype{}, fmt.Errorf("%w: %s", ErrNotRepresentable, fv)
		}
		g.bits.Set(uint(p))
	}
	return g, nil
}

// SetTranslator maps bit i to the i-th candidate rule. A genotype translates
// to the set of selected rules; the zero vector yields an empty set.
type SetTranslator struct {
	mu         sync.RWMutex
	ready      bool
	candidates *rule.Set
	positions  map[string]int
}

var _ Translator[*rule.Set] = (*SetTranslator)(nil)

// NewSetTranslator returns an uninitialized translator.
func NewSetTranslator() *SetTranslator {
	return &SetTranslator{}
}

// Initialize fixes the position ordering to the candidates' member order.
// A second call fails with ErrAlreadyInitialized.
func (t *SetTranslator) Initialize(candidates *rule.Set) error {
	if candidates == nil || candidates.Label().IsZero() {
		return rule.ErrEmptyLabel
	}
	positions := make(map[string]int, candidates.Len())
	for i, m := range candidates.Members() {
		if _, dup := positions[m.Key()]; !dup {
			positions[m.Key()] = i
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ready {
		return ErrAlreadyInitialized
	}
	t.candidates = candidates
	t.positions = positions
	t.ready = true
	return nil
}

// Length implements Translator.
func (t *SetTranslator) Length() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.candidates == nil {
		return 0
	}
	return t.candidates.Len()
}

// Candidates returns the candidate pool.
func (t *SetTranslator) Candidates() *rule.Set {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.candidates
}

// Translate implements Translator.
func (t *SetTranslator) Translate(g Genotype) (*rule.Set, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.ready {
		return nil, ErrNotInitialized
	}
	if g.Len() != t.candidates.Len() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, g.Len(), t.candidates.Len())
	}
	if g.Weight() == 0 {
		return rule.EmptySet(t.candidates.Label()), nil
	}
	return t.candidates.Subset(g.Ones()), nil
}

// Encode implements Translator.
func (t *SetTranslator) Encode(s *rule.Set) (Genotype, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.ready {
		return Genotype{}, ErrNotInitialized
	}
	if !s.Label().Equal(t.candidates.Label()) {
		return Genotype{}, &rule.LabelMismatchError{Expected: t.candidates.Label(), Actual: s.Label(), Index: -1}
	}
	g := NewGenotype(t.candidates.Len())
	for _, m := range s.Members() {
		p, ok := t.positions[m.Key()]
		if !ok {
			return Genotype{}, fmt.Errorf("%w: %s", ErrNotRepresentable, m)
		}
		g.bits.Set(uint(p))
	}
	return g, nil
}

func fvKey(fv model.FeatureValue) string {
	return fmt.Sprintf("%s\x00%d", fv.Feature.Name(), fv.Value)
}
