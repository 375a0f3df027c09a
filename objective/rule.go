package objective

import (
	"slices"

	"github.com/hupe1980/rulesynth/rule"
)

// RuleTerms are the normalized terms of the single-rule objective.
type RuleTerms struct {
	Precision  float64
	Recall     float64
	Simplicity float64
}

// RuleObjective scores one explanation by precision, recall and simplicity.
type RuleObjective struct {
	poolSize int
	weights  []float64
}

var _ Function[*rule.Explanation] = (*RuleObjective)(nil)

// DefaultRuleWeights returns the all-ones weight vector.
func DefaultRuleWeights() []float64 {
	return []float64{1, 1, 1}
}

// NewRuleObjective creates the objective. poolSize is the number of candidate
// (feature, value) pairs. A nil weights slice means all ones.
func NewRuleObjective(poolSize int, weights []float64) (*RuleObjective, error) {
	if weights == nil {
		weights = DefaultRuleWeights()
	}
	if err := validateWeights(weights, 3); err != nil {
		return nil, err
	}
	return &RuleObjective{poolSize: poolSize, weights: slices.Clone(weights)}, nil
}

// Apply implements Function.
func (o *RuleObjective) Apply(e *rule.Explanation) float64 {
	t := o.Terms(e)
	return weighted(o.weights, []float64{t.Precision, t.Recall, t.Simplicity})
}

// Terms computes the individual objective terms.
func (o *RuleObjective) Terms(e *rule.Explanation) RuleTerms {
	t := RuleTerms{
		Precision:  e.Precision(),
		Recall:     e.Recall(),
		Simplicity: 1,
	}
	if o.poolSize > 0 {
		t.Simplicity = 1 - float64(e.Conditions().Size())/float64(o.poolSize)
	}
	return t
}
