package objective

import (
	"slices"

	"github.com/hupe1980/rulesynth/bitmap"
	"github.com/hupe1980/rulesynth/coverage"
	"github.com/hupe1980/rulesynth/rule"
)

// SetTerms are the normalized terms of the rule-set objective, each in [0, 1].
type SetTerms struct {
	// Accuracy is (|C ∩ L| + |¬C ∩ ¬L|) / n for the union cover C and label rows L.
	Accuracy float64
	// Simplicity is 1 − members/poolSize.
	Simplicity float64
	// Distinctness is 1 − (Σ|covered_i| − |C|) / Σ|covered_i|.
	Distinctness float64
	// Completeness is |C ∩ L| / |L|.
	Completeness float64
}

func (t SetTerms) slice() []float64 {
	return []float64{t.Accuracy, t.Simplicity, t.Distinctness, t.Completeness}
}

// SetObjective is the weighted four-term ("BETA") rule-set objective.
type SetObjective struct {
	calc     *coverage.Calculator
	poolSize int
	weights  []float64
}

var _ Function[*rule.Set] = (*SetObjective)(nil)

// DefaultSetWeights returns the all-ones weight vector.
func DefaultSetWeights() []float64 {
	return []float64{1, 1, 1, 1}
}

// NewSetObjective creates the objective. poolSize is the number of candidate
// rules the optimized set is drawn from. A nil weights slice means all ones.
func NewSetObjective(calc *coverage.Calculator, poolSize int, weights []float64) (*SetObjective, error) {
	if weights == nil {
		weights = DefaultSetWeights()
	}
	if err := validateWeights(weights, 4); err != nil {
		return nil, err
	}
	return &SetObjective{calc: calc, poolSize: poolSize, weights: slices.Clone(weights)}, nil
}

// Apply implements Function.
func (o *SetObjective) Apply(s *rule.Set) float64 {
	return weighted(o.weights, o.Terms(s).slice())
}

// Terms computes the individual objective terms.
func (o *SetObjective) Terms(s *rule.Set) SetTerms {
	n := o.calc.NumRows()
	positives := o.calc.LabelRows(s.Label())

	members := s.Members()
	covers := make([]*bitmap.Bitmap, len(members))
	for i, m := range members {
		covers[i] = m.Covered()
	}
	union := bitmap.FastOr(covers...)
	sum := bitmap.SumCardinality(covers...)

	unionCard := union.Cardinality()
	truePos := union.AndCardinality(positives)
	posCard := positives.Cardinality()
	trueNeg := (n - unionCard) - (posCard - truePos)

	terms := SetTerms{
		Accuracy:     ratio(truePos+trueNeg, n),
		Simplicity:   1,
		Distinctness: 1,
		Completeness: ratio(truePos, posCard),
	}
	if o.poolSize > 0 {
		terms.Simplicity = 1 - float64(len(members))/float64(o.poolSize)
	}
	if sum > 0 {
		terms.Distinctness = 1 - float64(sum-unionCard)/float64(sum)
	}
	return terms
}
