package optimize

import (
	"context"

	"github.com/hupe1980/rulesynth/representation"
)

// FitnessFunc adapts a plain scoring function of the given length to Fitness.
// Batch evaluation is sequential.
type FitnessFunc struct {
	N  int
	Fn func(g representation.Genotype) float64
}

var _ Fitness = FitnessFunc{}

// Length implements Fitness.
func (f FitnessFunc) Length() int { return f.N }

// Evaluate implements Fitness.
func (f FitnessFunc) Evaluate(g representation.Genotype) (float64, error) {
	return f.Fn(g), nil
}

// EvaluateAll implements Fitness.
func (f FitnessFunc) EvaluateAll(ctx context.Context, gs []representation.Genotype) ([]float64, error) {
	out := make([]float64, len(gs))
	for i, g := range gs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = f.Fn(g)
	}
	return out, nil
}
