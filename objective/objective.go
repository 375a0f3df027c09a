// Package objective scores candidate rules and rule sets.
//
// Objective functions are pure: equal inputs always produce bit-identical
// scores, and higher scores are better. Both optimizers rely on this for
// memoization and convergence checks.
package objective

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWeights is returned for negative, non-finite or wrongly sized weights.
var ErrInvalidWeights = errors.New("invalid objective weights")

// Function scores an entity. Higher is better.
type Function[T any] interface {
	Apply(entity T) float64
}

// Func adapts a plain function to Function.
type Func[T any] func(T) float64

// Apply implements Function.
func (f Func[T]) Apply(entity T) float64 { return f(entity) }

func validateWeights(w []float64, want int) error {
	if len(w) != want {
		return fmt.Errorf("%w: got %d weights, want %d", ErrInvalidWeights, len(w), want)
	}
	for i, x := range w {
		if x < 0 || math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: weight %d is %v", ErrInvalidWeights, i, x)
		}
	}
	return nil
}

func weighted(w, terms []float64) float64 {
	score := 0.0
	for i, t := range terms {
		score += w[i] * t
	}
	return score
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
