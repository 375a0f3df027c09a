// Package trajectory implements single-individual local search.
package trajectory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/rulesynth/optimize"
	"github.com/hupe1980/rulesynth/representation"
)

// ErrInvalidNeighborhood is returned when the flip radius is smaller than one.
var ErrInvalidNeighborhood = errors.New("neighborhood size must be at least 1")

// DefaultBatchSize is the number of neighbors scored per batch.
const DefaultBatchSize = 256

// KFlip is a steepest-ascent hill climber. Each step scores every genotype
// reachable by flipping between 1 and K positions of the current best and
// moves to the highest-scoring neighbor that is strictly better. It stops at
// a local optimum.
//
// The neighborhood has Σ_{j≤K} C(n, j) members, so K and the genotype length
// must be kept small.
type KFlip struct {
	// K is the maximum number of simultaneous flips.
	K int
	// MaxSteps bounds the number of improving moves. 0 means unbounded.
	MaxSteps int
	// BatchSize is the number of neighbors handed to Fitness.EvaluateAll at once.
	BatchSize int
	// Logger receives per-step debug records. Nil disables logging.
	Logger *slog.Logger
}

var _ optimize.Refiner = (*KFlip)(nil)

// Result describes a finished search.
type Result struct {
	Best       representation.Genotype
	Score      float64
	StartScore float64
	// Steps is the number of improving moves made.
	Steps int
	// Evaluated is the number of neighbors scored.
	Evaluated int
}

// Refine implements optimize.Refiner.
func (k *KFlip) Refine(ctx context.Context, fit optimize.Fitness, g representation.Genotype) (representation.Genotype, float64, error) {
	res, err := k.Search(ctx, fit, g)
	if err != nil && res.Best.Len() != g.Len() {
		return g, 0, err
	}
	return res.Best, res.Score, err
}

// Search climbs from start. The returned score is never lower than the
// score of start. On context cancellation the best genotype found so far is
// returned together with the context error.
func (k *KFlip) Search(ctx context.Context, fit optimize.Fitness, start representation.Genotype) (Result, error) {
	if k.K < 1 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidNeighborhood, k.K)
	}
	if start.Len() != fit.Length() {
		return Result{}, fmt.Errorf("%w: got %d, want %d", representation.ErrLengthMismatch, start.Len(), fit.Length())
	}

	score, err := fit.Evaluate(start)
	if err != nil {
		return Result{}, err
	}
	res := Result{Best: start, Score: score, StartScore: score}

	for k.MaxSteps <= 0 || res.Steps < k.MaxSteps {
		next, nextScore, evaluated, err := k.bestNeighbor(ctx, fit, res.Best, res.Score)
		res.Evaluated += evaluated
		if err != nil {
			return res, err
		}
		if evaluated == 0 || nextScore <= res.Score {
			break
		}
		res.Best, res.Score = next, nextScore
		res.Steps++
		if k.Logger != nil {
			k.Logger.DebugContext(ctx, "local search step",
				"step", res.Steps,
				"score", res.Score,
				"evaluated", res.Evaluated,
			)
		}
	}
	return res, nil
}

// bestNeighbor enumerates all flip combinations of size 1..K with an
// explicit stack, in lexicographic order of flipped positions, and returns
// the first neighbor with the highest score above threshold.
func (k *KFlip) bestNeighbor(ctx context.Context, fit optimize.Fitness, current representation.Genotype, threshold float64) (representation.Genotype, float64, int, error) {
	n := current.Len()
	batchSize := k.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var (
		best      representation.Genotype
		bestScore = threshold
		evaluated int
		batch     = make([]representation.Genotype, 0, batchSize)
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		scores, err := fit.EvaluateAll(ctx, batch)
		if err != nil {
			return err
		}
		evaluated += len(batch)
		for i, s := range scores {
			if s > bestScore {
				best, bestScore = batch[i], s
			}
		}
		batch = batch[:0]
		return nil
	}

	stack := make([][]int, 0, n)
	for p := n - 1; p >= 0; p-- {
		stack = append(stack, []int{p})
	}
	for len(stack) > 0 {
		positions := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		batch = append(batch, current.Flip(positions...))
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return best, bestScore, evaluated, err
			}
		}

		if len(positions) < k.K {
			last := positions[len(positions)-1]
			for p := n - 1; p > last; p-- {
				child := make([]int, len(positions)+1)
				copy(child, positions)
				child[len(positions)] = p
				stack = append(stack, child)
			}
		}
	}
	if err := flush(); err != nil {
		return best, bestScore, evaluated, err
	}
	return best, bestScore, evaluated, nil
}
