package optimize

import (
	"context"
	"sync/atomic"

	"github.com/hupe1980/rulesynth/internal/cache"
	"github.com/hupe1980/rulesynth/objective"
	"github.com/hupe1980/rulesynth/representation"
	"github.com/hupe1980/rulesynth/resource"
)

// DefaultCacheSize is the default number of memoized scores.
const DefaultCacheSize = 4096

// cacheEntryBytes is the approximate memory charged per memoized score.
const cacheEntryBytes = 96

// Fitness scores genotypes. Implementations must be deterministic.
type Fitness interface {
	// Length returns the genotype length.
	Length() int
	// Evaluate scores one genotype.
	Evaluate(g representation.Genotype) (float64, error)
	// EvaluateAll scores a batch, possibly in parallel.
	EvaluateAll(ctx context.Context, gs []representation.Genotype) ([]float64, error)
}

// Refiner improves a single genotype, e.g. by local search.
type Refiner interface {
	Refine(ctx context.Context, fit Fitness, g representation.Genotype) (representation.Genotype, float64, error)
}

// Evaluator translates genotypes and scores the resulting entities.
type Evaluator[T any] struct {
	translator representation.Translator[T]
	objective  objective.Function[T]
	cache      *cache.LRU[string, float64]
	rc         *resource.Controller

	evaluations atomic.Int64
}

var _ Fitness = (*Evaluator[int])(nil)

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*evaluatorOptions)

type evaluatorOptions struct {
	cacheSize int
	rc        *resource.Controller
}

// WithCacheSize sets the number of memoized scores. 0 disables memoization.
func WithCacheSize(n int) EvaluatorOption {
	return func(o *evaluatorOptions) {
		o.cacheSize = n
	}
}

// WithResourceController fans out batch evaluation over rc and charges the
// score cache against its memory budget.
func WithResourceController(rc *resource.Controller) EvaluatorOption {
	return func(o *evaluatorOptions) {
		o.rc = rc
	}
}

// NewEvaluator creates an Evaluator. The translator must already be initialized.
func NewEvaluator[T any](tr representation.Translator[T], obj objective.Function[T], optFns ...EvaluatorOption) *Evaluator[T] {
	opts := evaluatorOptions{cacheSize: DefaultCacheSize}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Evaluator[T]{
		translator: tr,
		objective:  obj,
		cache:      cache.NewLRU[string, float64](opts.cacheSize, cacheEntryBytes, opts.rc),
		rc:         opts.rc,
	}
}

// Length implements Fitness.
func (e *Evaluator[T]) Length() int {
	return e.translator.Length()
}

// Translate maps a genotype to its entity.
func (e *Evaluator[T]) Translate(g representation.Genotype) (T, error) {
	return e.translator.Translate(g)
}

// Encode maps an entity to its genotype.
func (e *Evaluator[T]) Encode(entity T) (representation.Genotype, error) {
	return e.translator.Encode(entity)
}

// Evaluate implements Fitness.
func (e *Evaluator[T]) Evaluate(g representation.Genotype) (float64, error) {
	key := g.Key()
	if score, ok := e.cache.Get(key); ok {
		return score, nil
	}
	entity, err := e.translator.Translate(g)
	if err != nil {
		return 0, err
	}
	e.evaluations.Add(1)
	score := e.objective.Apply(entity)
	e.cache.Set(key, score)
	return score, nil
}

// EvaluateAll implements Fitness.
func (e *Evaluator[T]) EvaluateAll(ctx context.Context, gs []representation.Genotype) ([]float64, error) {
	scores := make([]float64, len(gs))
	err := e.rc.ForEach(ctx, len(gs), func(_ context.Context, i int) error {
		s, err := e.Evaluate(gs[i])
		if err != nil {
			return err
		}
		scores[i] = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// Evaluations returns the number of objective calls that missed the cache.
func (e *Evaluator[T]) Evaluations() int64 {
	return e.evaluations.Load()
}

// CacheStats returns cache hits and misses.
func (e *Evaluator[T]) CacheStats() (hits, misses int64) {
	return e.cache.Stats()
}
