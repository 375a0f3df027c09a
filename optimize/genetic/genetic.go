// Package genetic implements a generational genetic algorithm over genotypes.
//
// Each generation runs Select → Recombine → Mutate → Replace on the current
// population and stops on steady fitness, population convergence, the
// generation limit or context cancellation, whichever comes first. The best
// individual seen so far is always returned.
package genetic

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/hupe1980/rulesynth/optimize"
	"github.com/hupe1980/rulesynth/representation"
)

// StopReason tells why a run ended.
type StopReason int

const (
	StopMaxGenerations StopReason = iota
	StopSteadyFitness
	StopConverged
	StopCancelled
)

func (r StopReason) String() string {
	switch r {
	case StopMaxGenerations:
		return "max_generations"
	case StopSteadyFitness:
		return "steady_fitness"
	case StopConverged:
		return "converged"
	case StopCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// Stats summarizes one generation.
type Stats struct {
	Generation int
	Best       float64
	Mean       float64
	Worst      float64
	// BestEver is the best score seen in any generation so far.
	BestEver float64
	// Steady is the number of consecutive generations without improvement.
	Steady int
}

// Result describes a finished run.
type Result struct {
	Best        representation.Genotype
	Score       float64
	Generations int
	Reason      StopReason
}

// Solution is a Result together with the translated best entity.
type Solution[T any] struct {
	Result
	Entity T
}

type individual struct {
	g     representation.Genotype
	score float64
	born  int
}

// Engine runs the genetic algorithm.
type Engine struct {
	cfg    Config
	init   representation.Initializer
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for the engine.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine seeding its population with init.
func New(cfg Config, init representation.Initializer, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if init == nil {
		init = representation.AscendingOnes{}
	}
	e := &Engine{
		cfg:    cfg,
		init:   init,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine's config.
func (e *Engine) Config() Config {
	return e.cfg
}

// Solve runs the engine and translates the best genotype with ev.
func Solve[T any](ctx context.Context, e *Engine, ev *optimize.Evaluator[T]) (*Solution[T], error) {
	res, runErr := e.Run(ctx, ev)
	if res == nil {
		return nil, runErr
	}
	entity, err := ev.Translate(res.Best)
	if err != nil {
		return nil, err
	}
	return &Solution[T]{Result: *res, Entity: entity}, runErr
}

// Run evolves a population scored by fit. When ctx is cancelled after the
// first evaluation the best result so far is returned with ctx's error.
func (e *Engine) Run(ctx context.Context, fit optimize.Fitness) (*Result, error) {
	length := fit.Length()
	rng := rand.New(rand.NewSource(e.cfg.Seed))

	genotypes, err := e.init.Initialize(e.cfg.PopulationSize, length)
	if err != nil {
		return nil, err
	}
	if len(genotypes) != e.cfg.PopulationSize {
		return nil, fmt.Errorf("%w: initializer returned %d individuals, want %d",
			ErrInvalidConfig, len(genotypes), e.cfg.PopulationSize)
	}
	scores, err := fit.EvaluateAll(ctx, genotypes)
	if err != nil {
		return nil, err
	}
	pop := make([]individual, len(genotypes))
	for i := range genotypes {
		pop[i] = individual{g: genotypes[i], score: scores[i]}
	}

	best := pop[fittest(pop)]
	res := &Result{Best: best.g, Score: best.score}
	steady := 0

	e.logger.DebugContext(ctx, "genetic run started",
		"population", e.cfg.PopulationSize,
		"length", length,
		"initial_best", best.score,
	)

	for gen := 1; ; gen++ {
		if err := ctx.Err(); err != nil {
			res.Reason = StopCancelled
			return res, err
		}

		pop, err = e.step(ctx, fit, rng, pop, gen, length)
		if err != nil {
			if ctx.Err() != nil {
				res.Reason = StopCancelled
				return res, ctx.Err()
			}
			return nil, err
		}

		if e.cfg.EliteRefiner != nil {
			i := fittest(pop)
			g, s, err := e.cfg.EliteRefiner.Refine(ctx, fit, pop[i].g)
			if err != nil {
				if ctx.Err() != nil {
					res.Reason = StopCancelled
					return res, ctx.Err()
				}
				return nil, err
			}
			if s > pop[i].score {
				pop[i] = individual{g: g, score: s, born: pop[i].born}
			}
		}

		stats := summarize(pop, gen)
		res.Generations = gen
		if stats.Best > res.Score {
			top := pop[fittest(pop)]
			res.Best, res.Score = top.g, top.score
			steady = 0
		} else {
			steady++
		}
		stats.BestEver = res.Score
		stats.Steady = steady

		if e.cfg.OnGeneration != nil {
			e.cfg.OnGeneration(stats)
		}
		e.logger.DebugContext(ctx, "generation completed",
			"generation", gen,
			"best", stats.Best,
			"mean", stats.Mean,
			"steady", steady,
		)

		switch {
		case steady >= e.cfg.SteadyGenerations:
			res.Reason = StopSteadyFitness
		case e.cfg.ConvergenceEpsilon >= 0 && stats.Best-stats.Mean <= e.cfg.ConvergenceEpsilon:
			res.Reason = StopConverged
		case gen >= e.cfg.MaxGenerations:
			res.Reason = StopMaxGenerations
		default:
			continue
		}
		break
	}

	e.logger.InfoContext(ctx, "genetic run finished",
		"generations", res.Generations,
		"score", res.Score,
		"reason", res.Reason.String(),
	)
	return res, nil
}

// step produces the next generation.
func (e *Engine) step(ctx context.Context, fit optimize.Fitness, rng *rand.Rand, pop []individual, gen, length int) ([]individual, error) {
	// Age filter: replace individuals that outlived MaxAge with random immigrants.
	var immigrants []int
	for i := range pop {
		if gen-pop[i].born > e.cfg.MaxAge {
			pop[i] = individual{g: randomGenotype(rng, length), born: gen}
			immigrants = append(immigrants, i)
		}
	}
	if len(immigrants) > 0 {
		if err := e.evaluate(ctx, fit, pop, immigrants); err != nil {
			return nil, err
		}
	}

	offspringCount := int(math.Round(float64(len(pop)) * e.cfg.OffspringFraction))
	survivorCount := len(pop) - offspringCount

	next := make([]individual, 0, len(pop))
	for i := 0; i < survivorCount; i++ {
		next = append(next, pop[tournament(rng, pop, e.cfg.SurvivorTournamentSize)])
	}

	// Select parents, recombine pairwise, then mutate.
	children := make([]representation.Genotype, offspringCount)
	for i := range children {
		children[i] = pop[tournament(rng, pop, e.cfg.OffspringTournamentSize)].g
	}
	for i := 0; i+1 < len(children); i += 2 {
		if length > 1 && rng.Float64() < e.cfg.CrossoverProbability {
			cut := 1 + rng.Intn(length-1)
			a, b, err := representation.Crossover(children[i], children[i+1], cut)
			if err != nil {
				return nil, err
			}
			children[i], children[i+1] = a, b
		}
	}
	fresh := make([]int, 0, offspringCount)
	for _, c := range children {
		next = append(next, individual{g: mutate(rng, c, e.cfg.MutationProbability), born: gen})
		fresh = append(fresh, len(next)-1)
	}

	if err := e.evaluate(ctx, fit, next, fresh); err != nil {
		return nil, err
	}
	return next, nil
}

func (e *Engine) evaluate(ctx context.Context, fit optimize.Fitness, pop []individual, positions []int) error {
	batch := make([]representation.Genotype, len(positions))
	for i, p := range positions {
		batch[i] = pop[p].g
	}
	scores, err := fit.EvaluateAll(ctx, batch)
	if err != nil {
		return err
	}
	for i, p := range positions {
		pop[p].score = scores[i]
	}
	return nil
}

// tournament returns the index of the fittest of size randomly drawn individuals.
func tournament(rng *rand.Rand, pop []individual, size int) int {
	best := rng.Intn(len(pop))
	for i := 1; i < size; i++ {
		if c := rng.Intn(len(pop)); pop[c].score > pop[best].score {
			best = c
		}
	}
	return best
}

func mutate(rng *rand.Rand, g representation.Genotype, p float64) representation.Genotype {
	var flips []int
	for i := 0; i < g.Len(); i++ {
		if rng.Float64() < p {
			flips = append(flips, i)
		}
	}
	if len(flips) == 0 {
		return g
	}
	return g.Flip(flips...)
}

func randomGenotype(rng *rand.Rand, length int) representation.Genotype {
	var ones []int
	for i := 0; i < length; i++ {
		if rng.Intn(2) == 1 {
			ones = append(ones, i)
		}
	}
	return representation.GenotypeOf(length, ones...)
}

func fittest(pop []individual) int {
	best := 0
	for i := range pop {
		if pop[i].score > pop[best].score {
			best = i
		}
	}
	return best
}

func summarize(pop []individual, gen int) Stats {
	s := Stats{Generation: gen, Best: math.Inf(-1), Worst: math.Inf(1)}
	sum := 0.0
	for _, ind := range pop {
		sum += ind.score
		s.Best = max(s.Best, ind.score)
		s.Worst = min(s.Worst, ind.score)
	}
	s.Mean = sum / float64(len(pop))
	return s
}
