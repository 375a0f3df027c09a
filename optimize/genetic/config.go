package genetic

import (
	"errors"
	"fmt"

	"github.com/hupe1980/rulesynth/optimize"
)

// ErrInvalidConfig is returned for out-of-range tunables.
var ErrInvalidConfig = errors.New("invalid genetic algorithm config")

// Config holds the tunables of a run.
type Config struct {
	// PopulationSize is the number of individuals per generation.
	PopulationSize int
	// CrossoverProbability is the chance that a parent pair is recombined.
	CrossoverProbability float64
	// MutationProbability is the per-bit flip probability for offspring.
	MutationProbability float64
	// OffspringFraction is the share of each generation bred from parents.
	// The rest are survivors of the previous generation.
	OffspringFraction float64
	// MaxAge is the number of generations an individual may live.
	// Older individuals are replaced by random immigrants.
	MaxAge int
	// OffspringTournamentSize is the tournament size for parent selection.
	OffspringTournamentSize int
	// SurvivorTournamentSize is the tournament size for survivor selection.
	SurvivorTournamentSize int
	// SteadyGenerations stops the run after this many generations without
	// improvement of the best score.
	SteadyGenerations int
	// ConvergenceEpsilon stops the run once best − mean ≤ epsilon.
	// A negative value disables the check.
	ConvergenceEpsilon float64
	// MaxGenerations bounds the run.
	MaxGenerations int
	// Seed seeds the random source.
	Seed int64
	// EliteRefiner, if set, refines the best individual of every generation.
	EliteRefiner optimize.Refiner
	// OnGeneration, if set, is called after every generation.
	OnGeneration func(Stats)
}

// DefaultConfig returns a config suited to candidate pools of a few dozen
// rules.
func DefaultConfig() Config {
	return Config{
		PopulationSize:          50,
		CrossoverProbability:    0.3,
		MutationProbability:     0.05,
		OffspringFraction:       0.6,
		MaxAge:                  50,
		OffspringTournamentSize: 3,
		SurvivorTournamentSize:  3,
		SteadyGenerations:       15,
		ConvergenceEpsilon:      -1,
		MaxGenerations:          200,
		Seed:                    1,
	}
}

// Validate checks the config.
func (c Config) Validate() error {
	switch {
	case c.PopulationSize < 2:
		return fmt.Errorf("%w: population size %d < 2", ErrInvalidConfig, c.PopulationSize)
	case !unit(c.CrossoverProbability):
		return fmt.Errorf("%w: crossover probability %v", ErrInvalidConfig, c.CrossoverProbability)
	case !unit(c.MutationProbability):
		return fmt.Errorf("%w: mutation probability %v", ErrInvalidConfig, c.MutationProbability)
	case !unit(c.OffspringFraction):
		return fmt.Errorf("%w: offspring fraction %v", ErrInvalidConfig, c.OffspringFraction)
	case c.MaxAge < 1:
		return fmt.Errorf("%w: max age %d < 1", ErrInvalidConfig, c.MaxAge)
	case c.OffspringTournamentSize < 1 || c.SurvivorTournamentSize < 1:
		return fmt.Errorf("%w: tournament sizes must be positive", ErrInvalidConfig)
	case c.SteadyGenerations < 1:
		return fmt.Errorf("%w: steady generations %d < 1", ErrInvalidConfig, c.SteadyGenerations)
	case c.MaxGenerations < 1:
		return fmt.Errorf("%w: max generations %d < 1", ErrInvalidConfig, c.MaxGenerations)
	}
	return nil
}

func unit(p float64) bool {
	return p >= 0 && p <= 1
}
