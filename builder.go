package rulesynth

import (
	"github.com/hupe1980/rulesynth/blobstore"
	"github.com/hupe1980/rulesynth/dataset"
	"github.com/hupe1980/rulesynth/optimize/genetic"
	"github.com/hupe1980/rulesynth/persistence"
	"github.com/hupe1980/rulesynth/resource"
)

// For creates a new Synthesizer builder for ds.
//
// The builder is immutable - each method returns a new builder with the
// updated configuration.
//
// Example:
//
//	s, err := rulesynth.For(tbl).
//	    MinimalCovers().
//	    Population(80).
//	    Generations(300).
//	    EliteRefinement(1).
//	    Workers(4).
//	    Build()
func For(ds dataset.Dataset) Builder {
	return Builder{
		ds:      ds,
		genetic: genetic.DefaultConfig(),
		kflipK:  DefaultKFlipK,
	}
}

// Builder is an immutable fluent builder for Synthesizer instances.
type Builder struct {
	ds            dataset.Dataset
	genetic       genetic.Config
	minimalCovers bool
	ruleWeights   []float64
	setWeights    []float64
	eliteK        int
	kflipK        int
	kflipMaxSteps int
	workers       int64
	callsPerSec   float64
	cacheSize     *int
	logger        *Logger
	metrics       MetricsCollector
	store         blobstore.Store
	compression   *persistence.CompressionType
}

// MinimalCovers drops condition values that do not change the covered rows.
func (b Builder) MinimalCovers() Builder {
	b.minimalCovers = true
	return b
}

// RuleWeights sets the precision, recall and simplicity weights.
func (b Builder) RuleWeights(precision, recall, simplicity float64) Builder {
	b.ruleWeights = []float64{precision, recall, simplicity}
	return b
}

// SetWeights sets the accuracy, simplicity, distinctness and completeness weights.
func (b Builder) SetWeights(accuracy, simplicity, distinctness, completeness float64) Builder {
	b.setWeights = []float64{accuracy, simplicity, distinctness, completeness}
	return b
}

// Population sets the GA population size.
// Default: 50.
func (b Builder) Population(n int) Builder {
	b.genetic.PopulationSize = n
	return b
}

// Generations sets the maximum number of GA generations.
// Default: 200.
func (b Builder) Generations(n int) Builder {
	b.genetic.MaxGenerations = n
	return b
}

// Steady stops a GA run after n generations without improvement.
// Default: 15.
func (b Builder) Steady(n int) Builder {
	b.genetic.SteadyGenerations = n
	return b
}

// Converge stops a GA run once best − mean ≤ epsilon.
// Default: disabled.
func (b Builder) Converge(epsilon float64) Builder {
	b.genetic.ConvergenceEpsilon = epsilon
	return b
}

// Crossover sets the crossover probability.
// Default: 0.3.
func (b Builder) Crossover(p float64) Builder {
	b.genetic.CrossoverProbability = p
	return b
}

// Mutation sets the per-bit mutation probability.
// Default: 0.05.
func (b Builder) Mutation(p float64) Builder {
	b.genetic.MutationProbability = p
	return b
}

// Seed sets the random seed for reproducible runs.
func (b Builder) Seed(seed int64) Builder {
	b.genetic.Seed = seed
	return b
}

// EliteRefinement refines the best individual of every generation with a
// k-flip search. 0 disables it.
func (b Builder) EliteRefinement(k int) Builder {
	b.eliteK = k
	return b
}

// KFlip configures standalone refinement. maxSteps 0 means unbounded.
func (b Builder) KFlip(k, maxSteps int) Builder {
	b.kflipK = k
	b.kflipMaxSteps = maxSteps
	return b
}

// Workers sets the number of concurrent fitness evaluations and
// classifier/explainer calls.
func (b Builder) Workers(n int) Builder {
	b.workers = int64(n)
	return b
}

// RateLimit bounds classifier and explainer calls per second.
func (b Builder) RateLimit(callsPerSecond float64) Builder {
	b.callsPerSec = callsPerSecond
	return b
}

// CacheSize sets the number of memoized fitness scores per run.
func (b Builder) CacheSize(n int) Builder {
	b.cacheSize = &n
	return b
}

// Logger sets the logger.
func (b Builder) Logger(l *Logger) Builder {
	b.logger = l
	return b
}

// Metrics sets the metrics collector.
func (b Builder) Metrics(mc MetricsCollector) Builder {
	b.metrics = mc
	return b
}

// Store enables Save and Load on store.
func (b Builder) Store(store blobstore.Store) Builder {
	b.store = store
	return b
}

// Compression sets the compression of saved rule sets.
func (b Builder) Compression(ct persistence.CompressionType) Builder {
	b.compression = &ct
	return b
}

// Options returns the functional options equivalent to the builder.
func (b Builder) Options() []Option {
	opts := []Option{
		WithGeneticConfig(b.genetic),
		WithEliteRefinement(b.eliteK),
		WithKFlip(b.kflipK, b.kflipMaxSteps),
	}
	if b.minimalCovers {
		opts = append(opts, WithMinimalCovers())
	}
	if b.ruleWeights != nil {
		w := b.ruleWeights
		opts = append(opts, WithRuleWeights(w[0], w[1], w[2]))
	}
	if b.setWeights != nil {
		w := b.setWeights
		opts = append(opts, WithSetWeights(w[0], w[1], w[2], w[3]))
	}
	if b.workers > 0 || b.callsPerSec > 0 {
		opts = append(opts, WithResourceController(resource.NewController(resource.Config{
			MaxWorkers:     b.workers,
			CallsPerSecond: b.callsPerSec,
		})))
	}
	if b.cacheSize != nil {
		opts = append(opts, WithCacheSize(*b.cacheSize))
	}
	if b.logger != nil {
		opts = append(opts, WithLogger(b.logger))
	}
	if b.metrics != nil {
		opts = append(opts, WithMetricsCollector(b.metrics))
	}
	if b.store != nil {
		opts = append(opts, WithStore(b.store))
	}
	if b.compression != nil {
		opts = append(opts, WithCompression(*b.compression))
	}
	return opts
}

// Build creates the Synthesizer.
func (b Builder) Build() (*Synthesizer, error) {
	return New(b.ds, b.Options()...)
}
