package rulesynth

import (
	"log/slog"
	"slices"

	"github.com/hupe1980/rulesynth/blobstore"
	"github.com/hupe1980/rulesynth/optimize"
	"github.com/hupe1980/rulesynth/optimize/genetic"
	"github.com/hupe1980/rulesynth/persistence"
	"github.com/hupe1980/rulesynth/resource"
)

// Default k-flip settings.
const (
	DefaultKFlipK        = 1
	DefaultKFlipMaxSteps = 0
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	rc               *resource.Controller
	minimalCovers    bool
	ruleWeights      []float64
	setWeights       []float64
	genetic          genetic.Config
	eliteK           int
	kflipK           int
	kflipMaxSteps    int
	cacheSize        int
	store            blobstore.Store
	compression      persistence.CompressionType
}

// Option configures a Synthesizer.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := rulesynth.NewJSONLogger(os.Stderr, slog.LevelInfo)
//	s, _ := rulesynth.New(ds, rulesynth.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger on stderr with the specified level and sets it.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(nil, level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &rulesynth.BasicMetricsCollector{}
//	s, _ := rulesynth.New(ds, rulesynth.WithMetricsCollector(metrics))
//	// ... optimize ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithResourceController sets the worker pool used for fitness evaluation,
// classifier calls and explainer calls. Nil evaluates sequentially.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithMinimalCovers makes rules drop condition values that do not change
// the covered rows.
func WithMinimalCovers() Option {
	return func(o *options) {
		o.minimalCovers = true
	}
}

// WithRuleWeights sets the precision, recall and simplicity weights of the
// single-rule objective.
func WithRuleWeights(precision, recall, simplicity float64) Option {
	return func(o *options) {
		o.ruleWeights = []float64{precision, recall, simplicity}
	}
}

// WithSetWeights sets the accuracy, simplicity, distinctness and
// completeness weights of the rule-set objective.
func WithSetWeights(accuracy, simplicity, distinctness, completeness float64) Option {
	return func(o *options) {
		o.setWeights = []float64{accuracy, simplicity, distinctness, completeness}
	}
}

// WithGeneticConfig replaces the genetic algorithm configuration.
// EliteRefiner is ignored; use WithEliteRefinement. OnGeneration is called
// after the Synthesizer's own logging and metrics.
func WithGeneticConfig(cfg genetic.Config) Option {
	return func(o *options) {
		o.genetic = cfg
	}
}

// WithEliteRefinement applies a k-flip search with the given neighborhood
// size to the best individual of every generation. 0 disables it.
func WithEliteRefinement(k int) Option {
	return func(o *options) {
		o.eliteK = k
	}
}

// WithKFlip configures the standalone k-flip refinement.
// maxSteps 0 means unbounded.
func WithKFlip(k, maxSteps int) Option {
	return func(o *options) {
		o.kflipK = k
		o.kflipMaxSteps = maxSteps
	}
}

// WithCacheSize sets the number of memoized fitness scores per run.
// Values <= 0 disable memoization.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithStore enables Save and Load on the given blob store.
func WithStore(store blobstore.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithCompression sets the compression of saved rule sets.
func WithCompression(ct persistence.CompressionType) Option {
	return func(o *options) {
		o.compression = ct
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		genetic:          genetic.DefaultConfig(),
		kflipK:           DefaultKFlipK,
		kflipMaxSteps:    DefaultKFlipMaxSteps,
		cacheSize:        optimize.DefaultCacheSize,
		compression:      persistence.CompressionZSTD,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	o.ruleWeights = slices.Clone(o.ruleWeights)
	o.setWeights = slices.Clone(o.setWeights)
	return o
}
