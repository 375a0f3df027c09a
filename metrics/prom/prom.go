// Package prom provides a Prometheus implementation of
// rulesynth.MetricsCollector.
package prom

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/rulesynth"
)

// Collector records synthesizer metrics as Prometheus collectors.
type Collector struct {
	IndexBuildsTotal    *prometheus.CounterVec
	IndexRows           prometheus.Gauge
	GenerationsTotal    *prometheus.CounterVec
	GenerationBest      *prometheus.GaugeVec
	GenerationMean      *prometheus.GaugeVec
	OptimizeRunsTotal   *prometheus.CounterVec
	OptimizeDuration    *prometheus.HistogramVec
	OptimizeGenerations *prometheus.HistogramVec
	EvaluationsTotal    *prometheus.CounterVec
	RefineRunsTotal     *prometheus.CounterVec
	RefineSteps         *prometheus.HistogramVec
	StoreOpsTotal       *prometheus.CounterVec
	StoreDuration       *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

var _ rulesynth.MetricsCollector = (*Collector)(nil)

// New creates the collectors and registers them with a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	c := newCollector()
	reg.MustRegister(c.collectors()...)
	c.gatherer = reg
	return c
}

// NewWithRegisterer registers the collectors with reg.
func NewWithRegisterer(reg prometheus.Registerer) (*Collector, error) {
	c := newCollector()
	for _, col := range c.collectors() {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		c.gatherer = g
	}
	return c, nil
}

func newCollector() *Collector {
	return &Collector{
		IndexBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rulesynth_index_builds_total",
				Help: "Total categorical index builds by status.",
			},
			[]string{"status"},
		),
		IndexRows: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rulesynth_index_rows",
				Help: "Number of rows in the most recently built index.",
			},
		),
		GenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rulesynth_generations_total",
				Help: "Total genetic algorithm generations by search kind.",
			},
			[]string{"kind"},
		),
		GenerationBest: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rulesynth_generation_best_fitness",
				Help: "Best fitness of the latest generation.",
			},
			[]string{"kind"},
		),
		GenerationMean: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rulesynth_generation_mean_fitness",
				Help: "Mean fitness of the latest generation.",
			},
			[]string{"kind"},
		),
		OptimizeRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rulesynth_optimize_runs_total",
				Help: "Total genetic algorithm runs by kind and status.",
			},
			[]string{"kind", "status"},
		),
		OptimizeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rulesynth_optimize_duration_seconds",
				Help:    "Genetic algorithm run latency in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"kind"},
		),
		OptimizeGenerations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rulesynth_optimize_generations",
				Help:    "Generations per genetic algorithm run.",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 500},
			},
			[]string{"kind"},
		),
		EvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rulesynth_evaluations_total",
				Help: "Total objective evaluations that missed the fitness cache.",
			},
			[]string{"kind"},
		),
		RefineRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rulesynth_refine_runs_total",
				Help: "Total k-flip refinements by kind and status.",
			},
			[]string{"kind", "status"},
		),
		RefineSteps: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rulesynth_refine_steps",
				Help:    "Improving moves per k-flip refinement.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
			},
			[]string{"kind"},
		),
		StoreOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rulesynth_store_operations_total",
				Help: "Total rule-set store operations by operation and status.",
			},
			[]string{"op", "status"},
		),
		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rulesynth_store_duration_seconds",
				Help:    "Rule-set store operation latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"op"},
		),
	}
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.IndexBuildsTotal,
		c.IndexRows,
		c.GenerationsTotal,
		c.GenerationBest,
		c.GenerationMean,
		c.OptimizeRunsTotal,
		c.OptimizeDuration,
		c.OptimizeGenerations,
		c.EvaluationsTotal,
		c.RefineRunsTotal,
		c.RefineSteps,
		c.StoreOpsTotal,
		c.StoreDuration,
	}
}

// Handler returns an HTTP handler exposing the collector's registry.
// It falls back to the default gatherer when the registerer was not a
// gatherer.
func (c *Collector) Handler() http.Handler {
	if c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// RecordIndexBuild implements rulesynth.MetricsCollector.
func (c *Collector) RecordIndexBuild(rows int, _ time.Duration, err error) {
	c.IndexBuildsTotal.WithLabelValues(status(err)).Inc()
	if err == nil {
		c.IndexRows.Set(float64(rows))
	}
}

// RecordGeneration implements rulesynth.MetricsCollector.
func (c *Collector) RecordGeneration(kind string, best, mean float64) {
	c.GenerationsTotal.WithLabelValues(kind).Inc()
	c.GenerationBest.WithLabelValues(kind).Set(best)
	c.GenerationMean.WithLabelValues(kind).Set(mean)
}

// RecordOptimize implements rulesynth.MetricsCollector.
func (c *Collector) RecordOptimize(kind string, generations int, evaluations int64, duration time.Duration, err error) {
	c.OptimizeRunsTotal.WithLabelValues(kind, status(err)).Inc()
	c.OptimizeDuration.WithLabelValues(kind).Observe(duration.Seconds())
	c.OptimizeGenerations.WithLabelValues(kind).Observe(float64(generations))
	c.EvaluationsTotal.WithLabelValues(kind).Add(float64(evaluations))
}

// RecordRefine implements rulesynth.MetricsCollector.
func (c *Collector) RecordRefine(kind string, steps int, _ time.Duration, err error) {
	c.RefineRunsTotal.WithLabelValues(kind, status(err)).Inc()
	c.RefineSteps.WithLabelValues(kind).Observe(float64(steps))
}

// RecordStore implements rulesynth.MetricsCollector.
func (c *Collector) RecordStore(op string, duration time.Duration, err error) {
	c.StoreOpsTotal.WithLabelValues(op, status(err)).Inc()
	c.StoreDuration.WithLabelValues(op).Observe(duration.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
