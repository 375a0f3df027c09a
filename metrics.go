package rulesynth

import (
	"math"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; see
// metrics/prom for a Prometheus implementation.
type MetricsCollector interface {
	// RecordIndexBuild is called after the categorical index is built.
	RecordIndexBuild(rows int, duration time.Duration, err error)

	// RecordGeneration is called after each GA generation with its best and
	// mean fitness.
	RecordGeneration(kind string, best, mean float64)

	// RecordOptimize is called after each GA run. evaluations counts
	// objective evaluations that missed the fitness cache.
	RecordOptimize(kind string, generations int, evaluations int64, duration time.Duration, err error)

	// RecordRefine is called after each k-flip search.
	RecordRefine(kind string, steps int, duration time.Duration, err error)

	// RecordStore is called after each Save ("save") or Load ("load").
	RecordStore(op string, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIndexBuild(int, time.Duration, error)              {}
func (NoopMetricsCollector) RecordGeneration(string, float64, float64)               {}
func (NoopMetricsCollector) RecordOptimize(string, int, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordRefine(string, int, time.Duration, error)          {}
func (NoopMetricsCollector) RecordStore(string, time.Duration, error)                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IndexBuilds        atomic.Int64
	IndexRows          atomic.Int64
	Generations        atomic.Int64
	OptimizeCount      atomic.Int64
	OptimizeErrors     atomic.Int64
	OptimizeTotalNanos atomic.Int64
	Evaluations        atomic.Int64
	RefineCount        atomic.Int64
	RefineErrors       atomic.Int64
	RefineSteps        atomic.Int64
	SaveCount          atomic.Int64
	LoadCount          atomic.Int64
	StoreErrors        atomic.Int64

	bestBits atomic.Uint64
}

// RecordIndexBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndexBuild(rows int, _ time.Duration, err error) {
	if err != nil {
		return
	}
	b.IndexBuilds.Add(1)
	b.IndexRows.Store(int64(rows))
}

// RecordGeneration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGeneration(_ string, best, _ float64) {
	b.Generations.Add(1)
	b.bestBits.Store(math.Float64bits(best))
}

// RecordOptimize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOptimize(_ string, _ int, evaluations int64, duration time.Duration, err error) {
	b.OptimizeCount.Add(1)
	b.OptimizeTotalNanos.Add(duration.Nanoseconds())
	b.Evaluations.Add(evaluations)
	if err != nil {
		b.OptimizeErrors.Add(1)
	}
}

// RecordRefine implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRefine(_ string, steps int, _ time.Duration, err error) {
	b.RefineCount.Add(1)
	b.RefineSteps.Add(int64(steps))
	if err != nil {
		b.RefineErrors.Add(1)
	}
}

// RecordStore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStore(op string, _ time.Duration, err error) {
	switch op {
	case "save":
		b.SaveCount.Add(1)
	case "load":
		b.LoadCount.Add(1)
	}
	if err != nil {
		b.StoreErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		IndexBuilds:      b.IndexBuilds.Load(),
		IndexRows:        b.IndexRows.Load(),
		Generations:      b.Generations.Load(),
		LastBest:         math.Float64frombits(b.bestBits.Load()),
		OptimizeCount:    b.OptimizeCount.Load(),
		OptimizeErrors:   b.OptimizeErrors.Load(),
		OptimizeAvgNanos: b.getAvgOptimizeNanos(),
		Evaluations:      b.Evaluations.Load(),
		RefineCount:      b.RefineCount.Load(),
		RefineErrors:     b.RefineErrors.Load(),
		RefineSteps:      b.RefineSteps.Load(),
		SaveCount:        b.SaveCount.Load(),
		LoadCount:        b.LoadCount.Load(),
		StoreErrors:      b.StoreErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgOptimizeNanos() int64 {
	count := b.OptimizeCount.Load()
	if count == 0 {
		return 0
	}
	return b.OptimizeTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	IndexBuilds      int64
	IndexRows        int64
	Generations      int64
	LastBest         float64
	OptimizeCount    int64
	OptimizeErrors   int64
	OptimizeAvgNanos int64
	Evaluations      int64
	RefineCount      int64
	RefineErrors     int64
	RefineSteps      int64
	SaveCount        int64
	LoadCount        int64
	StoreErrors      int64
}
