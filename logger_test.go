package rulesynth

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hupe1980/rulesynth/index"
	"github.com/hupe1980/rulesynth/optimize/genetic"
	"github.com/stretchr/testify/assert"
)

func TestLogger_Helpers(t *testing.T) {
	var buf bytes.Buffer
	l := NewTextLogger(&buf, slog.LevelDebug).WithOperation("test").WithLabel("L=pos")
	ctx := context.Background()

	l.LogIndexBuild(ctx, index.Stats{Rows: 20, Columns: 2}, time.Millisecond, nil)
	l.LogGeneration(ctx, genetic.Stats{Generation: 3, Best: 0.9})
	l.LogOptimize(ctx, "set", 0.9, 3, "steady_fitness", 42, nil)
	l.LogRefine(ctx, "rule", 0.5, 0.7, 2, nil)
	l.LogSave(ctx, "n", "n/00000001.rset", nil)
	l.LogLoad(ctx, "n", 0, errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "op=test")
	assert.Contains(t, out, `label="L=pos"`)
	assert.Contains(t, out, "msg=\"index built\" rows=20")
	assert.Contains(t, out, "generation=3")
	assert.Contains(t, out, "reason=steady_fitness")
	assert.Contains(t, out, "msg=\"refinement completed\"")
	assert.Contains(t, out, "key=n/00000001.rset")
	assert.Contains(t, out, "level=ERROR msg=\"load failed\"")
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
	l.LogOptimize(context.Background(), "set", 0, 0, "", 0, errors.New("ignored"))
}

func TestBasicMetricsCollector(t *testing.T) {
	var mc MetricsCollector = &BasicMetricsCollector{}
	mc.RecordIndexBuild(20, time.Millisecond, nil)
	mc.RecordGeneration("set", 0.75, 0.5)
	mc.RecordOptimize("set", 3, 10, 2*time.Millisecond, nil)
	mc.RecordOptimize("set", 1, 5, 4*time.Millisecond, errors.New("x"))
	mc.RecordRefine("rule", 2, time.Millisecond, nil)
	mc.RecordStore("save", time.Millisecond, nil)
	mc.RecordStore("load", time.Millisecond, errors.New("x"))

	s := mc.(*BasicMetricsCollector).GetStats()
	assert.Equal(t, int64(20), s.IndexRows)
	assert.Equal(t, 0.75, s.LastBest)
	assert.Equal(t, int64(2), s.OptimizeCount)
	assert.Equal(t, int64(1), s.OptimizeErrors)
	assert.Equal(t, int64(3*time.Millisecond), s.OptimizeAvgNanos)
	assert.Equal(t, int64(15), s.Evaluations)
	assert.Equal(t, int64(2), s.RefineSteps)
	assert.Equal(t, int64(1), s.SaveCount)
	assert.Equal(t, int64(1), s.LoadCount)
	assert.Equal(t, int64(1), s.StoreErrors)

	var noop MetricsCollector = NoopMetricsCollector{}
	noop.RecordOptimize("set", 0, 0, 0, nil)
}
