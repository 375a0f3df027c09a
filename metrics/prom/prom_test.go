package prom

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rulesynth"
	"github.com/hupe1980/rulesynth/optimize/genetic"
	scenario "github.com/hupe1980/rulesynth/testutil"
)

func TestCollector_Records(t *testing.T) {
	c := New()

	c.RecordIndexBuild(20, time.Millisecond, nil)
	c.RecordIndexBuild(0, time.Millisecond, errors.New("x"))
	c.RecordGeneration("set", 0.8, 0.6)
	c.RecordGeneration("set", 0.9, 0.7)
	c.RecordOptimize("set", 2, 17, 10*time.Millisecond, nil)
	c.RecordRefine("rule", 3, time.Millisecond, nil)
	c.RecordStore("save", time.Millisecond, nil)
	c.RecordStore("load", time.Millisecond, errors.New("x"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.IndexBuildsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.IndexBuildsTotal.WithLabelValues("error")))
	assert.Equal(t, 20.0, testutil.ToFloat64(c.IndexRows))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.GenerationsTotal.WithLabelValues("set")))
	assert.Equal(t, 0.9, testutil.ToFloat64(c.GenerationBest.WithLabelValues("set")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.OptimizeRunsTotal.WithLabelValues("set", "ok")))
	assert.Equal(t, 17.0, testutil.ToFloat64(c.EvaluationsTotal.WithLabelValues("set")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RefineRunsTotal.WithLabelValues("rule", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOpsTotal.WithLabelValues("load", "error")))
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.RecordIndexBuild(5, time.Millisecond, nil)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "rulesynth_index_rows 5")
}

func TestNewWithRegisterer_Duplicate(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewWithRegisterer(reg)
	require.NoError(t, err)
	_, err = NewWithRegisterer(reg)
	assert.Error(t, err)
}

func TestCollector_WithSynthesizer(t *testing.T) {
	c := New()
	sc := scenario.NewScenario()

	cfg := genetic.DefaultConfig()
	cfg.MaxGenerations = 3
	s, err := rulesynth.New(sc.Table,
		rulesynth.WithMetricsCollector(c),
		rulesynth.WithGeneticConfig(cfg),
	)
	require.NoError(t, err)

	label, err := s.Label(1)
	require.NoError(t, err)
	_, err = s.OptimizeRule(context.Background(), s.Foundation(label), nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.OptimizeRunsTotal.WithLabelValues("rule", "ok")))
	assert.LessOrEqual(t, testutil.ToFloat64(c.GenerationsTotal.WithLabelValues("rule")), 3.0)
	assert.Positive(t, testutil.ToFloat64(c.GenerationsTotal.WithLabelValues("rule")))
}
