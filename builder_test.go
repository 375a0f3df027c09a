package rulesynth_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/hupe1980/rulesynth"
	"github.com/hupe1980/rulesynth/blobstore"
	"github.com/hupe1980/rulesynth/persistence"
	"github.com/hupe1980/rulesynth/rule"
	"github.com/hupe1980/rulesynth/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Basic(t *testing.T) {
	sc := testutil.NewScenario()
	s, err := rulesynth.For(sc.Table).Build()
	require.NoError(t, err)
	assert.Equal(t, 20, s.Index().NumRows())
	assert.IsType(t, &rule.StandardFactory{}, s.Factory())
}

func TestBuilder_FullOptions(t *testing.T) {
	sc := testutil.NewScenario()
	var logs bytes.Buffer
	metrics := &rulesynth.BasicMetricsCollector{}

	s, err := rulesynth.For(sc.Table).
		MinimalCovers().
		RuleWeights(2, 1, 0.5).
		SetWeights(1, 0.5, 1, 1).
		Population(20).
		Generations(30).
		Steady(5).
		Converge(0).
		Crossover(0.5).
		Mutation(0.1).
		Seed(42).
		EliteRefinement(1).
		KFlip(2, 10).
		Workers(4).
		RateLimit(1000).
		CacheSize(128).
		Logger(rulesynth.NewJSONLogger(&logs, slog.LevelDebug)).
		Metrics(metrics).
		Store(blobstore.NewMemoryStore()).
		Compression(persistence.CompressionNone).
		Build()
	require.NoError(t, err)
	assert.IsType(t, &rule.MinimalCoversFactory{}, s.Factory())

	res, err := s.OptimizeSet(context.Background(), candidates(t, s, sc), nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Generations, 30)

	assert.Contains(t, logs.String(), `"msg":"index built"`)
	assert.Contains(t, logs.String(), `"msg":"optimization completed"`)
	assert.Equal(t, int64(1), metrics.GetStats().OptimizeCount)

	_, err = s.Save(context.Background(), "b", res.Entity)
	require.NoError(t, err)
}

func TestBuilder_Immutable(t *testing.T) {
	sc := testutil.NewScenario()
	base := rulesynth.For(sc.Table)
	_ = base.Population(1)

	_, err := base.Build()
	require.NoError(t, err)

	_, err = base.Population(1).Build()
	assert.ErrorIs(t, err, rulesynth.ErrInvalidArgument)
}
