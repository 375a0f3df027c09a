package rulesynth_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hupe1980/rulesynth"
	"github.com/hupe1980/rulesynth/blobstore"
	"github.com/hupe1980/rulesynth/classifier"
	"github.com/hupe1980/rulesynth/dataset"
	"github.com/hupe1980/rulesynth/model"
	"github.com/hupe1980/rulesynth/optimize/genetic"
	"github.com/hupe1980/rulesynth/persistence"
	"github.com/hupe1980/rulesynth/rule"
	"github.com/hupe1980/rulesynth/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScenario(t *testing.T, opts ...rulesynth.Option) (*rulesynth.Synthesizer, *testutil.Scenario) {
	t.Helper()
	sc := testutil.NewScenario()
	s, err := rulesynth.New(sc.Table, opts...)
	require.NoError(t, err)
	return s, sc
}

func candidates(t *testing.T, s *rulesynth.Synthesizer, sc *testutil.Scenario) *rule.Set {
	t.Helper()
	label, err := s.Label(1)
	require.NoError(t, err)

	var members []*rule.Explanation
	for _, m := range []map[*model.Feature][]int{
		{sc.A: {0}},
		{sc.B: {1}},
		{sc.A: {0}, sc.B: {0}},
		{sc.B: {2}},
	} {
		e, err := s.Explain(model.NewConditions(m), label)
		require.NoError(t, err)
		members = append(members, e)
	}
	set, err := rule.NewSet(members...)
	require.NoError(t, err)
	return set
}

func TestNew_Errors(t *testing.T) {
	_, err := rulesynth.New(nil)
	assert.ErrorIs(t, err, rulesynth.ErrInvalidArgument)

	sc := testutil.NewScenario()

	cfg := genetic.DefaultConfig()
	cfg.PopulationSize = 1
	_, err = rulesynth.New(sc.Table, rulesynth.WithGeneticConfig(cfg))
	assert.ErrorIs(t, err, rulesynth.ErrInvalidArgument)
	assert.ErrorIs(t, err, genetic.ErrInvalidConfig)

	_, err = rulesynth.New(sc.Table, rulesynth.WithKFlip(0, 0))
	assert.ErrorIs(t, err, rulesynth.ErrInvalidArgument)

	_, err = rulesynth.New(sc.Table, rulesynth.WithSetWeights(-1, 1, 1, 1))
	assert.ErrorIs(t, err, rulesynth.ErrInvalidArgument)
}

func TestSynthesizer_LabelMismatch(t *testing.T) {
	s, sc := newScenario(t)
	pos, err := s.Label(1)
	require.NoError(t, err)
	neg, err := s.Label(0)
	require.NoError(t, err)

	r1, err := s.Explain(model.NewConditions(map[*model.Feature][]int{sc.A: {0}}), pos)
	require.NoError(t, err)
	r2, err := s.Explain(model.NewConditions(map[*model.Feature][]int{sc.A: {1}}), neg)
	require.NoError(t, err)

	_, err = rule.NewSet(r1, r2)
	require.Error(t, err)
	assert.ErrorIs(t, err, rule.ErrLabelMismatch)

	_, err = s.OptimizeSet(context.Background(), candidates(t, s, sc), rule.EmptySet(neg))
	var lm *rulesynth.ErrLabelMismatch
	require.ErrorAs(t, err, &lm)
	assert.Equal(t, "L=pos", lm.Expected)
	assert.Equal(t, "L=neg", lm.Actual)
}

func TestSynthesizer_OptimizeRule_FindsGlobalOptimum(t *testing.T) {
	s, _ := newScenario(t)
	ctx := context.Background()

	label, err := s.Label(1)
	require.NoError(t, err)
	f := s.Foundation(label)
	values := f.FeatureValues()
	require.Len(t, values, 5)

	// The default population covers all 2^5 subsets in generation zero.
	best := -1.0
	for mask := 0; mask < 1<<len(values); mask++ {
		var selected []model.FeatureValue
		for i, fv := range values {
			if mask&(1<<i) != 0 {
				selected = append(selected, fv)
			}
		}
		e, err := s.Explain(model.FromFeatureValues(selected), label)
		require.NoError(t, err)
		_, score, err := s.RuleTerms(e, len(values))
		require.NoError(t, err)
		best = max(best, score)
	}

	res, err := s.OptimizeRule(ctx, f, nil)
	require.NoError(t, err)
	assert.InDelta(t, best, res.Score, 1e-12)
	assert.True(t, res.Entity.Label().Equal(label))
	assert.Positive(t, res.Generations)
	assert.NotEmpty(t, res.Reason)
}

func TestSynthesizer_OptimizeSet(t *testing.T) {
	metrics := &rulesynth.BasicMetricsCollector{}
	s, sc := newScenario(t, rulesynth.WithMetricsCollector(metrics), rulesynth.WithEliteRefinement(1))
	ctx := context.Background()
	cands := candidates(t, s, sc)

	res, err := s.OptimizeSet(ctx, cands, nil)
	require.NoError(t, err)

	for i := range cands.Len() {
		_, single, err := s.SetTerms(cands.Subset([]int{i}), cands.Len())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Score, single)
	}
	for _, m := range res.Entity.Members() {
		assert.GreaterOrEqual(t, cands.Index(m), 0)
	}

	again, err := s.OptimizeSet(ctx, cands, nil)
	require.NoError(t, err)
	assert.True(t, res.Entity.Equal(again.Entity))
	assert.Equal(t, res.Score, again.Score)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.IndexBuilds)
	assert.Equal(t, int64(2), stats.OptimizeCount)
	assert.Positive(t, stats.Generations)
	assert.Positive(t, stats.Evaluations)
}

func TestSynthesizer_OptimizeSet_Seeded(t *testing.T) {
	s, sc := newScenario(t)
	cands := candidates(t, s, sc)

	seed := cands.Subset([]int{0})
	res, err := s.OptimizeSet(context.Background(), cands, seed)
	require.NoError(t, err)

	_, seedScore, err := s.SetTerms(seed, cands.Len())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Score, seedScore)
}

func TestSynthesizer_Refine(t *testing.T) {
	s, sc := newScenario(t, rulesynth.WithKFlip(2, 0))
	ctx := context.Background()
	cands := candidates(t, s, sc)

	res, err := s.RefineSet(ctx, cands, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Score, res.StartScore)

	again, err := s.RefineSet(ctx, cands, res.Entity)
	require.NoError(t, err)
	assert.Zero(t, again.Steps)
	assert.Equal(t, res.Score, again.Score)

	label, err := s.Label(1)
	require.NoError(t, err)
	start, err := s.Explain(model.NewConditions(map[*model.Feature][]int{sc.B: {2}}), label)
	require.NoError(t, err)
	rr, err := s.RefineRule(ctx, s.Foundation(label), start)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rr.Score, rr.StartScore)
}

func TestSynthesizer_EmptyCandidates(t *testing.T) {
	s, _ := newScenario(t)
	label, err := s.Label(1)
	require.NoError(t, err)

	_, err = s.OptimizeSet(context.Background(), rule.EmptySet(label), nil)
	assert.ErrorIs(t, err, rulesynth.ErrEmptyCandidates)

	_, err = s.OptimizeRule(context.Background(), nil, nil)
	assert.ErrorIs(t, err, rulesynth.ErrEmptyCandidates)
}

func TestSynthesizer_Cancelled(t *testing.T) {
	s, sc := newScenario(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.OptimizeSet(ctx, candidates(t, s, sc), nil)
	assert.ErrorIs(t, err, context.Canceled)
	if res != nil {
		assert.Equal(t, "cancelled", res.Reason)
	}
}

func TestSynthesizer_Collect(t *testing.T) {
	var logs bytes.Buffer
	sc := testutil.NewScenario()
	ctx := context.Background()

	clf := classifier.Func(func(_ context.Context, row []int) (int, error) {
		return 1 - row[0], nil
	})
	s, err := rulesynth.NewFromClassifier(ctx, sc.Table, clf,
		rulesynth.WithLogger(rulesynth.NewTextLogger(&logs, slog.LevelInfo)),
	)
	require.NoError(t, err)

	explainer := classifier.ExplainerFunc(func(_ context.Context, row []int) (model.Conditions, error) {
		if row[1] == 2 {
			return model.Conditions{}, errors.New("no anchor")
		}
		return model.NewConditions(map[*model.Feature][]int{sc.A: {row[0]}}), nil
	})
	pools, err := s.Collect(ctx, explainer, nil)
	require.NoError(t, err)
	require.Len(t, pools, 2)

	res, err := s.OptimizeSet(ctx, pools[1], nil)
	require.NoError(t, err)
	// The relabelled target is exactly A=0.
	_, score, err := s.SetTerms(res.Entity, pools[1].Len())
	require.NoError(t, err)
	assert.Equal(t, res.Score, score)
	assert.Contains(t, res.Entity.String(), "A = a0")
	assert.Contains(t, logs.String(), "candidates collected")
	assert.Contains(t, logs.String(), "local explainer failed")

	_, err = s.Collect(ctx, explainer, []model.RowID{3, 25})
	assert.ErrorIs(t, err, rulesynth.ErrInvalidArgument)
	assert.ErrorIs(t, err, dataset.ErrRowOutOfRange)
}

func TestSynthesizer_SaveLoad(t *testing.T) {
	ctx := context.Background()
	metrics := &rulesynth.BasicMetricsCollector{}

	s, sc := newScenario(t)
	_, err := s.Save(ctx, "x", candidates(t, s, sc))
	assert.ErrorIs(t, err, rulesynth.ErrNoRepository)
	_, err = s.Load(ctx, "x")
	assert.ErrorIs(t, err, rulesynth.ErrNoRepository)

	s, sc = newScenario(t,
		rulesynth.WithStore(blobstore.NewLocalStore(t.TempDir())),
		rulesynth.WithCompression(persistence.CompressionLZ4),
		rulesynth.WithMetricsCollector(metrics),
	)
	cands := candidates(t, s, sc)

	key, err := s.Save(ctx, "scenario/pos", cands)
	require.NoError(t, err)
	assert.Contains(t, key, "scenario/pos/")

	loaded, err := s.Load(ctx, "scenario/pos")
	require.NoError(t, err)
	assert.True(t, cands.Equal(loaded))
	for i := range cands.Len() {
		assert.Equal(t, cands.Member(i).Counts(), loaded.Member(i).Counts())
	}

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, rulesynth.ErrNotFound)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.SaveCount)
	assert.Equal(t, int64(2), stats.LoadCount)
	assert.Equal(t, int64(1), stats.StoreErrors)
}
