package coverage

import (
	"testing"

	"github.com/hupe1980/rulesynth/index"
	"github.com/hupe1980/rulesynth/model"
	"github.com/hupe1980/rulesynth/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculator_PartitionHolds(t *testing.T) {
	rng := testutil.NewRNG(42)
	tbl := testutil.RandomTable(rng, 300, []int{2, 3, 4, 5}, 3)
	idx, err := index.Build(tbl)
	require.NoError(t, err)
	calc := NewCalculator(idx)

	for i := 0; i < 100; i++ {
		conds := testutil.RandomConditions(rng, tbl)
		l := model.Label{Feature: tbl.Label(), Value: rng.Intn(3)}

		res := calc.Compute(conds, l)
		require.NoError(t, res.Validate(tbl.NumRows()), conds.Key())

		counts := res.Counts()
		assert.Equal(t, tbl.NumRows(), counts.Total())
		assert.Equal(t, counts, calc.Count(conds, l), conds.Key())
	}
}

func TestCalculator_MatchesBruteForce(t *testing.T) {
	s := testutil.NewScenario()
	idx, err := index.Build(s.Table)
	require.NoError(t, err)
	calc := NewCalculator(idx)

	conds := model.NewConditions(map[*model.Feature][]int{s.A: {0}})
	l := model.Label{Feature: s.L, Value: 1}

	counts := calc.Count(conds, l)
	assert.Equal(t, len(testutil.ScanRows(s.Table, conds)), counts.Covered)
	assert.Equal(t, testutil.CountCorrect(s.Table, conds, 1), counts.CorrectlyCovered)

	positives := 0
	for _, v := range testutil.ScenarioL {
		if v == 1 {
			positives++
		}
	}
	assert.Equal(t, positives-counts.CorrectlyCovered, counts.IncorrectlyNotCovered)
}

func TestCalculator_EmptyConditionsCoverNothing(t *testing.T) {
	s := testutil.NewScenario()
	idx, err := index.Build(s.Table)
	require.NoError(t, err)
	calc := NewCalculator(idx)

	res := calc.Compute(model.Conditions{}, model.Label{Feature: s.L, Value: 0})
	assert.True(t, res.Covered.IsEmpty())
	assert.Equal(t, 20, res.Counts().NotCovered())
	require.NoError(t, res.Validate(20))
}

func TestResult_ValidateDetectsBrokenPartition(t *testing.T) {
	s := testutil.NewScenario()
	idx, err := index.Build(s.Table)
	require.NoError(t, err)
	calc := NewCalculator(idx)

	res := calc.Compute(model.NewConditions(map[*model.Feature][]int{s.B: {1}}), model.Label{Feature: s.L, Value: 1})
	broken := res
	broken.IncorrectlyCovered = broken.Covered.Clone()
	assert.ErrorIs(t, broken.Validate(20), ErrPartition)

	broken = res
	broken.CorrectlyNotCovered = broken.Covered.Clone()
	assert.ErrorIs(t, broken.Validate(20), ErrPartition)

	broken = res
	broken.Covered = nil
	assert.ErrorIs(t, broken.Validate(20), ErrPartition)
}
