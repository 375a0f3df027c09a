package index

import (
	"testing"

	"github.com/hupe1980/rulesynth/bitmap"
	"github.com/hupe1980/rulesynth/model"
	"github.com/hupe1980/rulesynth/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorical_QuerySingleValue(t *testing.T) {
	s := testutil.NewScenario()
	idx, err := Build(s.Table)
	require.NoError(t, err)

	got := idx.Query(model.FeatureValue{Feature: s.A, Value: 0})

	var want []model.RowID
	for r, v := range testutil.ScenarioA {
		if v == 0 {
			want = append(want, model.RowID(r))
		}
	}
	assert.Equal(t, want, got.ToArray())
}

func TestCategorical_QueryConditionsMatchesScan(t *testing.T) {
	s := testutil.NewScenario()
	idx, err := Build(s.Table)
	require.NoError(t, err)

	tests := []struct {
		name  string
		conds map[*model.Feature][]int
	}{
		{"A=0", map[*model.Feature][]int{s.A: {0}}},
		{"B in {0,2}", map[*model.Feature][]int{s.B: {0, 2}}},
		{"A=1 and B=1", map[*model.Feature][]int{s.A: {1}, s.B: {1}}},
		{"A in {0,1} and B=2", map[*model.Feature][]int{s.A: {0, 1}, s.B: {2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := model.NewConditions(tt.conds)
			got := idx.QueryConditions(c).ToArray()
			if len(got) == 0 {
				got = []model.RowID{}
			}
			assert.Equal(t, testutil.ScanRows(s.Table, c), got)
		})
	}
}

func TestCategorical_EmptyResults(t *testing.T) {
	s := testutil.NewScenario()
	idx, err := Build(s.Table)
	require.NoError(t, err)

	assert.True(t, idx.QueryValues(s.A, nil).IsEmpty(), "empty value set")
	assert.True(t, idx.QueryConditions(model.Conditions{}).IsEmpty(), "empty condition map")

	unknownFeature := model.MustCategorical("C", "x")
	assert.True(t, idx.Query(model.FeatureValue{Feature: unknownFeature, Value: 0}).IsEmpty())

	unobserved, err := model.NewCategoricalDomain("A", []int{0, 1, 9}, nil)
	require.NoError(t, err)
	assert.True(t, idx.Query(model.FeatureValue{Feature: unobserved, Value: 9}).IsEmpty())

	c := model.NewConditions(map[*model.Feature][]int{s.B: {0}, unknownFeature: {0}})
	assert.True(t, idx.QueryConditions(c).IsEmpty())
}

func TestCategorical_FullDomainCoversRowsWithValue(t *testing.T) {
	a := model.MustCategorical("a", "x", "y", "z")
	y := model.MustCategorical("y", "no", "yes")
	rng := testutil.NewRNG(3)
	col := make([]int, 100)
	labels := make([]int, 100)
	withValue := bitmap.New()
	for i := range col {
		if rng.Intn(5) == 0 {
			col[i] = model.Missing
			continue
		}
		col[i] = rng.Intn(3)
		withValue.Add(model.RowID(i))
	}
	tbl, err := datasetOf(a, col, y, labels)
	require.NoError(t, err)

	idx, err := Build(tbl)
	require.NoError(t, err)

	assert.True(t, withValue.Equals(idx.QueryValues(a, a.Domain())))
}

func TestCategorical_QueriesDoNotMutateIndex(t *testing.T) {
	s := testutil.NewScenario()
	idx, err := Build(s.Table)
	require.NoError(t, err)

	fv := model.FeatureValue{Feature: s.A, Value: 0}
	before := idx.Query(fv).Cardinality()

	q := idx.Query(fv)
	q.Add(999)
	u := idx.QueryValues(s.A, []int{0})
	u.Clear()
	c := idx.QueryConditions(model.NewConditions(map[*model.Feature][]int{s.A: {0}}))
	c.Clear()

	assert.Equal(t, before, idx.Query(fv).Cardinality())
}

func TestCategorical_Intersects(t *testing.T) {
	s := testutil.NewScenario()
	idx, err := Build(s.Table)
	require.NoError(t, err)

	a0 := model.FeatureValue{Feature: s.A, Value: 0}
	rows := idx.Query(a0)
	require.False(t, rows.IsEmpty())

	for _, r := range rows.ToArray() {
		assert.True(t, idx.Intersects(a0, bitmap.Of(r)))
	}
	assert.False(t, idx.Intersects(model.FeatureValue{Feature: s.A, Value: 1}, rows))
	assert.False(t, idx.Intersects(a0, bitmap.New()))
	assert.False(t, idx.Intersects(a0, nil))
	assert.False(t, idx.Intersects(model.FeatureValue{Feature: s.A, Value: 7}, idx.All()))

	// The posting list is read in place, not handed out.
	before := idx.Query(a0).Cardinality()
	idx.Intersects(a0, idx.All())
	assert.Equal(t, before, idx.Query(a0).Cardinality())
}

func TestCategorical_TrainTestFeatureInstances(t *testing.T) {
	s := testutil.NewScenario()
	idx, err := Build(s.Table)
	require.NoError(t, err)

	other := model.MustCategorical("A", "a0", "a1")
	assert.True(t, idx.Query(model.FeatureValue{Feature: s.A, Value: 1}).
		Equals(idx.Query(model.FeatureValue{Feature: other, Value: 1})))
}

func TestCategorical_MetadataAndStats(t *testing.T) {
	s := testutil.NewScenario()
	idx, err := Build(s.Table)
	require.NoError(t, err)

	assert.Equal(t, 20, idx.NumRows())
	assert.Equal(t, 20, idx.All().Cardinality())
	assert.Equal(t, []int{0, 1, 2}, idx.ObservedValues("B"))
	assert.Equal(t, s.L, idx.Label())
	assert.Len(t, idx.Features(), 2)

	st := idx.Stats()
	assert.Equal(t, 3, st.Columns)
	assert.Equal(t, 2+3+2, st.PostingLists)
	assert.Equal(t, 3, st.ValuesPerName["B"])
	assert.Positive(t, st.SizeInBytes)
}
