package testutil

import (
	"math/rand"
	"strconv"
	"sync"

	"github.com/hupe1980/rulesynth/dataset"
	"github.com/hupe1980/rulesynth/model"
)

// RNG encapsulates a seeded random number generator.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Scenario is the 20-row dataset with features A∈{0,1}, B∈{0,1,2} and label L∈{0,1}.
type Scenario struct {
	Table *dataset.Table
	A     *model.Feature
	B     *model.Feature
	L     *model.Feature
}

// ScenarioA, ScenarioB and ScenarioL are the raw columns of the scenario dataset.
var (
	ScenarioA = []int{0, 0, 1, 0, 1, 1, 0, 0, 1, 0, 1, 1, 0, 0, 0, 1, 1, 0, 1, 0}
	ScenarioB = []int{0, 1, 2, 0, 1, 2, 2, 1, 0, 0, 1, 2, 0, 1, 2, 0, 1, 2, 0, 1}
	ScenarioL = []int{1, 1, 0, 1, 0, 0, 0, 1, 1, 1, 0, 0, 1, 1, 0, 0, 1, 0, 0, 1}
)

// NewScenario builds the scenario dataset.
func NewScenario() *Scenario {
	a := model.MustCategorical("A", "a0", "a1")
	b := model.MustCategorical("B", "b0", "b1", "b2")
	l := model.MustCategorical("L", "neg", "pos")

	tbl, err := dataset.NewBuilder(l).
		Column(a, ScenarioA).
		Column(b, ScenarioB).
		Labels(ScenarioL).
		Build()
	if err != nil {
		panic(err)
	}
	return &Scenario{Table: tbl, A: a, B: b, L: l}
}

// RandomTable builds a dataset with len(domainSizes) features named f0..fn and
// a label with labelSize values, filled uniformly at random.
func RandomTable(rng *RNG, rows int, domainSizes []int, labelSize int) *dataset.Table {
	label := model.MustCategorical("label", names(labelSize)...)
	b := dataset.NewBuilder(label)
	for i, size := range domainSizes {
		f := model.MustCategorical("f"+strconv.Itoa(i), names(size)...)
		col := make([]int, rows)
		for r := range col {
			col[r] = rng.Intn(size)
		}
		b.Column(f, col)
	}
	labels := make([]int, rows)
	for r := range labels {
		labels[r] = rng.Intn(labelSize)
	}
	tbl, err := b.Labels(labels).Build()
	if err != nil {
		panic(err)
	}
	return tbl
}

// RandomConditions draws a condition map over the features of ds where every
// feature is constrained with probability 1/2 to a random subset of its domain.
func RandomConditions(rng *RNG, ds dataset.Dataset) model.Conditions {
	m := make(map[*model.Feature][]int)
	for _, f := range ds.Features() {
		if rng.Intn(2) == 0 {
			continue
		}
		for _, v := range f.Domain() {
			if rng.Intn(2) == 0 {
				m[f] = append(m[f], v)
			}
		}
	}
	return model.NewConditions(m)
}

// Matches reports whether row satisfies every condition of c by scanning ds.
// An empty condition map matches nothing.
func Matches(ds dataset.Dataset, c model.Conditions, row model.RowID) bool {
	if c.IsEmpty() {
		return false
	}
	for _, e := range c.Entries() {
		col, ok := ds.Column(e.Feature.Name())
		if !ok {
			return false
		}
		found := false
		for _, v := range e.Values {
			if col[row] == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ScanRows returns all rows satisfying c, by brute force.
func ScanRows(ds dataset.Dataset, c model.Conditions) []model.RowID {
	out := []model.RowID{}
	for r := 0; r < ds.NumRows(); r++ {
		if Matches(ds, c, model.RowID(r)) {
			out = append(out, model.RowID(r))
		}
	}
	return out
}

// CountCorrect counts rows satisfying c whose label equals labelValue.
func CountCorrect(ds dataset.Dataset, c model.Conditions, labelValue int) int {
	labels, _ := ds.Column(ds.Label().Name())
	n := 0
	for _, r := range ScanRows(ds, c) {
		if labels[r] == labelValue {
			n++
		}
	}
	return n
}

func names(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "v" + strconv.Itoa(i)
	}
	return out
}
