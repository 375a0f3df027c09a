package representation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	r := 1
	for i := 1; i <= k; i++ {
		r = r * (n - k + i) / i
	}
	return r
}

func expectedWeight(i, length int) int {
	cum := 0
	for w := 0; w <= length; w++ {
		cum += binomial(length, w)
		if cum > i {
			return w
		}
	}
	return length
}

func TestAscendingOnes_Order(t *testing.T) {
	pop, err := AscendingOnes{}.Initialize(8, 3)
	require.NoError(t, err)

	want := []string{"000", "100", "010", "001", "110", "101", "011", "111"}
	got := make([]string, len(pop))
	for i, g := range pop {
		got[i] = g.String()
	}
	assert.Equal(t, want, got)
}

func TestAscendingOnes_WeightsAndUniqueness(t *testing.T) {
	for _, tc := range []struct{ population, length int }{
		{1, 1}, {5, 4}, {16, 4}, {30, 6}, {64, 6}, {100, 10},
	} {
		pop, err := AscendingOnes{}.Initialize(tc.population, tc.length)
		require.NoError(t, err)
		require.Len(t, pop, tc.population)

		seen := make(map[string]struct{}, len(pop))
		for i, g := range pop {
			assert.Equal(t, tc.length, g.Len())
			assert.Equal(t, expectedWeight(i, tc.length), g.Weight(), "individual %d of %+v", i, tc)
			assert.Equal(t, expectedWeight(i, tc.length), WeightTier(i, tc.length))
			_, dup := seen[g.Key()]
			assert.False(t, dup, "duplicate individual %s", g)
			seen[g.Key()] = struct{}{}
		}
	}
}

func TestAscendingOnes_Cycles(t *testing.T) {
	pop, err := AscendingOnes{}.Initialize(10, 2)
	require.NoError(t, err)
	require.Len(t, pop, 10)
	for i := 4; i < 10; i++ {
		assert.True(t, pop[i].Equal(pop[i-4]))
	}
}

func TestAscendingOnes_Invalid(t *testing.T) {
	_, err := AscendingOnes{}.Initialize(-1, 3)
	assert.ErrorIs(t, err, ErrInvalidPopulation)

	pop, err := AscendingOnes{}.Initialize(3, 0)
	require.NoError(t, err)
	assert.Len(t, pop, 3)
}

func TestForwardExisting(t *testing.T) {
	seed := GenotypeOf(8, 1, 3, 5)

	pop, err := NewForwardExisting(seed, 42).Initialize(20, 8)
	require.NoError(t, err)
	require.Len(t, pop, 20)
	assert.Equal(t, 0, pop[0].Weight())
	assert.True(t, pop[1].Equal(seed))
	for _, g := range pop {
		assert.Equal(t, 8, g.Len())
	}

	again, err := NewForwardExisting(seed, 42).Initialize(20, 8)
	require.NoError(t, err)
	for i := range pop {
		assert.True(t, pop[i].Equal(again[i]), "same seed must reproduce individual %d", i)
	}

	_, err = NewForwardExisting(seed, 1).Initialize(4, 9)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}
