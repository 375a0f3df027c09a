package representation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenotype(t *testing.T) {
	g := GenotypeOf(6, 1, 4, 9)
	assert.Equal(t, 6, g.Len())
	assert.Equal(t, 2, g.Weight())
	assert.Equal(t, []int{1, 4}, g.Ones())
	assert.Equal(t, "010010", g.String())

	f := g.Flip(0, 4)
	assert.Equal(t, "110000", f.String())
	assert.Equal(t, "010010", g.String(), "flip must not mutate the receiver")

	assert.True(t, g.Equal(GenotypeOf(6, 4, 1)))
	assert.False(t, g.Equal(GenotypeOf(7, 1, 4)))
	assert.False(t, g.Test(-1))
	assert.False(t, g.Test(6))

	var zero Genotype
	assert.Equal(t, 0, zero.Weight())
	assert.Empty(t, zero.Ones())
	assert.Equal(t, "", zero.String())
}

func TestParseGenotype(t *testing.T) {
	g, err := ParseGenotype("10110")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3}, g.Ones())

	_, err = ParseGenotype("10x")
	assert.Error(t, err)
}

func TestCrossover(t *testing.T) {
	a, _ := ParseGenotype("11111")
	b, _ := ParseGenotype("00000")

	c1, c2, err := Crossover(a, b, 2)
	require.NoError(t, err)
	assert.Equal(t, "11000", c1.String())
	assert.Equal(t, "00111", c2.String())

	_, _, err = Crossover(a, NewGenotype(4), 1)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}
