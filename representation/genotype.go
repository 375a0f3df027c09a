package representation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

var (
	// ErrNotInitialized is returned when a translator is used before Initialize.
	ErrNotInitialized = errors.New("translator not initialized")
	// ErrAlreadyInitialized is returned when Initialize is called twice.
	ErrAlreadyInitialized = errors.New("translator already initialized")
	// ErrLengthMismatch is returned when a genotype does not have the expected length.
	ErrLengthMismatch = errors.New("genotype length mismatch")
	// ErrNotRepresentable is returned when an entity uses a position outside
	// the translator's foundation.
	ErrNotRepresentable = errors.New("entity not representable")
	// ErrInvalidPopulation is returned for a negative population size or length.
	ErrInvalidPopulation = errors.New("invalid population parameters")
)

// Genotype is an immutable fixed-length bit vector.
type Genotype struct {
	bits *bitset.BitSet
	n    int
}

// NewGenotype returns the all-zero genotype of the given length.
func NewGenotype(n int) Genotype {
	return Genotype{bits: bitset.New(uint(n)), n: n}
}

// GenotypeOf returns a genotype of length n with the given positions set.
func GenotypeOf(n int, positions ...int) Genotype {
	g := NewGenotype(n)
	for _, p := range positions {
		if p >= 0 && p < n {
			g.bits.Set(uint(p))
		}
	}
	return g
}

// ParseGenotype parses a string of '0' and '1' characters, position 0 first.
func ParseGenotype(s string) (Genotype, error) {
	g := NewGenotype(len(s))
	for i, c := range s {
		switch c {
		case '1':
			g.bits.Set(uint(i))
		case '0':
		default:
			return Genotype{}, fmt.Errorf("invalid genotype character %q at %d", c, i)
		}
	}
	return g, nil
}

// Len returns the number of positions.
func (g Genotype) Len() int { return g.n }

// Test reports whether position i is set.
func (g Genotype) Test(i int) bool {
	if g.bits == nil || i < 0 || i >= g.n {
		return false
	}
	return g.bits.Test(uint(i))
}

// Weight returns the Hamming weight.
func (g Genotype) Weight() int {
	if g.bits == nil {
		return 0
	}
	return int(g.bits.Count())
}

// Ones returns the set positions in ascending order.
func (g Genotype) Ones() []int {
	out := make([]int, 0, g.Weight())
	if g.bits == nil {
		return out
	}
	for i, ok := g.bits.NextSet(0); ok && int(i) < g.n; i, ok = g.bits.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// Flip returns a copy with the given positions inverted.
func (g Genotype) Flip(positions ...int) Genotype {
	out := g.Clone()
	for _, p := range positions {
		if p >= 0 && p < out.n {
			out.bits.Flip(uint(p))
		}
	}
	return out
}

// Clone returns a deep copy.
func (g Genotype) Clone() Genotype {
	if g.bits == nil {
		return NewGenotype(g.n)
	}
	return Genotype{bits: g.bits.Clone(), n: g.n}
}

// Equal reports whether both genotypes have the same length and bits.
func (g Genotype) Equal(other Genotype) bool {
	if g.n != other.n {
		return false
	}
	for i := 0; i < g.n; i++ {
		if g.Test(i) != other.Test(i) {
			return false
		}
	}
	return true
}

// Key returns a compact string usable as a map key.
func (g Genotype) Key() string {
	return g.String()
}

// String renders the genotype as '0'/'1' characters, position 0 first.
func (g Genotype) String() string {
	var sb strings.Builder
	sb.Grow(g.n)
	for i := 0; i < g.n; i++ {
		if g.Test(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Crossover performs single-point crossover at cut, returning both children.
// Positions before cut come from the first parent in the first child.
func Crossover(a, b Genotype, cut int) (Genotype, Genotype, error) {
	if a.n != b.n {
		return Genotype{}, Genotype{}, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, a.n, b.n)
	}
	c1, c2 := NewGenotype(a.n), NewGenotype(a.n)
	for i := 0; i < a.n; i++ {
		x, y := a.Test(i), b.Test(i)
		if i >= cut {
			x, y = y, x
		}
		if x {
			c1.bits.Set(uint(i))
		}
		if y {
			c2.bits.Set(uint(i))
		}
	}
	return c1, c2, nil
}
