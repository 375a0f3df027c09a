package representation

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// Initializer seeds a population of genotypes.
type Initializer interface {
	Initialize(populationSize, length int) ([]Genotype, error)
}

// AscendingOnes enumerates genotypes by increasing Hamming weight: the zero
// vector, then every weight-1 vector, then every weight-2 vector, and so on.
// Vectors of equal weight appear in lexicographic order of their set
// positions. The enumeration restarts from the zero vector when the
// population is larger than 2^length.
type AscendingOnes struct{}

var _ Initializer = AscendingOnes{}

// Initialize implements Initializer.
func (AscendingOnes) Initialize(populationSize, length int) ([]Genotype, error) {
	if err := checkPopulation(populationSize, length); err != nil {
		return nil, err
	}
	out := make([]Genotype, 0, populationSize)
	for len(out) < populationSize {
		for w := 0; w <= length && len(out) < populationSize; w++ {
			combinations(length, w, func(positions []int) bool {
				out = append(out, GenotypeOf(length, positions...))
				return len(out) < populationSize
			})
		}
	}
	return out, nil
}

// WeightTier returns the Hamming weight of the i-th vector in the ascending
// ones enumeration of the given length: the smallest w such that the number
// of vectors with weight at most w exceeds i. Indexes beyond 2^length wrap.
func WeightTier(i, length int) int {
	if i < 0 || length <= 0 {
		return 0
	}
	if length < 63 {
		i %= 1 << uint(length)
	}
	c, cum := 1, 1 // C(length, 0)
	for w := 0; w < length; w++ {
		if cum > i {
			return w
		}
		k := length - w
		if c > math.MaxInt/k {
			return w + 1
		}
		c = c * k / (w + 1)
		if cum > math.MaxInt-c {
			return w + 1
		}
		cum += c
	}
	return length
}

// ForwardExisting seeds the population from an existing genotype. Individual 0
// is the zero vector and individual 1 is the seed itself. Every further
// individual i is the seed with each bit flipped independently with
// probability WeightTier(i, length)/length, so early individuals stay close to
// the seed and later ones drift further, mirroring AscendingOnes.
type ForwardExisting struct {
	seed Genotype

	mu  sync.Mutex
	rng *rand.Rand
}

var _ Initializer = (*ForwardExisting)(nil)

// NewForwardExisting creates the initializer. The random source is seeded for
// reproducible populations.
func NewForwardExisting(seed Genotype, randomSeed int64) *ForwardExisting {
	return &ForwardExisting{seed: seed.Clone(), rng: rand.New(rand.NewSource(randomSeed))}
}

// Initialize implements Initializer.
func (f *ForwardExisting) Initialize(populationSize, length int) ([]Genotype, error) {
	if err := checkPopulation(populationSize, length); err != nil {
		return nil, err
	}
	if f.seed.Len() != length {
		return nil, fmt.Errorf("%w: seed has %d positions, want %d", ErrLengthMismatch, f.seed.Len(), length)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Genotype, 0, populationSize)
	for i := 0; i < populationSize; i++ {
		switch i {
		case 0:
			out = append(out, NewGenotype(length))
		case 1:
			out = append(out, f.seed.Clone())
		default:
			p := float64(WeightTier(i, length)) / float64(length)
			g := f.seed.Clone()
			for pos := 0; pos < length; pos++ {
				if f.rng.Float64() < p {
					g.bits.Flip(uint(pos))
				}
			}
			out = append(out, g)
		}
	}
	return out, nil
}

func checkPopulation(populationSize, length int) error {
	if populationSize < 0 || length < 0 {
		return fmt.Errorf("%w: population %d, length %d", ErrInvalidPopulation, populationSize, length)
	}
	return nil
}

// combinations calls fn with every k-subset of [0, n) in lexicographic order
// until fn returns false. The slice passed to fn is reused.
func combinations(n, k int, fn func([]int) bool) {
	if k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		if !fn(idx) {
			return
		}
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
