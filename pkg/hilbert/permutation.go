package hilbert

import (
	"fmt"
	"math/rand"
)

// Permutation is a bijection on {0,...,D-1} (spec §3). Applying it to a
// point reorders the coordinates fed to the Hilbert transform without
// touching the coordinates used for distance computation — those two
// coordinate streams must stay separate (spec §4.2).
type Permutation struct {
	forward []int // forward[i] = source dimension feeding output dimension i
}

// Identity returns the no-op permutation on dim dimensions.
func Identity(dim int) Permutation {
	p := make([]int, dim)
	for i := range p {
		p[i] = i
	}
	return Permutation{forward: p}
}

// Random returns a uniformly random permutation on dim dimensions using
// a Fisher-Yates shuffle seeded by rng.
func Random(dim int, rng *rand.Rand) Permutation {
	p := make([]int, dim)
	for i := range p {
		p[i] = i
	}
	rng.Shuffle(dim, func(i, j int) { p[i], p[j] = p[j], p[i] })
	return Permutation{forward: p}
}

// NewPermutation validates and wraps an explicit bijection.
func NewPermutation(forward []int) (Permutation, error) {
	seen := make([]bool, len(forward))
	for _, v := range forward {
		if v < 0 || v >= len(forward) {
			return Permutation{}, fmt.Errorf("hilbert: permutation entry %d out of range [0,%d)", v, len(forward))
		}
		if seen[v] {
			return Permutation{}, fmt.Errorf("hilbert: permutation entry %d repeated", v)
		}
		seen[v] = true
	}
	return Permutation{forward: append([]int(nil), forward...)}, nil
}

// Dim returns the number of dimensions this permutation acts on.
func (p Permutation) Dim() int { return len(p.forward) }

// Apply writes src reordered by p into dst (which must have the same
// length as src), dst[i] = src[p.forward[i]].
func (p Permutation) Apply(src []uint32, dst []uint32) {
	for i, from := range p.forward {
		dst[i] = src[from]
	}
}

// Permuted returns a freshly allocated reordering of src.
func (p Permutation) Permuted(src []uint32) []uint32 {
	dst := make([]uint32, len(src))
	p.Apply(src, dst)
	return dst
}
