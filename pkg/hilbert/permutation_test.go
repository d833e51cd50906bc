package hilbert

import (
	"math/rand"
	"testing"
)

func TestIdentityPermutation(t *testing.T) {
	p := Identity(4)
	src := []uint32{10, 20, 30, 40}
	if got := p.Permuted(src); !equalU32(got, src) {
		t.Errorf("Identity permutation changed %v to %v", src, got)
	}
}

func TestRandomPermutationIsBijection(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := Random(6, rng)
	seen := make([]bool, 6)
	for i := 0; i < 6; i++ {
		from := p.forward[i]
		if from < 0 || from >= 6 || seen[from] {
			t.Fatalf("Random(6) produced a non-bijective forward map: %v", p.forward)
		}
		seen[from] = true
	}
}

func TestPermutationRoundTripsCoordinates(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := Random(5, rng)
	src := []uint32{1, 2, 3, 4, 5}
	permuted := p.Permuted(src)

	inverse := make([]int, p.Dim())
	for i, from := range p.forward {
		inverse[from] = i
	}
	inv, err := NewPermutation(inverse)
	if err != nil {
		t.Fatalf("inverse permutation invalid: %v", err)
	}
	back := inv.Permuted(permuted)
	if !equalU32(back, src) {
		t.Errorf("permute-then-unpermute gave %v, want %v", back, src)
	}
}

func TestNewPermutationRejectsNonBijection(t *testing.T) {
	if _, err := NewPermutation([]int{0, 0, 2}); err == nil {
		t.Errorf("expected an error for a repeated entry")
	}
	if _, err := NewPermutation([]int{0, 1, 5}); err == nil {
		t.Errorf("expected an error for an out-of-range entry")
	}
}

func equalU32(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
