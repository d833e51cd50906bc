package hilbert

import (
	"math/rand"
	"testing"
)

func TestExactBalancerCentersMedian(t *testing.T) {
	samples := [][]uint32{
		{0, 100},
		{10, 110},
		{20, 120},
		{30, 130},
		{40, 140},
	}
	b := NewExactBalancer(samples, 8)
	half := uint32(1) << 7
	for _, s := range samples {
		balanced := b.Balance(s)
		if s[0] == 20 && balanced[0] != half {
			t.Errorf("median sample dim0 balanced to %d, want %d", balanced[0], half)
		}
		if s[1] == 120 && balanced[1] != half {
			t.Errorf("median sample dim1 balanced to %d, want %d", balanced[1], half)
		}
	}
}

func TestBalanceClampsToRange(t *testing.T) {
	samples := [][]uint32{{0}, {255}}
	b := NewExactBalancer(samples, 8)
	balanced := b.Balance([]uint32{255})
	if balanced[0] > 255 {
		t.Errorf("Balance produced out-of-range coordinate %d", balanced[0])
	}
	balanced = b.Balance([]uint32{0})
	if balanced[0] < 0 {
		t.Errorf("Balance produced negative coordinate %d", balanced[0])
	}
}

func TestBalanceDoesNotMutateInput(t *testing.T) {
	samples := [][]uint32{{5, 5}, {15, 15}}
	b := NewExactBalancer(samples, 8)
	coords := []uint32{5, 5}
	clone := append([]uint32(nil), coords...)
	b.Balance(coords)
	if !equalU32(coords, clone) {
		t.Errorf("Balance mutated its input: got %v, want %v", coords, clone)
	}
}

func TestApproximateBalancerTracksExactOnUniformData(t *testing.T) {
	n := 2000
	points := make([][]uint32, n)
	for i := 0; i < n; i++ {
		points[i] = []uint32{uint32(i % 256)}
	}
	rng := rand.New(rand.NewSource(7))
	approx := NewApproximateBalancer(points, n, 8, rng)
	exact := NewExactBalancer(points, 8)

	diff := approx.medians[0] - exact.medians[0]
	if diff < -20 || diff > 20 {
		t.Errorf("approximate median %d too far from exact median %d", approx.medians[0], exact.medians[0])
	}
}

func TestFrugalQuantileConvergesOnConstantStream(t *testing.T) {
	var f frugalQuantile
	for i := 0; i < 50; i++ {
		f.observe(42)
	}
	if f.estimate != 42 {
		t.Errorf("frugalQuantile on a constant stream converged to %d, want 42", f.estimate)
	}
}

func TestFrugalQuantileTracksMonotoneStream(t *testing.T) {
	var f frugalQuantile
	for i := int64(0); i < 1000; i++ {
		f.observe(i)
	}
	if f.estimate < 900 {
		t.Errorf("frugalQuantile estimate %d lagged too far behind a rising stream", f.estimate)
	}
}

func TestIsqrtInt(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 4: 2, 9: 3, 15: 3, 16: 4, 1000000: 1000}
	for n, want := range cases {
		if got := isqrtInt(n); got != want {
			t.Errorf("isqrtInt(%d) = %d, want %d", n, got, want)
		}
	}
}
