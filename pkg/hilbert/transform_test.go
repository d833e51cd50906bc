package hilbert

import (
	"math/big"
	"testing"
)

func exhaustiveCoords(dim, bitsPerDim int) [][]uint32 {
	total := 1
	for i := 0; i < dim; i++ {
		total *= 1 << uint(bitsPerDim)
	}
	out := make([][]uint32, total)
	for n := 0; n < total; n++ {
		coords := make([]uint32, dim)
		rem := n
		span := 1 << uint(bitsPerDim)
		for d := dim - 1; d >= 0; d-- {
			coords[d] = uint32(rem % span)
			rem /= span
		}
		out[n] = coords
	}
	return out
}

// TestRoundTrip exhaustively checks hilbert_axes(hilbert_index(x)) == x for
// every valid x at a handful of small (D,B) pairs with D·B ≤ 20, per spec §8.
func TestRoundTrip(t *testing.T) {
	cases := []struct{ dim, bits int }{
		{2, 3}, {3, 2}, {2, 4}, {4, 2}, {1, 5}, {5, 1}, {2, 7},
	}
	for _, c := range cases {
		tr, err := New(c.dim, c.bits)
		if err != nil {
			t.Fatalf("New(%d,%d): %v", c.dim, c.bits, err)
		}
		for _, coords := range exhaustiveCoords(c.dim, c.bits) {
			idx, err := tr.Index(coords)
			if err != nil {
				t.Fatalf("Index(%v): %v", coords, err)
			}
			back, err := tr.Axes(idx)
			if err != nil {
				t.Fatalf("Axes: %v", err)
			}
			for i := range coords {
				if back[i] != coords[i] {
					t.Fatalf("D=%d B=%d: round trip of %v gave %v (index %v)", c.dim, c.bits, coords, back, idx)
				}
			}
		}
	}
}

// TestUnitStep checks that consecutive Hilbert indices decode to
// coordinate vectors differing in exactly one dimension by exactly one
// (spec §4.1, §8), exhaustively for small (D,B).
func TestUnitStep(t *testing.T) {
	cases := []struct{ dim, bits int }{
		{2, 4}, {3, 3}, {2, 6}, {4, 2},
	}
	for _, c := range cases {
		tr, err := New(c.dim, c.bits)
		if err != nil {
			t.Fatalf("New(%d,%d): %v", c.dim, c.bits, err)
		}
		total := new(big.Int).Lsh(big.NewInt(1), uint(c.dim*c.bits))
		one := big.NewInt(1)
		prev, err := tr.Axes(big.NewInt(0))
		if err != nil {
			t.Fatal(err)
		}
		for i := big.NewInt(1); i.Cmp(total) < 0; i.Add(i, one) {
			cur, err := tr.Axes(i)
			if err != nil {
				t.Fatalf("Axes(%v): %v", i, err)
			}
			diffDims := 0
			for d := 0; d < c.dim; d++ {
				var delta int64
				if cur[d] > prev[d] {
					delta = int64(cur[d]) - int64(prev[d])
				} else {
					delta = int64(prev[d]) - int64(cur[d])
				}
				if delta != 0 {
					diffDims++
					if delta != 1 {
						t.Fatalf("D=%d B=%d: index %v: dimension %d changed by %d, want 1 (prev=%v cur=%v)", c.dim, c.bits, i, d, delta, prev, cur)
					}
				}
			}
			if diffDims != 1 {
				t.Fatalf("D=%d B=%d: index %v: %d dimensions changed, want exactly 1 (prev=%v cur=%v)", c.dim, c.bits, i, diffDims, prev, cur)
			}
			prev = cur
		}
	}
}

func TestBitsPerDim(t *testing.T) {
	cases := []struct {
		max  uint32
		want int
	}{
		{0, 1}, {1, 1}, {2, 2}, {3, 2}, {4, 3}, {7, 3}, {8, 4}, {255, 8}, {256, 9},
	}
	for _, c := range cases {
		if got := BitsPerDim(c.max); got != c.want {
			t.Errorf("BitsPerDim(%d) = %d, want %d", c.max, got, c.want)
		}
	}
}

func TestDimensionOneIsIdentity(t *testing.T) {
	tr, err := New(1, 6)
	if err != nil {
		t.Fatal(err)
	}
	for v := uint32(0); v < 64; v++ {
		idx, err := tr.Index([]uint32{v})
		if err != nil {
			t.Fatal(err)
		}
		if idx.Cmp(big.NewInt(int64(v))) != 0 {
			t.Errorf("D=1: Index([%d]) = %v, want %d", v, idx, v)
		}
		back, err := tr.Axes(idx)
		if err != nil {
			t.Fatal(err)
		}
		if back[0] != v {
			t.Errorf("D=1: Axes(%v) = %v, want [%d]", idx, back, v)
		}
	}
}

func TestIndexRejectsWrongDimension(t *testing.T) {
	tr, _ := New(3, 4)
	if _, err := tr.Index([]uint32{1, 2}); err == nil {
		t.Errorf("expected an error for a coordinate vector of the wrong length")
	}
}

func TestIndexRejectsOutOfRangeCoordinate(t *testing.T) {
	tr, _ := New(2, 2)
	if _, err := tr.Index([]uint32{1, 16}); err == nil {
		t.Errorf("expected an error for a coordinate exceeding the bit depth")
	}
}
