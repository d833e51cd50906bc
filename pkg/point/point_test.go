package point

import "testing"

func TestDenseInvariants(t *testing.T) {
	ResetIDs()
	coords := []uint32{3, 1, 4, 1, 5}
	p := NewDense(coords)

	var wantSq uint64
	var wantMax uint32
	for _, c := range coords {
		wantSq += uint64(c) * uint64(c)
		if c > wantMax {
			wantMax = c
		}
	}
	if p.SquaredMagnitude() != wantSq {
		t.Errorf("SquaredMagnitude = %d, want %d", p.SquaredMagnitude(), wantSq)
	}
	if p.MaxCoord() != wantMax {
		t.Errorf("MaxCoord = %d, want %d", p.MaxCoord(), wantMax)
	}
	if p.Dim() != len(coords) {
		t.Errorf("Dim = %d, want %d", p.Dim(), len(coords))
	}
}

func TestDenseIdsUnique(t *testing.T) {
	ResetIDs()
	a := NewDense([]uint32{1})
	b := NewDense([]uint32{1})
	if a.ID() == b.ID() {
		t.Errorf("two distinct points got the same id %d", a.ID())
	}
}

func TestSparseMatchesDenseContract(t *testing.T) {
	ResetIDs()
	dense := NewDense([]uint32{0, 7, 0, 3, 0})
	sparse, err := NewSparse(5, 0, []int{1, 3}, []uint32{7, 3})
	if err != nil {
		t.Fatalf("NewSparse: %v", err)
	}

	for i := 0; i < 5; i++ {
		if sparse.Coord(i) != dense.Coord(i) {
			t.Errorf("dim %d: sparse=%d dense=%d", i, sparse.Coord(i), dense.Coord(i))
		}
	}
	if sparse.SquaredMagnitude() != dense.SquaredMagnitude() {
		t.Errorf("SquaredMagnitude mismatch: sparse=%d dense=%d", sparse.SquaredMagnitude(), dense.SquaredMagnitude())
	}
	if sparse.MaxCoord() != dense.MaxCoord() {
		t.Errorf("MaxCoord mismatch: sparse=%d dense=%d", sparse.MaxCoord(), dense.MaxCoord())
	}
}

func TestSparseRejectsDuplicateDimension(t *testing.T) {
	_, err := NewSparse(4, 0, []int{1, 1}, []uint32{2, 3})
	if err == nil {
		t.Errorf("expected an error for a duplicate sparse dimension")
	}
}

func TestSparseRejectsOutOfRangeDimension(t *testing.T) {
	_, err := NewSparse(4, 0, []int{9}, []uint32{2})
	if err == nil {
		t.Errorf("expected an error for an out-of-range sparse dimension")
	}
}

func TestHyperContrastedDeterministic(t *testing.T) {
	ResetIDs()
	cache := NewHyperContrastedCache(16)
	a := newHyperContrastedWithID(42, 8, 100, nil, nil, cache)
	b := newHyperContrastedWithID(42, 8, 100, nil, nil, cache)

	for i := 0; i < 8; i++ {
		if a.Coord(i) != b.Coord(i) {
			t.Errorf("dim %d: %d != %d for the same id", i, a.Coord(i), b.Coord(i))
		}
	}
}

func TestHyperContrastedOverridesWin(t *testing.T) {
	ResetIDs()
	p := NewHyperContrasted(4, 100, []int{2}, []uint32{55}, nil)
	if p.Coord(2) != 55 {
		t.Errorf("override dimension = %d, want 55", p.Coord(2))
	}
}

func TestHyperContrastedCacheHitRate(t *testing.T) {
	ResetIDs()
	cache := NewHyperContrastedCache(4)
	ids := []uint64{1, 2, 3, 4, 1, 2, 3, 4, 1, 2}
	for _, id := range ids {
		p := newHyperContrastedWithID(id, 4, 10, nil, nil, cache)
		_ = p.Coord(0)
	}
	hits, misses := cache.Stats()
	if hits == 0 {
		t.Errorf("expected at least one cache hit, got 0 hits / %d misses", misses)
	}
}
