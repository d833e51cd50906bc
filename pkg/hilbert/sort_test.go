package hilbert

import (
	"math/big"
	"testing"
)

func TestBalancedSortMatchesFullIndexOrder(t *testing.T) {
	dim, bitsPerDim := 2, 4
	rows := exhaustiveCoords(dim, bitsPerDim)

	order, steps, err := BalancedSort(rows, dim, bitsPerDim)
	if err != nil {
		t.Fatalf("BalancedSort: %v", err)
	}
	if len(order) != len(rows) {
		t.Fatalf("order has %d entries, want %d", len(order), len(rows))
	}
	if steps <= 0 {
		t.Errorf("expected a positive refinement step count, got %d", steps)
	}

	tr, err := New(dim, bitsPerDim)
	if err != nil {
		t.Fatal(err)
	}
	var prevIdx *big.Int
	for _, idx := range order {
		cur, err := tr.Index(rows[idx])
		if err != nil {
			t.Fatal(err)
		}
		if prevIdx != nil && prevIdx.Cmp(cur) > 0 {
			t.Fatalf("BalancedSort produced out-of-order indices: %v then %v", prevIdx, cur)
		}
		prevIdx = cur
	}
}

func TestBalancedSortStopsAtSingletons(t *testing.T) {
	dim, bitsPerDim := 2, 6
	rows := [][]uint32{{0, 0}, {63, 63}}
	order, steps, err := BalancedSort(rows, dim, bitsPerDim)
	if err != nil {
		t.Fatalf("BalancedSort: %v", err)
	}
	if len(order) != 2 {
		t.Fatalf("order has %d entries, want 2", len(order))
	}
	// Two points at opposite corners diverge at the very first digit, so
	// refinement should stop almost immediately rather than walking all
	// bitsPerDim levels.
	if steps > 4 {
		t.Errorf("expected early termination, refinement took %d point-levels", steps)
	}
}

func TestSortWithTiesGroupsEqualPrefixes(t *testing.T) {
	dim, fullBits := 2, 8
	rows := [][]uint32{
		{0, 0},   // top 2 bits: 00
		{1, 1},   // top 2 bits: 00 (low-order bits differ only at full resolution)
		{255, 0}, // top 2 bits: 11,00
		{0, 255}, // top 2 bits: 00,11
	}
	buckets, err := SortWithTies(rows, dim, fullBits, 2)
	if err != nil {
		t.Fatalf("SortWithTies: %v", err)
	}
	total := 0
	for _, b := range buckets {
		total += len(b)
	}
	if total != len(rows) {
		t.Fatalf("buckets cover %d points, want %d", total, len(rows))
	}

	found := false
	for _, b := range buckets {
		if len(b) == 2 {
			has0, has1 := false, false
			for _, idx := range b {
				if idx == 0 {
					has0 = true
				}
				if idx == 1 {
					has1 = true
				}
			}
			if has0 && has1 {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("expected points 0 and 1 to share a bucket at 2-bit resolution, got %v", buckets)
	}
}

func TestSortWithTiesRejectsDimensionMismatch(t *testing.T) {
	rows := [][]uint32{{1, 2, 3}}
	if _, err := SortWithTies(rows, 2, 8, 4); err == nil {
		t.Errorf("expected an error when a row's length does not match dim")
	}
}

func TestSortWithTiesRejectsBadLowresBits(t *testing.T) {
	rows := [][]uint32{{1, 2}}
	if _, err := SortWithTies(rows, 2, 8, 0); err == nil {
		t.Errorf("expected an error for lowresBits <= 0")
	}
	if _, err := SortWithTies(rows, 2, 8, 9); err == nil {
		t.Errorf("expected an error for lowresBits > fullBits")
	}
}
