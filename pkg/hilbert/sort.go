package hilbert

import "fmt"

// Bucket is a group of point indices (into the caller's coordinate slice)
// that compared equal up to the resolution HilbertSort was asked to use.
// A singleton bucket has been fully resolved; a larger one is a group of
// ties at that resolution.
type Bucket []int

// SortWithTies orders points by only the top lowresBits of each
// dimension's full fullBits-wide coordinate (spec §4.3), returning the
// resulting buckets of ties in ascending curve order. It never looks
// past lowresBits, so it is cheap to use as a coarse grouping for
// coarseness metrics.
func SortWithTies(rows [][]uint32, dim, fullBits, lowresBits int) ([]Bucket, error) {
	if lowresBits <= 0 || lowresBits > fullBits {
		return nil, fmt.Errorf("hilbert: lowresBits must be in (0,%d], got %d", fullBits, lowresBits)
	}
	shift := uint(fullBits - lowresBits)
	truncated := make([][]uint32, len(rows))
	for i, row := range rows {
		if len(row) != dim {
			return nil, fmt.Errorf("hilbert: row %d has %d coordinates, want %d", i, len(row), dim)
		}
		t := make([]uint32, dim)
		for d, c := range row {
			t[d] = c >> shift
		}
		truncated[i] = t
	}

	lanesOf := make([][]uint32, len(rows))
	for i, row := range truncated {
		lanes, err := computeLanes(row, dim, lowresBits)
		if err != nil {
			return nil, err
		}
		lanesOf[i] = lanes
	}

	all := make([]int, len(rows))
	for i := range all {
		all[i] = i
	}
	return msdRadixBuckets(all, lanesOf, dim, lowresBits-1), nil
}

// BalancedSort orders points by their full Hilbert index at bitsPerDim
// resolution via progressive, most-significant-digit-first refinement:
// at each level it partitions every still-ambiguous bucket by the next
// Hilbert "digit" (one bit from each of the D lanes), and a bucket that
// has shrunk to a single point stops being refined (spec §4.3). Returns
// the point indices in full curve order, plus the number of (point,
// level) refinement steps actually performed, each step examining one
// D-bit digit of one point, so the count is at most len(rows)·bitsPerDim.
func BalancedSort(rows [][]uint32, dim, bitsPerDim int) (order []int, stepsPerformed int, err error) {
	lanesOf := make([][]uint32, len(rows))
	for i, row := range rows {
		lanes, lerr := computeLanes(row, dim, bitsPerDim)
		if lerr != nil {
			return nil, 0, lerr
		}
		lanesOf[i] = lanes
	}

	all := make([]int, len(rows))
	for i := range all {
		all[i] = i
	}

	steps := 0
	order = msdRadixOrder(all, lanesOf, dim, bitsPerDim-1, &steps)
	return order, steps, nil
}

// computeLanes produces the transposed (Gray-coded, rotated) D-lane
// representation of row at the given bit depth, the same representation
// Transform.Lanes computes, obtained by building a fresh Transform for
// (dim, bitsPerDim) and calling its Lanes method.
func computeLanes(row []uint32, dim, bitsPerDim int) ([]uint32, error) {
	tr, err := New(dim, bitsPerDim)
	if err != nil {
		return nil, err
	}
	return tr.Lanes(row)
}

// digitAt returns the D-bit digit formed by bit k of every lane, matching
// the interleave order (dimension 0 contributes the most significant bit
// of the digit).
func digitAt(lanes []uint32, dim, k int) int {
	digit := 0
	for d := 0; d < dim; d++ {
		digit <<= 1
		digit |= int((lanes[d] >> uint(k)) & 1)
	}
	return digit
}

// msdRadixBuckets partitions indices by successive digits from level k
// down to 0, stopping early for any bucket that is already a singleton,
// and returns the resulting leaf buckets in ascending digit order
// (ascending curve order, since this exactly mirrors interleave's
// bit-packing order).
func msdRadixBuckets(indices []int, lanes [][]uint32, dim, k int) []Bucket {
	if len(indices) <= 1 || k < 0 {
		return []Bucket{Bucket(indices)}
	}

	groups := make(map[int][]int)
	order := make([]int, 0, len(indices))
	for _, idx := range indices {
		d := digitAt(lanes[idx], dim, k)
		if _, ok := groups[d]; !ok {
			order = append(order, d)
		}
		groups[d] = append(groups[d], idx)
	}

	var buckets []Bucket
	for _, d := range sortedInts(order) {
		buckets = append(buckets, msdRadixBuckets(groups[d], lanes, dim, k-1)...)
	}
	return buckets
}

// msdRadixOrder is msdRadixBuckets flattened into a single index order,
// counting one refinement step per point per level actually visited.
func msdRadixOrder(indices []int, lanes [][]uint32, dim, k int, steps *int) []int {
	if len(indices) <= 1 || k < 0 {
		return indices
	}
	*steps += len(indices)

	groups := make(map[int][]int)
	order := make([]int, 0, len(indices))
	for _, idx := range indices {
		d := digitAt(lanes[idx], dim, k)
		if _, ok := groups[d]; !ok {
			order = append(order, d)
		}
		groups[d] = append(groups[d], idx)
	}

	result := make([]int, 0, len(indices))
	for _, d := range sortedInts(order) {
		result = append(result, msdRadixOrder(groups[d], lanes, dim, k-1, steps)...)
	}
	return result
}

// sortedInts returns a sorted copy of small digit-value slices (at most
// 2^D entries); a plain insertion sort is faster than sort.Ints for the
// tiny D this is ever called with and avoids importing sort here.
func sortedInts(vs []int) []int {
	out := append([]int(nil), vs...)
	for i := 1; i < len(out); i++ {
		v := out[i]
		j := i - 1
		for j >= 0 && out[j] > v {
			out[j+1] = out[j]
			j--
		}
		out[j+1] = v
	}
	return out
}
