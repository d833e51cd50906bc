package hilbert

import (
	"math/rand"
	"sort"
)

// Balancer recenters coordinates per dimension so that, once only the top
// few bits of the Hilbert index are used, each dimension splits the
// population roughly in half (spec §4.2). It is built once per dataset
// and is immutable thereafter.
//
// Crucially, Balance operates on a coordinate slice destined for
// HilbertTransform only — it must never be substituted for the
// coordinates a Point reports for distance purposes (spec §4.2: "the
// primary effect is on the curve ordering, not on distances").
type Balancer struct {
	medians    []int64
	bitsPerDim int
}

// NewExactBalancer computes the exact per-dimension median over every
// point in samples.
func NewExactBalancer(samples [][]uint32, bitsPerDim int) *Balancer {
	if len(samples) == 0 {
		return &Balancer{bitsPerDim: bitsPerDim}
	}
	dim := len(samples[0])
	medians := make([]int64, dim)
	column := make([]uint32, len(samples))
	for d := 0; d < dim; d++ {
		for i, s := range samples {
			column[i] = s[d]
		}
		sort.Slice(column, func(a, b int) bool { return column[a] < column[b] })
		medians[d] = int64(column[len(column)/2])
	}
	return &Balancer{medians: medians, bitsPerDim: bitsPerDim}
}

// NewApproximateBalancer estimates the per-dimension median from an
// O(√N)-sized shuffled sample, using a Frugal quantile streaming
// estimator per dimension (spec §4.2) instead of sorting the sample.
func NewApproximateBalancer(points [][]uint32, n int, bitsPerDim int, rng *rand.Rand) *Balancer {
	if len(points) == 0 {
		return &Balancer{bitsPerDim: bitsPerDim}
	}
	dim := len(points[0])
	sampleSize := isqrtInt(n)
	if sampleSize > len(points) {
		sampleSize = len(points)
	}
	if sampleSize < 1 {
		sampleSize = 1
	}

	order := rng.Perm(len(points))[:sampleSize]
	estimators := make([]frugalQuantile, dim)
	for _, idx := range order {
		p := points[idx]
		for d := 0; d < dim; d++ {
			estimators[d].observe(int64(p[d]))
		}
	}

	medians := make([]int64, dim)
	for d := range medians {
		medians[d] = estimators[d].estimate
	}
	return &Balancer{medians: medians, bitsPerDim: bitsPerDim}
}

// Balance shifts coords so each dimension's median maps to 2^(B-1),
// clamping to the representable [0, 2^B - 1] range. The input is not
// modified; the result is a fresh slice suitable for feeding to
// Transform.Index/Lanes.
func (b *Balancer) Balance(coords []uint32) []uint32 {
	half := int64(1) << uint(b.bitsPerDim-1)
	maxVal := int64(1)<<uint(b.bitsPerDim) - 1

	out := make([]uint32, len(coords))
	for i, c := range coords {
		var median int64
		if i < len(b.medians) {
			median = b.medians[i]
		}
		shifted := int64(c) - median + half
		if shifted < 0 {
			shifted = 0
		}
		if shifted > maxVal {
			shifted = maxVal
		}
		out[i] = uint32(shifted)
	}
	return out
}

// frugalQuantile is a linear-step-size streaming median estimator (spec
// §4.2: "a Frugal-quantile streaming estimator that adjusts its step size
// linearly"). It tracks a running estimate and a step that grows by one
// each time consecutive observations push the estimate the same
// direction, and resets to 1 when the direction reverses — a frugal
// approximation that needs O(1) memory per dimension regardless of
// sample size.
type frugalQuantile struct {
	estimate int64
	step     int64
	lastSign int // -1, 0, or 1
	seen     bool
}

func (f *frugalQuantile) observe(x int64) {
	if !f.seen {
		f.estimate = x
		f.step = 1
		f.seen = true
		return
	}
	switch {
	case x > f.estimate:
		if f.lastSign >= 0 {
			f.step++
		} else {
			f.step = 1
		}
		f.estimate += f.step
		f.lastSign = 1
	case x < f.estimate:
		if f.lastSign <= 0 {
			f.step++
		} else {
			f.step = 1
		}
		f.estimate -= f.step
		f.lastSign = -1
	default:
		f.lastSign = 0
	}
}

func isqrtInt(n int) int {
	if n <= 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
