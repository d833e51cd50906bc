// Package clustercounter estimates, from a curve-ordered point sequence,
// the characteristic merge distance and resulting cluster count (C6).
package clustercounter

import (
	"fmt"
	"sort"

	"github.com/therealutkarshpriyadarshi/slash/pkg/point"
)

// Params configures the gap-search and denoising behavior.
type Params struct {
	// OutlierSize is the member count below which a curve segment counts
	// as an outlier rather than a cluster.
	OutlierSize int
	// NoiseSkipBy samples every k-th neighbor distance to denoise the
	// gap search.
	NoiseSkipBy int
	// ReducedNoiseSkipBy is retried (normally 1, i.e. no skipping) when
	// the first pass estimates an implausibly high cluster count.
	ReducedNoiseSkipBy int
	// MedianMultiplier is the fallback threshold multiplier used when
	// the largest gap is ambiguous.
	MedianMultiplier float64
	// ImplausibleClusterFraction re-triggers the reduced-noise pass when
	// the estimated cluster count exceeds this fraction of N.
	ImplausibleClusterFraction float64
}

// DefaultParams matches spec §4.5's stated defaults.
func DefaultParams() Params {
	return Params{
		OutlierSize:                5,
		NoiseSkipBy:                10,
		ReducedNoiseSkipBy:         1,
		MedianMultiplier:           3.0,
		ImplausibleClusterFraction: 0.5,
	}
}

// Result is the estimate ClusterCounter produces from one curve pass.
type Result struct {
	DeltaSquared     uint64
	ClusterCount     int
	MaxMergeDistance uint64
	OutlierCount     int
}

// Count estimates the characteristic merge distance Δ² and the resulting
// cluster count from points already in curve order.
func Count(orderedPoints []point.Point, params Params) (Result, error) {
	n := len(orderedPoints)
	if n < 2 {
		return Result{}, fmt.Errorf("clustercounter: need at least 2 points, got %d", n)
	}

	neighborDist := make([]uint64, n-1)
	for i := 0; i < n-1; i++ {
		neighborDist[i] = point.SquaredDistance(orderedPoints[i], orderedPoints[i+1])
	}

	result := estimate(neighborDist, params.NoiseSkipBy, params)
	if float64(result.ClusterCount) > params.ImplausibleClusterFraction*float64(n) {
		result = estimate(neighborDist, params.ReducedNoiseSkipBy, params)
	}

	result.OutlierCount = countOutliers(neighborDist, result.DeltaSquared, params.OutlierSize)
	return result, nil
}

// estimate runs the gap search over every skipBy-th neighbor distance and
// counts clusters over the FULL sequence using the resulting threshold —
// subsampling only informs the threshold search, never the final count.
func estimate(neighborDist []uint64, skipBy int, params Params) Result {
	if skipBy < 1 {
		skipBy = 1
	}
	sample := make([]uint64, 0, len(neighborDist)/skipBy+1)
	for i := 0; i < len(neighborDist); i += skipBy {
		sample = append(sample, neighborDist[i])
	}

	delta := characteristicDistance(sample, params.MedianMultiplier)
	clusterCount := 1
	maxMerge := uint64(0)
	for _, d := range neighborDist {
		if d > delta {
			clusterCount++
			if d > maxMerge {
				maxMerge = d
			}
		}
	}
	return Result{DeltaSquared: delta, ClusterCount: clusterCount, MaxMergeDistance: maxMerge}
}

// characteristicDistance finds the largest gap in the sorted distance
// sample separating a dense within-cluster regime from a sparser
// between-cluster regime. When the largest gap is not clearly dominant
// (its width is within a factor of the runner-up gap), the policy falls
// back to a multiple of the median distance instead.
func characteristicDistance(sample []uint64, medianMultiplier float64) uint64 {
	if len(sample) == 0 {
		return 0
	}
	sorted := append([]uint64(nil), sample...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	median := sorted[len(sorted)/2]
	if len(sorted) < 3 {
		return uint64(float64(median) * medianMultiplier)
	}

	bestGap, bestIdx := uint64(0), -1
	secondGap := uint64(0)
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i] - sorted[i-1]
		if gap > bestGap {
			secondGap = bestGap
			bestGap, bestIdx = gap, i-1
		} else if gap > secondGap {
			secondGap = gap
		}
	}

	ambiguous := bestGap == 0 || (secondGap > 0 && float64(bestGap) < 1.5*float64(secondGap))
	if ambiguous || bestIdx < 0 {
		return uint64(float64(median) * medianMultiplier)
	}
	return sorted[bestIdx]
}

// countOutliers counts the curve-adjacent segments (runs of consecutive
// near-neighbors) with fewer members than outlierSize.
func countOutliers(neighborDist []uint64, delta uint64, outlierSize int) int {
	if outlierSize <= 0 {
		return 0
	}
	outliers := 0
	segLen := 1
	flush := func() {
		if segLen < outlierSize {
			outliers++
		}
	}
	for _, d := range neighborDist {
		if d <= delta {
			segLen++
			continue
		}
		flush()
		segLen = 1
	}
	flush()
	return outliers
}
