package cluster

import (
	"fmt"
	"sort"

	"github.com/therealutkarshpriyadarshi/slash/pkg/clustercounter"
	"github.com/therealutkarshpriyadarshi/slash/pkg/hilbert"
	"github.com/therealutkarshpriyadarshi/slash/pkg/point"
)

// Tendency is the fast triage classification spec §4.8/C10 assigns to a
// point set before committing to the full single-link pipeline.
type Tendency int

const (
	Unclustered Tendency = iota
	SinglyClustered
	WeaklyClustered
	ModeratelyClustered
	MajorityClustered
	HighlyClustered
)

func (t Tendency) String() string {
	switch t {
	case Unclustered:
		return "Unclustered"
	case SinglyClustered:
		return "SinglyClustered"
	case WeaklyClustered:
		return "WeaklyClustered"
	case ModeratelyClustered:
		return "ModeratelyClustered"
	case MajorityClustered:
		return "MajorityClustered"
	case HighlyClustered:
		return "HighlyClustered"
	default:
		return "Unknown"
	}
}

// TendencyParams configures the triage classifier.
type TendencyParams struct {
	// OutlierSize is the member count below which a curve segment is a
	// cluster outlier rather than a real cluster, matching the rest of
	// the pipeline's usage of the term.
	OutlierSize int
	// PointOutlierMultiplier flags an individual point as an outlier
	// when its nearest curve-neighbor distance exceeds this multiple of
	// the median neighbor distance.
	PointOutlierMultiplier float64
}

// DefaultTendencyParams mirrors the rest of the pipeline's OutlierSize
// default and a conservative point-level outlier multiplier.
func DefaultTendencyParams() TendencyParams {
	return TendencyParams{
		OutlierSize:            5,
		PointOutlierMultiplier: 3.0,
	}
}

// TendencyResult carries the classification plus the statistics it was
// derived from, for logging and for the `assess` CLI command (spec §6).
type TendencyResult struct {
	Tendency          Tendency
	PointOutlierFrac  float64
	ClusteredFraction float64
	GiantFraction     float64
	DeltaSquared      uint64
	SegmentCount      int
}

// Assess runs C10's fast pre-check: one curve sort (identity permutation,
// auto bit-depth — no OptimalIndex permutation search), a point-level
// outlier scan, and a curve-adjacency segmentation at the characteristic
// distance clustercounter would itself discover, then classifies the
// result per the decision rule documented on classify below.
func Assess(pts []point.Point, params TendencyParams) (TendencyResult, error) {
	n := len(pts)
	if n == 0 {
		return TendencyResult{Tendency: Unclustered}, nil
	}
	if n == 1 {
		return TendencyResult{Tendency: SinglyClustered, GiantFraction: 1, ClusteredFraction: 1}, nil
	}

	dim := pts[0].Dim()
	var maxCoord uint32
	rows := make([][]uint32, n)
	for i, p := range pts {
		if mc := p.MaxCoord(); mc > maxCoord {
			maxCoord = mc
		}
		row := make([]uint32, dim)
		p.EachCoord(func(d int, v uint32) { row[d] = v })
		rows[i] = row
	}
	bitsPerDim := hilbert.BitsPerDim(maxCoord)

	order, _, err := hilbert.BalancedSort(rows, dim, bitsPerDim)
	if err != nil {
		return TendencyResult{}, fmt.Errorf("cluster: tendency curve sort: %w", err)
	}
	curveOrder := make([]point.Point, n)
	for i, idx := range order {
		curveOrder[i] = pts[idx]
	}

	neighborDist := make([]uint64, n-1)
	for i := 0; i < n-1; i++ {
		neighborDist[i] = point.SquaredDistance(curveOrder[i], curveOrder[i+1])
	}
	median := medianUint64(neighborDist)
	pointOutlierThreshold := uint64(float64(median) * params.PointOutlierMultiplier * params.PointOutlierMultiplier)

	outlierPoints := 0
	for i := range curveOrder {
		var best uint64 = ^uint64(0)
		if i > 0 && neighborDist[i-1] < best {
			best = neighborDist[i-1]
		}
		if i < n-1 && neighborDist[i] < best {
			best = neighborDist[i]
		}
		if best > pointOutlierThreshold {
			outlierPoints++
		}
	}
	pointOutlierFrac := float64(outlierPoints) / float64(n)

	counted, err := clustercounter.Count(curveOrder, clustercounter.Params{
		OutlierSize:                params.OutlierSize,
		NoiseSkipBy:                10,
		ReducedNoiseSkipBy:         1,
		MedianMultiplier:           3.0,
		ImplausibleClusterFraction: 0.5,
	})
	if err != nil {
		return TendencyResult{}, fmt.Errorf("cluster: tendency delta estimate: %w", err)
	}
	deltaSquared := counted.DeltaSquared
	segments := segmentSizes(neighborDist, deltaSquared)

	giant := 0
	clustered := 0
	for _, size := range segments {
		if size > giant {
			giant = size
		}
		if size >= params.OutlierSize {
			clustered += size
		}
	}
	giantFraction := float64(giant) / float64(n)
	clusteredFraction := float64(clustered) / float64(n)

	result := TendencyResult{
		PointOutlierFrac:  pointOutlierFrac,
		ClusteredFraction: clusteredFraction,
		GiantFraction:     giantFraction,
		DeltaSquared:      deltaSquared,
		SegmentCount:      len(segments),
	}
	result.Tendency = classify(pointOutlierFrac, giantFraction, clusteredFraction)
	return result, nil
}

// classify applies the decision rule spec §4.8 describes only in prose
// ("based on (a) fraction of outliers and (b) whether a single giant
// cluster dominates"): an overwhelming share of isolated points means
// Unclustered regardless of anything else; otherwise a dominant single
// segment graduates from MajorityClustered to SinglyClustered as its
// share of the data approaches all of it; absent a dominant segment, the
// Weakly/Moderately/Highly tiers are ordered by what fraction of points
// fall into genuine (non-outlier-sized) clusters at all.
func classify(pointOutlierFrac, giantFraction, clusteredFraction float64) Tendency {
	switch {
	case pointOutlierFrac >= 0.9:
		return Unclustered
	case giantFraction >= 0.9:
		return SinglyClustered
	case giantFraction >= 0.5:
		return MajorityClustered
	case clusteredFraction >= 0.85:
		return HighlyClustered
	case clusteredFraction >= 0.6:
		return ModeratelyClustered
	case clusteredFraction >= 0.3:
		return WeaklyClustered
	default:
		return Unclustered
	}
}

// segmentSizes splits neighborDist into run lengths wherever a gap
// exceeds deltaSquared, the same curve-adjacency segmentation the
// single-link merger's first pass performs, but computed here as plain
// sizes (no Partition bookkeeping) since this is a read-only triage.
func segmentSizes(neighborDist []uint64, deltaSquared uint64) []int {
	sizes := []int{}
	current := 1
	for _, d := range neighborDist {
		if d <= deltaSquared {
			current++
			continue
		}
		sizes = append(sizes, current)
		current = 1
	}
	sizes = append(sizes, current)
	return sizes
}

func medianUint64(vs []uint64) uint64 {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]uint64(nil), vs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[len(sorted)/2]
}
