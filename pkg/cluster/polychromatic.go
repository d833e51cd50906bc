package cluster

import (
	"fmt"

	"github.com/therealutkarshpriyadarshi/slash/pkg/point"
	"github.com/therealutkarshpriyadarshi/slash/pkg/reprindex"
)

// PolyChromaticParams configures the closest-cross-color-pair
// approximation (C11).
type PolyChromaticParams struct {
	// NeighborsPerPoint bounds how many nearest neighbors (across all
	// colors) each point's search considers; higher is more accurate
	// and slower, mirroring MaxNeighborsToCompare elsewhere.
	NeighborsPerPoint int
}

// DefaultPolyChromaticParams picks the same neighbor-count default the
// single-link merger uses for its own nearest-representative search.
func DefaultPolyChromaticParams() PolyChromaticParams {
	return PolyChromaticParams{NeighborsPerPoint: 5}
}

// ClosestPair is the approximate answer to the poly-chromatic closest
// point problem: the closest pair of points found with different colors.
type ClosestPair struct {
	A, B         point.Point
	ColorA       string
	ColorB       string
	SquaredDist  uint64
	Approximate  bool
}

// ClosestAcrossColors approximates the minimum-distance pair of points
// whose colors differ, restricted to the given colors (spec §4.11/C11).
// It builds one reprindex.Index over every point in the selected colors
// and, for each point, checks its NeighborsPerPoint nearest neighbors
// (across all colors) for the closest cross-color match — an
// approximation because the true nearest cross-color neighbor of a point
// is not guaranteed to appear in its top-k same-index neighbor list, the
// same trade the neighbor-refinement merge step (spec §4.6 step 3) makes.
func ClosestAcrossColors(part *Partition, colors []string, params PolyChromaticParams) (ClosestPair, error) {
	if len(colors) < 2 {
		return ClosestPair{}, fmt.Errorf("cluster: need at least 2 colors, got %d", len(colors))
	}

	idx := reprindex.New(params.NeighborsPerPoint, params.NeighborsPerPoint*2)
	colorOf := make(map[uint64]string)
	var allPoints []point.Point
	for _, color := range colors {
		for _, p := range part.PointsIn(color) {
			colorOf[p.ID()] = color
			allPoints = append(allPoints, p)
			if err := idx.Insert(reprindex.Entry{Point: p, Label: color}); err != nil {
				return ClosestPair{}, fmt.Errorf("cluster: polychromatic index build: %w", err)
			}
		}
	}
	if len(allPoints) < 2 {
		return ClosestPair{}, fmt.Errorf("cluster: fewer than 2 points across %v", colors)
	}

	var best ClosestPair
	haveBest := false
	for _, p := range allPoints {
		myColor := colorOf[p.ID()]
		neighbors := idx.SearchKNearest(p, params.NeighborsPerPoint, p.ID())
		for _, cand := range neighbors {
			if cand.Entry.Label == myColor {
				continue
			}
			if !haveBest || cand.Distance < best.SquaredDist {
				best = ClosestPair{
					A: p, B: cand.Entry.Point,
					ColorA: myColor, ColorB: cand.Entry.Label,
					SquaredDist: cand.Distance,
					Approximate: true,
				}
				haveBest = true
			}
		}
	}
	if !haveBest {
		return ClosestPair{}, fmt.Errorf("cluster: no cross-color pair found among %v", colors)
	}
	return best, nil
}
