package clustercounter

import (
	"testing"

	"github.com/therealutkarshpriyadarshi/slash/pkg/point"
)

func denseLine(vals ...uint32) point.Point {
	return point.NewDense([]uint32{vals[0]})
}

func TestCountRejectsTooFewPoints(t *testing.T) {
	if _, err := Count([]point.Point{point.NewDense([]uint32{0})}, DefaultParams()); err == nil {
		t.Errorf("expected an error for fewer than 2 points")
	}
}

func TestCountFindsTwoWellSeparatedClusters(t *testing.T) {
	var pts []point.Point
	for i := uint32(0); i < 20; i++ {
		pts = append(pts, denseLine(i))
	}
	for i := uint32(1000); i < 1020; i++ {
		pts = append(pts, denseLine(i))
	}
	params := DefaultParams()
	params.NoiseSkipBy = 1
	result, err := Count(pts, params)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if result.ClusterCount != 2 {
		t.Errorf("ClusterCount = %d, want 2", result.ClusterCount)
	}
}

func TestCountUniformSpacingYieldsOneChain(t *testing.T) {
	// Perfectly even spacing carries no separation signal: every
	// neighbor distance is identical, so there is no gap to split on
	// and the whole run is reported as a single chain.
	var pts []point.Point
	for i := uint32(0); i < 100; i++ {
		pts = append(pts, denseLine(i*1000))
	}
	params := DefaultParams()
	params.NoiseSkipBy = 1
	result, err := Count(pts, params)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if result.ClusterCount != 1 {
		t.Errorf("ClusterCount = %d, want 1 for uniformly spaced points", result.ClusterCount)
	}
}

func TestCharacteristicDistanceFallsBackToMedianWhenAmbiguous(t *testing.T) {
	sample := []uint64{10, 11, 12, 13, 14, 15}
	got := characteristicDistance(sample, 2.0)
	median := sample[len(sample)/2] // sorted[3] == 13
	want := uint64(float64(median) * 2.0)
	if got != want {
		t.Errorf("characteristicDistance = %d, want %d", got, want)
	}
}

func TestCharacteristicDistancePicksDominantGap(t *testing.T) {
	sample := []uint64{1, 2, 2, 3, 100, 101, 103}
	got := characteristicDistance(sample, 3.0)
	if got != 3 {
		t.Errorf("characteristicDistance = %d, want 3 (the dominant gap boundary)", got)
	}
}

func TestCountOutliersSkipsShortSegments(t *testing.T) {
	neighborDist := []uint64{1, 1, 1000, 1, 1000, 1, 1, 1, 1}
	outliers := countOutliers(neighborDist, 5, 3)
	if outliers == 0 {
		t.Errorf("expected at least one short segment to be flagged as an outlier")
	}
}
