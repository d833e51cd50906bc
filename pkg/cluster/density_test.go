package cluster

import (
	"testing"

	"github.com/therealutkarshpriyadarshi/slash/pkg/point"
)

func TestSplitBreaksDumbbellCluster(t *testing.T) {
	point.ResetIDs()
	part := New()

	var pts []point.Point
	// Dense blob A: 0..19 packed tight.
	for i := uint32(0); i < 20; i++ {
		p := point.NewDense([]uint32{i})
		pts = append(pts, p)
		part.Add(p, "dumbbell")
	}
	// A thin bridge of 3 sparse points.
	for _, x := range []uint32{40, 60, 80} {
		p := point.NewDense([]uint32{x})
		pts = append(pts, p)
		part.Add(p, "dumbbell")
	}
	// Dense blob B: 100..119 packed tight.
	for i := uint32(100); i < 120; i++ {
		p := point.NewDense([]uint32{i})
		pts = append(pts, p)
		part.Add(p, "dumbbell")
	}

	params := DefaultDensityParams()
	params.UnmergeableSize = 10
	params.OutlierSize = 2
	params.NeighborhoodRadiusMultiplier = 1.0
	// delta of ~2 (delta^2 ~ 4) makes the dense blobs' neighbor radius
	// small relative to the bridge's spacing.
	_, err := Split(part, 4, params)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if err := part.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
	if part.Size() != 43 {
		t.Fatalf("Size() = %d, want 43 (no points lost)", part.Size())
	}
	if labels := part.Labels(); len(labels) < 2 {
		t.Errorf("Split left %d labels, want the dumbbell broken into at least 2", len(labels))
	}
}

func TestSplitSkipDoesNothing(t *testing.T) {
	point.ResetIDs()
	part := New()
	for i := uint32(0); i < 100; i++ {
		part.Add(point.NewDense([]uint32{i}), "chain")
	}
	params := DefaultDensityParams()
	params.Skip = true
	params.UnmergeableSize = 1
	_, err := Split(part, 4, params)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if labels := part.Labels(); len(labels) != 1 {
		t.Errorf("Split with Skip=true changed labels: got %v", labels)
	}
}

func TestSplitLeavesSmallClustersAlone(t *testing.T) {
	point.ResetIDs()
	part := New()
	for i := uint32(0); i < 5; i++ {
		part.Add(point.NewDense([]uint32{i}), "small")
	}
	params := DefaultDensityParams()
	params.UnmergeableSize = 50
	_, err := Split(part, 4, params)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if labels := part.Labels(); len(labels) != 1 {
		t.Errorf("Split touched a cluster below UnmergeableSize: got %v", labels)
	}
}

func TestKendallTauBIdenticalRankingsIsOne(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{10, 20, 30, 40, 50}
	tau := KendallTauB(a, b)
	if tau < 0.999 {
		t.Errorf("KendallTauB(identical order) = %f, want ~1", tau)
	}
}

func TestKendallTauBReversedRankingsIsNegativeOne(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{5, 4, 3, 2, 1}
	tau := KendallTauB(a, b)
	if tau > -0.999 {
		t.Errorf("KendallTauB(reversed order) = %f, want ~-1", tau)
	}
}
