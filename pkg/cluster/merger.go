package cluster

import (
	"fmt"
	"sort"
	"sync"

	"github.com/therealutkarshpriyadarshi/slash/pkg/point"
	"github.com/therealutkarshpriyadarshi/slash/pkg/reprindex"
)

// Params configures the single-link merger's four-step state machine
// (spec §4.6): curve-adjacency merge, neighbor-refinement merge, and
// outlier attachment all read from the same knob set.
type Params struct {
	// MaxNeighborsToCompare bounds how many nearest cluster
	// representatives the neighbor-refinement step considers per
	// cluster. Higher is more accurate and slower.
	MaxNeighborsToCompare int
	// UseExactClusterDistance selects an exact O(|A|·|B|) min-distance
	// scan over a bounding-ball approximation.
	UseExactClusterDistance bool
	// OutlierDistanceMultiplier relaxes the merge threshold for outlier
	// attachment: an undersized cluster may join a neighbor whose
	// bounding-ball distance estimate is within multiplier*Δ², even past
	// Δ² itself. Attachment always uses that estimate, which never exceeds
	// the true minimum pairwise distance; it does not consult
	// UseExactClusterDistance.
	OutlierDistanceMultiplier float64
	// OutlierSize is the member count below which a cluster is treated
	// as an outlier candidate for attachment.
	OutlierSize int
	// Workers bounds the neighbor-refinement step's worker pool.
	Workers int
}

// DefaultParams matches spec §4.6's stated defaults.
func DefaultParams() Params {
	return Params{
		MaxNeighborsToCompare:     5,
		UseExactClusterDistance:   false,
		OutlierDistanceMultiplier: 5,
		OutlierSize:               5,
		Workers:                   4,
	}
}

// Merge runs the full single-link agglomerative pipeline over points
// already in curve order, using deltaSquared as the characteristic merge
// distance (spec §4.6). It returns the resulting Partition; seedLabels,
// if non-nil, is used as each point's starting label instead of a fresh
// singleton (the "recluster" invocation of spec §6, which preserves
// initial label associations so a later BCubed comparison is meaningful).
func Merge(curveOrder []point.Point, deltaSquared uint64, params Params, seedLabels map[uint64]string) (*Partition, error) {
	if len(curveOrder) == 0 {
		return New(), nil
	}

	part := seed(curveOrder, seedLabels)
	curveAdjacencyMerge(part, curveOrder, deltaSquared)
	positions := curvePositions(curveOrder)
	if err := neighborRefinementMerge(part, positions, deltaSquared, params); err != nil {
		return nil, err
	}
	attachOutliers(part, positions, deltaSquared, params)
	return part, nil
}

// seed assigns every point its own singleton label, or its entry in
// seedLabels when present (spec §4.6 step 1).
func seed(curveOrder []point.Point, seedLabels map[uint64]string) *Partition {
	part := New()
	for _, p := range curveOrder {
		label, ok := seedLabels[p.ID()]
		if !ok {
			label = fmt.Sprintf("c%d", p.ID())
		}
		part.Move(p, label)
	}
	return part
}

// curveAdjacencyMerge walks the curve-ordered points, unioning the
// clusters of any consecutive pair within deltaSquared (spec §4.6 step 2).
func curveAdjacencyMerge(part *Partition, curveOrder []point.Point, deltaSquared uint64) {
	for i := 0; i+1 < len(curveOrder); i++ {
		a, b := curveOrder[i], curveOrder[i+1]
		if point.SquaredDistance(a, b) > deltaSquared {
			continue
		}
		labelA, _ := part.LabelOf(a)
		labelB, _ := part.LabelOf(b)
		if labelA != labelB {
			part.Merge(labelA, labelB)
		}
	}
}

// curvePositions records each point's index in the original curve order,
// used to pick a deterministic curve-midpoint representative per cluster
// even after later merges make a cluster's members span disjoint curve
// segments.
func curvePositions(curveOrder []point.Point) map[uint64]int {
	positions := make(map[uint64]int, len(curveOrder))
	for i, p := range curveOrder {
		positions[p.ID()] = i
	}
	return positions
}

// representative picks the curve-midpoint member of label's current
// members: the member whose curve position is the median among them.
func representative(members []point.Point, positions map[uint64]int) point.Point {
	sorted := append([]point.Point(nil), members...)
	sort.Slice(sorted, func(i, j int) bool {
		return positions[sorted[i].ID()] < positions[sorted[j].ID()]
	})
	return sorted[len(sorted)/2]
}

// radiusOf returns the (non-squared) distance from rep to its farthest
// member, the bounding-ball radius the approximate cluster-distance check
// uses.
func radiusOf(rep point.Point, members []point.Point) uint64 {
	var maxSq uint64
	for _, m := range members {
		if d := point.SquaredDistance(rep, m); d > maxSq {
			maxSq = d
		}
	}
	return isqrt(maxSq)
}

// mergeCandidate is a read-only finding from the neighbor-refinement
// search: cluster a and cluster b should be unioned.
type mergeCandidate struct {
	a, b string
}

// neighborRefinementMerge implements spec §4.6 step 3: for each cluster,
// find its MaxNeighborsToCompare nearest cluster representatives and
// union with any whose minimum pairwise member distance is within
// deltaSquared. The search and distance checks for every source cluster
// run concurrently across Params.Workers goroutines (spec §5: "may be
// parallel across source clusters"); the resulting candidates are
// resolved and applied to the Partition serially afterward to avoid
// racing on Partition's maps.
func neighborRefinementMerge(part *Partition, positions map[uint64]int, deltaSquared uint64, params Params) error {
	labels := part.Labels()
	if len(labels) < 2 {
		return nil
	}

	membersByLabel := make(map[string][]point.Point, len(labels))
	reps := make(map[string]point.Point, len(labels))
	radii := make(map[string]uint64, len(labels))
	idx := reprindex.New(params.MaxNeighborsToCompare, params.MaxNeighborsToCompare*2)
	for _, label := range labels {
		members := part.PointsIn(label)
		membersByLabel[label] = members
		rep := representative(members, positions)
		reps[label] = rep
		radii[label] = radiusOf(rep, members)
		if err := idx.Insert(reprindex.Entry{Point: rep, Label: label}); err != nil {
			return fmt.Errorf("cluster: building representative index: %w", err)
		}
	}

	workers := params.Workers
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan string)
	results := make(chan mergeCandidate, len(labels))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for label := range jobs {
				rep := reps[label]
				neighbors := idx.SearchKNearest(rep, params.MaxNeighborsToCompare, rep.ID())
				for _, cand := range neighbors {
					if cand.Entry.Label == label {
						continue
					}
					if within := clustersWithinThreshold(
						membersByLabel[label], membersByLabel[cand.Entry.Label],
						rep, reps[cand.Entry.Label], radii[label], radii[cand.Entry.Label],
						deltaSquared, params.UseExactClusterDistance,
					); within {
						results <- canonicalPair(label, cand.Entry.Label)
					}
				}
			}
		}()
	}

	go func() {
		for _, label := range labels {
			jobs <- label
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	uf := newUnionFind(labels)
	for cand := range results {
		rootA, rootB := uf.find(cand.a), uf.find(cand.b)
		if rootA == rootB {
			continue
		}
		part.Merge(rootA, rootB)
		uf.union(rootA, rootB)
	}
	return nil
}

// canonicalPair orders a merge candidate's two labels so that the same
// pair discovered from either direction dedupes naturally.
func canonicalPair(a, b string) mergeCandidate {
	if a <= b {
		return mergeCandidate{a: a, b: b}
	}
	return mergeCandidate{a: b, b: a}
}

// clustersWithinThreshold reports whether the minimum pairwise distance
// between two clusters' members is within thresholdSquared, either
// exactly (O(|A|·|B|), short-circuited per pair via
// point.DistanceWithinThreshold) or via the bounding-ball approximation
// of spec §4.6: the representatives' distance minus both radii bounds
// the true minimum distance from below.
func clustersWithinThreshold(a, b []point.Point, repA, repB point.Point, radiusA, radiusB, thresholdSquared uint64, exact bool) bool {
	if !exact {
		repDist := isqrt(point.SquaredDistance(repA, repB))
		sumRadius := radiusA + radiusB
		if repDist <= sumRadius {
			return true
		}
		gap := repDist - sumRadius
		return gap*gap <= thresholdSquared
	}
	for _, pa := range a {
		for _, pb := range b {
			if within, _, _ := point.DistanceWithinThreshold(pa, pb, thresholdSquared); within {
				return true
			}
		}
	}
	return false
}

// attachOutliers implements spec §4.6 step 4: clusters smaller than
// OutlierSize join the neighbor with the smallest bounding-ball distance
// estimate (representatives' distance minus both radii, squared, as in
// clustersWithinThreshold's approximate path), provided that estimate is
// within OutlierDistanceMultiplier*Δ²; clusters with no such neighbor are
// left as outliers. The exact minimum pairwise member distance is not
// computed here, whatever UseExactClusterDistance says.
func attachOutliers(part *Partition, positions map[uint64]int, deltaSquared uint64, params Params) {
	if params.OutlierSize <= 0 {
		return
	}
	relaxed := uint64(float64(deltaSquared) * params.OutlierDistanceMultiplier)

	for {
		labels := part.Labels()
		attachedAny := false
		for _, label := range labels {
			members := part.PointsIn(label)
			if len(members) >= params.OutlierSize || len(members) == 0 {
				continue
			}
			rep := representative(members, positions)
			radius := radiusOf(rep, members)

			bestLabel := ""
			bestDist := ^uint64(0)
			for _, other := range part.Labels() {
				if other == label {
					continue
				}
				otherMembers := part.PointsIn(other)
				otherRep := representative(otherMembers, positions)
				otherRadius := radiusOf(otherRep, otherMembers)
				d := isqrt(point.SquaredDistance(rep, otherRep))
				sumRadius := radius + otherRadius
				var approxSq uint64
				if d <= sumRadius {
					approxSq = 0
				} else {
					gap := d - sumRadius
					approxSq = gap * gap
				}
				if approxSq <= relaxed && approxSq < bestDist {
					bestDist = approxSq
					bestLabel = other
				}
			}
			if bestLabel != "" {
				part.Merge(bestLabel, label)
				attachedAny = true
			}
		}
		if !attachedAny {
			return
		}
	}
}
