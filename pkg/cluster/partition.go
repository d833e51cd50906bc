// Package cluster implements the agglomerative single-link merger (C7),
// the density-based post-splitter (C8), the label<->point Partition
// (C9), the fast clustering-tendency triage (C10), and the
// poly-chromatic closest-pair approximation (C11) described in spec
// §4.6-§4.8, §3 and §4.8/§4.11.
package cluster

import (
	"fmt"
	"sync"

	"github.com/therealutkarshpriyadarshi/slash/pkg/point"
)

// Partition is a mutable bidirectional mapping between labels and the
// points currently assigned to them (spec §3 C9). It is the arena+index
// design spec §9 calls for: points never point back to their partition,
// the partition holds forward (label -> points) and reverse (point id ->
// label) maps keyed on point identity, mirroring the teacher's tenant
// manager's single map + RWMutex shape, generalized to two maps that
// must always agree.
type Partition struct {
	mu      sync.RWMutex
	byLabel map[string]map[uint64]point.Point
	byPoint map[uint64]string
}

// New returns an empty Partition.
func New() *Partition {
	return &Partition{
		byLabel: make(map[string]map[uint64]point.Point),
		byPoint: make(map[uint64]string),
	}
}

// Add assigns p to label, creating the label if necessary. Add fails if p
// already has a label; use Move to reassign an already-labeled point.
func (part *Partition) Add(p point.Point, label string) error {
	part.mu.Lock()
	defer part.mu.Unlock()
	if existing, ok := part.byPoint[p.ID()]; ok {
		return fmt.Errorf("cluster: point %d already has label %q", p.ID(), existing)
	}
	part.addLocked(p, label)
	return nil
}

// Move reassigns p to label, removing it from any previous label first.
// It is a no-op (beyond bookkeeping) if p is already in label.
func (part *Partition) Move(p point.Point, label string) {
	part.mu.Lock()
	defer part.mu.Unlock()
	if old, ok := part.byPoint[p.ID()]; ok {
		if old == label {
			return
		}
		part.removeLocked(p.ID(), old)
	}
	part.addLocked(p, label)
}

// addLocked inserts p under label in both maps. Caller must hold mu.
func (part *Partition) addLocked(p point.Point, label string) {
	members, ok := part.byLabel[label]
	if !ok {
		members = make(map[uint64]point.Point)
		part.byLabel[label] = members
	}
	members[p.ID()] = p
	part.byPoint[p.ID()] = label
}

// removeLocked removes a point id from a label's member set, deleting
// the label entirely once it empties. Caller must hold mu.
func (part *Partition) removeLocked(id uint64, label string) {
	if members, ok := part.byLabel[label]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(part.byLabel, label)
		}
	}
	delete(part.byPoint, id)
}

// Merge folds labelB's members into labelA (the "winner"); labelB is
// removed entirely. Merging a label into itself is a no-op. Returns the
// number of points moved.
func (part *Partition) Merge(labelA, labelB string) int {
	part.mu.Lock()
	defer part.mu.Unlock()
	if labelA == labelB {
		return 0
	}
	losers, ok := part.byLabel[labelB]
	if !ok {
		return 0
	}
	winner, ok := part.byLabel[labelA]
	if !ok {
		winner = make(map[uint64]point.Point)
		part.byLabel[labelA] = winner
	}
	moved := 0
	for id, p := range losers {
		winner[id] = p
		part.byPoint[id] = labelA
		moved++
	}
	delete(part.byLabel, labelB)
	return moved
}

// LabelOf returns the current label of p and whether p is assigned at all.
func (part *Partition) LabelOf(p point.Point) (string, bool) {
	part.mu.RLock()
	defer part.mu.RUnlock()
	label, ok := part.byPoint[p.ID()]
	return label, ok
}

// LabelOfID is LabelOf keyed directly by point id, for callers that only
// have ids in hand (e.g. the single-link merger's curve-ordered scan).
func (part *Partition) LabelOfID(id uint64) (string, bool) {
	part.mu.RLock()
	defer part.mu.RUnlock()
	label, ok := part.byPoint[id]
	return label, ok
}

// PointsIn returns the (unordered) members of label.
func (part *Partition) PointsIn(label string) []point.Point {
	part.mu.RLock()
	defer part.mu.RUnlock()
	members := part.byLabel[label]
	out := make([]point.Point, 0, len(members))
	for _, p := range members {
		out = append(out, p)
	}
	return out
}

// Labels returns every label currently holding at least one point.
func (part *Partition) Labels() []string {
	part.mu.RLock()
	defer part.mu.RUnlock()
	out := make([]string, 0, len(part.byLabel))
	for label := range part.byLabel {
		out = append(out, label)
	}
	return out
}

// Partitions returns the full label -> members mapping as a fresh copy.
func (part *Partition) Partitions() map[string][]point.Point {
	part.mu.RLock()
	defer part.mu.RUnlock()
	out := make(map[string][]point.Point, len(part.byLabel))
	for label, members := range part.byLabel {
		pts := make([]point.Point, 0, len(members))
		for _, p := range members {
			pts = append(pts, p)
		}
		out[label] = pts
	}
	return out
}

// Size returns the number of assigned points.
func (part *Partition) Size() int {
	part.mu.RLock()
	defer part.mu.RUnlock()
	return len(part.byPoint)
}

// ClusterSize returns the member count of label (0 if the label does not
// exist), useful for outlier-size checks without copying the member set.
func (part *Partition) ClusterSize(label string) int {
	part.mu.RLock()
	defer part.mu.RUnlock()
	return len(part.byLabel[label])
}

// CheckInvariants verifies the well-formedness property of spec §8: every
// point has exactly one current label and the two maps agree. It is
// intended for tests and debug assertions, not the hot path.
func (part *Partition) CheckInvariants() error {
	part.mu.RLock()
	defer part.mu.RUnlock()
	total := 0
	for label, members := range part.byLabel {
		for id := range members {
			if got := part.byPoint[id]; got != label {
				return fmt.Errorf("cluster: point %d in label %q's member set but byPoint says %q", id, label, got)
			}
			total++
		}
	}
	if total != len(part.byPoint) {
		return fmt.Errorf("cluster: member-set total %d disagrees with byPoint size %d", total, len(part.byPoint))
	}
	return nil
}

// BCubed computes the BCubed precision, recall and F1 between two
// partitions of (assumed) the same point set, per spec §3/§8: for each
// point, precision is |its cluster in a ∩ its cluster in b| / |its
// cluster in a|, and recall swaps the denominator; the reported scores
// are the means over every point both partitions assign. Points missing
// from either partition are skipped rather than treated as a fresh
// singleton, so scores stay in [0,1] even for partial partitions.
func BCubed(a, b *Partition) (precision, recall, f1 float64) {
	a.mu.RLock()
	b.mu.RLock()
	defer a.mu.RUnlock()
	defer b.mu.RUnlock()

	var sumP, sumR float64
	var n int
	for id, labelA := range a.byPoint {
		labelB, ok := b.byPoint[id]
		if !ok {
			continue
		}
		membersA := a.byLabel[labelA]
		membersB := b.byLabel[labelB]
		intersection := 0
		for otherID := range membersA {
			if _, in := membersB[otherID]; in {
				intersection++
			}
		}
		sumP += float64(intersection) / float64(len(membersA))
		sumR += float64(intersection) / float64(len(membersB))
		n++
	}
	if n == 0 {
		return 0, 0, 0
	}
	precision = sumP / float64(n)
	recall = sumR / float64(n)
	if precision+recall == 0 {
		return precision, recall, 0
	}
	f1 = 2 * precision * recall / (precision + recall)
	return precision, recall, f1
}
