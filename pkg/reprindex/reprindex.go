// Package reprindex is a trimmed, single-layer nearest-neighbor graph used
// by pkg/cluster's neighbor-refinement merge step (spec §4.6 step 3) to
// find the max_neighbors_to_compare nearest cluster representatives by
// squared Euclidean distance. It is adapted from the teacher's
// pkg/hnsw: the same incremental greedy-search-then-connect insertion and
// per-node neighbor list shape, cut down to the one layer a few thousand
// cluster representatives actually need (HNSW's logarithmic layer
// hierarchy pays for itself at index sizes SLASH's representative set
// never reaches), and with cosine/float32 vector distance replaced by
// point.SquaredDistance's integer squared-Euclidean distance.
package reprindex

import (
	"container/heap"
	"fmt"
	"math/rand"
	"sync"

	"github.com/therealutkarshpriyadarshi/slash/pkg/point"
)

// Entry pairs a representative point with an opaque label the caller
// uses to recover which cluster it represents.
type Entry struct {
	Point point.Point
	Label string
}

type node struct {
	entry     Entry
	neighbors []uint64 // point ids of connected nodes
	mu        sync.RWMutex
}

// Index is a single-layer navigable small-world graph over cluster
// representatives, built incrementally. Insert and SearchKNearest may be
// called concurrently on the same Index, following the teacher's
// per-Index RWMutex discipline (reads run in parallel, writes are
// serialized).
type Index struct {
	mu         sync.RWMutex
	m          int // target neighbor count per node
	efSearch   int // candidate-list size during search
	rand       *rand.Rand
	nodes      map[uint64]*node
	entryPoint uint64
	hasEntry   bool
}

// New creates an empty Index. m is the target neighbor-list size per
// node (spec §4.6's max_neighbors_to_compare is a good default); efSearch
// controls the candidate-list width used during both insertion and
// query and should be >= m.
func New(m, efSearch int) *Index {
	if m < 1 {
		m = 1
	}
	if efSearch < m {
		efSearch = m
	}
	return &Index{
		m:        m,
		efSearch: efSearch,
		rand:     rand.New(rand.NewSource(1)),
		nodes:    make(map[uint64]*node),
	}
}

// Insert adds e to the index, connecting it to the m nearest of the
// efSearch candidates found among the already-inserted representatives
// and symmetrizing those edges, pruning
// any neighbor whose list grows past 2*m to its m closest (the teacher's
// heuristic-pruning shape, simplified to distance-only selection since
// SLASH representatives carry no diversity heuristic).
func (idx *Index) Insert(e Entry) error {
	if e.Point == nil {
		return fmt.Errorf("reprindex: nil point")
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	id := e.Point.ID()
	if _, exists := idx.nodes[id]; exists {
		return fmt.Errorf("reprindex: point %d already indexed", id)
	}
	n := &node{entry: e}
	idx.nodes[id] = n

	if !idx.hasEntry {
		idx.entryPoint = id
		idx.hasEntry = true
		return nil
	}

	candidates := idx.searchLocked(e.Point, idx.efSearch, id)
	limit := idx.m
	if len(candidates) < limit {
		limit = len(candidates)
	}
	for i := 0; i < limit; i++ {
		idx.connectLocked(id, candidates[i].ID)
	}
	return nil
}

// connectLocked adds a symmetric edge a<->b, pruning each side back to
// its m closest neighbors by distance once it holds more than 2*m.
// Caller must hold mu.
func (idx *Index) connectLocked(a, b uint64) {
	na, ok := idx.nodes[a]
	if !ok {
		return
	}
	nb, ok := idx.nodes[b]
	if !ok {
		return
	}
	na.addNeighbor(b)
	nb.addNeighbor(a)
	idx.pruneLocked(na)
	idx.pruneLocked(nb)
}

func (n *node) addNeighbor(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, existing := range n.neighbors {
		if existing == id {
			return
		}
	}
	n.neighbors = append(n.neighbors, id)
}

// pruneLocked trims n's neighbor list back to its m closest entries once
// it exceeds 2*m. Caller must hold the Index's mu (for idx.nodes lookups).
func (idx *Index) pruneLocked(n *node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.neighbors) <= 2*idx.m {
		return
	}
	type scored struct {
		id   uint64
		dist uint64
	}
	scoredNeighbors := make([]scored, 0, len(n.neighbors))
	for _, id := range n.neighbors {
		other, ok := idx.nodes[id]
		if !ok {
			continue
		}
		scoredNeighbors = append(scoredNeighbors, scored{id: id, dist: point.SquaredDistance(n.entry.Point, other.entry.Point)})
	}
	for i := 1; i < len(scoredNeighbors); i++ {
		v := scoredNeighbors[i]
		j := i - 1
		for j >= 0 && scoredNeighbors[j].dist > v.dist {
			scoredNeighbors[j+1] = scoredNeighbors[j]
			j--
		}
		scoredNeighbors[j+1] = v
	}
	if len(scoredNeighbors) > idx.m {
		scoredNeighbors = scoredNeighbors[:idx.m]
	}
	kept := make([]uint64, len(scoredNeighbors))
	for i, s := range scoredNeighbors {
		kept[i] = s.id
	}
	n.neighbors = kept
}

// Candidate is one result of a nearest-representative search.
type Candidate struct {
	Entry    Entry
	ID       uint64
	Distance uint64
}

// candidateHeap is a max-heap on Distance, used as a bounded top-K
// container the same way the teacher's diskann search uses container/heap
// for its beam-search candidate lists.
type candidateHeap []Candidate

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return h[i].Distance > h[j].Distance }
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x interface{}) { *h = append(*h, x.(Candidate)) }
func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// SearchKNearest returns up to k representatives nearest to query,
// ascending by distance, excluding excludeID (pass 0 if nothing should
// be excluded and no real entry uses id 0 — point ids start at 1).
func (idx *Index) SearchKNearest(query point.Point, k int, excludeID uint64) []Candidate {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ef := idx.efSearch
	if k > ef {
		ef = k
	}
	results := idx.searchLocked(query, ef, excludeID)
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// searchLocked runs a graph search from the entry point, expanding
// through neighbor lists and keeping the ef closest results in a bounded
// max-heap; the frontier pops its farthest entry first, so expansion is
// not best-first. The shape follows the teacher's searchMemoryGraph /
// beamSearchDisk shape collapsed to one layer. Caller must hold at least
// a read lock.
func (idx *Index) searchLocked(query point.Point, ef int, excludeID uint64) []Candidate {
	if !idx.hasEntry {
		return nil
	}
	visited := make(map[uint64]bool)
	frontier := &candidateHeap{} // max-heap worklist of nodes still to expand
	best := &candidateHeap{}     // max-heap bounding the result set to ef

	entry := idx.nodes[idx.entryPoint]
	entryDist := point.SquaredDistance(query, entry.entry.Point)
	visited[idx.entryPoint] = true
	heap.Push(frontier, Candidate{Entry: entry.entry, ID: idx.entryPoint, Distance: entryDist})
	if idx.entryPoint != excludeID {
		heap.Push(best, Candidate{Entry: entry.entry, ID: idx.entryPoint, Distance: entryDist})
	}

	// frontier here is used as a simple worklist (LIFO via the heap's
	// pop-largest semantics is fine since we just need to drain it); the
	// actual "closest so far" tracking happens through `best`.
	for frontier.Len() > 0 {
		cur := heap.Pop(frontier).(Candidate)
		curNode, ok := idx.nodes[cur.ID]
		if !ok {
			continue
		}
		curNode.mu.RLock()
		neighbors := append([]uint64(nil), curNode.neighbors...)
		curNode.mu.RUnlock()

		for _, nid := range neighbors {
			if visited[nid] {
				continue
			}
			visited[nid] = true
			nn, ok := idx.nodes[nid]
			if !ok {
				continue
			}
			dist := point.SquaredDistance(query, nn.entry.Point)
			worstBest := worstDistance(best, ef)
			if best.Len() < ef || dist < worstBest {
				heap.Push(frontier, Candidate{Entry: nn.entry, ID: nid, Distance: dist})
				if nid != excludeID {
					heap.Push(best, Candidate{Entry: nn.entry, ID: nid, Distance: dist})
					if best.Len() > ef {
						heap.Pop(best)
					}
				}
			}
		}
	}

	out := make([]Candidate, best.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(best).(Candidate)
	}
	return out
}

func worstDistance(h *candidateHeap, ef int) uint64 {
	if h.Len() == 0 {
		return ^uint64(0)
	}
	return (*h)[0].Distance
}

// Size returns the number of indexed representatives.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.nodes)
}
