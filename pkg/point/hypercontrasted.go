package point

import "fmt"

// HyperContrasted lazily materializes random-but-deterministic values for
// every dimension not explicitly set, keyed off the point's id. It exists
// for synthetic test fixtures and ratings-style data (spec §3) where most
// dimensions are "whatever a deterministic hash says they are" rather than
// a real sparse absence. Materialized rows are held in a capacity-bounded
// pseudo-LRU cache shared across a dataset (pkg/point.cache.go), so memory
// stays O(capacity·D) instead of O(N·D) even though every point's full row
// can, in principle, be asked for.
type HyperContrasted struct {
	id               uint64
	dim              int
	maxGenerated     uint32 // inclusive upper bound for generated coordinates
	overrideIndices  []int
	overrideValues   []uint32
	squaredMagnitude uint64
	maxCoord         uint32

	cache *lruCache
}

// HyperContrastedCache is a bounded, shared cache for HyperContrasted rows.
// Construct one per dataset and pass it to every NewHyperContrasted call
// for that dataset so capacity is shared, not per-point.
type HyperContrastedCache struct {
	inner *lruCache
}

// NewHyperContrastedCache creates a shared cache of the given capacity
// (spec §5 default: 10000 entries).
func NewHyperContrastedCache(capacity int) *HyperContrastedCache {
	return &HyperContrastedCache{inner: newLRUCache(capacity)}
}

// Stats reports (hits, misses) for the cache-hit-rate property test.
func (c *HyperContrastedCache) Stats() (hits, misses int64) { return c.inner.Stats() }

// NewHyperContrasted builds a point of dim dimensions where overrideIndices/
// overrideValues pin specific dimensions and every other dimension is
// generated deterministically from (id, dimension) the first time it is
// materialized. cache may be nil, in which case every access re-derives
// the row (no memoization, no bound violation, just slower).
func NewHyperContrasted(dim int, maxGenerated uint32, overrideIndices []int, overrideValues []uint32, cache *HyperContrastedCache) *HyperContrasted {
	id := NextID()
	return newHyperContrastedWithID(id, dim, maxGenerated, overrideIndices, overrideValues, cache)
}

func newHyperContrastedWithID(id uint64, dim int, maxGenerated uint32, overrideIndices []int, overrideValues []uint32, cache *HyperContrastedCache) *HyperContrasted {
	p := &HyperContrasted{
		id:              id,
		dim:             dim,
		maxGenerated:    maxGenerated,
		overrideIndices: append([]int(nil), overrideIndices...),
		overrideValues:  append([]uint32(nil), overrideValues...),
	}
	if cache != nil {
		p.cache = cache.inner
	}
	row := p.materialize()
	p.squaredMagnitude, p.maxCoord = squaredMagnitudeAndMax(row)
	return p
}

func (p *HyperContrasted) ID() uint64              { return p.id }
func (p *HyperContrasted) Dim() int                { return p.dim }
func (p *HyperContrasted) MaxCoord() uint32        { return p.maxCoord }
func (p *HyperContrasted) SquaredMagnitude() uint64 { return p.squaredMagnitude }

func (p *HyperContrasted) Coord(i int) uint32 {
	return p.materialize()[i]
}

func (p *HyperContrasted) EachCoord(fn func(i int, v uint32)) {
	row := p.materialize()
	for i, v := range row {
		fn(i, v)
	}
}

// materialize returns the full coordinate row, consulting the shared cache
// first and re-deriving (then caching) on a miss.
func (p *HyperContrasted) materialize() []uint32 {
	if p.cache != nil {
		if row, ok := p.cache.get(p.id); ok {
			return row
		}
	}

	row := make([]uint32, p.dim)
	if p.maxGenerated > 0 {
		for i := range row {
			row[i] = deterministicCoord(p.id, i, p.maxGenerated)
		}
	}
	for k, idx := range p.overrideIndices {
		if idx >= 0 && idx < p.dim {
			row[idx] = p.overrideValues[k]
		}
	}

	if p.cache != nil {
		p.cache.put(p.id, row)
	}
	return row
}

// deterministicCoord derives a pseudo-random but id/dimension-stable value
// in [0, max] via splitmix64, so the same (id, dimension) pair always
// produces the same value regardless of materialization order.
func deterministicCoord(id uint64, dim int, max uint32) uint32 {
	x := id*0x9E3779B97F4A7C15 + uint64(dim)*0xBF58476D1CE4E5B9
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return uint32(x % uint64(max+1))
}

func (p *HyperContrasted) String() string {
	return fmt.Sprintf("HyperContrasted(id=%d, dim=%d)", p.id, p.dim)
}
