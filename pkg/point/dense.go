package point

import "fmt"

// Dense stores the full coordinate array for every dimension. This is the
// representation used by default when ingesting CSV/TSV records (pkg/ingest).
type Dense struct {
	id               uint64
	coords           []uint32
	squaredMagnitude uint64
	maxCoord         uint32
}

// NewDense builds a Dense point from a coordinate slice, assigning a fresh
// identity; the values are taken as given, without validation. The slice
// is copied; callers may reuse their buffer afterward.
func NewDense(coords []uint32) *Dense {
	cp := make([]uint32, len(coords))
	copy(cp, coords)
	sqMag, max := squaredMagnitudeAndMax(cp)
	return &Dense{
		id:               NextID(),
		coords:           cp,
		squaredMagnitude: sqMag,
		maxCoord:         max,
	}
}

// NewDenseWithID builds a Dense point with an explicit identity, for tests
// and for recluster mode where the original point identities must survive
// re-ingestion unchanged.
func NewDenseWithID(id uint64, coords []uint32) *Dense {
	cp := make([]uint32, len(coords))
	copy(cp, coords)
	sqMag, max := squaredMagnitudeAndMax(cp)
	return &Dense{id: id, coords: cp, squaredMagnitude: sqMag, maxCoord: max}
}

func (p *Dense) ID() uint64  { return p.id }
func (p *Dense) Dim() int    { return len(p.coords) }
func (p *Dense) MaxCoord() uint32        { return p.maxCoord }
func (p *Dense) SquaredMagnitude() uint64 { return p.squaredMagnitude }

func (p *Dense) Coord(i int) uint32 {
	if i < 0 || i >= len(p.coords) {
		panic(fmt.Sprintf("point: dimension %d out of range [0,%d)", i, len(p.coords)))
	}
	return p.coords[i]
}

func (p *Dense) EachCoord(fn func(i int, v uint32)) {
	for i, v := range p.coords {
		fn(i, v)
	}
}

func (p *Dense) String() string {
	return fmt.Sprintf("Dense(id=%d, dim=%d)", p.id, len(p.coords))
}
