package mask

import (
	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"gridmask/pkg/grid"
	"gridmask/pkg/planning"
)

// refiner estimates partial volumes for one structure and grid. The lateral
// offsets and the depth bit buffer are shared by every voxel it refines.
type refiner struct {
	s planning.Structure
	g grid.Grid
	n int

	xOffsets []float64
	yOffsets []float64
	halfZ    r3.Vec
	bits     *bitset.BitSet
}

func newRefiner(s planning.Structure, g grid.Grid, n int) *refiner {
	return &refiner{
		s:        s,
		g:        g,
		n:        n,
		xOffsets: floats.Span(make([]float64, n), -0.5*g.XRes, 0.5*g.XRes),
		yOffsets: floats.Span(make([]float64, n), -0.5*g.YRes, 0.5*g.YRes),
		halfZ:    r3.Scale(0.5*g.ZRes, g.ZDirection),
		bits:     bitset.New(uint(n)),
	}
}

// refine samples an n x n lattice of depth segments across voxel
// (ix, iy, iz), n points per segment, and returns the inside fraction.
func (r *refiner) refine(ix, iy, iz int) (float64, error) {
	center := r.g.VoxelCenter(ix, iy, iz)
	inside := uint(0)
	for _, xf := range r.xOffsets {
		for _, yf := range r.yOffsets {
			lateral := r3.Add(center, r3.Add(r3.Scale(xf, r.g.XDirection), r3.Scale(yf, r.g.YDirection)))
			start := r3.Sub(lateral, r.halfZ)
			stop := r3.Add(lateral, r.halfZ)

			r.bits.ClearAll()
			if err := r.s.GetSegmentProfile(start, stop, r.bits); err != nil {
				return 0, err
			}
			if r.bits.Len() > uint(r.n) {
				// samples past n belong to no voxel
				r.bits.Shrink(uint(r.n) - 1)
			}
			inside += r.bits.Count()
		}
	}
	total := r.n * r.n * r.n
	return float64(inside) / float64(total), nil
}

// Refine returns the fraction of voxel (ix, iy, iz) inside s, estimated from
// subSamples³ samples evenly spaced over the voxel, faces included.
func Refine(s planning.Structure, g grid.Grid, ix, iy, iz, subSamples int) (float64, error) {
	if subSamples <= 1 {
		return 0, ErrInvalidSubsampleCount
	}
	return newRefiner(s, g, subSamples).refine(ix, iy, iz)
}
