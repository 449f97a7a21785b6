// Package grid maps voxel indices of a 3D image or dose grid to physical
// positions and produces the ray endpoints used by profile scans.
package grid

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidGrid is returned by Validate for grids that break an invariant.
var ErrInvalidGrid = errors.New("invalid grid")

// tolerance for unit length and orthogonality checks
const tolerance = 1e-6

// Grid is a read-only description of a voxel lattice.
//
// Voxel (i, j, k) sits at Origin + i*XRes*XDirection + j*YRes*YDirection +
// k*ZRes*ZDirection. Resolutions are in millimetres.
type Grid struct {
	Origin r3.Vec

	XDirection r3.Vec
	YDirection r3.Vec
	ZDirection r3.Vec

	XRes float64
	YRes float64
	ZRes float64

	XSize int
	YSize int
	ZSize int
}

// AxisAligned returns a grid whose directions are the unit axes.
func AxisAligned(origin r3.Vec, res [3]float64, size [3]int) Grid {
	return Grid{
		Origin:     origin,
		XDirection: r3.Vec{X: 1},
		YDirection: r3.Vec{Y: 1},
		ZDirection: r3.Vec{Z: 1},
		XRes:       res[0],
		YRes:       res[1],
		ZRes:       res[2],
		XSize:      size[0],
		YSize:      size[1],
		ZSize:      size[2],
	}
}

// Validate checks sizes, resolutions and the orthonormality of the directions.
func (g Grid) Validate() error {
	if g.XSize < 1 || g.YSize < 1 || g.ZSize < 1 {
		return fmt.Errorf("%w: size (%d, %d, %d) must be at least 1 on every axis",
			ErrInvalidGrid, g.XSize, g.YSize, g.ZSize)
	}
	if !(g.XRes > 0 && g.YRes > 0 && g.ZRes > 0) {
		return fmt.Errorf("%w: resolution (%g, %g, %g) must be positive",
			ErrInvalidGrid, g.XRes, g.YRes, g.ZRes)
	}
	dirs := [3]r3.Vec{g.XDirection, g.YDirection, g.ZDirection}
	for i, d := range dirs {
		if math.Abs(r3.Norm(d)-1) > tolerance {
			return fmt.Errorf("%w: direction %d is not a unit vector", ErrInvalidGrid, i)
		}
		for j := i + 1; j < 3; j++ {
			if math.Abs(r3.Dot(d, dirs[j])) > tolerance {
				return fmt.Errorf("%w: directions %d and %d are not orthogonal", ErrInvalidGrid, i, j)
			}
		}
	}
	return nil
}

// Len returns the number of voxels.
func (g Grid) Len() int {
	return g.XSize * g.YSize * g.ZSize
}

// Shape returns the extents as an array.
func (g Grid) Shape() [3]int {
	return [3]int{g.XSize, g.YSize, g.ZSize}
}

// VoxelVolume returns the volume of one voxel in mm³.
func (g Grid) VoxelVolume() float64 {
	return g.XRes * g.YRes * g.ZRes
}

// Segment is a ray through one grid column.
type Segment struct {
	Start r3.Vec
	Stop  r3.Vec
}

// rowStart returns the first column start of row x.
func (g Grid) rowStart(x int) r3.Vec {
	return r3.Add(g.Origin, r3.Scale(float64(x)*g.XRes, g.XDirection))
}

// depth is the vector spanning ZSize-1 voxel spacings along the depth axis.
func (g Grid) depth() r3.Vec {
	return r3.Scale(float64(g.ZSize-1)*g.ZRes, g.ZDirection)
}

// Columns walks row x of the grid and yields, for each y, the segment through
// the voxel centers of column (x, y). Starts are accumulated one YRes step at
// a time so every caller sees identical floating point endpoints.
func (g Grid) Columns(x int) iter.Seq2[int, Segment] {
	return func(yield func(int, Segment) bool) {
		depth := g.depth()
		yStep := r3.Scale(g.YRes, g.YDirection)
		start := g.rowStart(x)
		for y := 0; y < g.YSize; y++ {
			if !yield(y, Segment{Start: start, Stop: r3.Add(start, depth)}) {
				return
			}
			start = r3.Add(start, yStep)
		}
	}
}

// ColumnEndpoints returns the ray endpoints of column (x, y).
// It repeats the accumulation done by Columns.
func (g Grid) ColumnEndpoints(x, y int) (start, stop r3.Vec) {
	start = g.rowStart(x)
	yStep := r3.Scale(g.YRes, g.YDirection)
	for j := 0; j < y; j++ {
		start = r3.Add(start, yStep)
	}
	return start, r3.Add(start, g.depth())
}

// VoxelCenter returns the physical position of voxel (ix, iy, iz).
func (g Grid) VoxelCenter(ix, iy, iz int) r3.Vec {
	p := g.Origin
	p = r3.Add(p, r3.Scale(float64(ix)*g.XRes, g.XDirection))
	p = r3.Add(p, r3.Scale(float64(iy)*g.YRes, g.YDirection))
	p = r3.Add(p, r3.Scale(float64(iz)*g.ZRes, g.ZDirection))
	return p
}

// VoxelPoints returns the position of every voxel in [x, y, z] order, the
// same flat order used by volume.Array.
func (g Grid) VoxelPoints() []r3.Vec {
	pts := make([]r3.Vec, 0, g.Len())
	for ix := 0; ix < g.XSize; ix++ {
		for iy := 0; iy < g.YSize; iy++ {
			for iz := 0; iz < g.ZSize; iz++ {
				pts = append(pts, g.VoxelCenter(ix, iy, iz))
			}
		}
	}
	return pts
}

// Contains reports whether p lies inside the grid's bounding box, measured
// from the outer faces of the edge voxels.
func (g Grid) Contains(p r3.Vec) bool {
	d := r3.Sub(p, g.Origin)
	u := r3.Dot(d, g.XDirection) / g.XRes
	v := r3.Dot(d, g.YDirection) / g.YRes
	w := r3.Dot(d, g.ZDirection) / g.ZRes
	return u >= -0.5 && u <= float64(g.XSize)-0.5 &&
		v >= -0.5 && v <= float64(g.YSize)-0.5 &&
		w >= -0.5 && w <= float64(g.ZSize)-0.5
}
