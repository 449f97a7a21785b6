// Package planning declares the narrow interfaces through which the engine
// talks to an external treatment-planning data model. Implementations live
// outside this module; pkg/phantom provides an analytic one for tests and
// demos.
//
// Errors returned by these methods are collaborator faults. The engine
// passes them through unchanged and never retries.
package planning

import (
	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/spatial/r3"

	"gridmask/pkg/grid"
)

// Image is a voxel grid with raw integer intensities.
type Image interface {
	// Geometry returns the grid snapshot of the image.
	Geometry() grid.Grid
	// GetVoxels fills buf with the XSize*YSize raw values of depth plane z,
	// laid out row-major as [x][y].
	GetVoxels(z int, buf []int32) error
}

// Structure is a boundary-defined region.
type Structure interface {
	ID() string
	// HasSegment reports whether the structure carries segment data.
	HasSegment() bool
	// GetSegmentProfile samples the segment at buf.Len() evenly spaced points
	// from start to stop inclusive and sets bit i when point i is inside.
	GetSegmentProfile(start, stop r3.Vec, buf *bitset.BitSet) error
	// IsPointInsideSegment tests a single point.
	IsPointInsideSegment(p r3.Vec) (bool, error)
}

// DoseValues maps raw stored dose integers to physical dose.
type DoseValues interface {
	VoxelToDoseValue(raw int32) (float64, error)
}

// Dose is a dose grid.
type Dose interface {
	Image
	DoseValues
	// GetDoseProfile samples physical dose at len(buf) evenly spaced points
	// from start to stop inclusive. Points outside the calculated volume are NaN.
	GetDoseProfile(start, stop r3.Vec, buf []float64) error
}
