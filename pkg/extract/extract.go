// Package extract wraps planning collaborators in adapters that expose
// their voxel data as dense arrays.
//
// The adapters hold a collaborator and the scan options to use; they never
// modify the collaborator. Typical use:
//
//	sa := extract.NewStructureAdapter(structure, scan.WithVerify(true))
//	m, err := sa.MaskLike(doseGrid, 3)
package extract

import (
	"gonum.org/v1/gonum/spatial/r3"

	"gridmask/pkg/dose"
	"gridmask/pkg/grid"
	"gridmask/pkg/mask"
	"gridmask/pkg/planning"
	"gridmask/pkg/scan"
	"gridmask/pkg/volume"
)

// ImageAdapter exposes an image's voxels.
type ImageAdapter struct {
	img  planning.Image
	opts []scan.Option
}

// NewImageAdapter wraps img.
func NewImageAdapter(img planning.Image, opts ...scan.Option) *ImageAdapter {
	return &ImageAdapter{img: img, opts: opts}
}

// Grid returns the image geometry.
func (a *ImageAdapter) Grid() grid.Grid { return a.img.Geometry() }

// Voxels returns the raw intensities indexed [x, y, z].
func (a *ImageAdapter) Voxels() (*volume.Array[int32], error) {
	return scan.Planes(a.img, a.opts...)
}

// Array returns the intensities as float64.
func (a *ImageAdapter) Array() (*volume.Array[float64], error) {
	raw, err := a.Voxels()
	if err != nil {
		return nil, err
	}
	return volume.ToFloat64(raw), nil
}

// StructureMask returns the binary mask of s on the image grid.
func (a *ImageAdapter) StructureMask(s planning.Structure) (*volume.Array[bool], error) {
	return mask.Build(s, a.Grid(), a.opts...)
}

// VoxelLocations returns the position of every voxel in [x, y, z] order.
func (a *ImageAdapter) VoxelLocations() []r3.Vec { return a.Grid().VoxelPoints() }

// DoseAdapter exposes a dose grid.
type DoseAdapter struct {
	d    planning.Dose
	opts []scan.Option
}

// NewDoseAdapter wraps d.
func NewDoseAdapter(d planning.Dose, opts ...scan.Option) *DoseAdapter {
	return &DoseAdapter{d: d, opts: opts}
}

// Grid returns the dose geometry.
func (a *DoseAdapter) Grid() grid.Grid { return a.d.Geometry() }

// Calibration returns the raw-to-dose calibration of the grid.
func (a *DoseAdapter) Calibration() (dose.Calibration, error) {
	return dose.Calibrate(a.d)
}

// Array returns the calibrated dose on the dose grid.
func (a *DoseAdapter) Array() (*volume.Array[float64], error) {
	return dose.ForGrid(a.d, a.opts...)
}

// ArrayLike returns the dose sampled on g, for example an image grid.
func (a *DoseAdapter) ArrayLike(g grid.Grid) (*volume.Array[float64], error) {
	return dose.OnGrid(a.d, g, a.opts...)
}

// StructureMask returns the binary mask of s on the dose grid.
func (a *DoseAdapter) StructureMask(s planning.Structure) (*volume.Array[bool], error) {
	return mask.Build(s, a.Grid(), a.opts...)
}

// VoxelLocations returns the position of every voxel in [x, y, z] order.
func (a *DoseAdapter) VoxelLocations() []r3.Vec { return a.Grid().VoxelPoints() }

// StructureAdapter exposes a structure's occupancy on arbitrary grids.
type StructureAdapter struct {
	s    planning.Structure
	opts []scan.Option
}

// NewStructureAdapter wraps s.
func NewStructureAdapter(s planning.Structure, opts ...scan.Option) *StructureAdapter {
	return &StructureAdapter{s: s, opts: opts}
}

// Mask returns the binary mask of the structure on g.
func (a *StructureAdapter) Mask(g grid.Grid) (*volume.Array[bool], error) {
	return mask.Build(a.s, g, a.opts...)
}

// MaskLike returns the occupancy on g. With subSamples == 0 it is the binary
// mask as 0/1 values; otherwise boundary voxels carry partial volumes.
func (a *StructureAdapter) MaskLike(g grid.Grid, subSamples int) (*volume.Array[float64], error) {
	if subSamples == 0 {
		m, err := a.Mask(g)
		if err != nil {
			return nil, err
		}
		return volume.ToFloat64(m), nil
	}
	return mask.BuildSubsampled(a.s, g, subSamples, a.opts...)
}

// Validate checks m against point tests within margin voxels of the mask.
func (a *StructureAdapter) Validate(g grid.Grid, m *volume.Array[bool], margin int, maxErrorPercent float64) (mask.ValidationReport, error) {
	return mask.Validate(a.s, g, m, margin, maxErrorPercent)
}
