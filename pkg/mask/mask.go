// Package mask builds structure occupancy masks on a voxel grid.
//
// Build returns the binary mask obtained by sampling the structure's segment
// profile through every grid column. BuildSubsampled additionally refines
// the voxels on the mask boundary into fractional occupancy by sub-voxel
// sampling.
package mask

import (
	"context"
	"errors"
	"fmt"

	"gridmask/pkg/grid"
	"gridmask/pkg/morph"
	"gridmask/pkg/planning"
	"gridmask/pkg/scan"
	"gridmask/pkg/volume"
)

var (
	// ErrNoSegmentData is returned for structures without segment data.
	ErrNoSegmentData = errors.New("structure has no segment data")

	// ErrInvalidSubsampleCount is returned for sub-sample counts below 2.
	ErrInvalidSubsampleCount = errors.New("sub-sample count must be greater than 1")
)

// Build returns the binary occupancy of s on g.
func Build(s planning.Structure, g grid.Grid, opts ...scan.Option) (*volume.Array[bool], error) {
	if !s.HasSegment() {
		return nil, fmt.Errorf("%w: %s", ErrNoSegmentData, s.ID())
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return scan.PackedProfiles(g, s.GetSegmentProfile, opts...)
}

// BuildSubsampled returns the occupancy of s on g with boundary voxels
// refined to the fraction of subSamples³ sub-voxel samples inside the
// structure. Voxels off the boundary keep their eroded binary value.
func BuildSubsampled(s planning.Structure, g grid.Grid, subSamples int, opts ...scan.Option) (*volume.Array[float64], error) {
	if subSamples <= 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSubsampleCount, subSamples)
	}
	o := scan.Apply(opts...)

	binary, err := Build(s, g, opts...)
	if err != nil {
		return nil, err
	}

	_, eroded, boundary := morph.Boundary(binary)

	log := o.Logger.WithStructure(s.ID())
	partials := volume.New[float64](g.XSize, g.YSize, g.ZSize)
	r := newRefiner(s, g, subSamples)
	it := boundary.Iterator()
	for it.HasNext() {
		idx := int(it.Next())
		ix, iy, iz := partials.Coords(idx)
		f, err := r.refine(ix, iy, iz)
		if err != nil {
			log.LogRefine(context.Background(), boundary.GetCardinality(), subSamples, err)
			return nil, err
		}
		partials.Data[idx] = f
	}
	log.LogRefine(context.Background(), boundary.GetCardinality(), subSamples, nil)

	return combine(partials, eroded)
}

// combine returns partials + eroded. Refined values only exist on boundary
// voxels, which are never part of the eroded core.
func combine(partials *volume.Array[float64], eroded *volume.Array[bool]) (*volume.Array[float64], error) {
	out := volume.New[float64](partials.XSize, partials.YSize, partials.ZSize)
	for i, p := range partials.Data {
		if !eroded.Data[i] {
			out.Data[i] = p
			continue
		}
		if p != 0 {
			return nil, fmt.Errorf("mask: voxel %d is both refined and in the eroded core", i)
		}
		out.Data[i] = 1
	}
	return out, nil
}
