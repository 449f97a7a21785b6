package mask

import (
	"errors"
	"fmt"

	"gridmask/pkg/grid"
	"gridmask/pkg/morph"
	"gridmask/pkg/planning"
	"gridmask/pkg/volume"
)

// ErrValidationFailed is returned when a mask disagrees with point tests on
// more voxels than allowed.
var ErrValidationFailed = errors.New("mask validation failed")

const (
	// DefaultMargin is how many voxels around the mask Validate point-tests.
	DefaultMargin = 4
	// DefaultMaxErrorPercent is the mismatch rate accepted by Validate.
	DefaultMaxErrorPercent = 0.05
)

// ValidationReport summarises a mask validation run.
type ValidationReport struct {
	Checked      int
	Mismatches   int
	ErrorPercent float64
}

// Validate point-tests every voxel center within margin voxels of the mask
// (the mask dilated margin times) and compares the result with the mask.
// It fails with ErrValidationFailed when the mismatch rate exceeds
// maxErrorPercent.
func Validate(s planning.Structure, g grid.Grid, m *volume.Array[bool], margin int, maxErrorPercent float64) (ValidationReport, error) {
	var rep ValidationReport
	if m.Shape() != g.Shape() {
		return rep, fmt.Errorf("mask: shape %v does not match grid %v", m.Shape(), g.Shape())
	}

	region := morph.Indices(morph.Dilate(m, margin))
	it := region.Iterator()
	for it.HasNext() {
		idx := int(it.Next())
		x, y, z := m.Coords(idx)
		inside, err := s.IsPointInsideSegment(g.VoxelCenter(x, y, z))
		if err != nil {
			return rep, err
		}
		rep.Checked++
		if inside != m.Data[idx] {
			rep.Mismatches++
		}
	}
	if rep.Checked == 0 {
		return rep, nil
	}

	rep.ErrorPercent = float64(rep.Mismatches) / float64(rep.Checked) * 100
	if rep.ErrorPercent > maxErrorPercent {
		return rep, fmt.Errorf("%w: %.3f%% of %d voxels differ (limit %.3f%%)",
			ErrValidationFailed, rep.ErrorPercent, rep.Checked, maxErrorPercent)
	}
	return rep, nil
}
