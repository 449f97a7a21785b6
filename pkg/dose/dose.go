// Package dose converts raw dose-grid samples into physical dose.
//
// Dose grids store integers. Two reference queries (raw 0 and raw 1) give the
// linear calibration; voxels the planning system reports as undefined (NaN,
// e.g. outside the calculated volume) are treated as zero dose.
package dose

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gridmask/pkg/grid"
	"gridmask/pkg/planning"
	"gridmask/pkg/scan"
	"gridmask/pkg/volume"
)

// ErrDegenerateCalibration is returned when the two reference samples map to
// the same dose.
var ErrDegenerateCalibration = errors.New("degenerate dose calibration")

// Calibration is the linear map from raw stored integers to dose.
type Calibration struct {
	Scale  float64
	Offset float64
}

// Calibrate derives the calibration from raw values 0 and 1:
// Scale = dose(1) - dose(0) and Offset = dose(0) / Scale.
func Calibrate(src planning.DoseValues) (Calibration, error) {
	d0, err := src.VoxelToDoseValue(0)
	if err != nil {
		return Calibration{}, err
	}
	d1, err := src.VoxelToDoseValue(1)
	if err != nil {
		return Calibration{}, err
	}
	scale := d1 - d0
	if scale == 0 || math.IsNaN(scale) {
		return Calibration{}, fmt.Errorf("%w: dose(0) = dose(1) = %g", ErrDegenerateCalibration, d0)
	}
	return Calibration{Scale: scale, Offset: d0 / scale}, nil
}

// Value maps one raw sample to dose.
func (c Calibration) Value(raw float64) float64 {
	return c.Scale*raw + c.Offset
}

// Apply returns Scale*raw + Offset for every voxel, with NaN results set to
// 0, and the number of voxels scrubbed.
func (c Calibration) Apply(raw *volume.Array[int32]) (*volume.Array[float64], int) {
	out := volume.Map(raw, func(v int32) float64 {
		return c.Value(float64(v))
	})
	return out, ScrubNaN(out)
}

// ScrubNaN replaces NaN voxels of a with 0 and returns how many were replaced.
func ScrubNaN(a *volume.Array[float64]) int {
	n := 0
	for i, v := range a.Data {
		if math.IsNaN(v) {
			a.Data[i] = 0
			n++
		}
	}
	return n
}

// ForGrid extracts the dose on its own grid: raw voxels are read plane by
// plane and calibrated.
func ForGrid(d planning.Dose, opts ...scan.Option) (*volume.Array[float64], error) {
	o := scan.Apply(opts...)
	// degenerate calibrations fail before any plane is read
	cal, err := Calibrate(d)
	if err != nil {
		return nil, err
	}
	raw, err := scan.Planes(d, opts...)
	if err != nil {
		return nil, err
	}
	out, scrubbed := cal.Apply(raw)
	o.Logger.LogCalibration(context.Background(), cal.Scale, cal.Offset, scrubbed)
	return out, nil
}

// OnGrid samples physical dose on the columns of another grid g (usually the
// image grid) through GetDoseProfile.
func OnGrid(d planning.Dose, g grid.Grid, opts ...scan.Option) (*volume.Array[float64], error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	o := scan.Apply(opts...)
	out, err := scan.Profiles[float64](g, d.GetDoseProfile, opts...)
	if err != nil {
		return nil, err
	}
	if n := ScrubNaN(out); n > 0 {
		o.Logger.Debug("dose profile samples outside calculated volume", "nan_voxels", n)
	}
	return out, nil
}
