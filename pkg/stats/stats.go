// Package stats computes dose statistics over a structure's occupancy.
//
// Occupancy is a fraction per voxel as produced by mask.BuildSubsampled;
// binary masks convert with volume.ToFloat64. Every voxel contributes to
// the statistics in proportion to its occupancy.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"gridmask/pkg/grid"
	"gridmask/pkg/volume"
)

// ErrEmptyStructure is returned when the occupancy has no weight.
var ErrEmptyStructure = errors.New("stats: structure does not occupy any voxel")

// mm3PerCC converts cubic millimetres to cubic centimetres.
const mm3PerCC = 1000.0

// Summary holds the dose statistics of one structure.
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	// Volume is the occupied volume in cc.
	Volume float64 `json:"volume"`
	Voxels int     `json:"voxels"`
}

// DoseVolume holds the occupied dose samples sorted ascending with their
// weights. It answers dose-at-volume queries.
type DoseVolume struct {
	doses   []float64
	weights []float64
	total   float64
	voxel   float64
}

// Collect gathers the voxels of dose with positive occupancy.
func Collect(g grid.Grid, dose, occupancy *volume.Array[float64]) (*DoseVolume, error) {
	if !volume.SameShape(dose, occupancy) {
		return nil, fmt.Errorf("stats: dose shape %v does not match occupancy %v", dose.Shape(), occupancy.Shape())
	}
	if dose.Shape() != g.Shape() {
		return nil, fmt.Errorf("stats: array shape %v does not match grid %v", dose.Shape(), g.Shape())
	}

	dv := &DoseVolume{voxel: g.VoxelVolume()}
	for i, w := range occupancy.Data {
		if w <= 0 || math.IsNaN(w) {
			continue
		}
		dv.doses = append(dv.doses, dose.Data[i])
		dv.weights = append(dv.weights, w)
	}
	if len(dv.doses) == 0 {
		return nil, ErrEmptyStructure
	}
	stat.SortWeighted(dv.doses, dv.weights)
	dv.total = floats.Sum(dv.weights)
	return dv, nil
}

// Summary returns the weighted statistics.
func (dv *DoseVolume) Summary() Summary {
	mean, std := stat.PopMeanStdDev(dv.doses, dv.weights)
	return Summary{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(dv.doses),
		Max:    floats.Max(dv.doses),
		Volume: dv.total * dv.voxel / mm3PerCC,
		Voxels: len(dv.doses),
	}
}

// DoseAtVolume returns the minimum dose received by the hottest percent of
// the structure volume, for example DoseAtVolume(95) for D95.
func (dv *DoseVolume) DoseAtVolume(percent float64) (float64, error) {
	if percent < 0 || percent > 100 || math.IsNaN(percent) {
		return 0, fmt.Errorf("stats: volume percent %v outside [0, 100]", percent)
	}
	target := percent * dv.total / 100
	var w float64
	for i := len(dv.doses) - 1; i >= 0; i-- {
		w += dv.weights[i]
		if w >= target {
			return dv.doses[i], nil
		}
	}
	return dv.doses[0], nil
}

// Median returns the weighted median dose.
func (dv *DoseVolume) Median() float64 {
	return stat.Quantile(0.5, stat.Empirical, dv.doses, dv.weights)
}

// VolumeAtDose returns the percent of the structure volume receiving at
// least d.
func (dv *DoseVolume) VolumeAtDose(d float64) float64 {
	var w float64
	for i := len(dv.doses) - 1; i >= 0 && dv.doses[i] >= d; i-- {
		w += dv.weights[i]
	}
	return 100 * w / dv.total
}

// Compute is Collect followed by Summary.
func Compute(g grid.Grid, dose, occupancy *volume.Array[float64]) (Summary, error) {
	dv, err := Collect(g, dose, occupancy)
	if err != nil {
		return Summary{}, err
	}
	return dv.Summary(), nil
}
