package stats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"gridmask/pkg/grid"
	"gridmask/pkg/volume"
)

// line returns a 1x1x5 grid of 10 mm voxels with doses 1..5.
func line(t *testing.T) (grid.Grid, *volume.Array[float64]) {
	t.Helper()
	g := grid.AxisAligned(r3.Vec{}, [3]float64{10, 10, 10}, [3]int{1, 1, 5})
	d, err := volume.FromData([]float64{1, 2, 3, 4, 5}, 1, 1, 5)
	require.NoError(t, err)
	return g, d
}

func TestCompute_BinaryMask(t *testing.T) {
	g, d := line(t)
	occ, err := volume.FromData([]float64{1, 1, 1, 1, 1}, 1, 1, 5)
	require.NoError(t, err)

	s, err := Compute(g, d, occ)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, s.Mean, 1e-12)
	assert.InDelta(t, 1.4142135623730951, s.StdDev, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 5, s.Voxels)
	// five 1000 mm3 voxels
	assert.InDelta(t, 5.0, s.Volume, 1e-12)
}

func TestCompute_FractionalWeights(t *testing.T) {
	g, d := line(t)
	occ, err := volume.FromData([]float64{0, 0.5, 1, 0.5, 0}, 1, 1, 5)
	require.NoError(t, err)

	s, err := Compute(g, d, occ)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, s.Mean, 1e-12)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.Equal(t, 3, s.Voxels)
	assert.InDelta(t, 2.0, s.Volume, 1e-12)
}

func TestCompute_Empty(t *testing.T) {
	g, d := line(t)
	_, err := Compute(g, d, volume.New[float64](1, 1, 5))
	assert.True(t, errors.Is(err, ErrEmptyStructure))
}

func TestCompute_ShapeMismatch(t *testing.T) {
	g, d := line(t)
	_, err := Compute(g, d, volume.New[float64](1, 5, 1))
	assert.Error(t, err)
}

func TestDoseAtVolume(t *testing.T) {
	g, _ := line(t)
	d, err := volume.FromData([]float64{5, 1, 4, 2, 3}, 1, 1, 5)
	require.NoError(t, err)
	occ, err := volume.FromData([]float64{1, 1, 1, 1, 1}, 1, 1, 5)
	require.NoError(t, err)

	dv, err := Collect(g, d, occ)
	require.NoError(t, err)

	cases := []struct {
		percent float64
		want    float64
	}{
		{0, 5},
		{20, 5},
		{40, 4},
		{60, 3},
		{100, 1},
	}
	for _, c := range cases {
		got, err := dv.DoseAtVolume(c.percent)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "D%v", c.percent)
	}

	_, err = dv.DoseAtVolume(101)
	assert.Error(t, err)

	assert.Equal(t, 3.0, dv.Median())
	assert.InDelta(t, 60.0, dv.VolumeAtDose(3), 1e-12)
	assert.InDelta(t, 100.0, dv.VolumeAtDose(0), 1e-12)
	assert.Zero(t, dv.VolumeAtDose(6))
}
