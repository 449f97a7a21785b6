package phantom

import (
	"math"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"gridmask/pkg/grid"
)

func TestShapes(t *testing.T) {
	s := Sphere{Center: r3.Vec{X: 1}, Radius: 2}
	assert.True(t, s.Contains(r3.Vec{X: 3}))
	assert.False(t, s.Contains(r3.Vec{X: 3.01}))

	b := Box{Min: r3.Vec{}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}
	assert.True(t, b.Contains(r3.Vec{X: 1, Y: 0.5}))
	assert.False(t, b.Contains(r3.Vec{X: -0.1}))

	h := HalfSpace{Point: r3.Vec{Z: 2}, Normal: r3.Vec{Z: 1}}
	assert.True(t, h.Contains(r3.Vec{Z: 2}))
	assert.False(t, h.Contains(r3.Vec{Z: 2.5}))

	assert.False(t, Empty{}.Contains(r3.Vec{}))
}

func TestStructure_SegmentProfile(t *testing.T) {
	s := &Structure{Name: "slab", Shape: HalfSpace{Point: r3.Vec{Z: 1.5}, Normal: r3.Vec{Z: 1}}}
	buf := bitset.New(5)

	// samples at z = 0, 1, 2, 3, 4
	require.NoError(t, s.GetSegmentProfile(r3.Vec{}, r3.Vec{Z: 4}, buf))
	assert.True(t, buf.Test(0))
	assert.True(t, buf.Test(1))
	assert.False(t, buf.Test(2))
	assert.Equal(t, uint(2), buf.Count())
	assert.Equal(t, int64(1), s.ProfileCalls.Load())

	in, err := s.IsPointInsideSegment(r3.Vec{Z: 1})
	require.NoError(t, err)
	assert.True(t, in)
}

func TestImage_GetVoxels(t *testing.T) {
	g := grid.AxisAligned(r3.Vec{}, [3]float64{1, 1, 1}, [3]int{2, 3, 2})
	im := &Image{Grid: g, Field: Gradient(r3.Vec{}, r3.Vec{Y: 1})}

	buf := make([]int32, 6)
	require.NoError(t, im.GetVoxels(1, buf))
	assert.Equal(t, []int32{0, 1, 2, 0, 1, 2}, buf)

	assert.Error(t, im.GetVoxels(0, make([]int32, 5)))
	assert.Error(t, im.GetVoxels(2, buf))
}

func TestDose_RawAndProfile(t *testing.T) {
	g := grid.AxisAligned(r3.Vec{}, [3]float64{1, 1, 1}, [3]int{1, 1, 3})
	d := &Dose{
		Grid:       g,
		Field:      func(p r3.Vec) float64 { return 2 * p.Z },
		Step:       0.5,
		Calculated: Box{Min: r3.Vec{Z: -1}, Max: r3.Vec{Z: 1}},
	}

	buf := make([]int32, 1)
	require.NoError(t, d.GetVoxels(1, buf))
	assert.Equal(t, int32(4), buf[0])

	v, err := d.VoxelToDoseValue(4)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	prof := make([]float64, 3)
	require.NoError(t, d.GetDoseProfile(r3.Vec{}, r3.Vec{Z: 2}, prof))
	assert.Equal(t, 0.0, prof[0])
	assert.Equal(t, 2.0, prof[1])
	assert.True(t, math.IsNaN(prof[2]))
}

func TestDose_ProfileOutsideGridIsNaN(t *testing.T) {
	g := grid.AxisAligned(r3.Vec{}, [3]float64{2, 2, 2}, [3]int{2, 2, 2})
	d := &Dose{Grid: g, Field: func(r3.Vec) float64 { return 5 }, Step: 1}

	// the grid box spans [-1, 3] on every axis
	prof := make([]float64, 3)
	require.NoError(t, d.GetDoseProfile(r3.Vec{Z: -1}, r3.Vec{Z: 5}, prof))
	assert.Equal(t, 5.0, prof[0])
	assert.Equal(t, 5.0, prof[1])
	assert.True(t, math.IsNaN(prof[2]))
}

func TestRadialDose(t *testing.T) {
	f := RadialDose(r3.Vec{}, 60, 10)
	assert.Equal(t, 60.0, f(r3.Vec{}))
	assert.InDelta(t, 30.0, f(r3.Vec{X: 5}), 1e-12)
	assert.Equal(t, 0.0, f(r3.Vec{Y: 11}))
}
