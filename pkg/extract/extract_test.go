package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"gridmask/pkg/grid"
	"gridmask/pkg/mask"
	"gridmask/pkg/phantom"
	"gridmask/pkg/scan"
)

func TestImageAdapter(t *testing.T) {
	g := grid.AxisAligned(r3.Vec{X: 1, Y: 2, Z: 3}, [3]float64{1, 1, 2}, [3]int{3, 4, 5})
	im := &phantom.Image{Grid: g, Field: func(p r3.Vec) int32 {
		return int32(100*p.X + 10*p.Y + p.Z)
	}}
	a := NewImageAdapter(im, scan.WithVerify(true))

	vox, err := a.Voxels()
	require.NoError(t, err)
	require.Equal(t, [3]int{3, 4, 5}, vox.Shape())
	for x := 0; x < 3; x++ {
		for y := 0; y < 4; y++ {
			for z := 0; z < 5; z++ {
				p := g.VoxelCenter(x, y, z)
				assert.Equal(t, int32(100*p.X+10*p.Y+p.Z), vox.At(x, y, z))
			}
		}
	}

	arr, err := a.Array()
	require.NoError(t, err)
	assert.Equal(t, float64(vox.At(2, 3, 4)), arr.At(2, 3, 4))

	locs := a.VoxelLocations()
	require.Len(t, locs, g.Len())
	assert.Equal(t, g.Origin, locs[0])
}

func TestDoseAdapter(t *testing.T) {
	g := grid.AxisAligned(r3.Vec{}, [3]float64{2, 2, 2}, [3]int{4, 4, 4})
	d := &phantom.Dose{Grid: g, Field: func(p r3.Vec) float64 { return p.Z }, Step: 0.5}
	a := NewDoseAdapter(d)

	cal, err := a.Calibration()
	require.NoError(t, err)
	assert.Equal(t, 0.5, cal.Scale)

	arr, err := a.Array()
	require.NoError(t, err)
	assert.InDelta(t, 6.0, arr.At(1, 2, 3), 1e-12)

	fine := grid.AxisAligned(r3.Vec{}, [3]float64{1, 1, 1}, [3]int{2, 2, 7})
	on, err := a.ArrayLike(fine)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, on.At(1, 1, 5), 1e-12)
}

func TestStructureAdapter(t *testing.T) {
	g := grid.AxisAligned(r3.Vec{}, [3]float64{1, 1, 1}, [3]int{4, 4, 4})
	s := &phantom.Structure{Name: "box", Shape: phantom.Box{Min: r3.Vec{X: -1, Y: -1, Z: -1}, Max: r3.Vec{X: 5, Y: 5, Z: 5}}}
	a := NewStructureAdapter(s)

	binary, err := a.MaskLike(g, 0)
	require.NoError(t, err)
	graded, err := a.MaskLike(g, 2)
	require.NoError(t, err)
	assert.Equal(t, binary.Data, graded.Data)

	m, err := a.Mask(g)
	require.NoError(t, err)
	rep, err := a.Validate(g, m, 2, mask.DefaultMaxErrorPercent)
	require.NoError(t, err)
	assert.Equal(t, 64, rep.Checked)

	_, err = a.MaskLike(g, 1)
	assert.True(t, errors.Is(err, mask.ErrInvalidSubsampleCount))
}

func TestAdapters_StructureMaskOnOwnGrid(t *testing.T) {
	g := grid.AxisAligned(r3.Vec{}, [3]float64{1, 1, 1}, [3]int{3, 3, 3})
	s := &phantom.Structure{Name: "corner", Shape: phantom.Box{Max: r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}}}

	im := NewImageAdapter(&phantom.Image{Grid: g, Field: phantom.Gradient(r3.Vec{}, r3.Vec{X: 1})})
	m, err := im.StructureMask(s)
	require.NoError(t, err)
	assert.True(t, m.At(0, 0, 0))
	assert.False(t, m.At(1, 0, 0))

	d := NewDoseAdapter(&phantom.Dose{Grid: g, Field: func(r3.Vec) float64 { return 1 }, Step: 1})
	m2, err := d.StructureMask(s)
	require.NoError(t, err)
	assert.Equal(t, m.Data, m2.Data)
}
