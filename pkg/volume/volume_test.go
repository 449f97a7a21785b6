package volume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexCoordsRoundTrip(t *testing.T) {
	a := New[int32](3, 4, 5)
	for i := 0; i < a.Len(); i++ {
		x, y, z := a.Coords(i)
		require.True(t, a.InBounds(x, y, z))
		assert.Equal(t, i, a.Index(x, y, z))
	}
	// z varies fastest
	assert.Equal(t, 1, a.Index(0, 0, 1))
	assert.Equal(t, 5, a.Index(0, 1, 0))
	assert.Equal(t, 20, a.Index(1, 0, 0))
}

func TestSetColumn(t *testing.T) {
	a := New[float64](2, 2, 3)
	require.NoError(t, a.SetColumn(1, 0, []float64{1, 2, 3}))

	assert.Equal(t, []float64{1, 2, 3}, a.Column(1, 0))
	assert.Equal(t, 2.0, a.At(1, 0, 1))
	assert.Equal(t, 0.0, a.At(0, 0, 1))

	assert.Error(t, a.SetColumn(0, 0, []float64{1, 2}))
}

func TestSetPlane_Orders(t *testing.T) {
	// 2x3 plane, values encode (x, y) as 10*x + y
	rowMajor := []int32{0, 1, 2, 10, 11, 12}
	colMajor := []int32{0, 10, 1, 11, 2, 12}

	for _, tc := range []struct {
		order Order
		plane []int32
	}{
		{RowMajor, rowMajor},
		{ColumnMajor, colMajor},
	} {
		t.Run(tc.order.String(), func(t *testing.T) {
			a := New[int32](2, 3, 2)
			require.NoError(t, a.SetPlane(1, tc.plane, tc.order))
			for x := 0; x < 2; x++ {
				for y := 0; y < 3; y++ {
					assert.Equal(t, int32(10*x+y), a.At(x, y, 1))
					assert.Equal(t, int32(0), a.At(x, y, 0))
				}
			}
			assert.Equal(t, rowMajor, a.Plane(1))
		})
	}
}

func TestSetPlane_Errors(t *testing.T) {
	a := New[int32](2, 2, 2)
	assert.Error(t, a.SetPlane(0, []int32{1, 2, 3}, RowMajor))
	assert.Error(t, a.SetPlane(2, []int32{1, 2, 3, 4}, RowMajor))
}

func TestFromData(t *testing.T) {
	_, err := FromData([]bool{true, false}, 1, 1, 3)
	assert.Error(t, err)

	a, err := FromData([]bool{true, false, true}, 1, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, Count(a))
	assert.Equal(t, [3]int{1, 1, 3}, a.Shape())
}

func TestToFloat64(t *testing.T) {
	b, _ := FromData([]bool{true, false}, 1, 1, 2)
	assert.Equal(t, []float64{1, 0}, ToFloat64(b).Data)

	i, _ := FromData([]int32{-3, 7}, 1, 2, 1)
	assert.Equal(t, []float64{-3, 7}, ToFloat64(i).Data)

	f, _ := FromData([]float32{0.5, 2}, 2, 1, 1)
	assert.Equal(t, []float64{0.5, 2}, ToFloat64(f).Data)

	d, _ := FromData([]float64{3, 4}, 1, 1, 2)
	assert.Equal(t, []float64{3, 4}, ToFloat64(d).Data)
}

func TestClone(t *testing.T) {
	a := New[float32](1, 1, 2)
	a.Set(0, 0, 1, 3)
	b := a.Clone()
	b.Set(0, 0, 1, 4)
	assert.Equal(t, float32(3), a.At(0, 0, 1))
	assert.True(t, SameShape(a, b))
}
