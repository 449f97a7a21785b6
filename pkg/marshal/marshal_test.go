package marshal

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_RoundTrip(t *testing.T) {
	t.Run("int32", func(t *testing.T) {
		src := []int32{0, -1, math.MaxInt32, math.MinInt32, 42}
		got, err := Marshal[int32](Slice(src), WithVerify(true))
		require.NoError(t, err)
		assert.Equal(t, src, got)
	})
	t.Run("float64", func(t *testing.T) {
		src := []float64{0, -0.5, math.Inf(1), math.SmallestNonzeroFloat64, 1e300}
		got, err := Marshal[float64](Slice(src), WithVerify(true))
		require.NoError(t, err)
		assert.Equal(t, src, got)
	})
	t.Run("float64 nan bits", func(t *testing.T) {
		src := []float64{math.NaN()}
		got, err := Marshal[float64](Slice(src))
		require.NoError(t, err)
		assert.Equal(t, math.Float64bits(src[0]), math.Float64bits(got[0]))
	})
	t.Run("float32", func(t *testing.T) {
		src := []float32{1.5, -2.25, math.MaxFloat32}
		got, err := Marshal[float32](Slice(src), WithVerify(true))
		require.NoError(t, err)
		assert.Equal(t, src, got)
	})
	t.Run("bool", func(t *testing.T) {
		src := []bool{true, false, false, true}
		got, err := Marshal[bool](Slice(src), WithVerify(true))
		require.NoError(t, err)
		assert.Equal(t, src, got)
	})
	t.Run("empty", func(t *testing.T) {
		got, err := Marshal[int32](Slice([]int32{}))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestMarshal_CopyIsIndependent(t *testing.T) {
	src := []int32{1, 2, 3}
	got, err := Marshal[int32](Slice(src))
	require.NoError(t, err)
	src[0] = 99
	assert.Equal(t, int32(1), got[0])
}

func TestMarshal_ElementSizeMismatch(t *testing.T) {
	_, err := Marshal[float64](Slice([]int32{1, 2}))
	assert.True(t, errors.Is(err, ErrMarshalMismatch))
}

// fakeBuffer lets tests control what the pinned view returns.
type fakeBuffer struct {
	n, size  int
	reads    [][]byte
	pinErr   error
	released int
	calls    int
}

func (f *fakeBuffer) Len() int      { return f.n }
func (f *fakeBuffer) ElemSize() int { return f.size }

func (f *fakeBuffer) Pin() (Pinned, error) {
	if f.pinErr != nil {
		return nil, f.pinErr
	}
	return fakePin{f}, nil
}

type fakePin struct{ f *fakeBuffer }

func (p fakePin) Bytes() []byte {
	i := p.f.calls
	if i >= len(p.f.reads) {
		i = len(p.f.reads) - 1
	}
	p.f.calls++
	return p.f.reads[i]
}

func (p fakePin) Release() { p.f.released++ }

func TestMarshal_PinningFailure(t *testing.T) {
	f := &fakeBuffer{n: 1, size: 4, pinErr: errors.New("locked")}
	_, err := Marshal[int32](f)
	assert.True(t, errors.Is(err, ErrPinningFailure))
	assert.Equal(t, 0, f.released)
}

func TestMarshal_LengthMismatchReleases(t *testing.T) {
	f := &fakeBuffer{n: 2, size: 4, reads: [][]byte{{1, 0, 0, 0}}}
	_, err := Marshal[int32](f)
	assert.True(t, errors.Is(err, ErrMarshalMismatch))
	assert.Equal(t, 1, f.released)
}

func TestMarshal_VerifyDetectsDivergence(t *testing.T) {
	f := &fakeBuffer{n: 2, size: 4, reads: [][]byte{
		{1, 0, 0, 0, 2, 0, 0, 0},
		{1, 0, 0, 0, 3, 0, 0, 0},
	}}

	_, err := Marshal[int32](f, WithVerify(true))
	assert.True(t, errors.Is(err, ErrMarshalMismatch))
	assert.Contains(t, err.Error(), "element 1")
	assert.Equal(t, 1, f.released)
}

func TestMarshal_WithoutVerifyIgnoresDivergence(t *testing.T) {
	f := &fakeBuffer{n: 2, size: 4, reads: [][]byte{
		{1, 0, 0, 0, 2, 0, 0, 0},
		{1, 0, 0, 0, 3, 0, 0, 0},
	}}

	got, err := Marshal[int32](f)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2}, got)
	assert.Equal(t, 1, f.released)
}

func TestSlicePin_ReleaseIsIdempotent(t *testing.T) {
	p, err := Slice([]float32{1}).Pin()
	require.NoError(t, err)
	assert.Len(t, p.Bytes(), 4)
	p.Release()
	p.Release()
	assert.Nil(t, p.Bytes())
}
