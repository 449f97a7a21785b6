// Package volume provides the dense 3D arrays produced by the extraction
// operations. An Array stores its voxels in one flat slice indexed like
// [x, y, z] with z varying fastest, matching the column-wise scan order.
package volume

import (
	"fmt"
)

// Element is the set of voxel value types an Array can hold.
type Element interface {
	int32 | float64 | float32 | bool
}

// Order describes how a native 2D plane buffer is laid out in memory.
type Order int

const (
	// RowMajor planes store [x][y] with y varying fastest.
	RowMajor Order = iota
	// ColumnMajor planes store [x][y] with x varying fastest.
	ColumnMajor
)

// String implements fmt.Stringer.
func (o Order) String() string {
	switch o {
	case RowMajor:
		return "row-major"
	case ColumnMajor:
		return "column-major"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// Array is a dense 3D array of shape (XSize, YSize, ZSize).
type Array[T Element] struct {
	// Data holds XSize*YSize*ZSize voxels in [x, y, z] order
	Data []T

	XSize int
	YSize int
	ZSize int
}

// New allocates a zero-filled array of the given shape.
func New[T Element](xSize, ySize, zSize int) *Array[T] {
	if xSize < 0 || ySize < 0 || zSize < 0 {
		panic(fmt.Sprintf("volume: negative shape (%d, %d, %d)", xSize, ySize, zSize))
	}
	return &Array[T]{
		Data:  make([]T, xSize*ySize*zSize),
		XSize: xSize,
		YSize: ySize,
		ZSize: zSize,
	}
}

// FromData wraps data with the given shape without copying.
func FromData[T Element](data []T, xSize, ySize, zSize int) (*Array[T], error) {
	if len(data) != xSize*ySize*zSize {
		return nil, fmt.Errorf("volume: %d values do not fit shape (%d, %d, %d)",
			len(data), xSize, ySize, zSize)
	}
	return &Array[T]{Data: data, XSize: xSize, YSize: ySize, ZSize: zSize}, nil
}

// Shape returns the array extents.
func (a *Array[T]) Shape() [3]int {
	return [3]int{a.XSize, a.YSize, a.ZSize}
}

// Len returns the number of voxels.
func (a *Array[T]) Len() int {
	return len(a.Data)
}

// Index returns the flat offset of voxel (x, y, z).
func (a *Array[T]) Index(x, y, z int) int {
	return (x*a.YSize+y)*a.ZSize + z
}

// Coords is the inverse of Index.
func (a *Array[T]) Coords(idx int) (x, y, z int) {
	z = idx % a.ZSize
	idx /= a.ZSize
	y = idx % a.YSize
	x = idx / a.YSize
	return x, y, z
}

// InBounds reports whether (x, y, z) addresses a voxel of the array.
func (a *Array[T]) InBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < a.XSize && y < a.YSize && z < a.ZSize
}

// At returns voxel (x, y, z).
func (a *Array[T]) At(x, y, z int) T {
	return a.Data[a.Index(x, y, z)]
}

// Set stores v at voxel (x, y, z).
func (a *Array[T]) Set(x, y, z int, v T) {
	a.Data[a.Index(x, y, z)] = v
}

// Column returns the [x, y, :] column as a subslice sharing storage.
func (a *Array[T]) Column(x, y int) []T {
	off := a.Index(x, y, 0)
	return a.Data[off : off+a.ZSize : off+a.ZSize]
}

// SetColumn copies values into the [x, y, :] column.
func (a *Array[T]) SetColumn(x, y int, values []T) error {
	if len(values) != a.ZSize {
		return fmt.Errorf("volume: column has %d values, want %d", len(values), a.ZSize)
	}
	copy(a.Column(x, y), values)
	return nil
}

// SetPlane copies a native XSize*YSize plane buffer into [:, :, z].
func (a *Array[T]) SetPlane(z int, plane []T, order Order) error {
	if len(plane) != a.XSize*a.YSize {
		return fmt.Errorf("volume: plane has %d values, want %d", len(plane), a.XSize*a.YSize)
	}
	if z < 0 || z >= a.ZSize {
		return fmt.Errorf("volume: plane index %d out of range [0, %d)", z, a.ZSize)
	}
	for x := 0; x < a.XSize; x++ {
		for y := 0; y < a.YSize; y++ {
			var src int
			if order == ColumnMajor {
				src = y*a.XSize + x
			} else {
				src = x*a.YSize + y
			}
			a.Data[a.Index(x, y, z)] = plane[src]
		}
	}
	return nil
}

// Plane extracts [:, :, z] into a new row-major buffer.
func (a *Array[T]) Plane(z int) []T {
	out := make([]T, a.XSize*a.YSize)
	for x := 0; x < a.XSize; x++ {
		for y := 0; y < a.YSize; y++ {
			out[x*a.YSize+y] = a.Data[a.Index(x, y, z)]
		}
	}
	return out
}

// Clone returns a deep copy.
func (a *Array[T]) Clone() *Array[T] {
	out := New[T](a.XSize, a.YSize, a.ZSize)
	copy(out.Data, a.Data)
	return out
}

// SameShape reports whether b has the same extents as a.
func SameShape[T, U Element](a *Array[T], b *Array[U]) bool {
	return a.XSize == b.XSize && a.YSize == b.YSize && a.ZSize == b.ZSize
}

// Map applies fn to every voxel of a and returns the result as a new array.
func Map[T, U Element](a *Array[T], fn func(T) U) *Array[U] {
	out := New[U](a.XSize, a.YSize, a.ZSize)
	for i, v := range a.Data {
		out.Data[i] = fn(v)
	}
	return out
}

// ToFloat64 converts any numeric or boolean array to float64. True maps to 1.
func ToFloat64[T Element](a *Array[T]) *Array[float64] {
	return Map(a, func(v T) float64 {
		switch x := any(v).(type) {
		case bool:
			if x {
				return 1
			}
			return 0
		case int32:
			return float64(x)
		case float32:
			return float64(x)
		case float64:
			return x
		}
		return 0
	})
}

// Count returns how many voxels of a boolean array are set.
func Count(a *Array[bool]) int {
	n := 0
	for _, v := range a.Data {
		if v {
			n++
		}
	}
	return n
}
