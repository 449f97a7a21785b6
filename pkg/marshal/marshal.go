// Package marshal copies native typed buffers into Go slices.
//
// A Buffer is pinned for the duration of the copy and released on every exit
// path. The copy reinterprets the pinned bytes as the destination element
// type, so element counts and bit patterns are preserved exactly.
package marshal

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"gridmask/pkg/volume"
)

var (
	// ErrMarshalMismatch reports a length, element size or value divergence
	// between a source buffer and its copy.
	ErrMarshalMismatch = errors.New("marshal mismatch")

	// ErrPinningFailure reports that a source buffer could not be pinned.
	ErrPinningFailure = errors.New("pinning failure")
)

// Pinned is a pinned view of a Buffer's memory. Release must be called
// exactly once when the view is no longer needed.
type Pinned interface {
	Bytes() []byte
	Release()
}

// Buffer is a contiguous native buffer of fixed-size elements.
type Buffer interface {
	// Len returns the number of elements.
	Len() int
	// ElemSize returns the size of one element in bytes.
	ElemSize() int
	// Pin prevents the memory from moving until the returned view is released.
	Pin() (Pinned, error)
}

// Options configures a marshal call.
type Options struct {
	// Verify compares every source element with its copy after the copy.
	Verify bool
}

// Option mutates Options.
type Option func(*Options)

// WithVerify enables or disables the verification pass.
func WithVerify(v bool) Option {
	return func(o *Options) { o.Verify = v }
}

func sizeOf[T volume.Element]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func asBytes[T volume.Element](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*sizeOf[T]())
}

// Marshal copies src into a new []T of the same length.
func Marshal[T volume.Element](src Buffer, opts ...Option) (out []T, err error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	size := sizeOf[T]()
	if src.ElemSize() != size {
		return nil, fmt.Errorf("%w: element size %d, want %d", ErrMarshalMismatch, src.ElemSize(), size)
	}

	pin, err := src.Pin()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPinningFailure, err)
	}
	defer pin.Release()

	raw := pin.Bytes()
	n := src.Len()
	if len(raw) != n*size {
		return nil, fmt.Errorf("%w: buffer holds %d bytes, want %d", ErrMarshalMismatch, len(raw), n*size)
	}

	out = make([]T, n)
	copy(asBytes(out), raw)

	if o.Verify {
		// re-read through the pin; a buffer that moved or changed under us
		// no longer matches the copy
		if err := verify(pin.Bytes(), out, size); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// verify checks every element of dst against the pinned source bytes.
func verify[T volume.Element](src []byte, dst []T, size int) error {
	got := asBytes(dst)
	if len(got) != len(src) {
		return fmt.Errorf("%w: copied %d bytes, source has %d", ErrMarshalMismatch, len(got), len(src))
	}
	for i := range dst {
		lo, hi := i*size, (i+1)*size
		if !bytes.Equal(src[lo:hi], got[lo:hi]) {
			return fmt.Errorf("%w: element %d differs", ErrMarshalMismatch, i)
		}
	}
	return nil
}

// sliceBuffer adapts a Go slice to Buffer.
type sliceBuffer[T volume.Element] struct {
	data []T
}

// Slice wraps s as a Buffer. Pinning uses runtime.Pinner, which keeps the
// backing array in place for the duration of the copy.
func Slice[T volume.Element](s []T) Buffer {
	return sliceBuffer[T]{data: s}
}

func (b sliceBuffer[T]) Len() int      { return len(b.data) }
func (b sliceBuffer[T]) ElemSize() int { return sizeOf[T]() }

func (b sliceBuffer[T]) Pin() (Pinned, error) {
	p := &slicePin{}
	if len(b.data) > 0 {
		p.pinner.Pin(&b.data[0])
		p.raw = asBytes(b.data)
	}
	return p, nil
}

type slicePin struct {
	pinner   runtime.Pinner
	raw      []byte
	released bool
}

func (p *slicePin) Bytes() []byte { return p.raw }

func (p *slicePin) Release() {
	if p.released {
		return
	}
	p.pinner.Unpin()
	p.raw = nil
	p.released = true
}
