// Package store reads and writes volume arrays as single binary files.
//
// File layout (little endian):
//
//	[Magic "GMV1"][Kind u8][Codec u8][reserved u16]
//	[XSize u32][YSize u32][ZSize u32]
//	[RawSize u64][PayloadSize u64][Payload...]
//
// PayloadSize == 0 with RawSize > 0 means the payload was stored
// uncompressed because the codec did not help.
package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gridmask/pkg/volume"
)

var magic = [4]byte{'G', 'M', 'V', '1'}

const headerSize = 4 + 4 + 12 + 16

// maxRawSize bounds the decoded payload of a single file (1 TiB).
const maxRawSize = 1 << 40

// ErrBadHeader is returned when a file is not a volume file or its header
// does not match the requested element type.
var ErrBadHeader = errors.New("store: bad volume header")

// Kind identifies the element type of a stored array.
type Kind uint8

const (
	KindInt32 Kind = iota + 1
	KindFloat32
	KindFloat64
	KindBool
)

func (k Kind) size() int {
	switch k {
	case KindInt32, KindFloat32:
		return 4
	case KindFloat64:
		return 8
	case KindBool:
		return 1
	}
	return 0
}

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// KindOf returns the kind of T.
func KindOf[T volume.Element]() Kind {
	var zero T
	switch any(zero).(type) {
	case int32:
		return KindInt32
	case float32:
		return KindFloat32
	case float64:
		return KindFloat64
	case bool:
		return KindBool
	}
	return 0
}

// Header describes a stored array.
type Header struct {
	Kind        Kind
	Codec       Codec
	XSize       int
	YSize       int
	ZSize       int
	RawSize     uint64
	PayloadSize uint64
}

func (h Header) marshal() []byte {
	b := make([]byte, 0, headerSize)
	b = append(b, magic[:]...)
	b = append(b, byte(h.Kind), byte(h.Codec), 0, 0)
	b = binary.LittleEndian.AppendUint32(b, uint32(h.XSize))
	b = binary.LittleEndian.AppendUint32(b, uint32(h.YSize))
	b = binary.LittleEndian.AppendUint32(b, uint32(h.ZSize))
	b = binary.LittleEndian.AppendUint64(b, h.RawSize)
	b = binary.LittleEndian.AppendUint64(b, h.PayloadSize)
	return b
}

func unmarshalHeader(b []byte) (Header, error) {
	var h Header
	if len(b) < headerSize || !bytes.Equal(b[:4], magic[:]) {
		return h, ErrBadHeader
	}
	h.Kind = Kind(b[4])
	h.Codec = Codec(b[5])
	h.XSize = int(binary.LittleEndian.Uint32(b[8:]))
	h.YSize = int(binary.LittleEndian.Uint32(b[12:]))
	h.ZSize = int(binary.LittleEndian.Uint32(b[16:]))
	h.RawSize = binary.LittleEndian.Uint64(b[20:])
	h.PayloadSize = binary.LittleEndian.Uint64(b[28:])

	if h.Kind.size() == 0 {
		return h, fmt.Errorf("%w: unknown element kind %d", ErrBadHeader, b[4])
	}
	if _, err := h.Codec.compressor(); err != nil {
		return h, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if h.RawSize > maxRawSize {
		return h, fmt.Errorf("%w: raw size %d exceeds %d", ErrBadHeader, h.RawSize, uint64(maxRawSize))
	}
	want := uint64(h.Kind.size())
	for _, n := range []int{h.XSize, h.YSize, h.ZSize} {
		if n != 0 && want > maxRawSize/uint64(n) {
			return h, fmt.Errorf("%w: shape %dx%dx%d too large", ErrBadHeader, h.XSize, h.YSize, h.ZSize)
		}
		want *= uint64(n)
	}
	if want != h.RawSize {
		return h, fmt.Errorf("%w: raw size %d, shape needs %d", ErrBadHeader, h.RawSize, want)
	}
	if h.PayloadSize != 0 && (h.Codec == CodecRaw || h.PayloadSize >= h.RawSize) {
		return h, fmt.Errorf("%w: %s payload of %d bytes for raw size %d", ErrBadHeader, h.Codec, h.PayloadSize, h.RawSize)
	}
	return h, nil
}

// Write encodes a to w with codec c.
func Write[T volume.Element](w io.Writer, a *volume.Array[T], c Codec) error {
	comp, err := c.compressor()
	if err != nil {
		return err
	}
	if KindOf[T]() == 0 {
		return fmt.Errorf("store: unsupported element type %T", *new(T))
	}
	raw := encode(a.Data)
	h := Header{
		Kind:    KindOf[T](),
		Codec:   c,
		XSize:   a.XSize,
		YSize:   a.YSize,
		ZSize:   a.ZSize,
		RawSize: uint64(len(raw)),
	}

	payload, err := comp.compress(raw)
	if err != nil {
		return fmt.Errorf("store: %s compress: %w", c, err)
	}
	if payload == nil || float64(len(payload)) > float64(len(raw))*0.9 {
		payload = raw
	} else {
		h.PayloadSize = uint64(len(payload))
	}

	if _, err := w.Write(h.marshal()); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// Read decodes an array of element type T from r.
func Read[T volume.Element](r io.Reader) (*volume.Array[T], Header, error) {
	hb := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hb); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, Header{}, ErrBadHeader
		}
		return nil, Header{}, err
	}
	h, err := unmarshalHeader(hb)
	if err != nil {
		return nil, h, err
	}
	if want := KindOf[T](); h.Kind != want {
		return nil, h, fmt.Errorf("%w: file holds %s, want %s", ErrBadHeader, h.Kind, want)
	}

	size := h.PayloadSize
	if size == 0 {
		size = h.RawSize
	}
	payload, err := io.ReadAll(io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, h, fmt.Errorf("store: payload: %w", err)
	}
	if uint64(len(payload)) != size {
		return nil, h, fmt.Errorf("%w: payload truncated at %d of %d bytes", ErrBadHeader, len(payload), size)
	}

	raw := payload
	if h.PayloadSize != 0 {
		comp, _ := h.Codec.compressor()
		raw, err = comp.decompress(payload, int(h.RawSize))
		if err != nil {
			return nil, h, fmt.Errorf("store: %s decompress: %w", h.Codec, err)
		}
	}

	data, err := decode[T](raw)
	if err != nil {
		return nil, h, err
	}
	a, err := volume.FromData(data, h.XSize, h.YSize, h.ZSize)
	return a, h, err
}

// Save writes a to path, creating parent directories.
func Save[T volume.Element](path string, a *volume.Array[T], c Codec) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, a, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads an array from path.
func Load[T volume.Element](path string) (*volume.Array[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	a, _, err := Read[T](f)
	return a, err
}

func encode[T volume.Element](data []T) []byte {
	var b []byte
	switch d := any(data).(type) {
	case []int32:
		b = make([]byte, 0, 4*len(d))
		for _, v := range d {
			b = binary.LittleEndian.AppendUint32(b, uint32(v))
		}
	case []float32:
		b = make([]byte, 0, 4*len(d))
		for _, v := range d {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
		}
	case []float64:
		b = make([]byte, 0, 8*len(d))
		for _, v := range d {
			b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
		}
	case []bool:
		b = make([]byte, len(d))
		for i, v := range d {
			if v {
				b[i] = 1
			}
		}
	}
	return b
}

func decode[T volume.Element](b []byte) ([]T, error) {
	k := KindOf[T]()
	if k.size() == 0 {
		return nil, fmt.Errorf("store: unsupported element type %T", *new(T))
	}
	if len(b)%k.size() != 0 {
		return nil, fmt.Errorf("%w: payload of %d bytes is not a multiple of %d", ErrBadHeader, len(b), k.size())
	}
	n := len(b) / k.size()
	out := make([]T, n)
	switch d := any(out).(type) {
	case []int32:
		for i := range d {
			d[i] = int32(binary.LittleEndian.Uint32(b[4*i:]))
		}
	case []float32:
		for i := range d {
			d[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
		}
	case []float64:
		for i := range d {
			d[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
		}
	case []bool:
		for i := range d {
			d[i] = b[i] != 0
		}
	}
	return out, nil
}

// LoadFloat64 reads an array of any stored kind from path and converts it to
// float64. Booleans become 0 or 1.
func LoadFloat64(path string) (*volume.Array[float64], Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Header{}, err
	}
	h, err := unmarshalHeader(data)
	if err != nil {
		return nil, h, err
	}

	r := bytes.NewReader(data)
	switch h.Kind {
	case KindFloat64:
		a, _, err := Read[float64](r)
		return a, h, err
	case KindFloat32:
		return readAs[float32](r, h)
	case KindInt32:
		return readAs[int32](r, h)
	default:
		return readAs[bool](r, h)
	}
}

func readAs[T volume.Element](r io.Reader, h Header) (*volume.Array[float64], Header, error) {
	a, _, err := Read[T](r)
	if err != nil {
		return nil, h, err
	}
	return volume.ToFloat64(a), h, nil
}
