package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec selects the payload compression.
type Codec uint8

const (
	// CodecRaw stores the payload as is.
	CodecRaw Codec = iota
	// CodecLZ4 uses LZ4 block compression (fast).
	CodecLZ4
	// CodecZstd uses zstd (better ratio).
	CodecZstd
)

func (c Codec) String() string {
	switch c {
	case CodecRaw:
		return "raw"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	}
	return fmt.Sprintf("Codec(%d)", uint8(c))
}

// ParseCodec maps a configuration name to a Codec.
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "raw", "none":
		return CodecRaw, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd":
		return CodecZstd, nil
	}
	return 0, fmt.Errorf("store: unknown codec %q (must be raw, lz4 or zstd)", name)
}

type compressor interface {
	// compress returns nil when the input cannot be compressed.
	compress(raw []byte) ([]byte, error)
	decompress(payload []byte, rawSize int) ([]byte, error)
}

func (c Codec) compressor() (compressor, error) {
	switch c {
	case CodecRaw:
		return rawCodec{}, nil
	case CodecLZ4:
		return lz4Codec{}, nil
	case CodecZstd:
		return zstdCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec %d", uint8(c))
}

type rawCodec struct{}

func (rawCodec) compress([]byte) ([]byte, error) { return nil, nil }

func (rawCodec) decompress(payload []byte, _ int) ([]byte, error) { return payload, nil }

type lz4Codec struct{}

func (lz4Codec) compress(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(raw)))
	n, err := lz4.CompressBlock(raw, dst, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return dst[:n], nil
}

// lz4MaxRatio bounds how far one LZ4 block byte can expand.
const lz4MaxRatio = 255

func (lz4Codec) decompress(payload []byte, rawSize int) ([]byte, error) {
	if rawSize > lz4MaxRatio*len(payload)+lz4MaxRatio {
		return nil, fmt.Errorf("raw size %d impossible for %d byte block", rawSize, len(payload))
	}
	out := make([]byte, rawSize)
	n, err := lz4.UncompressBlock(payload, out)
	if err != nil {
		return nil, err
	}
	if n != rawSize {
		return nil, errors.New("decompressed size mismatch")
	}
	return out, nil
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

type zstdCodec struct{}

func (zstdCodec) compress(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	enc, err := getZstdEncoder()
	if err != nil {
		return nil, err
	}
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(raw, nil), nil
}

func (zstdCodec) decompress(payload []byte, rawSize int) ([]byte, error) {
	dec, err := getZstdDecoder()
	if err != nil {
		return nil, err
	}
	defer zstdDecoderPool.Put(dec)

	out, err := dec.DecodeAll(payload, make([]byte, 0, min(rawSize, 64*len(payload))))
	if err != nil {
		return nil, err
	}
	if len(out) != rawSize {
		return nil, errors.New("decompressed size mismatch")
	}
	return out, nil
}
