package store

import (
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// CompressionTag is the first byte of every record and names the
// algorithm its body was compressed with.
type CompressionTag uint8

const (
	CompressionNone CompressionTag = 0
	CompressionLZ4  CompressionTag = 1
	CompressionZstd CompressionTag = 2
)

func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, errors.Errorf("unknown compression %q", name)
	}
}

var errIncompressible = errors.New("data is incompressible")

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func compress(data []byte, tag CompressionTag) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, errors.Wrap(err, "lz4 compress")
		}
		// zero means lz4 gave up on the input
		if n == 0 || n >= len(data) {
			return nil, errIncompressible
		}
		return dst[:n], nil
	case CompressionZstd:
		out := zstdEncoder.EncodeAll(data, nil)
		if len(out) >= len(data) {
			return nil, errIncompressible
		}
		return out, nil
	default:
		return nil, errors.Errorf("unsupported compression tag %d", tag)
	}
}

func decompress(data []byte, tag CompressionTag, size int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(data) != size {
			return nil, errors.Errorf("uncompressed body is %d bytes, expected %d", len(data), size)
		}
		return data, nil
	case CompressionLZ4:
		dst := make([]byte, size)
		n, err := lz4.UncompressBlock(data, dst)
		if err != nil {
			return nil, errors.Wrap(err, "lz4 decompress")
		}
		if n != size {
			return nil, errors.Errorf("lz4 decompress: got %d bytes, expected %d", n, size)
		}
		return dst, nil
	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(data, make([]byte, 0, size))
		if err != nil {
			return nil, errors.Wrap(err, "zstd decompress")
		}
		if len(out) != size {
			return nil, errors.Errorf("zstd decompress: got %d bytes, expected %d", len(out), size)
		}
		return out, nil
	default:
		return nil, errors.Errorf("unsupported compression tag %d", tag)
	}
}

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(err)
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
}
