package store

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCompressionTag(t *testing.T) {
	for _, tag := range []CompressionTag{CompressionNone, CompressionLZ4, CompressionZstd} {
		parsed, err := ParseCompressionTag(tag.String())
		require.NoError(t, err)
		require.Equal(t, tag, parsed)
	}
	_, err := ParseCompressionTag("gzip")
	require.Error(t, err)
	require.Equal(t, "unknown", CompressionTag(9).String())
}

func TestRecordRoundTrip(t *testing.T) {
	compressible := bytes.Repeat([]byte("graphwire "), 200)
	random := make([]byte, 512)
	_, err := rand.Read(random)
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload []byte
		tag     CompressionTag
		stored  CompressionTag
	}{
		{"none", compressible, CompressionNone, CompressionNone},
		{"lz4", compressible, CompressionLZ4, CompressionLZ4},
		{"zstd", compressible, CompressionZstd, CompressionZstd},
		{"lz4 incompressible", random, CompressionLZ4, CompressionNone},
		{"zstd incompressible", random, CompressionZstd, CompressionNone},
		{"empty", []byte{}, CompressionLZ4, CompressionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := encodeRecord(tt.payload, tt.tag)
			require.NoError(t, err)
			require.Equal(t, byte(tt.stored), rec[0])
			if tt.stored != CompressionNone {
				require.Less(t, len(rec), len(tt.payload))
			}
			payload, err := decodeRecord(rec)
			require.NoError(t, err)
			require.Equal(t, tt.payload, payload)
		})
	}
}

func TestDecodeRecordCorrupt(t *testing.T) {
	rec, err := encodeRecord(bytes.Repeat([]byte{0x42}, 64), CompressionZstd)
	require.NoError(t, err)

	flipped := append([]byte(nil), rec...)
	flipped[len(flipped)-1] ^= 0xff
	truncated := rec[:recordHeaderLen-1]
	badTag := append([]byte(nil), rec...)
	badTag[0] = 7
	badSum := append([]byte(nil), rec...)
	badSum[1] ^= 0x01

	for _, bad := range [][]byte{flipped, truncated, badTag, badSum} {
		_, err := decodeRecord(bad)
		require.ErrorIs(t, err, ErrCorrupt)
	}
}
