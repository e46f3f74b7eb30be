package crypto

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const HashSize = 32

type Hash [HashSize]byte

var ZeroHash Hash

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) IsZero() bool {
	return h == ZeroHash
}

func Blake2B256(data ...[]byte) Hash {
	// never returns an error if key is nil
	h, _ := blake2b.New256(nil)
	for _, chunk := range data {
		h.Write(chunk)
	}
	b := h.Sum(nil)
	var out Hash
	copy(out[:], b)
	return out
}

func NewHashFromBytes(b []byte) (Hash, error) {
	if len(b) != HashSize {
		return ZeroHash, errors.Errorf("hash must be %d bytes", HashSize)
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

func NewHashFromHex(in string) (Hash, error) {
	b, err := hex.DecodeString(in)
	if err != nil {
		return ZeroHash, errors.Wrap(err, "invalid hash hex")
	}
	return NewHashFromBytes(b)
}
