package store

import (
	"encoding/binary"

	"graphwire/crypto"

	"github.com/pkg/errors"
)

// record layout:
//
//	[1 byte compression tag][32 byte blake2b-256 of payload][4 byte payload length][body]
const recordHeaderLen = 1 + crypto.HashSize + 4

// maxPayloadLen bounds the length field so a corrupt header cannot
// trigger a huge allocation.
const maxPayloadLen = 1 << 30

func encodeRecord(payload []byte, tag CompressionTag) ([]byte, error) {
	if len(payload) > maxPayloadLen {
		return nil, errors.Errorf("payload of %d bytes is too large", len(payload))
	}
	body, err := compress(payload, tag)
	if errors.Is(err, errIncompressible) {
		body, tag = payload, CompressionNone
	} else if err != nil {
		return nil, err
	}

	sum := crypto.Blake2B256(payload)
	out := make([]byte, recordHeaderLen+len(body))
	out[0] = byte(tag)
	copy(out[1:], sum[:])
	binary.BigEndian.PutUint32(out[1+crypto.HashSize:], uint32(len(payload)))
	copy(out[recordHeaderLen:], body)
	return out, nil
}

func decodeRecord(rec []byte) ([]byte, error) {
	if len(rec) < recordHeaderLen {
		return nil, errors.Wrap(ErrCorrupt, "short record header")
	}
	tag := CompressionTag(rec[0])
	sum, _ := crypto.NewHashFromBytes(rec[1 : 1+crypto.HashSize])
	size := binary.BigEndian.Uint32(rec[1+crypto.HashSize:])
	if size > maxPayloadLen {
		return nil, errors.Wrapf(ErrCorrupt, "payload length %d out of range", size)
	}

	payload, err := decompress(rec[recordHeaderLen:], tag, int(size))
	if err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}
	if crypto.Blake2B256(payload) != sum {
		return nil, errors.Wrap(ErrCorrupt, "checksum mismatch")
	}
	return payload, nil
}
