package gwire

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// strings longer than this are read into their own buffer instead of
// growing the session scratch space
const maxScratchString = 4096

// allocChunk is the most elements or bytes allocated for a decoded length
// before the data behind it has been read. Larger values grow as they
// arrive, so a corrupt length costs no more memory than the stream holds.
const allocChunk = 64 * 1024

func initialCap(n int) int {
	if n > allocChunk {
		return allocChunk
	}
	return n
}

func writeByte(w io.Writer, b byte, s *Session) error {
	buf := s.Scratch(1)
	buf[0] = b
	_, err := w.Write(buf)
	return err
}

func writeUint16(w io.Writer, v uint16, s *Session) error {
	buf := s.Scratch(2)
	binary.LittleEndian.PutUint16(buf, v)
	_, err := w.Write(buf)
	return err
}

func writeUint32(w io.Writer, v uint32, s *Session) error {
	buf := s.Scratch(4)
	binary.LittleEndian.PutUint32(buf, v)
	_, err := w.Write(buf)
	return err
}

func writeUint64(w io.Writer, v uint64, s *Session) error {
	buf := s.Scratch(8)
	binary.LittleEndian.PutUint64(buf, v)
	_, err := w.Write(buf)
	return err
}

func writeLength(w io.Writer, n int, s *Session) error {
	if n < 0 || n > math.MaxInt32 {
		return errors.Wrapf(ErrLengthOverflow, "cannot write length %d", n)
	}
	return writeUint32(w, uint32(n), s)
}

func writeString(w io.Writer, str string, s *Session) error {
	if err := writeLength(w, len(str), s); err != nil {
		return err
	}
	_, err := io.WriteString(w, str)
	return err
}

// readFull returns a view of the session scratch space. The view is only
// valid until the next read.
func readFull(r io.Reader, n int, s *Session) ([]byte, error) {
	buf := s.Scratch(n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func readByte(r io.Reader, s *Session) (byte, error) {
	buf, err := readFull(r, 1, s)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func readUint16(r io.Reader, s *Session) (uint16, error) {
	buf, err := readFull(r, 2, s)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

func readUint32(r io.Reader, s *Session) (uint32, error) {
	buf, err := readFull(r, 4, s)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func readUint64(r io.Reader, s *Session) (uint64, error) {
	buf, err := readFull(r, 8, s)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

func readLength(r io.Reader, s *Session) (int, error) {
	v, err := readUint32(r, s)
	if err != nil {
		return 0, err
	}
	n := int32(v)
	if n < 0 {
		return 0, errors.Wrapf(ErrLengthOverflow, "negative length %d", n)
	}
	if max := s.engine.opts.MaxLength; max > 0 && int(n) > max {
		return 0, errors.Wrapf(ErrLengthOverflow, "length %d exceeds maximum %d", n, max)
	}
	return int(n), nil
}

func readString(r io.Reader, s *Session) (string, error) {
	n, err := readLength(r, s)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if n > maxScratchString {
		buf, err := readBytes(r, n)
		if err != nil {
			return "", err
		}
		return string(buf), nil
	}
	buf, err := readFull(r, n, s)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// readBytes reads exactly n bytes into a new buffer. Errors are those of
// io.ReadFull.
func readBytes(r io.Reader, n int) ([]byte, error) {
	if n <= allocChunk {
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}
	var buf bytes.Buffer
	buf.Grow(allocChunk)
	if _, err := io.CopyN(&buf, r, int64(n)); err != nil {
		if err == io.EOF && buf.Len() > 0 {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf.Bytes(), nil
}
