package gwire

import (
	"encoding/binary"
	"io"
	"math"
	"reflect"

	"github.com/pkg/errors"
)

// Char is a single UTF-16 code unit.
type Char uint16

var (
	emptyInterfaceType = reflect.TypeOf((*interface{})(nil)).Elem()
	emptyStructType    = reflect.TypeOf(struct{}{})
	bytesType          = reflect.TypeOf([]byte(nil))
	charType           = reflect.TypeOf(Char(0))
)

type nullCodec struct{}

func (nullCodec) Type() reflect.Type { return emptyInterfaceType }

func (nullCodec) WriteManifest(w io.Writer, s *Session) error {
	return writeByte(w, TagNull, s)
}

func (nullCodec) WriteValue(io.Writer, reflect.Value, *Session) error { return nil }

func (nullCodec) ReadValue(io.Reader, *Session) (reflect.Value, error) {
	return reflect.Value{}, nil
}

// objectMarkerCodec encodes struct{}, which carries no data.
type objectMarkerCodec struct{}

func (objectMarkerCodec) Type() reflect.Type { return emptyStructType }

func (objectMarkerCodec) WriteManifest(w io.Writer, s *Session) error {
	return writeByte(w, TagObject, s)
}

func (objectMarkerCodec) WriteValue(io.Writer, reflect.Value, *Session) error { return nil }

func (objectMarkerCodec) ReadValue(io.Reader, *Session) (reflect.Value, error) {
	return reflect.ValueOf(struct{}{}), nil
}

// primitiveCodec encodes the fixed-width scalar kinds.
type primitiveCodec struct {
	tag   byte
	typ   reflect.Type
	width int
}

func (p *primitiveCodec) Type() reflect.Type { return p.typ }

func (p *primitiveCodec) fixedWidth() int { return p.width }

func (p *primitiveCodec) WriteManifest(w io.Writer, s *Session) error {
	return writeByte(w, p.tag, s)
}

func (p *primitiveCodec) WriteValue(w io.Writer, v reflect.Value, s *Session) error {
	buf := s.Scratch(p.width)
	switch p.tag {
	case TagBool:
		buf[0] = 0
		if v.Bool() {
			buf[0] = 1
		}
	case TagInt8:
		buf[0] = byte(v.Int())
	case TagByte:
		buf[0] = byte(v.Uint())
	case TagInt16:
		binary.LittleEndian.PutUint16(buf, uint16(v.Int()))
	case TagInt32:
		binary.LittleEndian.PutUint32(buf, uint32(v.Int()))
	case TagInt64:
		binary.LittleEndian.PutUint64(buf, uint64(v.Int()))
	case TagUint16, TagChar:
		binary.LittleEndian.PutUint16(buf, uint16(v.Uint()))
	case TagUint32:
		binary.LittleEndian.PutUint32(buf, uint32(v.Uint()))
	case TagUint64:
		binary.LittleEndian.PutUint64(buf, v.Uint())
	case TagFloat32:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v.Float())))
	case TagFloat64:
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v.Float()))
	}
	_, err := w.Write(buf)
	return err
}

func (p *primitiveCodec) ReadValue(r io.Reader, s *Session) (reflect.Value, error) {
	buf, err := readFull(r, p.width, s)
	if err != nil {
		return reflect.Value{}, err
	}
	switch p.tag {
	case TagBool:
		switch buf[0] {
		case 0:
			return reflect.ValueOf(false), nil
		case 1:
			return reflect.ValueOf(true), nil
		}
		return reflect.Value{}, errors.Wrapf(ErrInvalidBool, "got %d", buf[0])
	case TagInt8:
		return reflect.ValueOf(int8(buf[0])), nil
	case TagByte:
		return reflect.ValueOf(buf[0]), nil
	case TagInt16:
		return reflect.ValueOf(int16(binary.LittleEndian.Uint16(buf))), nil
	case TagInt32:
		return reflect.ValueOf(int32(binary.LittleEndian.Uint32(buf))), nil
	case TagInt64:
		return reflect.ValueOf(int64(binary.LittleEndian.Uint64(buf))), nil
	case TagUint16:
		return reflect.ValueOf(binary.LittleEndian.Uint16(buf)), nil
	case TagChar:
		return reflect.ValueOf(Char(binary.LittleEndian.Uint16(buf))), nil
	case TagUint32:
		return reflect.ValueOf(binary.LittleEndian.Uint32(buf)), nil
	case TagUint64:
		return reflect.ValueOf(binary.LittleEndian.Uint64(buf)), nil
	case TagFloat32:
		return reflect.ValueOf(math.Float32frombits(binary.LittleEndian.Uint32(buf))), nil
	case TagFloat64:
		return reflect.ValueOf(math.Float64frombits(binary.LittleEndian.Uint64(buf))), nil
	}
	return reflect.Value{}, errors.Wrapf(ErrInvalidManifest, "tag %d is not a primitive", p.tag)
}

var (
	boolCodec    = &primitiveCodec{tag: TagBool, typ: reflect.TypeOf(false), width: 1}
	int8Codec    = &primitiveCodec{tag: TagInt8, typ: reflect.TypeOf(int8(0)), width: 1}
	int16Codec   = &primitiveCodec{tag: TagInt16, typ: reflect.TypeOf(int16(0)), width: 2}
	int32Codec   = &primitiveCodec{tag: TagInt32, typ: reflect.TypeOf(int32(0)), width: 4}
	int64Codec   = &primitiveCodec{tag: TagInt64, typ: reflect.TypeOf(int64(0)), width: 8}
	uint8Codec   = &primitiveCodec{tag: TagByte, typ: reflect.TypeOf(uint8(0)), width: 1}
	uint16Codec  = &primitiveCodec{tag: TagUint16, typ: reflect.TypeOf(uint16(0)), width: 2}
	uint32Codec  = &primitiveCodec{tag: TagUint32, typ: reflect.TypeOf(uint32(0)), width: 4}
	uint64Codec  = &primitiveCodec{tag: TagUint64, typ: reflect.TypeOf(uint64(0)), width: 8}
	float32Codec = &primitiveCodec{tag: TagFloat32, typ: reflect.TypeOf(float32(0)), width: 4}
	float64Codec = &primitiveCodec{tag: TagFloat64, typ: reflect.TypeOf(float64(0)), width: 8}
	charCodec    = &primitiveCodec{tag: TagChar, typ: charType, width: 2}
)

// primitiveForKind returns the codec used for every type of the given
// scalar kind, named or not.
func primitiveForKind(k reflect.Kind) *primitiveCodec {
	switch k {
	case reflect.Bool:
		return boolCodec
	case reflect.Int8:
		return int8Codec
	case reflect.Int16:
		return int16Codec
	case reflect.Int32:
		return int32Codec
	case reflect.Int64, reflect.Int:
		return int64Codec
	case reflect.Uint8:
		return uint8Codec
	case reflect.Uint16:
		return uint16Codec
	case reflect.Uint32:
		return uint32Codec
	case reflect.Uint64, reflect.Uint:
		return uint64Codec
	case reflect.Float32:
		return float32Codec
	case reflect.Float64:
		return float64Codec
	}
	return nil
}

type stringCodec struct{}

var stringType = reflect.TypeOf("")

func (stringCodec) Type() reflect.Type { return stringType }

func (stringCodec) WriteManifest(w io.Writer, s *Session) error {
	return writeByte(w, TagString, s)
}

func (stringCodec) WriteValue(w io.Writer, v reflect.Value, s *Session) error {
	return writeString(w, v.String(), s)
}

func (stringCodec) ReadValue(r io.Reader, s *Session) (reflect.Value, error) {
	str, err := readString(r, s)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(str), nil
}

// byteBufferCodec encodes []byte as a length-prefixed run of raw bytes.
// Non-empty buffers take part in reference tracking.
type byteBufferCodec struct{}

func (byteBufferCodec) Type() reflect.Type { return bytesType }

func (byteBufferCodec) WriteManifest(w io.Writer, s *Session) error {
	return writeByte(w, TagByteBuffer, s)
}

func (byteBufferCodec) WriteValue(w io.Writer, v reflect.Value, s *Session) error {
	b := v.Bytes()
	if s.PreserveReferences() && len(b) > 0 {
		s.TrackSerialized(v)
	}
	if err := writeLength(w, len(b), s); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func (byteBufferCodec) ReadValue(r io.Reader, s *Session) (reflect.Value, error) {
	n, err := readLength(r, s)
	if err != nil {
		return reflect.Value{}, err
	}
	buf, err := readBytes(r, n)
	if err != nil {
		return reflect.Value{}, err
	}
	v := reflect.ValueOf(buf)
	if s.PreserveReferences() && n > 0 {
		s.TrackDeserialized(v)
	}
	return v, nil
}

// builtinByTag maps the single-byte manifests to their codecs.
var builtinByTag = map[byte]Codec{
	TagObject:     objectMarkerCodec{},
	TagBool:       boolCodec,
	TagInt8:       int8Codec,
	TagInt16:      int16Codec,
	TagInt32:      int32Codec,
	TagInt64:      int64Codec,
	TagByte:       uint8Codec,
	TagUint16:     uint16Codec,
	TagUint32:     uint32Codec,
	TagUint64:     uint64Codec,
	TagFloat32:    float32Codec,
	TagFloat64:    float64Codec,
	TagChar:       charCodec,
	TagString:     stringCodec{},
	TagByteBuffer: byteBufferCodec{},
	TagDateTime:   instantCodec{},
	TagUUID:       uuidCodec{},
	TagDecimal:    decimalCodec{},
	TagTypeValue:  typeValueCodec{},
}
