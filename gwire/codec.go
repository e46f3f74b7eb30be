package gwire

import (
	"fmt"
	"io"
	"reflect"

	"github.com/pkg/errors"
)

// ValueCodec reads and writes the value bytes of one type. It is what a
// custom codec needs to provide; the engine writes the manifest.
type ValueCodec interface {
	WriteValue(w io.Writer, v reflect.Value, s *Session) error
	ReadValue(r io.Reader, s *Session) (reflect.Value, error)
}

// Codec is the compiled plan for one type.
type Codec interface {
	ValueCodec

	// Type returns the type values read by this codec have.
	Type() reflect.Type

	// WriteManifest writes the bytes that announce a value of this type.
	WriteManifest(w io.Writer, s *Session) error
}

// intoReader is implemented by codecs that can populate an existing,
// already tracked value instead of returning a new one.
type intoReader interface {
	ReadInto(r io.Reader, dst reflect.Value, s *Session) error
}

// fieldLister is implemented by codecs whose manifest can carry a field
// list when version tolerance is on.
type fieldLister interface {
	FieldNames() []string
}

// fixedWidther is implemented by codecs whose values always take the same
// number of bytes.
type fixedWidther interface {
	fixedWidth() int
}

// WriteObject writes v as a full node: a manifest followed by its value, a
// back-reference, or a null.
func (s *Session) WriteObject(w io.Writer, v reflect.Value) error {
	return s.writeNode(w, v, nil)
}

// writeNode writes v using c when the caller already knows the codec for
// v's concrete type.
func (s *Session) writeNode(w io.Writer, v reflect.Value, c Codec) error {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			v = reflect.Value{}
			break
		}
		v = v.Elem()
		c = nil
	}
	if !v.IsValid() || isNil(v) {
		return nullCodec{}.WriteManifest(w, s)
	}
	if s.PreserveReferences() {
		if id, ok := s.ObjectID(v); ok {
			if err := writeByte(w, TagReference, s); err != nil {
				return err
			}
			return writeUint32(w, id, s)
		}
	}
	if c == nil {
		c = s.engine.CodecFor(v.Type())
	}
	if err := c.WriteManifest(w, s); err != nil {
		return err
	}
	return c.WriteValue(w, v, s)
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}

// ReadObject reads one full node. A null node yields the zero reflect.Value.
func (s *Session) ReadObject(r io.Reader) (reflect.Value, error) {
	offset := s.offset()
	tag, err := readByte(r, s)
	if err != nil {
		return reflect.Value{}, err
	}

	switch tag {
	case TagNull:
		s.record(offset, tag, "")
		return reflect.Value{}, nil
	case TagReference:
		id, err := readUint32(r, s)
		if err != nil {
			return reflect.Value{}, err
		}
		s.record(offset, tag, fmt.Sprintf("#%d", id))
		return s.Resolve(id)
	}

	entry := s.begin(offset, tag)
	c, detail, err := s.readManifest(r, tag)
	if err != nil {
		return reflect.Value{}, err
	}
	s.finish(entry, detail)
	s.depth++
	defer func() { s.depth-- }()
	return c.ReadValue(r, s)
}

// readManifest returns the codec announced by a manifest starting with tag,
// which has already been consumed.
func (s *Session) readManifest(r io.Reader, tag byte) (Codec, string, error) {
	e := s.engine
	switch tag {
	case TagKnownType:
		id, err := readUint32(r, s)
		if err != nil {
			return nil, "", err
		}
		c, err := s.typeCodec(id)
		if err != nil {
			return nil, "", err
		}
		return c, s.describe(func() string { return fmt.Sprintf("%s #%d", TypeName(c.Type()), id) }), nil
	case TagNewType:
		name, err := readString(r, s)
		if err != nil {
			return nil, "", err
		}
		c, err := e.codecForName(name)
		if err != nil {
			return nil, "", err
		}
		id := s.registerTypeCodec(c)
		return c, s.describe(func() string { return fmt.Sprintf("%s #%d", name, id) }), nil
	case TagNewTypeWithFields:
		name, err := readString(r, s)
		if err != nil {
			return nil, "", err
		}
		n, err := readLength(r, s)
		if err != nil {
			return nil, "", err
		}
		fields := make([]string, 0, initialCap(n))
		for i := 0; i < n; i++ {
			f, err := readString(r, s)
			if err != nil {
				return nil, "", err
			}
			fields = append(fields, f)
		}
		c, err := e.tolerantCodecForName(name, fields)
		if err != nil {
			return nil, "", err
		}
		id := s.registerTypeCodec(c)
		return c, s.describe(func() string { return fmt.Sprintf("%s #%d %v", name, id, fields) }), nil
	case TagArray:
		offset := s.offset()
		elemTag, err := readByte(r, s)
		if err != nil {
			return nil, "", err
		}
		if elemTag == TagNull || elemTag == TagReference {
			return nil, "", errors.Wrapf(ErrInvalidManifest, "tag %d cannot describe array elements", elemTag)
		}
		if s.depth > maxManifestDepth {
			return nil, "", errors.Wrap(ErrInvalidManifest, "array manifest nested too deeply")
		}
		s.depth++
		entry := s.begin(offset, elemTag)
		elem, elemDetail, err := s.readManifest(r, elemTag)
		s.depth--
		if err != nil {
			return nil, "", err
		}
		s.finish(entry, elemDetail)
		return newWireArrayCodec(elem), s.describe(func() string {
			return fmt.Sprintf("of %s %s", TagName(elemTag), elemDetail)
		}), nil
	}

	if isCustomTag(tag) {
		c, ok := e.customByTag[tag]
		if !ok {
			return nil, "", errors.Wrapf(ErrInvalidManifest, "no custom codec registered for tag %d", tag)
		}
		return c, s.describe(func() string { return TypeName(c.Type()) }), nil
	}
	c, ok := builtinByTag[tag]
	if !ok {
		return nil, "", errors.Wrapf(ErrInvalidManifest, "unknown tag %d", tag)
	}
	return c, "", nil
}

// limits how deeply nested array element manifests may be
const maxManifestDepth = 1024

func (s *Session) describe(fn func() string) string {
	if s.trace == nil {
		return ""
	}
	return fn()
}

// writeTypeManifest announces a named type: a new-type declaration the
// first time t is seen in the session, and its id after that.
func writeTypeManifest(w io.Writer, t reflect.Type, name string, fields []string, s *Session) error {
	isNew, id := s.ShouldWriteTypeManifest(t)
	if !isNew {
		if err := writeByte(w, TagKnownType, s); err != nil {
			return err
		}
		return writeUint32(w, id, s)
	}
	if fields == nil || !s.engine.opts.VersionTolerance {
		if err := writeByte(w, TagNewType, s); err != nil {
			return err
		}
		return writeString(w, name, s)
	}
	if err := writeByte(w, TagNewTypeWithFields, s); err != nil {
		return err
	}
	if err := writeString(w, name, s); err != nil {
		return err
	}
	if err := writeLength(w, len(fields), s); err != nil {
		return err
	}
	for _, f := range fields {
		if err := writeString(w, f, s); err != nil {
			return err
		}
	}
	return nil
}
