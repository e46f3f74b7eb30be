package gwire

import (
	"bytes"
	"io"
	"reflect"
	"unsafe"

	"github.com/pkg/errors"
)

var nativeLittleEndian = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

// arrayCodec encodes slices and arrays. Elements of fixed-width scalar kinds
// are written back to back without manifests. Elements of a concrete type
// are written as values under the element manifest, and interface elements
// as one full node each.
type arrayCodec struct {
	typ  reflect.Type
	elem Codec

	// name is set when the element codec reads values of another type than
	// the declared element, so the array has to be announced by its own
	// type name to decode back into the declared type
	name string

	// width is the encoded size of one element, or 0 when elements are
	// written one at a time
	width int
}

// elemValue leads an element of a nillable type whose value follows.
// Nil elements and back-references lead with TagNull and TagReference.
const elemValue = TagObject

func (e *Engine) buildArray(t reflect.Type) Codec {
	c := &arrayCodec{typ: t}
	et := t.Elem()
	if _, ok := e.surrogates[et]; ok {
		// substituted elements are not of the declared type
		c.elem = e.CodecFor(emptyInterfaceType)
	} else if _, ok := e.custom[et]; !ok {
		prim := primitiveForKind(et.Kind())
		if et == charType {
			prim = charCodec
		}
		if prim != nil {
			c.elem, c.width = prim, prim.width
		}
	}
	if c.elem == nil {
		c.elem = e.CodecFor(et)
	}

	_, surrogate := e.fromSurrogates[t]
	if surrogate || (t.Kind() == reflect.Slice && c.elem.Type() != et) {
		c.name = TypeName(t)
	}
	return c
}

// newWireArrayCodec reads arrays whose element manifest came off the wire.
// The result is always a slice.
func newWireArrayCodec(elem Codec) *arrayCodec {
	c := &arrayCodec{
		typ:  reflect.SliceOf(elem.Type()),
		elem: elem,
	}
	if fw, ok := elem.(fixedWidther); ok {
		c.width = fw.fixedWidth()
	}
	return c
}

func (a *arrayCodec) Type() reflect.Type { return a.typ }

func (a *arrayCodec) WriteManifest(w io.Writer, s *Session) error {
	if a.name != "" {
		return writeTypeManifest(w, a.typ, a.name, nil, s)
	}
	if err := writeByte(w, TagArray, s); err != nil {
		return err
	}
	return a.elem.WriteManifest(w, s)
}

// nodes reports whether elements are written as full nodes.
func (a *arrayCodec) nodes() bool {
	return a.elem.Type().Kind() == reflect.Interface
}

// nillable reports whether element values are led by a marker byte.
func (a *arrayCodec) nillable() bool {
	switch a.elem.Type().Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice:
		return true
	}
	return false
}

func (a *arrayCodec) WriteValue(w io.Writer, v reflect.Value, s *Session) error {
	n := v.Len()
	if s.PreserveReferences() && n > 0 {
		s.TrackSerialized(v)
	}
	if err := writeLength(w, n, s); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if a.width > 0 {
		return a.writeFixed(w, v, n, s)
	}
	if a.nodes() {
		for i := 0; i < n; i++ {
			if err := s.writeNode(w, v.Index(i), nil); err != nil {
				return err
			}
		}
		return nil
	}
	nillable := a.nillable()
	for i := 0; i < n; i++ {
		ev := v.Index(i)
		if nillable {
			written, err := a.writeMarker(w, ev, s)
			if err != nil {
				return err
			}
			if written {
				continue
			}
		}
		if err := a.elem.WriteValue(w, ev, s); err != nil {
			return errors.Wrapf(err, "element %d", i)
		}
	}
	return nil
}

// writeMarker writes the byte that leads a nillable element. It reports
// whether the element is complete without a value.
func (a *arrayCodec) writeMarker(w io.Writer, v reflect.Value, s *Session) (bool, error) {
	if v.IsNil() {
		return true, writeByte(w, TagNull, s)
	}
	if s.PreserveReferences() {
		if id, ok := s.ObjectID(v); ok {
			if err := writeByte(w, TagReference, s); err != nil {
				return true, err
			}
			return true, writeUint32(w, id, s)
		}
	}
	return false, writeByte(w, elemValue, s)
}

func (a *arrayCodec) writeFixed(w io.Writer, v reflect.Value, n int, s *Session) error {
	first := v.Index(0)
	if a.bulk() && first.CanAddr() {
		src := unsafe.Slice((*byte)(unsafe.Pointer(first.UnsafeAddr())), n*a.width)
		_, err := w.Write(src)
		return err
	}
	return a.writeEach(w, v, n, s)
}

// writeEach writes fixed-width elements one at a time. It produces the
// same bytes as the bulk path.
func (a *arrayCodec) writeEach(w io.Writer, v reflect.Value, n int, s *Session) error {
	for i := 0; i < n; i++ {
		if err := a.elem.WriteValue(w, v.Index(i), s); err != nil {
			return err
		}
	}
	return nil
}

// bulk reports whether elements can be copied as raw memory: the host is
// little-endian and the in-memory element size matches the wire width.
func (a *arrayCodec) bulk() bool {
	return nativeLittleEndian && a.typ.Elem().Size() == uintptr(a.width)
}

func (a *arrayCodec) ReadValue(r io.Reader, s *Session) (reflect.Value, error) {
	n, err := readLength(r, s)
	if err != nil {
		return reflect.Value{}, err
	}

	var out reflect.Value
	switch {
	case a.typ.Kind() == reflect.Array:
		if n != a.typ.Len() {
			return reflect.Value{}, errors.Wrapf(ErrLengthOverflow, "got %d elements for %s", n, TypeName(a.typ))
		}
		out = reflect.New(a.typ).Elem()
	case n > allocChunk:
		return a.readLarge(r, n, s)
	default:
		out = reflect.MakeSlice(a.typ, n, n)
	}
	if s.PreserveReferences() && n > 0 {
		s.TrackDeserialized(out)
	}
	if n == 0 {
		return out, nil
	}

	if a.width > 0 {
		return out, a.readFixed(r, out, n, s)
	}
	for i := 0; i < n; i++ {
		v, err := a.readElem(r, s)
		if err != nil {
			return reflect.Value{}, errors.Wrapf(err, "element %d", i)
		}
		if err := assign(out.Index(i), v); err != nil {
			return reflect.Value{}, errors.Wrapf(err, "element %d", i)
		}
	}
	return out, nil
}

// readLarge reads a slice whose length is too large to allocate before its
// elements have arrived. A back-reference to the slice from one of its own
// elements sees the elements read so far.
func (a *arrayCodec) readLarge(r io.Reader, n int, s *Session) (reflect.Value, error) {
	if a.width > 0 {
		raw, err := readBytes(r, n*a.width)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.MakeSlice(a.typ, n, n)
		if s.PreserveReferences() {
			s.TrackDeserialized(out)
		}
		return out, a.readFixed(bytes.NewReader(raw), out, n, s)
	}

	out := reflect.MakeSlice(a.typ, 0, allocChunk)
	var id uint32
	if s.PreserveReferences() {
		id = s.TrackDeserialized(out)
	}
	zero := reflect.Zero(a.typ.Elem())
	for i := 0; i < n; i++ {
		v, err := a.readElem(r, s)
		if err != nil {
			return reflect.Value{}, errors.Wrapf(err, "element %d", i)
		}
		out = reflect.Append(out, zero)
		if err := assign(out.Index(i), v); err != nil {
			return reflect.Value{}, errors.Wrapf(err, "element %d", i)
		}
	}
	if s.PreserveReferences() {
		s.objects[id] = out
	}
	return out, nil
}

// readElem reads one element that is not fixed-width.
func (a *arrayCodec) readElem(r io.Reader, s *Session) (reflect.Value, error) {
	if a.nodes() {
		return s.ReadObject(r)
	}
	if a.nillable() {
		marker, err := readByte(r, s)
		if err != nil {
			return reflect.Value{}, err
		}
		switch marker {
		case TagNull:
			return reflect.Value{}, nil
		case TagReference:
			id, err := readUint32(r, s)
			if err != nil {
				return reflect.Value{}, err
			}
			return s.Resolve(id)
		case elemValue:
		default:
			return reflect.Value{}, errors.Wrapf(ErrInvalidManifest, "tag %d cannot lead an element", marker)
		}
	}
	return a.elem.ReadValue(r, s)
}

func (a *arrayCodec) readFixed(r io.Reader, out reflect.Value, n int, s *Session) error {
	if a.bulk() && a.typ.Elem().Kind() != reflect.Bool {
		dst := unsafe.Slice((*byte)(unsafe.Pointer(out.Index(0).UnsafeAddr())), n*a.width)
		_, err := io.ReadFull(r, dst)
		return err
	}
	return a.readEach(r, out, n, s)
}

func (a *arrayCodec) readEach(r io.Reader, out reflect.Value, n int, s *Session) error {
	for i := 0; i < n; i++ {
		v, err := a.elem.ReadValue(r, s)
		if err != nil {
			return err
		}
		if err := assign(out.Index(i), v); err != nil {
			return err
		}
	}
	return nil
}
