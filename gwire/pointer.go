package gwire

import (
	"io"
	"reflect"
	"sort"
)

// pointerCodec encodes a non-nil pointer as a named type followed by the
// value it points to. Pointers carry identity, so they are tracked. When
// the pointee is itself nillable it is written as a full node.
type pointerCodec struct {
	typ  reflect.Type
	name string
	elem Codec
}

func (p *pointerCodec) elemIsNode() bool {
	switch p.typ.Elem().Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice:
		return true
	}
	return false
}

func (p *pointerCodec) Type() reflect.Type { return p.typ }

func (p *pointerCodec) FieldNames() []string {
	if fl, ok := unwrap(p.elem).(fieldLister); ok {
		return fl.FieldNames()
	}
	return nil
}

func (p *pointerCodec) WriteManifest(w io.Writer, s *Session) error {
	var fields []string
	if s.engine.opts.VersionTolerance {
		fields = p.FieldNames()
	}
	return writeTypeManifest(w, p.typ, p.name, fields, s)
}

func (p *pointerCodec) WriteValue(w io.Writer, v reflect.Value, s *Session) error {
	if s.PreserveReferences() {
		s.TrackSerialized(v)
	}
	if p.elemIsNode() {
		return s.WriteObject(w, v.Elem())
	}
	return p.elem.WriteValue(w, v.Elem(), s)
}

func (p *pointerCodec) ReadValue(r io.Reader, s *Session) (reflect.Value, error) {
	ptr := reflect.New(p.typ.Elem())
	if s.PreserveReferences() {
		s.TrackDeserialized(ptr)
	}
	if p.elemIsNode() {
		v, err := s.ReadObject(r)
		if err != nil {
			return reflect.Value{}, err
		}
		if err := assign(ptr.Elem(), v); err != nil {
			return reflect.Value{}, err
		}
		return ptr, nil
	}
	if ir, ok := unwrap(p.elem).(intoReader); ok {
		if err := ir.ReadInto(r, ptr.Elem(), s); err != nil {
			return reflect.Value{}, err
		}
		return ptr, nil
	}
	v, err := p.elem.ReadValue(r, s)
	if err != nil {
		return reflect.Value{}, err
	}
	if err := assign(ptr.Elem(), v); err != nil {
		return reflect.Value{}, err
	}
	return ptr, nil
}

// interfaceCodec describes interface-typed array elements and map entries.
// Values inside are always written with their own concrete manifest.
type interfaceCodec struct {
	typ  reflect.Type
	name string
}

func (i *interfaceCodec) Type() reflect.Type { return i.typ }

func (i *interfaceCodec) WriteManifest(w io.Writer, s *Session) error {
	return writeTypeManifest(w, i.typ, i.name, nil, s)
}

func (i *interfaceCodec) WriteValue(w io.Writer, v reflect.Value, s *Session) error {
	return s.WriteObject(w, v)
}

func (i *interfaceCodec) ReadValue(r io.Reader, s *Session) (reflect.Value, error) {
	v, err := s.ReadObject(r)
	if err != nil {
		return reflect.Value{}, err
	}
	if !v.IsValid() {
		return reflect.Zero(i.typ), nil
	}
	return v, nil
}

// mapCodec encodes a map as its entry count followed by key and value
// nodes. Keys of ordered kinds are written in sorted order so the output
// is deterministic.
type mapCodec struct {
	typ  reflect.Type
	name string
}

func (e *Engine) buildMap(t reflect.Type) Codec {
	return &mapCodec{typ: t, name: TypeName(t)}
}

func (m *mapCodec) Type() reflect.Type { return m.typ }

func (m *mapCodec) WriteManifest(w io.Writer, s *Session) error {
	return writeTypeManifest(w, m.typ, m.name, nil, s)
}

func (m *mapCodec) WriteValue(w io.Writer, v reflect.Value, s *Session) error {
	if s.PreserveReferences() {
		s.TrackSerialized(v)
	}
	if err := writeLength(w, v.Len(), s); err != nil {
		return err
	}
	keys := v.MapKeys()
	sortKeys(keys)
	for _, k := range keys {
		if err := s.WriteObject(w, k); err != nil {
			return err
		}
		if err := s.WriteObject(w, v.MapIndex(k)); err != nil {
			return err
		}
	}
	return nil
}

func (m *mapCodec) ReadValue(r io.Reader, s *Session) (reflect.Value, error) {
	n, err := readLength(r, s)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.MakeMapWithSize(m.typ, initialCap(n))
	if s.PreserveReferences() {
		s.TrackDeserialized(out)
	}
	for i := 0; i < n; i++ {
		k, err := s.ReadObject(r)
		if err != nil {
			return reflect.Value{}, err
		}
		key, err := convertTo(k, m.typ.Key())
		if err != nil {
			return reflect.Value{}, err
		}
		v, err := s.ReadObject(r)
		if err != nil {
			return reflect.Value{}, err
		}
		val, err := convertTo(v, m.typ.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(key, val)
	}
	return out, nil
}

func sortKeys(keys []reflect.Value) {
	if len(keys) < 2 {
		return
	}
	var less func(a, b reflect.Value) bool
	switch keys[0].Kind() {
	case reflect.String:
		less = func(a, b reflect.Value) bool { return a.String() < b.String() }
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		less = func(a, b reflect.Value) bool { return a.Int() < b.Int() }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		less = func(a, b reflect.Value) bool { return a.Uint() < b.Uint() }
	case reflect.Float32, reflect.Float64:
		less = func(a, b reflect.Value) bool { return a.Float() < b.Float() }
	case reflect.Bool:
		less = func(a, b reflect.Value) bool { return !a.Bool() && b.Bool() }
	default:
		return
	}
	sort.Slice(keys, func(i, j int) bool {
		return less(keys[i], keys[j])
	})
}
