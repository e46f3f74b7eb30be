package gwire

import (
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Field is one encoded struct field.
type Field struct {
	Name  string
	Type  reflect.Type
	index int

	// codec for the declared type, nil for interface fields
	codec Codec
}

// objectCodec encodes a struct as its exported fields in name order, each
// as a full node.
type objectCodec struct {
	typ    reflect.Type
	name   string
	fields []Field
	names  []string
}

func (e *Engine) buildObject(t reflect.Type) Codec {
	fields, err := structFields(t)
	if err != nil {
		return unsupported(t, err.Error())
	}
	oc := &objectCodec{
		typ:    t,
		name:   TypeName(t),
		fields: fields,
		names:  make([]string, len(fields)),
	}
	for i := range oc.fields {
		f := &oc.fields[i]
		oc.names[i] = f.Name
		if f.Type.Kind() != reflect.Interface {
			f.codec = e.CodecFor(f.Type)
		}
	}
	return oc
}

// structFields lists the exported fields of t sorted by wire name. A
// `gwire:"-"` tag skips a field and `gwire:"name"` renames it.
func structFields(t reflect.Type) ([]Field, error) {
	var fields []Field
	seen := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("gwire"); ok {
			tag = strings.Split(tag, ",")[0]
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		if seen[name] {
			return nil, errors.Errorf("duplicate field name %q", name)
		}
		seen[name] = true
		fields = append(fields, Field{
			Name:  name,
			Type:  sf.Type,
			index: i,
		})
	}
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Name < fields[j].Name
	})
	return fields, nil
}

func (o *objectCodec) Type() reflect.Type { return o.typ }

// Fields returns the encoded fields in wire order.
func (o *objectCodec) Fields() []Field { return o.fields }

func (o *objectCodec) FieldNames() []string { return o.names }

func (o *objectCodec) WriteManifest(w io.Writer, s *Session) error {
	return writeTypeManifest(w, o.typ, o.name, o.names, s)
}

func (o *objectCodec) WriteValue(w io.Writer, v reflect.Value, s *Session) error {
	for _, f := range o.fields {
		if err := s.writeNode(w, v.Field(f.index), f.codec); err != nil {
			return errors.Wrapf(err, "field %s.%s", o.name, f.Name)
		}
	}
	return nil
}

func (o *objectCodec) ReadValue(r io.Reader, s *Session) (reflect.Value, error) {
	dst := reflect.New(o.typ).Elem()
	if err := o.ReadInto(r, dst, s); err != nil {
		return reflect.Value{}, err
	}
	return dst, nil
}

func (o *objectCodec) ReadInto(r io.Reader, dst reflect.Value, s *Session) error {
	for _, f := range o.fields {
		if err := o.readField(r, dst, f, s); err != nil {
			return err
		}
	}
	return nil
}

func (o *objectCodec) readField(r io.Reader, dst reflect.Value, f Field, s *Session) error {
	v, err := s.ReadObject(r)
	if err != nil {
		return errors.Wrapf(err, "field %s.%s", o.name, f.Name)
	}
	if err := assign(dst.Field(f.index), v); err != nil {
		return errors.Wrapf(err, "field %s.%s", o.name, f.Name)
	}
	return nil
}

// tolerantObjectCodec reads values written with a field list that may
// differ from the local one. Wire fields missing locally are read and
// dropped; local fields missing on the wire keep their zero value.
type tolerantObjectCodec struct {
	*objectCodec
	wire  []string
	slots []int
}

func newTolerantObjectCodec(local *objectCodec, wire []string) *tolerantObjectCodec {
	byName := make(map[string]int, len(local.fields))
	for i, f := range local.fields {
		byName[f.Name] = i
	}
	slots := make([]int, len(wire))
	for i, name := range wire {
		slot, ok := byName[name]
		if !ok {
			slot = -1
		}
		slots[i] = slot
	}
	return &tolerantObjectCodec{
		objectCodec: local,
		wire:        wire,
		slots:       slots,
	}
}

func (t *tolerantObjectCodec) FieldNames() []string { return t.wire }

func (t *tolerantObjectCodec) ReadValue(r io.Reader, s *Session) (reflect.Value, error) {
	dst := reflect.New(t.typ).Elem()
	if err := t.ReadInto(r, dst, s); err != nil {
		return reflect.Value{}, err
	}
	return dst, nil
}

func (t *tolerantObjectCodec) ReadInto(r io.Reader, dst reflect.Value, s *Session) error {
	for i, slot := range t.slots {
		if slot >= 0 {
			if err := t.readField(r, dst, t.fields[slot], s); err != nil {
				return err
			}
			continue
		}
		if _, err := s.ReadObject(r); err != nil {
			return errors.Wrapf(err, "dropped field %s.%s", t.name, t.wire[i])
		}
	}
	return nil
}

// tolerantCodec adapts the local codec for a struct or pointer-to-struct
// type to a wire field list.
func tolerantCodec(local Codec, wire []string) (Codec, error) {
	switch c := unwrap(local).(type) {
	case *objectCodec:
		return newTolerantObjectCodec(c, wire), nil
	case *pointerCodec:
		oc, ok := unwrap(c.elem).(*objectCodec)
		if !ok {
			break
		}
		return &pointerCodec{
			typ:  c.typ,
			name: c.name,
			elem: newTolerantObjectCodec(oc, wire),
		}, nil
	case *fromSurrogateCodec:
		inner, err := tolerantCodec(c.Codec, wire)
		if err != nil {
			return nil, err
		}
		return &fromSurrogateCodec{Codec: inner, sg: c.sg}, nil
	case *unsupportedCodec:
		return c, nil
	}
	return nil, errors.Wrapf(ErrInvalidManifest, "%s does not carry fields", TypeName(local.Type()))
}
