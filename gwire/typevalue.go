package gwire

import (
	"io"
	"reflect"
)

var (
	reflectTypeType = reflect.TypeOf((*reflect.Type)(nil)).Elem()
	rtypeType       = reflect.TypeOf(reflect.TypeOf(0))
)

// typeValueCodec encodes reflect.Type values by their canonical name.
type typeValueCodec struct{}

func (typeValueCodec) Type() reflect.Type { return rtypeType }

func (typeValueCodec) WriteManifest(w io.Writer, s *Session) error {
	return writeByte(w, TagTypeValue, s)
}

func (typeValueCodec) WriteValue(w io.Writer, v reflect.Value, s *Session) error {
	t := v.Interface().(reflect.Type)
	if s.PreserveReferences() {
		s.TrackSerialized(v)
	}
	return writeString(w, TypeName(t), s)
}

func (typeValueCodec) ReadValue(r io.Reader, s *Session) (reflect.Value, error) {
	name, err := readString(r, s)
	if err != nil {
		return reflect.Value{}, err
	}
	t, err := s.engine.ResolveType(name)
	if err != nil {
		return reflect.Value{}, err
	}
	v := reflect.ValueOf(t)
	if s.PreserveReferences() {
		s.TrackDeserialized(v)
	}
	return v, nil
}
