package gwire

import (
	"io"
	"reflect"

	"github.com/pkg/errors"
)

// surrogateCodec writes the substitute of a value in its place. It has no
// manifest of its own: the substitute is written as a full node.
type surrogateCodec struct {
	typ reflect.Type
	sg  Surrogate
}

func (c *surrogateCodec) Type() reflect.Type { return c.typ }

func (c *surrogateCodec) WriteManifest(io.Writer, *Session) error { return nil }

func (c *surrogateCodec) WriteValue(w io.Writer, v reflect.Value, s *Session) error {
	out, err := c.sg.To(v.Interface())
	if err != nil {
		return errors.Wrapf(err, "error converting %s to its surrogate", TypeName(c.typ))
	}
	return s.WriteObject(w, reflect.ValueOf(out))
}

func (c *surrogateCodec) ReadValue(r io.Reader, s *Session) (reflect.Value, error) {
	return s.ReadObject(r)
}

// fromSurrogateCodec wraps the codec of a surrogate type and converts what
// it reads back to the original type.
type fromSurrogateCodec struct {
	Codec
	sg Surrogate
}

func (c *fromSurrogateCodec) ReadValue(r io.Reader, s *Session) (reflect.Value, error) {
	v, err := c.Codec.ReadValue(r, s)
	if err != nil || !v.IsValid() {
		return v, err
	}
	out, err := c.sg.From(v.Interface())
	if err != nil {
		return reflect.Value{}, errors.Wrapf(err, "error converting surrogate %s to %s", TypeName(c.sg.SurrogateType), TypeName(c.sg.Type))
	}
	return reflect.ValueOf(out), nil
}

// customCodec hands value bytes to a caller-supplied codec under one of the
// custom tags.
type customCodec struct {
	tag   byte
	typ   reflect.Type
	inner ValueCodec
}

func (c *customCodec) Type() reflect.Type { return c.typ }

func (c *customCodec) Tag() byte { return c.tag }

func (c *customCodec) WriteManifest(w io.Writer, s *Session) error {
	return writeByte(w, c.tag, s)
}

func (c *customCodec) WriteValue(w io.Writer, v reflect.Value, s *Session) error {
	return c.inner.WriteValue(w, v, s)
}

func (c *customCodec) ReadValue(r io.Reader, s *Session) (reflect.Value, error) {
	return c.inner.ReadValue(r, s)
}

// unsupportedCodec stands in for types that have no wire representation.
// It fails when used, not when built, so graphs that merely mention such a
// type in an unused position still work.
type unsupportedCodec struct {
	typ    reflect.Type
	reason string
}

func unsupported(t reflect.Type, reason string) *unsupportedCodec {
	return &unsupportedCodec{typ: t, reason: reason}
}

func (c *unsupportedCodec) err() error {
	return &UnsupportedTypeError{Type: c.typ, Reason: c.reason}
}

func (c *unsupportedCodec) Type() reflect.Type { return c.typ }

func (c *unsupportedCodec) WriteManifest(io.Writer, *Session) error { return c.err() }

func (c *unsupportedCodec) WriteValue(io.Writer, reflect.Value, *Session) error { return c.err() }

func (c *unsupportedCodec) ReadValue(io.Reader, *Session) (reflect.Value, error) {
	return reflect.Value{}, c.err()
}
