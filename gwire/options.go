package gwire

import (
	"reflect"

	"github.com/pkg/errors"
)

// Options configure an Engine.
type Options struct {
	// PreserveObjectReferences writes every instance once and refers back
	// to it afterwards. Without it shared instances are written again each
	// time they are reached, and cyclic graphs cannot be encoded.
	PreserveObjectReferences bool

	// VersionTolerance makes new-type manifests carry their field list, so
	// readers whose local type has gained or lost fields can still decode.
	VersionTolerance bool

	// MaxLength caps the element count and byte length accepted on decode.
	// Zero means no cap beyond the int32 range.
	MaxLength int

	// TypeNames maps wire names to local types ahead of the process
	// registry, for types that were renamed or moved.
	TypeNames map[string]reflect.Type

	Surrogates   []Surrogate
	CustomCodecs []CustomCodec
}

// SurrogateFunc converts between a type and its surrogate.
type SurrogateFunc func(interface{}) (interface{}, error)

// Surrogate substitutes values of Type with values of SurrogateType on the
// wire. To is applied when encoding and From when decoding, so the decoder
// sees values of Type again.
type Surrogate struct {
	Type          reflect.Type
	SurrogateType reflect.Type
	To            SurrogateFunc
	From          SurrogateFunc
}

// NewSurrogate builds a Surrogate from sample values of both types.
func NewSurrogate(original, surrogate interface{}, to, from SurrogateFunc) Surrogate {
	return Surrogate{
		Type:          reflect.TypeOf(original),
		SurrogateType: reflect.TypeOf(surrogate),
		To:            to,
		From:          from,
	}
}

func (s Surrogate) validate() error {
	if s.Type == nil || s.SurrogateType == nil {
		return errors.New("surrogate types must be set")
	}
	if s.Type == s.SurrogateType {
		return errors.Errorf("type %s cannot be its own surrogate", TypeName(s.Type))
	}
	if s.To == nil || s.From == nil {
		return errors.Errorf("surrogate for %s needs both conversion functions", TypeName(s.Type))
	}
	return nil
}

// CustomCodec hands the value bytes of Type to a caller-supplied codec.
// Custom codecs get tags 21 onwards in the order they are listed.
type CustomCodec struct {
	Type  reflect.Type
	Codec ValueCodec
}

func (c CustomCodec) validate() error {
	if c.Type == nil {
		return errors.New("custom codec type must be set")
	}
	if c.Codec == nil {
		return errors.Errorf("custom codec for %s is nil", TypeName(c.Type))
	}
	return nil
}
