// Package surrogates holds ready-made gwire surrogates for types that
// have their own serialized form.
package surrogates

import (
	"reflect"

	"graphwire/gwire"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
)

// ProtoEnvelope is the wire form of a protobuf message: its type URL and
// its binary protobuf encoding.
type ProtoEnvelope struct {
	TypeURL string
	Value   []byte
}

var envelopeType = reflect.TypeOf(ProtoEnvelope{})

// ProtoMessage returns a surrogate that writes values of msg's concrete
// type as a ProtoEnvelope. Envelopes decode into whichever message type
// their type URL names in the global protobuf registry, so every
// ProtoMessage surrogate decodes alike.
func ProtoMessage(msg proto.Message) gwire.Surrogate {
	return gwire.Surrogate{
		Type:          reflect.TypeOf(msg),
		SurrogateType: envelopeType,
		To: func(v interface{}) (interface{}, error) {
			m, ok := v.(proto.Message)
			if !ok {
				return nil, errors.Errorf("%T is not a protobuf message", v)
			}
			any, err := anypb.New(m)
			if err != nil {
				return nil, errors.Wrap(err, "error packing protobuf message")
			}
			return ProtoEnvelope{TypeURL: any.GetTypeUrl(), Value: any.GetValue()}, nil
		},
		From: func(v interface{}) (interface{}, error) {
			env, ok := v.(ProtoEnvelope)
			if !ok {
				return nil, errors.Errorf("expected %s, got %T", gwire.TypeName(envelopeType), v)
			}
			any := &anypb.Any{TypeUrl: env.TypeURL, Value: env.Value}
			out, err := any.UnmarshalNew()
			if err != nil {
				return nil, errors.Wrapf(err, "error unpacking %s", env.TypeURL)
			}
			return out, nil
		},
	}
}

// ProtoMessages returns one surrogate per message type.
func ProtoMessages(msgs ...proto.Message) []gwire.Surrogate {
	out := make([]gwire.Surrogate, len(msgs))
	for i, msg := range msgs {
		out[i] = ProtoMessage(msg)
	}
	return out
}

func init() {
	gwire.Register(ProtoEnvelope{})
}
