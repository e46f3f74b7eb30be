package rpc

import (
	"bytes"

	"graphwire/gwire"

	"github.com/pkg/errors"
	"google.golang.org/grpc/encoding"
)

const CodecName = "gwire"

// MaxMessageSize is the largest message the server accepts, and the
// largest length a message may declare for any of its parts.
const MaxMessageSize = 4 << 20

// messageEngine encodes the request and response structs. Messages are
// trees, so reference tracking stays off.
var messageEngine = gwire.MustNewEngine(gwire.Options{
	MaxLength: MaxMessageSize,
})

// Codec is a gRPC codec that frames messages with a gwire engine.
type Codec struct {
	engine *gwire.Engine
}

var _ encoding.Codec = (*Codec)(nil)

func NewCodec(engine *gwire.Engine) *Codec {
	return &Codec{engine: engine}
}

func (c *Codec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.engine.Encode(v, &buf); err != nil {
		return nil, errors.Wrapf(err, "error marshaling %T", v)
	}
	return buf.Bytes(), nil
}

func (c *Codec) Unmarshal(data []byte, v interface{}) error {
	if err := c.engine.DecodeInto(bytes.NewReader(data), v); err != nil {
		return errors.Wrapf(err, "error unmarshaling %T", v)
	}
	return nil
}

func (c *Codec) Name() string {
	return CodecName
}

var messageCodec = NewCodec(messageEngine)
