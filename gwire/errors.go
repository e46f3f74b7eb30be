package gwire

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

var (
	ErrInvalidManifest  = errors.New("invalid manifest")
	ErrUnknownReference = errors.New("unknown object reference")
	ErrUnknownTypeID    = errors.New("unknown type id")
	ErrInvalidBool      = errors.New("invalid boolean value")
	ErrInvalidDecimal   = errors.New("invalid decimal")
	ErrInvalidDateTime  = errors.New("invalid datetime kind")
	ErrLengthOverflow   = errors.New("length out of range")
	ErrNotPointer       = errors.New("can only decode into pointer types")
)

// UnsupportedTypeError is returned when a value of a type the engine cannot
// represent is written or read. It is raised when the codec is used, not
// when it is built.
type UnsupportedTypeError struct {
	Type   reflect.Type
	Reason string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("type %s cannot be encoded: %s", TypeName(e.Type), e.Reason)
}

// UnknownTypeError is returned when a type name on the wire does not
// resolve to a type in this process.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type %q", e.Name)
}

// AssignError is returned when a decoded value cannot be stored into the
// destination it was decoded for.
type AssignError struct {
	From reflect.Type
	To   reflect.Type
}

func (e *AssignError) Error() string {
	return fmt.Sprintf("cannot assign %s to %s", TypeName(e.From), TypeName(e.To))
}
