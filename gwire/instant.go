package gwire

import (
	"io"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	ticksPerSecond = 10000000
	nanosPerTick   = 100

	// ticks between 0001-01-01 and 1970-01-01
	unixEpochTicks int64 = 621355968000000000
)

// Kinds of a datetime on the wire.
const (
	DateTimeUnspecified byte = 0
	DateTimeUTC         byte = 1
	DateTimeLocal       byte = 2
)

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// TimeToTicks converts t to 100ns ticks since 0001-01-01 UTC. Precision
// below 100ns is dropped.
func TimeToTicks(t time.Time) int64 {
	return unixEpochTicks + t.Unix()*ticksPerSecond + int64(t.Nanosecond())/nanosPerTick
}

// TicksToTime is the inverse of TimeToTicks. The result is in UTC.
func TicksToTime(ticks int64) time.Time {
	d := ticks - unixEpochTicks
	return time.Unix(d/ticksPerSecond, (d%ticksPerSecond)*nanosPerTick).UTC()
}

// instantCodec encodes time.Time. Times in time.Local keep the local kind;
// every other location is written as UTC.
type instantCodec struct{}

func (instantCodec) Type() reflect.Type { return timeType }

func (instantCodec) WriteManifest(w io.Writer, s *Session) error {
	return writeByte(w, TagDateTime, s)
}

func (instantCodec) WriteValue(w io.Writer, v reflect.Value, s *Session) error {
	t := v.Interface().(time.Time)
	kind := DateTimeUTC
	if t.Location() == time.Local && time.Local != time.UTC {
		kind = DateTimeLocal
	}
	if err := writeUint64(w, uint64(TimeToTicks(t)), s); err != nil {
		return err
	}
	return writeByte(w, kind, s)
}

func (instantCodec) ReadValue(r io.Reader, s *Session) (reflect.Value, error) {
	ticks, err := readUint64(r, s)
	if err != nil {
		return reflect.Value{}, err
	}
	kind, err := readByte(r, s)
	if err != nil {
		return reflect.Value{}, err
	}
	t := TicksToTime(int64(ticks))
	switch kind {
	case DateTimeUnspecified, DateTimeUTC:
	case DateTimeLocal:
		t = t.Local()
	default:
		return reflect.Value{}, errors.Wrapf(ErrInvalidDateTime, "got %d", kind)
	}
	return reflect.ValueOf(t), nil
}

type uuidCodec struct{}

func (uuidCodec) Type() reflect.Type { return uuidType }

func (uuidCodec) WriteManifest(w io.Writer, s *Session) error {
	return writeByte(w, TagUUID, s)
}

func (uuidCodec) WriteValue(w io.Writer, v reflect.Value, s *Session) error {
	id := v.Interface().(uuid.UUID)
	_, err := w.Write(id[:])
	return err
}

func (uuidCodec) ReadValue(r io.Reader, s *Session) (reflect.Value, error) {
	var id uuid.UUID
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(id), nil
}
