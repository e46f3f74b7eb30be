package gwire

import (
	"reflect"

	"github.com/pkg/errors"
)

const minScratch = 16

// objectKey identifies an instance for reference tracking. Slices that share
// a backing array but differ in length are distinct instances.
type objectKey struct {
	typ reflect.Type
	ptr uintptr
	n   int
}

// Session holds the per-call state of one Encode or Decode: the identity
// tables for instances and types seen so far, and a scratch buffer for
// primitive reads and writes. A Session is owned by a single goroutine and
// passed explicitly to every codec.
type Session struct {
	engine *Engine

	objectIDs  map[objectKey]uint32
	nextObject uint32
	objects    []reflect.Value

	typeIDs map[reflect.Type]uint32
	types   []Codec

	scratch []byte

	trace *tracer
	depth int
}

func newSession(e *Engine) *Session {
	return &Session{
		engine:  e,
		typeIDs: make(map[reflect.Type]uint32),
		scratch: make([]byte, minScratch),
	}
}

// Engine returns the engine that created this session.
func (s *Session) Engine() *Engine {
	return s.engine
}

// PreserveReferences reports whether instances are tracked in this session.
func (s *Session) PreserveReferences() bool {
	return s.engine.opts.PreserveObjectReferences
}

// Scratch returns a buffer of exactly n bytes. The buffer is reused by the
// next call and grows geometrically.
func (s *Session) Scratch(n int) []byte {
	if cap(s.scratch) < n {
		size := cap(s.scratch) * 2
		if size < n {
			size = n
		}
		s.scratch = make([]byte, size)
	}
	return s.scratch[:n]
}

func identity(v reflect.Value) (objectKey, bool) {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.UnsafePointer:
		if v.IsNil() {
			return objectKey{}, false
		}
		return objectKey{typ: v.Type(), ptr: v.Pointer()}, true
	case reflect.Slice:
		if v.IsNil() || v.Len() == 0 {
			return objectKey{}, false
		}
		return objectKey{typ: v.Type(), ptr: v.Pointer(), n: v.Len()}, true
	}
	return objectKey{}, false
}

// TrackSerialized gives v the next object id. Every tracked write must be
// mirrored by a TrackDeserialized when the value is read back, so ids stay
// aligned on both sides. Values without an identity consume an id but can
// never be referenced.
func (s *Session) TrackSerialized(v reflect.Value) uint32 {
	id := s.nextObject
	s.nextObject++
	if key, ok := identity(v); ok {
		if s.objectIDs == nil {
			s.objectIDs = make(map[objectKey]uint32)
		}
		s.objectIDs[key] = id
	}
	return id
}

// ObjectID returns the id v was tracked with.
func (s *Session) ObjectID(v reflect.Value) (uint32, bool) {
	if s.objectIDs == nil {
		return 0, false
	}
	key, ok := identity(v)
	if !ok {
		return 0, false
	}
	id, ok := s.objectIDs[key]
	return id, ok
}

// TrackDeserialized records v, typically an empty shell that is populated
// afterwards, so that back-references inside it resolve to it.
func (s *Session) TrackDeserialized(v reflect.Value) uint32 {
	s.objects = append(s.objects, v)
	return uint32(len(s.objects) - 1)
}

// Resolve returns the instance recorded with the given id.
func (s *Session) Resolve(id uint32) (reflect.Value, error) {
	if int(id) >= len(s.objects) {
		return reflect.Value{}, errors.Wrapf(ErrUnknownReference, "object id %d", id)
	}
	return s.objects[id], nil
}

// ShouldWriteTypeManifest reports whether t has not been declared yet in
// this session. If it has, the id it was declared with is returned.
// Otherwise t is given the next id.
func (s *Session) ShouldWriteTypeManifest(t reflect.Type) (bool, uint32) {
	if id, ok := s.typeIDs[t]; ok {
		return false, id
	}
	id := uint32(len(s.typeIDs))
	s.typeIDs[t] = id
	return true, id
}

func (s *Session) registerTypeCodec(c Codec) uint32 {
	s.types = append(s.types, c)
	return uint32(len(s.types) - 1)
}

func (s *Session) typeCodec(id uint32) (Codec, error) {
	if int(id) >= len(s.types) {
		return nil, errors.Wrapf(ErrUnknownTypeID, "type id %d", id)
	}
	return s.types[id], nil
}
