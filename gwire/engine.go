package gwire

import (
	"fmt"
	"io"
	"reflect"
	"runtime"
	"sync"

	"graphwire/log"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// Engine encodes and decodes object graphs. It owns the codec registry,
// which is filled lazily and shared by all calls; an Engine is safe for
// concurrent use.
type Engine struct {
	opts Options

	codecs   sync.Map // reflect.Type -> *registryEntry
	names    sync.Map // string -> reflect.Type
	tolerant sync.Map // string -> Codec

	surrogates     map[reflect.Type]Surrogate
	fromSurrogates map[reflect.Type]Surrogate
	custom         map[reflect.Type]*customCodec
	customByTag    map[byte]Codec

	lgr log.Logger
}

var defaultEngine = MustNewEngine(Options{
	PreserveObjectReferences: true,
})

// NewEngine validates opts and returns an Engine. Custom codecs are given
// their tags here.
func NewEngine(opts Options) (*Engine, error) {
	if opts.MaxLength < 0 {
		return nil, errors.New("max length must not be negative")
	}
	if len(opts.CustomCodecs) > MaxCustomCodecs {
		return nil, errors.Errorf("at most %d custom codecs can be registered, got %d", MaxCustomCodecs, len(opts.CustomCodecs))
	}

	e := &Engine{
		opts:           opts,
		surrogates:     make(map[reflect.Type]Surrogate),
		fromSurrogates: make(map[reflect.Type]Surrogate),
		custom:         make(map[reflect.Type]*customCodec),
		customByTag:    make(map[byte]Codec),
		lgr:            log.WithModule("gwire"),
	}

	for i, cc := range opts.CustomCodecs {
		if err := cc.validate(); err != nil {
			return nil, err
		}
		if _, ok := e.custom[cc.Type]; ok {
			return nil, errors.Errorf("duplicate custom codec for %s", TypeName(cc.Type))
		}
		c := &customCodec{
			tag:   TagCustomFirst + byte(i),
			typ:   cc.Type,
			inner: cc.Codec,
		}
		e.custom[cc.Type] = c
		e.customByTag[c.tag] = c
	}

	for _, sg := range opts.Surrogates {
		if err := sg.validate(); err != nil {
			return nil, err
		}
		if _, ok := e.surrogates[sg.Type]; ok {
			return nil, errors.Errorf("duplicate surrogate for %s", TypeName(sg.Type))
		}
		if e.sharesTag(sg.SurrogateType) {
			return nil, errors.Errorf("surrogate type %s is written with a built-in tag and cannot be read back as %s", TypeName(sg.SurrogateType), TypeName(sg.Type))
		}
		e.surrogates[sg.Type] = sg
		if _, ok := e.fromSurrogates[sg.SurrogateType]; !ok {
			e.fromSurrogates[sg.SurrogateType] = sg
		}
	}
	for tag, c := range e.customByTag {
		if sg, ok := e.fromSurrogates[c.Type()]; ok {
			e.customByTag[tag] = &fromSurrogateCodec{Codec: c, sg: sg}
		}
	}

	return e, nil
}

// MustNewEngine is like NewEngine but panics on error.
func MustNewEngine(opts Options) *Engine {
	e, err := NewEngine(opts)
	if err != nil {
		panic(err)
	}
	return e
}

// DefaultEngine returns the engine used by the package-level functions.
func DefaultEngine() *Engine {
	return defaultEngine
}

// Options returns the options the engine was created with.
func (e *Engine) Options() Options {
	return e.opts
}

// registryEntry is what the registry stores for a type. While the codec is
// being built the entry itself stands in for it: the builder and any
// recursive references get the entry, and its methods wait for the codec
// to be published. Building never calls a codec method, so the builder
// never waits on itself.
type registryEntry struct {
	typ   reflect.Type
	ready atomic.Bool
	codec Codec
}

func (r *registryEntry) await() Codec {
	for !r.ready.Load() {
		runtime.Gosched()
	}
	return r.codec
}

func (r *registryEntry) Type() reflect.Type {
	return r.typ
}

func (r *registryEntry) WriteManifest(w io.Writer, s *Session) error {
	return r.await().WriteManifest(w, s)
}

func (r *registryEntry) WriteValue(w io.Writer, v reflect.Value, s *Session) error {
	return r.await().WriteValue(w, v, s)
}

func (r *registryEntry) ReadValue(rd io.Reader, s *Session) (reflect.Value, error) {
	return r.await().ReadValue(rd, s)
}

// unwrap returns the codec a registry entry stands for.
func unwrap(c Codec) Codec {
	if entry, ok := c.(*registryEntry); ok {
		return entry.await()
	}
	return c
}

// CodecFor returns the codec for t, building and caching it on first use.
// The first caller to ask for a type builds it; concurrent callers get a
// placeholder that becomes usable once the build is published.
func (e *Engine) CodecFor(t reflect.Type) Codec {
	if v, ok := e.codecs.Load(t); ok {
		return readyOrPending(v.(*registryEntry))
	}
	entry := &registryEntry{typ: t}
	if v, loaded := e.codecs.LoadOrStore(t, entry); loaded {
		return readyOrPending(v.(*registryEntry))
	}

	c := e.build(t)
	entry.codec = c
	e.names.LoadOrStore(TypeName(t), t)
	entry.ready.Store(true)

	if u, ok := c.(*unsupportedCodec); ok {
		e.lgr.Debug("registered unsupported type", "type", TypeName(t), "reason", u.reason)
	} else {
		e.lgr.Trace("registered codec", "type", TypeName(t), "codec", fmt.Sprintf("%T", c))
	}
	return c
}

func readyOrPending(entry *registryEntry) Codec {
	if entry.ready.Load() {
		return entry.codec
	}
	return entry
}

func (e *Engine) build(t reflect.Type) Codec {
	var c Codec
	if cc, ok := e.custom[t]; ok {
		c = cc
	} else if sg, ok := e.surrogates[t]; ok {
		return &surrogateCodec{typ: t, sg: sg}
	} else {
		c = e.buildDefault(t)
	}
	if sg, ok := e.fromSurrogates[t]; ok {
		c = &fromSurrogateCodec{Codec: c, sg: sg}
	}
	return c
}

// sharesTag reports whether values of t are announced by a built-in tag
// that every type of the same kind shares. A decoder cannot tell such
// values apart from any other value with that tag.
func (e *Engine) sharesTag(t reflect.Type) bool {
	if _, ok := e.custom[t]; ok {
		return false
	}
	switch t {
	case timeType, uuidType, decimalType, charType, bytesType, emptyStructType, rtypeType:
		return true
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return true
	}
	return false
}

func (e *Engine) buildDefault(t reflect.Type) Codec {
	switch t {
	case timeType:
		return instantCodec{}
	case uuidType:
		return uuidCodec{}
	case decimalType:
		return decimalCodec{}
	case charType:
		return charCodec
	case bytesType:
		return byteBufferCodec{}
	case emptyStructType:
		return objectMarkerCodec{}
	case rtypeType:
		return typeValueCodec{}
	}

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return primitiveForKind(t.Kind())
	case reflect.String:
		return stringCodec{}
	case reflect.Slice, reflect.Array:
		return e.buildArray(t)
	case reflect.Struct:
		return e.buildObject(t)
	case reflect.Ptr:
		return &pointerCodec{
			typ:  t,
			name: TypeName(t),
			elem: e.CodecFor(t.Elem()),
		}
	case reflect.Map:
		return e.buildMap(t)
	case reflect.Interface:
		return &interfaceCodec{typ: t, name: TypeName(t)}
	}
	return unsupported(t, fmt.Sprintf("kind %s has no wire representation", t.Kind()))
}

// tolerantCodecForName returns a codec that reads values written with the
// given field list into the local type registered under name.
func (e *Engine) tolerantCodecForName(name string, fields []string) (Codec, error) {
	key := fmt.Sprintf("%s%q", name, fields)
	if c, ok := e.tolerant.Load(key); ok {
		return c.(Codec), nil
	}
	local, err := e.codecForName(name)
	if err != nil {
		return nil, err
	}
	c, err := tolerantCodec(local, fields)
	if err != nil {
		return nil, errors.Wrapf(err, "type %s", name)
	}
	actual, _ := e.tolerant.LoadOrStore(key, c)
	return actual.(Codec), nil
}

// Encode writes the graph rooted at v to w.
func (e *Engine) Encode(v interface{}, w io.Writer) error {
	s := newSession(e)
	return s.WriteObject(w, reflect.ValueOf(v))
}

// Decode reads one graph from r. A null root yields nil.
func (e *Engine) Decode(r io.Reader) (interface{}, error) {
	s := newSession(e)
	v, err := s.ReadObject(r)
	if err != nil {
		return nil, err
	}
	if !v.IsValid() {
		return nil, nil
	}
	return v.Interface(), nil
}

// DecodeInto reads one graph from r and stores it in the value ptr points
// to, converting where the wire type and the destination differ in a
// lossless way (int64 into int, slices into arrays, T into *T).
func (e *Engine) DecodeInto(r io.Reader, ptr interface{}) error {
	dst := reflect.ValueOf(ptr)
	if dst.Kind() != reflect.Ptr || dst.IsNil() {
		return ErrNotPointer
	}
	s := newSession(e)
	v, err := s.ReadObject(r)
	if err != nil {
		return err
	}
	return assign(dst.Elem(), v)
}

// Size returns the number of bytes Encode would write for v.
func (e *Engine) Size(v interface{}) (int, error) {
	cw := NewCountingWriter(io.Discard)
	if err := e.Encode(v, cw); err != nil {
		return 0, err
	}
	return int(cw.Count()), nil
}

// Encode writes v to w using the default engine.
func Encode(v interface{}, w io.Writer) error {
	return defaultEngine.Encode(v, w)
}

// Decode reads a graph from r using the default engine.
func Decode(r io.Reader) (interface{}, error) {
	return defaultEngine.Decode(r)
}

// DecodeInto reads a graph from r into ptr using the default engine.
func DecodeInto(r io.Reader, ptr interface{}) error {
	return defaultEngine.DecodeInto(r, ptr)
}
