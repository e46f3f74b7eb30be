package gwire

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var (
	registeredMtx sync.RWMutex
	registered    = make(map[string]reflect.Type)
)

var builtinTypes = map[string]reflect.Type{
	"bool":         reflect.TypeOf(false),
	"int":          reflect.TypeOf(0),
	"int8":         reflect.TypeOf(int8(0)),
	"int16":        reflect.TypeOf(int16(0)),
	"int32":        reflect.TypeOf(int32(0)),
	"int64":        reflect.TypeOf(int64(0)),
	"uint":         reflect.TypeOf(uint(0)),
	"uint8":        reflect.TypeOf(uint8(0)),
	"uint16":       reflect.TypeOf(uint16(0)),
	"uint32":       reflect.TypeOf(uint32(0)),
	"uint64":       reflect.TypeOf(uint64(0)),
	"uintptr":      reflect.TypeOf(uintptr(0)),
	"float32":      reflect.TypeOf(float32(0)),
	"float64":      reflect.TypeOf(float64(0)),
	"complex64":    reflect.TypeOf(complex64(0)),
	"complex128":   reflect.TypeOf(complex128(0)),
	"string":       stringType,
	"error":        reflect.TypeOf((*error)(nil)).Elem(),
	"interface {}": emptyInterfaceType,
	"struct {}":    emptyStructType,
}

// TypeName returns the canonical name a type is written with. Named types
// are qualified by their package path; composite types are spelled the way
// Go spells them, with every component canonicalized.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	if t.Name() != "" {
		if t.PkgPath() == "" {
			return t.Name()
		}
		return t.PkgPath() + "." + t.Name()
	}
	switch t.Kind() {
	case reflect.Ptr:
		return "*" + TypeName(t.Elem())
	case reflect.Slice:
		return "[]" + TypeName(t.Elem())
	case reflect.Array:
		return "[" + strconv.Itoa(t.Len()) + "]" + TypeName(t.Elem())
	case reflect.Map:
		return "map[" + TypeName(t.Key()) + "]" + TypeName(t.Elem())
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return "interface {}"
		}
	}
	return t.String()
}

// Register makes the type of sample resolvable by name in every engine of
// this process. Types only need to be registered when they can arrive on
// the wire before a value of them has been encoded locally.
func Register(sample interface{}) {
	RegisterType(reflect.TypeOf(sample))
}

// RegisterType is like Register but takes the type directly. Registering a
// pointer type also registers its element type.
func RegisterType(t reflect.Type) {
	if t == nil {
		panic("gwire: cannot register nil type")
	}
	registeredMtx.Lock()
	defer registeredMtx.Unlock()
	for {
		registered[TypeName(t)] = t
		if t.Kind() != reflect.Ptr {
			return
		}
		t = t.Elem()
	}
}

// RegisteredType returns the type registered under name.
func RegisteredType(name string) (reflect.Type, bool) {
	registeredMtx.RLock()
	defer registeredMtx.RUnlock()
	t, ok := registered[name]
	return t, ok
}

// ResolveType maps a canonical type name back to a type. Engine-local
// names take precedence over the process registry.
func (e *Engine) ResolveType(name string) (reflect.Type, error) {
	return e.resolveType(name, 0)
}

func (e *Engine) resolveType(name string, depth int) (reflect.Type, error) {
	if depth > maxManifestDepth {
		return nil, &UnknownTypeError{Name: name}
	}
	if t, ok := e.opts.TypeNames[name]; ok {
		return t, nil
	}
	if t, ok := e.names.Load(name); ok {
		return t.(reflect.Type), nil
	}
	if t, ok := RegisteredType(name); ok {
		return t, nil
	}
	if t, ok := builtinTypes[name]; ok {
		return t, nil
	}

	t, err := e.parseComposite(name, depth)
	if err != nil {
		return nil, err
	}
	e.names.Store(name, t)
	return t, nil
}

func (e *Engine) parseComposite(name string, depth int) (reflect.Type, error) {
	switch {
	case strings.HasPrefix(name, "*"):
		elem, err := e.resolveType(name[1:], depth+1)
		if err != nil {
			return nil, err
		}
		return reflect.PtrTo(elem), nil
	case strings.HasPrefix(name, "[]"):
		elem, err := e.resolveType(name[2:], depth+1)
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil
	case strings.HasPrefix(name, "map["):
		end := matchingBracket(name, len("map"))
		if end < 0 {
			return nil, &UnknownTypeError{Name: name}
		}
		key, err := e.resolveType(name[len("map["):end], depth+1)
		if err != nil {
			return nil, err
		}
		elem, err := e.resolveType(name[end+1:], depth+1)
		if err != nil {
			return nil, err
		}
		if !key.Comparable() {
			return nil, errors.Wrapf(&UnknownTypeError{Name: name}, "key type %s is not comparable", TypeName(key))
		}
		return reflect.MapOf(key, elem), nil
	case strings.HasPrefix(name, "["):
		end := strings.IndexByte(name, ']')
		if end < 0 {
			return nil, &UnknownTypeError{Name: name}
		}
		n, err := strconv.Atoi(name[1:end])
		if err != nil || n < 0 {
			return nil, &UnknownTypeError{Name: name}
		}
		elem, err := e.resolveType(name[end+1:], depth+1)
		if err != nil {
			return nil, err
		}
		return reflect.ArrayOf(n, elem), nil
	}
	return nil, &UnknownTypeError{Name: name}
}

// matchingBracket returns the index of the ']' closing the '[' at open.
func matchingBracket(s string, open int) int {
	if open >= len(s) || s[open] != '[' {
		return -1
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (e *Engine) codecForName(name string) (Codec, error) {
	t, err := e.ResolveType(name)
	if err != nil {
		return nil, err
	}
	return e.CodecFor(t), nil
}

func init() {
	for _, t := range []reflect.Type{timeType, uuidType, decimalType, charType, reflectTypeType} {
		RegisterType(t)
	}
}
