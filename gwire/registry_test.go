package gwire

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTypeName(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		name string
	}{
		{reflect.TypeOf(0), "int"},
		{reflect.TypeOf(""), "string"},
		{reflect.TypeOf(leaf{}), "graphwire/gwire.leaf"},
		{reflect.TypeOf(&leaf{}), "*graphwire/gwire.leaf"},
		{reflect.TypeOf([]*leaf{}), "[]*graphwire/gwire.leaf"},
		{reflect.TypeOf([2]int32{}), "[2]int32"},
		{reflect.TypeOf(map[string][]leaf{}), "map[string][]graphwire/gwire.leaf"},
		{reflect.TypeOf(map[[2]int8]map[string]bool{}), "map[[2]int8]map[string]bool"},
		{reflect.TypeOf(time.Time{}), "time.Time"},
		{reflect.TypeOf([]interface{}{}), "[]interface {}"},
		{reflect.TypeOf((*error)(nil)).Elem(), "error"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.name, TypeName(tt.typ))
	}
}

func TestResolveType(t *testing.T) {
	Register(&leaf{})
	e := MustNewEngine(Options{})

	for _, typ := range []reflect.Type{
		reflect.TypeOf(leaf{}),
		reflect.TypeOf(&leaf{}),
		reflect.TypeOf([]*leaf{}),
		reflect.TypeOf([3][]int16{}),
		reflect.TypeOf(map[string][]leaf{}),
		reflect.TypeOf(map[[2]int8]map[string]bool{}),
		reflect.TypeOf(map[string]time.Time{}),
		reflect.TypeOf([]Decimal{}),
		reflect.TypeOf((*interface{})(nil)),
	} {
		resolved, err := e.ResolveType(TypeName(typ))
		require.NoError(t, err, TypeName(typ))
		require.Equal(t, typ, resolved)
	}

	for _, name := range []string{
		"graphwire/gwire.nothing",
		"map[string",
		"map[[]int]bool",
		"[x]int",
		"*",
	} {
		_, err := e.ResolveType(name)
		require.Error(t, err, name)
	}

	typ, ok := RegisteredType("graphwire/gwire.leaf")
	require.True(t, ok)
	require.Equal(t, reflect.TypeOf(leaf{}), typ)
}
