package gwire

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordV1 struct {
	A string
	B int32
	C bool
}

type recordV2 struct {
	A string
	C bool
	D float64
}

type emptyRecord struct{}

func TestStructFields(t *testing.T) {
	fields, err := structFields(reflect.TypeOf(profile{}))
	require.NoError(t, err)
	var names []string
	for _, f := range fields {
		names = append(names, f.Name)
	}
	require.Equal(t, []string{"Age", "Balance", "Friends", "ID", "Name", "Pet", "Scores", "Tags", "flag"}, names)

	type dup struct {
		A string `gwire:"x"`
		B string `gwire:"x"`
	}
	_, err = structFields(reflect.TypeOf(dup{}))
	require.Error(t, err)
}

func TestVersionToleranceDroppedField(t *testing.T) {
	enc := MustNewEngine(Options{VersionTolerance: true})
	dec := MustNewEngine(Options{
		TypeNames: map[string]reflect.Type{
			TypeName(reflect.TypeOf(recordV1{})): reflect.TypeOf(recordV2{}),
		},
	})

	data := encodeBytes(t, enc, []interface{}{&recordV1{A: "a", B: 7, C: true}, "tail"})
	entries, err := enc.Trace(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 1, countTag(entries, TagNewTypeWithFields))

	v, err := dec.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	out := v.([]interface{})
	require.Equal(t, &recordV2{A: "a", C: true}, out[0])
	require.Equal(t, "tail", out[1])
}

func TestVersionToleranceAddedField(t *testing.T) {
	enc := MustNewEngine(Options{VersionTolerance: true})
	dec := MustNewEngine(Options{
		VersionTolerance: true,
		TypeNames: map[string]reflect.Type{
			TypeName(reflect.TypeOf(recordV2{})): reflect.TypeOf(recordV1{}),
		},
	})

	in := []recordV2{{A: "x", C: true, D: 1.5}, {A: "y"}}
	v, err := dec.Decode(bytes.NewReader(encodeBytes(t, enc, in)))
	require.NoError(t, err)
	require.Equal(t, []recordV1{{A: "x", C: true}, {A: "y"}}, v)
}

func TestVersionToleranceSameShape(t *testing.T) {
	e := MustNewEngine(Options{VersionTolerance: true, PreserveObjectReferences: true})
	shared := &recordV1{A: "s", B: 1}
	v, err := e.Decode(bytes.NewReader(encodeBytes(t, e, []*recordV1{shared, shared, {A: "t"}})))
	require.NoError(t, err)
	out := v.([]*recordV1)
	require.Equal(t, shared, out[0])
	require.Same(t, out[0], out[1])
	require.Equal(t, "t", out[2].A)

	v, err = e.Decode(bytes.NewReader(encodeBytes(t, e, emptyRecord{})))
	require.NoError(t, err)
	require.Equal(t, emptyRecord{}, v)
}

func TestFieldListOnlyWithTolerance(t *testing.T) {
	e := MustNewEngine(Options{})
	entries, err := e.Trace(bytes.NewReader(encodeBytes(t, e, &recordV1{A: "a"})))
	require.NoError(t, err)
	require.Equal(t, 0, countTag(entries, TagNewTypeWithFields))
	require.Equal(t, 1, countTag(entries, TagNewType))
}
