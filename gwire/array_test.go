package gwire

import (
	"bytes"
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type celsius float64

type fixedHolder struct {
	Small [4]uint16
	Temps []celsius
	Flags []bool
}

func TestBulkMatchesPerElement(t *testing.T) {
	if !nativeLittleEndian {
		t.Skip("bulk copies are only used on little-endian hosts")
	}

	e := MustNewEngine(Options{})
	inputs := []interface{}{
		[]int8{-1, 0, 1},
		[]int16{-300, 300},
		[]int32{1, -2, 3, 1 << 30},
		[]int64{math.MinInt64, math.MaxInt64},
		[]int{1, 2, 3},
		[]uint16{1, 0xffff},
		[]uint32{0xdeadbeef},
		[]uint64{math.MaxUint64},
		[]float32{1.5, -0.25},
		[]float64{3.14, math.Inf(-1)},
		[]Char{'h', 'i'},
		[]celsius{-40, 21.5},
		[]bool{true, false, true},
	}
	for _, in := range inputs {
		v := reflect.ValueOf(in)
		c, ok := e.CodecFor(v.Type()).(*arrayCodec)
		require.True(t, ok)
		require.NotZero(t, c.width)
		require.True(t, c.bulk(), "%T should be copied in bulk", in)

		s := newSession(e)
		var bulk, each bytes.Buffer
		require.NoError(t, c.writeFixed(&bulk, v, v.Len(), s))
		require.NoError(t, c.writeEach(&each, v, v.Len(), s))
		require.Equal(t, each.Bytes(), bulk.Bytes(), "%T", in)
		require.Equal(t, v.Len()*c.width, bulk.Len())

		fast := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		require.NoError(t, c.readFixed(bytes.NewReader(bulk.Bytes()), fast, v.Len(), s))
		slow := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		require.NoError(t, c.readEach(bytes.NewReader(bulk.Bytes()), slow, v.Len(), s))
		require.Equal(t, in, fast.Interface())
		require.Equal(t, in, slow.Interface())
	}
}

func TestFixedWidthFields(t *testing.T) {
	in := &fixedHolder{
		Small: [4]uint16{1, 2, 3, 4},
		Temps: []celsius{-1.5, 30},
		Flags: []bool{true},
	}
	var out fixedHolder
	require.NoError(t, DecodeInto(bytes.NewReader(encodeBytes(t, DefaultEngine(), in)), &out))
	require.Equal(t, *in, out)

	fixed := encodeBytes(t, DefaultEngine(), fixedHolder{Small: [4]uint16{9, 8, 7, 6}})
	v, err := Decode(bytes.NewReader(fixed))
	require.NoError(t, err)
	require.Equal(t, [4]uint16{9, 8, 7, 6}, v.(fixedHolder).Small)
}

func TestInvalidBoolElement(t *testing.T) {
	data := []byte{TagArray, TagBool, 2, 0, 0, 0, 1, 7}
	_, err := Decode(bytes.NewReader(data))
	require.Error(t, err)
	require.Contains(t, err.Error(), ErrInvalidBool.Error())
}

func TestNestedArrays(t *testing.T) {
	in := [][]int32{{1, 2}, nil, {}}
	v, err := Decode(bytes.NewReader(encodeBytes(t, DefaultEngine(), in)))
	require.NoError(t, err)
	out := v.([][]int32)
	require.Equal(t, []int32{1, 2}, out[0])
	require.Nil(t, out[1])
	require.Equal(t, []int32{}, out[2])

	mixed := []interface{}{int32(1), "two", []float64{3}, nil}
	v, err = Decode(bytes.NewReader(encodeBytes(t, DefaultEngine(), mixed)))
	require.NoError(t, err)
	require.Equal(t, mixed, v)
}
