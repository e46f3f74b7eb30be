package gwire

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type leaf struct {
	Name string
}

type pair struct {
	A *leaf
	B *leaf
}

type loop struct {
	Name string
	Self *loop
}

type chain struct {
	Value int32
	Next  *chain
}

type profile struct {
	Name    string
	Age     int32
	Tags    []string
	Scores  map[string]int64
	ID      uuid.UUID
	Balance Decimal
	Pet     interface{}
	Friends []*profile
	Skipped string `gwire:"-"`
	Renamed bool   `gwire:"flag"`
	hidden  int
}

type sharedInts struct {
	A, B  []int
	Temps []celsius
	Same  []celsius
}

type ping struct {
	Name string
	Pong *pong
}

type pong struct {
	Count int32
	Ping  *ping
}

type withChan struct {
	Name string
	C    chan int
}

func encodeBytes(t *testing.T, e *Engine, v interface{}) []byte {
	var buf bytes.Buffer
	require.NoError(t, e.Encode(v, &buf))
	return buf.Bytes()
}

func countTag(entries []TraceEntry, tag byte) int {
	var n int
	for _, entry := range entries {
		if entry.Tag == tag {
			n++
		}
	}
	return n
}

func TestEncodeStructGolden(t *testing.T) {
	data := encodeBytes(t, DefaultEngine(), &leaf{Name: "a"})
	require.Equal(
		t,
		"ff"+"150000002a6772617068776972652f67776972652e6c656166"+"070100000061",
		hex.EncodeToString(data),
	)
}

func TestEncodeMapGolden(t *testing.T) {
	data := encodeBytes(t, DefaultEngine(), map[string]int32{"b": 2, "a": 1})
	require.Equal(
		t,
		"ff"+"10000000"+hex.EncodeToString([]byte("map[string]int32"))+
			"02000000"+
			"070100000061"+"0801000000"+
			"070100000062"+"0802000000",
		hex.EncodeToString(data),
	)

	actual, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, map[string]int32{"a": 1, "b": 2}, actual)
}

func TestRoundTripGraph(t *testing.T) {
	friend := &profile{Name: "grace"}
	in := &profile{
		Name:    "ada",
		Age:     36,
		Tags:    []string{"math", "engines"},
		Scores:  map[string]int64{"notes": 7},
		ID:      uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2"),
		Balance: MustParseDecimal("-1234.5678"),
		Pet:     &leaf{Name: "cat"},
		Friends: []*profile{friend, friend},
		Skipped: "not written",
		Renamed: true,
		hidden:  3,
	}

	data := encodeBytes(t, DefaultEngine(), in)
	v, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	out := v.(*profile)

	require.Equal(t, "ada", out.Name)
	require.EqualValues(t, 36, out.Age)
	require.Equal(t, in.Tags, out.Tags)
	require.Equal(t, in.Scores, out.Scores)
	require.Equal(t, in.ID, out.ID)
	require.Equal(t, "-1234.5678", out.Balance.String())
	require.Equal(t, &leaf{Name: "cat"}, out.Pet)
	require.Len(t, out.Friends, 2)
	require.Same(t, out.Friends[0], out.Friends[1])
	require.Equal(t, "grace", out.Friends[0].Name)
	require.Empty(t, out.Skipped)
	require.True(t, out.Renamed)
	require.Zero(t, out.hidden)

	var into profile
	require.NoError(t, DecodeInto(bytes.NewReader(data), &into))
	require.Equal(t, "ada", into.Name)
}

func TestPreserveReferences(t *testing.T) {
	shared := &leaf{Name: "shared"}
	data := encodeBytes(t, DefaultEngine(), &pair{A: shared, B: shared})

	entries, err := Trace(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 1, countTag(entries, TagReference))

	v, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	out := v.(*pair)
	require.Same(t, out.A, out.B)
	require.Equal(t, "shared", out.A.Name)

	e := MustNewEngine(Options{})
	data = encodeBytes(t, e, &pair{A: shared, B: shared})
	entries, err = e.Trace(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 0, countTag(entries, TagReference))
	v, err = e.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	out = v.(*pair)
	require.NotSame(t, out.A, out.B)
	require.Equal(t, out.A, out.B)
}

func TestSharedSlicesAndMaps(t *testing.T) {
	nums := []int32{1, 2, 3}
	m := map[string]int32{"x": 1}
	data := encodeBytes(t, DefaultEngine(), []interface{}{nums, nums, m, m, nums[:2]})
	entries, err := Trace(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 2, countTag(entries, TagReference))

	v, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	out := v.([]interface{})
	require.Len(t, out, 5)
	first, second := out[0].([]int32), out[1].([]int32)
	require.Equal(t, nums, first)
	first[0] = 9
	require.EqualValues(t, 9, second[0])
	require.Equal(t, []int32{1, 2}, out[4])
	out[2].(map[string]int32)["y"] = 2
	require.Len(t, out[3], 2)
}

func TestSharedConvertedSlices(t *testing.T) {
	nums := []int{1, 2, 3}
	temps := []celsius{-5, 20}
	data := encodeBytes(t, DefaultEngine(), &sharedInts{A: nums, B: nums, Temps: temps, Same: temps})
	entries, err := Trace(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 2, countTag(entries, TagReference))

	v, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	out := v.(*sharedInts)
	require.Equal(t, nums, out.A)
	out.A[0] = 99
	require.Equal(t, 99, out.B[0])
	out.Temps[1] = 37
	require.EqualValues(t, 37, out.Same[1])

	var into sharedInts
	require.NoError(t, DecodeInto(bytes.NewReader(data), &into))
	into.B[2] = 7
	require.Equal(t, 7, into.A[2])
}

func TestArrayElementValues(t *testing.T) {
	e := MustNewEngine(Options{PreserveObjectReferences: true})
	ptrs := make([]*leaf, 100)
	values := make([]leaf, 100)
	nodes := make([]interface{}, 100)
	for i := range ptrs {
		ptrs[i] = &leaf{Name: fmt.Sprintf("leaf-%d", i)}
		values[i] = *ptrs[i]
		nodes[i] = ptrs[i]
	}

	for _, in := range []interface{}{ptrs, values} {
		data := encodeBytes(t, e, in)
		entries, err := e.Trace(bytes.NewReader(data))
		require.NoError(t, err)
		require.Equal(t, 1, countTag(entries, TagNewType), "%T", in)
		require.Equal(t, 0, countTag(entries, TagKnownType), "%T", in)

		v, err := e.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		require.Equal(t, in, v)
	}

	// interface elements carry their own manifests: one declaration for
	// the element type, one for *leaf and 99 references to it
	data := encodeBytes(t, e, nodes)
	entries, err := e.Trace(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 2, countTag(entries, TagNewType))
	require.Equal(t, 99, countTag(entries, TagKnownType))

	shared := &leaf{Name: "shared"}
	v, err := e.Decode(bytes.NewReader(encodeBytes(t, e, []*leaf{shared, nil, shared})))
	require.NoError(t, err)
	out := v.([]*leaf)
	require.Len(t, out, 3)
	require.Equal(t, shared, out[0])
	require.Nil(t, out[1])
	require.Same(t, out[0], out[2])

	var bad bytes.Buffer
	s := newSession(e)
	require.NoError(t, writeByte(&bad, TagArray, s))
	require.NoError(t, writeByte(&bad, TagNewType, s))
	require.NoError(t, writeString(&bad, TypeName(reflect.TypeOf(&leaf{})), s))
	require.NoError(t, writeLength(&bad, 1, s))
	require.NoError(t, writeByte(&bad, TagString, s))
	_, err = e.Decode(&bad)
	require.ErrorIs(t, err, ErrInvalidManifest)
}

func TestCycle(t *testing.T) {
	in := &loop{Name: "ouroboros"}
	in.Self = in

	data := encodeBytes(t, DefaultEngine(), in)
	v, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	out := v.(*loop)
	require.Equal(t, "ouroboros", out.Name)
	require.Same(t, out, out.Self)
}

func TestTypeManifestReuse(t *testing.T) {
	var head *chain
	for i := 0; i < 100; i++ {
		head = &chain{Value: int32(i), Next: head}
	}

	e := MustNewEngine(Options{})
	data := encodeBytes(t, e, head)
	entries, err := e.Trace(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 1, countTag(entries, TagNewType))
	require.Equal(t, 99, countTag(entries, TagKnownType))

	v, err := e.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	var n int
	for c := v.(*chain); c != nil; c = c.Next {
		require.EqualValues(t, 99-n, c.Value)
		n++
	}
	require.Equal(t, 100, n)
}

func TestNilAndEmpty(t *testing.T) {
	data := encodeBytes(t, DefaultEngine(), []string(nil))
	require.Equal(t, []byte{TagNull}, data)

	var p *leaf
	data = encodeBytes(t, DefaultEngine(), p)
	require.Equal(t, []byte{TagNull}, data)

	data = encodeBytes(t, DefaultEngine(), []string{})
	v, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, []string{}, v)

	data = encodeBytes(t, DefaultEngine(), &profile{})
	v, err = Decode(bytes.NewReader(data))
	require.NoError(t, err)
	out := v.(*profile)
	require.Nil(t, out.Tags)
	require.Nil(t, out.Scores)
	require.Nil(t, out.Pet)
}

func TestDecodeIntoConversions(t *testing.T) {
	var n int
	require.NoError(t, DecodeInto(bytes.NewReader(encodeBytes(t, DefaultEngine(), 42)), &n))
	require.Equal(t, 42, n)

	var arr [3]int32
	require.NoError(t, DecodeInto(bytes.NewReader(encodeBytes(t, DefaultEngine(), [3]int32{4, 5, 6})), &arr))
	require.Equal(t, [3]int32{4, 5, 6}, arr)

	var lp *leaf
	require.NoError(t, DecodeInto(bytes.NewReader(encodeBytes(t, DefaultEngine(), leaf{Name: "v"})), &lp))
	require.Equal(t, "v", lp.Name)

	var ints []int
	require.NoError(t, DecodeInto(bytes.NewReader(encodeBytes(t, DefaultEngine(), []int{1, 2})), &ints))
	require.Equal(t, []int{1, 2}, ints)

	var s string
	err := DecodeInto(bytes.NewReader(encodeBytes(t, DefaultEngine(), 1)), &s)
	var assignErr *AssignError
	require.True(t, errors.As(err, &assignErr))

	require.Equal(t, ErrNotPointer, DecodeInto(bytes.NewReader(nil), s))
}

func TestUnsupportedTypes(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(make(chan int), &buf)
	var unsupportedErr *UnsupportedTypeError
	require.True(t, errors.As(err, &unsupportedErr))
	require.Equal(t, reflect.TypeOf(make(chan int)), unsupportedErr.Type)

	buf.Reset()
	err = Encode(&withChan{Name: "x", C: make(chan int)}, &buf)
	require.True(t, errors.As(err, &unsupportedErr))

	// a nil value of an unsupported type is just a null
	buf.Reset()
	require.NoError(t, Encode(&withChan{Name: "x"}, &buf))
	v, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, "x", v.(*withChan).Name)

	buf.Reset()
	err = Encode(complex(1, 2), &buf)
	require.True(t, errors.As(err, &unsupportedErr))
}

func TestUnknownTypeName(t *testing.T) {
	var buf bytes.Buffer
	s := newSession(DefaultEngine())
	require.NoError(t, writeByte(&buf, TagNewType, s))
	require.NoError(t, writeString(&buf, "example.com/missing.Thing", s))

	_, err := Decode(&buf)
	var unknownErr *UnknownTypeError
	require.True(t, errors.As(err, &unknownErr))
	require.Equal(t, "example.com/missing.Thing", unknownErr.Name)
}

func TestTypeValues(t *testing.T) {
	Register(&leaf{})
	lt := reflect.TypeOf(&leaf{})
	data := encodeBytes(t, DefaultEngine(), []interface{}{lt, lt, reflect.TypeOf(0)})
	entries, err := Trace(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 2, countTag(entries, TagTypeValue))
	require.Equal(t, 1, countTag(entries, TagReference))

	v, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	out := v.([]interface{})
	require.Equal(t, lt, out[0])
	require.Equal(t, lt, out[1])
	require.Equal(t, reflect.TypeOf(0), out[2])
}

func TestConcurrentCodecBuilds(t *testing.T) {
	for round := 0; round < 5; round++ {
		e := MustNewEngine(Options{PreserveObjectReferences: true})
		results := make([][]byte, 16)
		var g errgroup.Group
		for i := range results {
			i := i
			g.Go(func() error {
				root := &profile{Name: fmt.Sprintf("root-%d", round)}
				root.Friends = []*profile{root, {Name: "friend", Pet: &loop{Name: "pet"}}}
				var buf bytes.Buffer
				if err := e.Encode(root, &buf); err != nil {
					return err
				}
				v, err := e.Decode(bytes.NewReader(buf.Bytes()))
				if err != nil {
					return err
				}
				out := v.(*profile)
				if out.Friends[0] != out {
					return errors.New("self reference lost")
				}
				results[i] = buf.Bytes()
				return nil
			})
		}
		require.NoError(t, g.Wait())
		for _, data := range results[1:] {
			require.Equal(t, results[0], data)
		}
	}
}

func TestMutuallyReferentialTypes(t *testing.T) {
	for round := 0; round < 5; round++ {
		e := MustNewEngine(Options{PreserveObjectReferences: true})
		var g errgroup.Group
		for i := 0; i < 16; i++ {
			i := i
			g.Go(func() error {
				var root interface{}
				if i%2 == 0 {
					p := &ping{Name: "ping"}
					p.Pong = &pong{Count: int32(i), Ping: p}
					root = p
				} else {
					q := &pong{Count: int32(i)}
					q.Ping = &ping{Name: "pong", Pong: q}
					root = q
				}
				var buf bytes.Buffer
				if err := e.Encode(root, &buf); err != nil {
					return err
				}
				v, err := e.Decode(bytes.NewReader(buf.Bytes()))
				if err != nil {
					return err
				}
				switch out := v.(type) {
				case *ping:
					if out.Pong.Ping != out {
						return errors.New("ping cycle lost")
					}
				case *pong:
					if out.Ping.Pong != out {
						return errors.New("pong cycle lost")
					}
				default:
					return errors.Errorf("decoded %T", v)
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
	}
}

func TestPendingCodecWaitsForPublish(t *testing.T) {
	e := MustNewEngine(Options{})
	lt := reflect.TypeOf(leaf{})
	entry := &registryEntry{typ: lt}
	e.codecs.Store(lt, entry)

	c := e.CodecFor(lt)
	require.Same(t, entry, c)
	require.Equal(t, lt, c.Type())

	written := make(chan []byte, 1)
	go func() {
		var buf bytes.Buffer
		s := newSession(e)
		if err := c.WriteManifest(&buf, s); err != nil {
			written <- nil
			return
		}
		if err := c.WriteValue(&buf, reflect.ValueOf(leaf{Name: "x"}), s); err != nil {
			written <- nil
			return
		}
		written <- buf.Bytes()
	}()

	select {
	case <-written:
		t.Fatal("codec used before it was published")
	case <-time.After(50 * time.Millisecond):
	}

	entry.codec = e.build(lt)
	entry.ready.Store(true)
	select {
	case data := <-written:
		require.Equal(t, encodeBytes(t, MustNewEngine(Options{}), leaf{Name: "x"}), data)
	case <-time.After(5 * time.Second):
		t.Fatal("codec never became usable")
	}
	require.Same(t, entry.codec, e.CodecFor(lt))
}

func TestTraceEntries(t *testing.T) {
	data := encodeBytes(t, DefaultEngine(), &pair{A: &leaf{Name: "x"}})
	entries, err := Trace(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	require.Equal(t, TagNewType, entries[0].Tag)
	require.EqualValues(t, 0, entries[0].Offset)
	require.Equal(t, 0, entries[0].Depth)
	require.Contains(t, entries[0].Detail, "*graphwire/gwire.pair")

	require.Equal(t, TagNewType, entries[1].Tag)
	require.Equal(t, 1, entries[1].Depth)
	require.Equal(t, TagString, entries[2].Tag)
	require.Equal(t, 2, entries[2].Depth)
	require.Equal(t, TagNull, entries[3].Tag)
	require.EqualValues(t, len(data)-1, entries[3].Offset)
	require.Contains(t, entries[0].String(), "new-type")

	partial, err := Trace(bytes.NewReader(data[:len(data)-1]))
	require.Error(t, err)
	require.Len(t, partial, 3)
}

func TestSize(t *testing.T) {
	in := &pair{A: &leaf{Name: "x"}}
	n, err := DefaultEngine().Size(in)
	require.NoError(t, err)
	require.Len(t, encodeBytes(t, DefaultEngine(), in), n)
}

func TestTimeFields(t *testing.T) {
	type stamped struct {
		At time.Time
	}
	Register(stamped{})
	at := time.Date(2021, 3, 4, 5, 6, 7, 800, time.UTC)
	v, err := Decode(bytes.NewReader(encodeBytes(t, DefaultEngine(), stamped{At: at})))
	require.NoError(t, err)
	require.True(t, at.Equal(v.(stamped).At))
}
