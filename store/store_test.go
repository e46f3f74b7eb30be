package store

import (
	"testing"
	"time"

	"graphwire/gwire"

	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
)

type account struct {
	Name     string
	Balance  gwire.Decimal
	Opened   time.Time
	Children []*account
}

func init() {
	gwire.Register(&account{})
}

func TestStore_PutGet(t *testing.T) {
	db, done := setupLevelDB(t)
	defer done()

	for _, tag := range []CompressionTag{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(tag.String(), func(t *testing.T) {
			s := New(db, &Opts{Compression: tag})
			root := &account{
				Name:    "root",
				Balance: gwire.MustParseDecimal("12.50"),
				Opened:  time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
			}
			root.Children = []*account{root, {Name: "child"}}

			key := "accounts/" + tag.String()
			require.NoError(t, s.Put(key, root))

			var out *account
			require.NoError(t, s.GetInto(key, &out))
			require.Equal(t, "root", out.Name)
			require.Equal(t, "12.50", out.Balance.String())
			require.True(t, root.Opened.Equal(out.Opened))
			require.Same(t, out, out.Children[0])
			require.Equal(t, "child", out.Children[1].Name)

			// bypass the cache so the record is read back from disk
			s.cache.Del(key)
			v, err := s.Get(key)
			require.NoError(t, err)
			require.IsType(t, &account{}, v)
		})
	}
}

func TestStore_RawAndDelete(t *testing.T) {
	db, done := setupLevelDB(t)
	defer done()
	s := New(db, &Opts{Compression: CompressionLZ4, CacheExpiryMS: 1000})

	size, err := s.Engine().Size("hello")
	require.NoError(t, err)
	require.Equal(t, 10, size)

	require.NoError(t, s.Put("greeting", "hello"))
	raw, err := s.GetRaw("greeting")
	require.NoError(t, err)
	require.Equal(t, []byte{0x07, 0x05, 0x00, 0x00, 0x00, 'h', 'e', 'l', 'l', 'o'}, raw)

	require.NoError(t, s.PutRaw("copy", raw))
	v, err := s.Get("copy")
	require.NoError(t, err)
	require.Equal(t, "hello", v)

	ok, err := s.Has("copy")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.Delete("copy"))
	_, err = s.Get("copy")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.Delete("copy"), ErrNotFound)

	require.ErrorIs(t, s.Put("", 1), ErrInvalidKey)
	_, err = s.GetRaw("a\x00b")
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestStore_RawPayloadsAreCopied(t *testing.T) {
	db, done := setupLevelDB(t)
	defer done()
	s := New(db, &Opts{CacheExpiryMS: 1000})

	payload, err := s.encode("hello")
	require.NoError(t, err)
	require.NoError(t, s.PutRaw("greeting", payload))
	payload[len(payload)-1] = 'p'

	raw, err := s.GetRaw("greeting")
	require.NoError(t, err)
	raw[len(raw)-1] = 'p'

	v, err := s.Get("greeting")
	require.NoError(t, err)
	require.Equal(t, "hello", v)
	require.Equal(t, 1, s.cache.Len())
}

func TestStore_Corrupt(t *testing.T) {
	db, done := setupLevelDB(t)
	defer done()
	s := New(db, &Opts{})

	require.NoError(t, s.Put("x", int32(5)))
	rec, err := db.Get(objectsPrefix.Key("x"), nil)
	require.NoError(t, err)
	rec[len(rec)-1] ^= 0xff
	require.NoError(t, db.Put(objectsPrefix.Key("x"), rec, nil))

	s.cache.Del("x")
	_, err = s.Get("x")
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestStore_PutAllKeysStats(t *testing.T) {
	db, done := setupLevelDB(t)
	defer done()
	s := New(db, &Opts{Compression: CompressionZstd})

	require.NoError(t, s.PutAll(map[string]interface{}{
		"users/1": "alice",
		"users/2": "bob",
		"teams/1": []string{"alice", "bob"},
	}))

	keys, err := s.Keys("users/")
	require.NoError(t, err)
	require.Equal(t, []string{"users/1", "users/2"}, keys)

	all, err := s.Keys("")
	require.NoError(t, err)
	require.Equal(t, []string{"teams/1", "users/1", "users/2"}, all)

	stats, err := s.Stats()
	require.NoError(t, err)
	require.Equal(t, 3, stats.Objects)
	require.Equal(t, 3, stats.Cached)
	require.Equal(t, CompressionZstd, stats.Compression)

	// a value that cannot be encoded aborts the whole batch
	err = s.PutAll(map[string]interface{}{
		"users/3": "carol",
		"users/4": make(chan int),
	})
	require.Error(t, err)
	ok, err := s.Has("users/3")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestWithTx(t *testing.T) {
	db, done := setupLevelDB(t)
	defer done()

	require.NoError(t, WithTx(db, func(tx *leveldb.Transaction) error {
		return tx.Put([]byte("k"), []byte("v"), nil)
	}))
	v, err := db.Get([]byte("k"), nil)
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)

	require.Error(t, WithTx(db, func(tx *leveldb.Transaction) error {
		require.NoError(t, tx.Put([]byte("k2"), []byte("v"), nil))
		return leveldb.ErrClosed
	}))
	_, err = db.Get([]byte("k2"), nil)
	require.ErrorIs(t, err, leveldb.ErrNotFound)

	require.Panics(t, func() {
		_ = WithTx(db, func(tx *leveldb.Transaction) error {
			panic("boom")
		})
	})
	require.NoError(t, WithTx(db, func(tx *leveldb.Transaction) error { return nil }))
}
