package store

import (
	"bytes"
	"strings"

	"graphwire/gwire"
	"graphwire/log"
	"graphwire/util"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	lvlutil "github.com/syndtr/goleveldb/leveldb/util"
)

type TxCb func(tx *leveldb.Transaction) error

var (
	ErrNotFound   = errors.New("object not found")
	ErrCorrupt    = errors.New("corrupt record")
	ErrInvalidKey = errors.New("invalid key")
)

const objectsPrefix = Prefix("objects")

func Open(path string) (*leveldb.DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "error opening database")
	}
	return db, nil
}

func WithTx(db *leveldb.DB, cb TxCb) (err error) {
	tx, err := db.OpenTransaction()
	if err != nil {
		return errors.Wrap(err, "error opening transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Discard()
			panic(p)
		} else if err != nil {
			tx.Discard()
		} else {
			err = errors.Wrap(tx.Commit(), "error committing transaction")
		}
	}()

	return cb(tx)
}

type Opts struct {
	Engine        *gwire.Engine
	Compression   CompressionTag
	CacheExpiryMS int64
}

// Store keeps engine-encoded values in LevelDB. Encoded payloads are
// cached in memory after every read and write.
type Store struct {
	db            *leveldb.DB
	engine        *gwire.Engine
	compression   CompressionTag
	cache         *util.Cache
	cacheExpiryMS int64
	lgr           log.Logger
}

func New(db *leveldb.DB, opts *Opts) *Store {
	engine := opts.Engine
	if engine == nil {
		engine = gwire.DefaultEngine()
	}
	return &Store{
		db:            db,
		engine:        engine,
		compression:   opts.Compression,
		cache:         util.NewCache(),
		cacheExpiryMS: opts.CacheExpiryMS,
		lgr:           log.WithModule("store"),
	}
}

func (s *Store) Engine() *gwire.Engine {
	return s.engine
}

func (s *Store) Put(key string, v interface{}) error {
	payload, err := s.encode(v)
	if err != nil {
		return err
	}
	return s.putPayload(key, payload)
}

func (s *Store) Get(key string) (interface{}, error) {
	payload, err := s.getPayload(key)
	if err != nil {
		return nil, err
	}
	v, err := s.engine.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrapf(err, "error decoding object %s", key)
	}
	return v, nil
}

func (s *Store) GetInto(key string, ptr interface{}) error {
	payload, err := s.getPayload(key)
	if err != nil {
		return err
	}
	if err := s.engine.DecodeInto(bytes.NewReader(payload), ptr); err != nil {
		return errors.Wrapf(err, "error decoding object %s", key)
	}
	return nil
}

// PutRaw stores a payload that is already engine-encoded. The store keeps
// its own copy of payload.
func (s *Store) PutRaw(key string, payload []byte) error {
	return s.putPayload(key, clone(payload))
}

// GetRaw returns the stored payload. The caller owns the returned slice.
func (s *Store) GetRaw(key string) ([]byte, error) {
	payload, err := s.getPayload(key)
	if err != nil {
		return nil, err
	}
	return clone(payload), nil
}

// putPayload stores payload and caches it as is, so payload must not be
// modified afterwards.
func (s *Store) putPayload(key string, payload []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	rec, err := encodeRecord(payload, s.compression)
	if err != nil {
		return errors.Wrapf(err, "error encoding record %s", key)
	}
	if err := s.db.Put(objectsPrefix.Key(key), rec, nil); err != nil {
		return errors.Wrapf(err, "error writing object %s", key)
	}
	s.cache.Set(key, payload, s.cacheExpiryMS)
	s.lgr.Trace("stored object", "key", key, "payload_len", len(payload), "record_len", len(rec))
	return nil
}

// getPayload returns the stored payload, which may be shared with the
// cache and must not be modified.
func (s *Store) getPayload(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if cached := s.cache.Get(key); cached != nil {
		return cached.([]byte), nil
	}
	rec, err := s.db.Get(objectsPrefix.Key(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "object %s", key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error reading object %s", key)
	}
	payload, err := decodeRecord(rec)
	if err != nil {
		s.lgr.Error("found corrupt record", "key", key, "err", err)
		return nil, errors.Wrapf(err, "object %s", key)
	}
	s.cache.Set(key, payload, s.cacheExpiryMS)
	return payload, nil
}

func (s *Store) Has(key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	ok, err := s.db.Has(objectsPrefix.Key(key), nil)
	if err != nil {
		return false, errors.Wrapf(err, "error checking object %s", key)
	}
	return ok, nil
}

func (s *Store) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	ok, err := s.Has(key)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrNotFound, "object %s", key)
	}
	s.cache.Del(key)
	if err := s.db.Delete(objectsPrefix.Key(key), nil); err != nil {
		return errors.Wrapf(err, "error deleting object %s", key)
	}
	return nil
}

// PutAll encodes every value first and writes them in a single
// transaction. Nothing is written if any value fails to encode.
func (s *Store) PutAll(values map[string]interface{}) error {
	payloads := make(map[string][]byte, len(values))
	for key, v := range values {
		if err := validateKey(key); err != nil {
			return err
		}
		payload, err := s.encode(v)
		if err != nil {
			return errors.Wrapf(err, "error encoding object %s", key)
		}
		payloads[key] = payload
	}

	err := WithTx(s.db, func(tx *leveldb.Transaction) error {
		for key, payload := range payloads {
			rec, err := encodeRecord(payload, s.compression)
			if err != nil {
				return err
			}
			if err := tx.Put(objectsPrefix.Key(key), rec, nil); err != nil {
				return errors.Wrapf(err, "error writing object %s", key)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for key, payload := range payloads {
		s.cache.Set(key, payload, s.cacheExpiryMS)
	}
	return nil
}

// Keys returns the stored keys that start with prefix, in order.
func (s *Store) Keys(prefix string) ([]string, error) {
	iter := s.db.NewIterator(lvlutil.BytesPrefix(objectsPrefix.Key(prefix)), nil)
	defer iter.Release()
	var keys []string
	for iter.Next() {
		keys = append(keys, objectsPrefix.Trim(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "error iterating objects")
	}
	return keys, nil
}

type Stats struct {
	Objects     int
	Cached      int
	Compression CompressionTag
}

func (s *Store) Stats() (*Stats, error) {
	keys, err := s.Keys("")
	if err != nil {
		return nil, err
	}
	return &Stats{
		Objects:     len(keys),
		Cached:      s.cache.Len(),
		Compression: s.compression,
	}, nil
}

func (s *Store) encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.engine.Encode(v, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

func validateKey(key string) error {
	if key == "" {
		return errors.Wrap(ErrInvalidKey, "key cannot be empty")
	}
	if strings.ContainsRune(key, 0) {
		return errors.Wrap(ErrInvalidKey, "key cannot contain NUL")
	}
	return nil
}
