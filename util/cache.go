package util

import (
	"sync"
	"time"
)

const (
	DefaultReapInterval = time.Second
)

// Cache is a string-keyed map whose entries expire. Expired entries are
// dropped lazily on Get and periodically by a reaper goroutine that only
// runs while the cache holds entries.
type Cache struct {
	ReaperFunc   OnRemove
	ReapInterval time.Duration
	entries      map[string]*entry
	entriesMtx   sync.Mutex
	reapMtx      sync.Mutex
	reaping      bool
}

type entry struct {
	val    interface{}
	expiry int64
}

func (e *entry) expired(now int64) bool {
	return e.expiry != 0 && now > e.expiry
}

type OnRemove func(key string, val interface{})

var noopOnReap = func(key string, val interface{}) {}

func NewCache() *Cache {
	return &Cache{
		ReaperFunc:   noopOnReap,
		ReapInterval: DefaultReapInterval,
		entries:      make(map[string]*entry),
	}
}

func (l *Cache) Get(key string) interface{} {
	l.entriesMtx.Lock()
	defer l.entriesMtx.Unlock()
	entry := l.entries[key]
	if entry == nil {
		return nil
	}
	if entry.expired(time.Now().UnixNano()) {
		delete(l.entries, key)
		l.ReaperFunc(key, entry.val)
		return nil
	}
	return entry.val
}

// Set stores val under key for expMS milliseconds. An expMS of zero
// never expires.
func (l *Cache) Set(key string, val interface{}, expMS int64) {
	if val == nil {
		panic("cache values cannot be nil")
	}

	var expiry int64
	if expMS > 0 {
		expiry = time.Now().Add(time.Duration(expMS) * time.Millisecond).UnixNano()
	}

	l.entriesMtx.Lock()
	l.entries[key] = &entry{
		val:    val,
		expiry: expiry,
	}
	l.entriesMtx.Unlock()
	if expiry != 0 {
		l.touchReaper()
	}
}

func (l *Cache) Has(key string) bool {
	return l.Get(key) != nil
}

func (l *Cache) Del(key string) {
	l.entriesMtx.Lock()
	defer l.entriesMtx.Unlock()
	delete(l.entries, key)
}

func (l *Cache) Len() int {
	l.entriesMtx.Lock()
	defer l.entriesMtx.Unlock()
	return len(l.entries)
}

func (l *Cache) touchReaper() {
	l.reapMtx.Lock()
	defer l.reapMtx.Unlock()
	if l.reaping {
		return
	}
	l.reaping = true

	interval := l.ReapInterval
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			l.entriesMtx.Lock()
			remaining := l.reap()
			l.entriesMtx.Unlock()
			if remaining > 0 {
				continue
			}

			l.reapMtx.Lock()
			l.entriesMtx.Lock()
			// a Set may have landed between the two locks
			if l.expiring() > 0 {
				l.entriesMtx.Unlock()
				l.reapMtx.Unlock()
				continue
			}
			l.reaping = false
			l.entriesMtx.Unlock()
			l.reapMtx.Unlock()
			return
		}
	}()
}

// reap drops expired entries and returns how many entries are still
// waiting to expire.
func (l *Cache) reap() int {
	now := time.Now().UnixNano()
	var pending int
	for k, entry := range l.entries {
		if !entry.expired(now) {
			if entry.expiry != 0 {
				pending++
			}
			continue
		}
		l.ReaperFunc(k, entry.val)
		delete(l.entries, k)
	}
	return pending
}

func (l *Cache) expiring() int {
	var n int
	for _, entry := range l.entries {
		if entry.expiry != 0 {
			n++
		}
	}
	return n
}
