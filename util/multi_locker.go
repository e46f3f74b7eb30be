package util

import (
	"sync"
)

type refCounter struct {
	readers int64
	writers int64
}

// MultiLocker hands out non-blocking reader/writer locks per key.
type MultiLocker interface {
	TryLock(key string) bool
	TryRLock(key string) bool
	Unlock(key string)
	RUnlock(key string)
	Held() int
}

type lock struct {
	inUse map[string]*refCounter
	mtx   sync.Mutex
}

func NewMultiLocker() MultiLocker {
	return &lock{
		inUse: make(map[string]*refCounter),
	}
}

func (l *lock) TryLock(key string) bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	m := l.getLocker(key)
	if m.readers > 0 || m.writers > 0 {
		return false
	}
	m.writers++
	return true
}

func (l *lock) TryRLock(key string) bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	m := l.getLocker(key)
	if m.writers > 0 {
		return false
	}
	m.readers++
	return true
}

func (l *lock) Unlock(key string) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	m, ok := l.inUse[key]
	if !ok || m.writers != 1 {
		panic("unlocking unlocked multi locker")
	}
	delete(l.inUse, key)
}

func (l *lock) RUnlock(key string) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	m, ok := l.inUse[key]
	if !ok || m.readers < 1 {
		panic("unlocking unlocked multi locker")
	}
	m.readers--
	if m.readers == 0 {
		delete(l.inUse, key)
	}
}

// Held returns the number of keys with at least one holder.
func (l *lock) Held() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return len(l.inUse)
}

func (l *lock) getLocker(key string) *refCounter {
	res, ok := l.inUse[key]
	if !ok {
		res = &refCounter{}
		l.inUse[key] = res
	}
	return res
}
