package util

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

func TestCache_Race(t *testing.T) {
	cache := NewCache()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			for j := 0; j < 10; j++ {
				cache.Set(strconv.Itoa(i), []byte("payload"), 250)
				cache.Get(strconv.Itoa(j))
				cache.Len()
				time.Sleep(10 * time.Millisecond)
			}
			wg.Done()
		}(i)
	}
	wg.Wait()
}

func TestCache_GetSetHas_LazyExpiry(t *testing.T) {
	cache := NewCache()
	var reaped atomic.Int32
	cache.ReaperFunc = func(key string, val interface{}) {
		reaped.Store(int32(val.(int)))
	}
	assert.False(t, cache.Has("test"))
	assert.Nil(t, cache.Get("test"))
	cache.Set("test", 123, 10) // expiry is less than reap interval
	assert.True(t, cache.Has("test"))
	assert.EqualValues(t, 123, cache.Get("test"))
	assert.Panics(t, func() {
		cache.Set("test3", nil, 0)
	})

	time.Sleep(50 * time.Millisecond)
	assert.Nil(t, cache.Get("test"))
	assert.False(t, cache.Has("test"))
	assert.EqualValues(t, 123, reaped.Load())
}

func TestCache_GetSetHas_ProactiveExpiry(t *testing.T) {
	cache := NewCache()
	var reaped atomic.Int32
	cache.ReaperFunc = func(key string, val interface{}) {
		reaped.Store(int32(val.(int)))
	}
	cache.ReapInterval = 20 * time.Millisecond
	cache.Set("test", 123, 10)
	assert.Eventually(t, func() bool {
		return reaped.Load() == 123
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, cache.Len())
}

func TestCache_NoExpiry(t *testing.T) {
	cache := NewCache()
	cache.ReapInterval = 10 * time.Millisecond
	cache.Set("forever", "value", 0)
	cache.Set("brief", "value", 5)
	time.Sleep(50 * time.Millisecond)
	assert.True(t, cache.Has("forever"))
	assert.False(t, cache.Has("brief"))
	assert.Equal(t, 1, cache.Len())
}

func TestCache_Del(t *testing.T) {
	cache := NewCache()
	cache.Set("test", 123, 0)
	cache.Del("test")
	assert.False(t, cache.Has("test"))
	assert.Nil(t, cache.Get("test"))
}
