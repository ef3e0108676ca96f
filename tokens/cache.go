package tokens

import (
	"sync"
	"time"
)

// memoCache memoizes fetch results per key with an expiry. Lookups take the
// read lock; a miss upgrades to the write lock and re-checks before fetching
// so concurrent misses on one key fetch once.
type memoCache[T any] struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]memoEntry[T]
}

type memoEntry[T any] struct {
	value   T
	expires time.Time
}

func newMemoCache[T any](ttl time.Duration) *memoCache[T] {
	return &memoCache[T]{
		ttl: ttl,
		m:   make(map[string]memoEntry[T]),
	}
}

func (c *memoCache[T]) getOrFetch(key string, fetch func() (T, error)) (T, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(e.expires) {
		return e.value, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.m[key]; ok && time.Now().Before(e.expires) {
		return e.value, nil
	}

	val, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}

	c.m[key] = memoEntry[T]{value: val, expires: time.Now().Add(c.ttl)}
	return val, nil
}

func (c *memoCache[T]) invalidate(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}
