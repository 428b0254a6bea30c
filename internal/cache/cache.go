// Package cache provides a bounded, concurrency-safe LRU map.
//
// Ordering is kept by a simplelru.LRU. Values are stored boxed so that Peek
// and Mutate can reach them without touching recency, while Get, Access,
// GetOrCreate and Put promote the entry to most recently used.
//
// Locking: Peek, Len, Keys and Contains share a read lock; every path that
// reorders or evicts takes the write lock. No operation blocks on anything
// but the cache's own lock.
package cache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// ErrInvalidCapacity is returned by New for a capacity below one.
var ErrInvalidCapacity = errors.New("cache capacity must be positive")

// Cache is a strict LRU map holding at most Cap entries.
type Cache[K comparable, V any] struct {
	mu       sync.RWMutex
	lru      *simplelru.LRU[K, *V]
	capacity int
	onEvict  func(K, V)
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithEvictHook registers fn to observe capacity evictions. Explicit
// Remove calls do not trigger it. fn runs under the cache's write lock and
// must not call back into the cache.
func WithEvictHook[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.onEvict = fn
	}
}

// New creates a cache holding up to capacity entries.
func New[K comparable, V any](capacity int, opts ...Option[K, V]) (*Cache[K, V], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	lru, err := simplelru.NewLRU[K, *V](capacity, nil)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	c := &Cache[K, V]{
		lru:      lru,
		capacity: capacity,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Peek returns the value for key without changing its recency.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if v, ok := c.lru.Peek(key); ok {
		return *v, true
	}
	var zero V
	return zero, false
}

// Contains reports whether key is present without changing its recency.
func (c *Cache[K, V]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Contains(key)
}

// Mutate calls fn on the stored value in place without changing its
// recency. It reports false on a miss.
func (c *Cache[K, V]) Mutate(key K, fn func(*V)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lru.Peek(key)
	if !ok {
		return false
	}
	fn(v)
	return true
}

// Get returns the value for key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.lru.Get(key); ok {
		return *v, true
	}
	var zero V
	return zero, false
}

// Access marks key most recently used and calls fn on the stored value.
// It reports false on a miss.
func (c *Cache[K, V]) Access(key K, fn func(*V)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lru.Get(key)
	if !ok {
		return false
	}
	if fn != nil {
		fn(v)
	}
	return true
}

// GetOrCreate returns the value for key, refreshing it on a hit. On a miss
// it calls factory outside the lock and inserts the result. A failing
// factory inserts nothing and its error is returned. If another caller
// inserted key while factory ran, that value wins and is returned.
func (c *Cache[K, V]) GetOrCreate(key K, factory func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	created, err := factory()
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.lru.Get(key); ok {
		return *v, nil
	}
	c.insertLocked(key, created)
	return created, nil
}

// Put stores value under key as the most recently used entry, evicting the
// least recently used entry if the cache is full.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.lru.Get(key); ok {
		*v = value
		return
	}
	c.insertLocked(key, value)
}

func (c *Cache[K, V]) insertLocked(key K, value V) {
	if c.lru.Len() >= c.capacity {
		if k, v, ok := c.lru.RemoveOldest(); ok && c.onEvict != nil {
			c.onEvict(k, *v)
		}
	}
	boxed := value
	c.lru.Add(key, &boxed)
}

// Remove deletes key and reports whether it was present.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Remove(key)
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}

// Cap returns the maximum number of entries.
func (c *Cache[K, V]) Cap() int {
	return c.capacity
}

// Keys returns the keys from least to most recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Keys()
}
