// Package infra provides shared infrastructure used across fairvalue:
// a TTL cache, rate limiting, HTTP helpers and logger construction.
package infra

import (
	"sync"
	"time"
)

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

type cacheEntry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a thread-safe in-memory map whose entries expire once their age
// reaches the TTL. Expiry is checked on read; nothing is evicted eagerly.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
	ttl     time.Duration
	now     Clock
}

// NewCache creates a cache with the given TTL. A nil clock means time.Now,
// whose readings carry the monotonic component used for age comparisons.
func NewCache[V any](ttl time.Duration, clock Clock) *Cache[V] {
	if clock == nil {
		clock = time.Now
	}
	return &Cache[V]{
		entries: make(map[string]cacheEntry[V]),
		ttl:     ttl,
		now:     clock,
	}
}

// Get returns the value stored under key if its age is below the TTL.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(entry.storedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set stores value under key, stamped with the current time.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: value, storedAt: c.now()}
	c.mu.Unlock()
}
