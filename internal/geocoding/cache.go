package geocoding

import (
	"sync"
	"time"
)

// ttlCache is a thread-safe map whose entries expire after a fixed TTL.
// Expired entries are swept at most once per TTL, on Set.
type ttlCache[K comparable, V any] struct {
	mu        sync.Mutex
	items     map[K]cacheItem[V]
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type cacheItem[V any] struct {
	value     V
	expiresAt time.Time
}

func newTTLCache[K comparable, V any](ttl time.Duration) *ttlCache[K, V] {
	return &ttlCache[K, V]{
		items: make(map[K]cacheItem[V]),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the value for key if present and not expired.
func (c *ttlCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}

	if c.now().After(item.expiresAt) {
		delete(c.items, key)
		var zero V
		return zero, false
	}

	return item.value, true
}

// Set stores value under key for the cache TTL.
func (c *ttlCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) >= c.ttl {
		c.cleanup(now)
	}

	c.items[key] = cacheItem[V]{
		value:     value,
		expiresAt: now.Add(c.ttl),
	}
}

// Cleanup removes expired entries.
func (c *ttlCache[K, V]) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanup(c.now())
}

func (c *ttlCache[K, V]) cleanup(now time.Time) {
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
		}
	}
	c.lastSweep = now
}

// Len returns the number of stored entries, expired ones included.
func (c *ttlCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
