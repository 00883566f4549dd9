// Package cache provides the in-memory TTL cache used for dashboard
// responses. Keys follow a "{view}:{workspace}:{detail}" convention so a
// workspace's entries can be dropped together on writes.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry[T any] struct {
	data      T
	expiresAt time.Time
}

// TTLCache is a small concurrency-safe cache with per-cache TTL and a size
// cap. When full, expired entries are cleaned first; if still full, the
// entry closest to expiry is evicted.
type TTLCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]entry[T]
}

func New[T any](maxSize int, ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]entry[T]),
	}
}

func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.items, key)
		return zero, false
	}
	return e.data, true
}

func (c *TTLCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.maxSize {
		if _, exists := c.items[key]; !exists {
			c.evictLocked()
		}
	}
	c.items[key] = entry[T]{data: data, expiresAt: time.Now().Add(c.ttl)}
}

func (c *TTLCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// InvalidatePrefix drops every entry whose key starts with prefix. Used to
// flush a workspace's dashboard entries when its expenses change.
func (c *TTLCache[T]) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

func (c *TTLCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CleanExpired removes expired entries and returns how many were dropped.
func (c *TTLCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// evictLocked frees one slot; the caller holds the mutex.
func (c *TTLCache[T]) evictLocked() {
	now := time.Now()
	var victim string
	var victimExpiry time.Time
	for key, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, key)
			return
		}
		if victim == "" || e.expiresAt.Before(victimExpiry) {
			victim = key
			victimExpiry = e.expiresAt
		}
	}
	if victim != "" {
		delete(c.items, victim)
	}
}
