// Package cache holds the process-local caches used by the loader and the
// bulk download sources. Entries never expire on their own: callers drop them
// with Delete or Clear.
package cache

import (
	"crypto/md5"
	"fmt"
	"strings"
	"sync"
)

// Cache is a keyed in-memory store with manual invalidation.
type Cache[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

// New creates an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{data: make(map[K]V)}
}

// Get retrieves an item from the cache.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.data[key]
	return v, ok
}

// Set stores an item, replacing any previous value.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = value
}

// Delete removes an item. It reports whether the key was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.data[key]
	delete(c.data, key)
	return ok
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[K]V)
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}

// GetOrLoad returns the cached value for key, or calls loadFn and caches its
// result. Errors are returned as-is and never cached. hit reports whether the
// value came from the cache.
func (c *Cache[K, V]) GetOrLoad(key K, loadFn func() (V, error)) (value V, hit bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	v, err := loadFn()
	if err != nil {
		var zero V
		return zero, false, err
	}

	c.Set(key, v)
	return v, false, nil
}

// MakeKey creates a content-addressed key from parts.
func MakeKey(parts ...string) string {
	hash := md5.Sum([]byte(strings.Join(parts, "\x00")))
	return fmt.Sprintf("%x", hash)
}
