package cachemanager

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/remote-engine-mock/internal/log"
)

const (
	DefaultExpiration      = time.Minute
	DefaultCleanupInterval = 5 * time.Minute
)

// InMemoryCacheManager implements CacheManager on top of go-cache.
type InMemoryCacheManager[V any] struct {
	useCase string
	cache   *gocache.Cache
	swapMu  sync.Mutex
}

// NewInMemoryCacheManager creates a cache. useCase only labels log lines.
func NewInMemoryCacheManager[V any](useCase string, defaultExpiration, cleanupInterval time.Duration) *InMemoryCacheManager[V] {
	return &InMemoryCacheManager[V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
	}
}

// Get retrieves an unexpired value.
func (c *InMemoryCacheManager[V]) Get(key string) (V, bool) {
	var zero V

	value, found := c.cache.Get(key)
	if !found {
		return zero, false
	}

	v, ok := value.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when getting value", "cache", c.useCase, "key", key)
		return zero, false
	}
	return v, true
}

// Set stores value under key. A zero ttl uses the cache default.
func (c *InMemoryCacheManager[V]) Set(key string, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, value, ttl)
}

// Swap stores value and returns the previous unexpired value.
func (c *InMemoryCacheManager[V]) Swap(key string, value V, ttl time.Duration) (V, bool) {
	c.swapMu.Lock()
	defer c.swapMu.Unlock()

	prev, ok := c.Get(key)
	c.Set(key, value, ttl)
	if ok {
		log.Debug(log.CatCache, "cache hit", "cache", c.useCase, "key", key)
	}
	return prev, ok
}

// Delete removes keys.
func (c *InMemoryCacheManager[V]) Delete(keys ...string) {
	for _, key := range keys {
		c.cache.Delete(key)
	}
}

// Flush removes every entry.
func (c *InMemoryCacheManager[V]) Flush() {
	c.cache.Flush()
}

// Len returns the number of entries, including expired ones not yet cleaned.
func (c *InMemoryCacheManager[V]) Len() int {
	return c.cache.ItemCount()
}
