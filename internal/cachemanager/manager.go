// Package cachemanager wraps go-cache behind a typed, TTL-based interface.
// The stats package keeps per-process CPU samples in it between snapshots.
package cachemanager

import (
	"time"
)

// CacheManager is a typed key/value cache with per-entry expiration.
type CacheManager[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	// Swap stores value and returns the previous unexpired value, if any.
	Swap(key string, value V, ttl time.Duration) (V, bool)
	Delete(keys ...string)
	Flush()
	Len() int
}
