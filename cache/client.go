package cache

import "time"

// Client is the cache contract every in-process Cache, the HybridCache
// composite, and ScopedCache all satisfy, so callers can depend on the
// interface rather than a concrete type.
type Client interface {
	Get(key string) (any, bool)
	GetAll(keys []string) map[string]Result
	Add(key string, value any, ttl time.Duration) bool
	Set(key string, value any, ttl time.Duration) bool
	SetAll(values map[string]any, ttl time.Duration) int
	Replace(key string, value any, ttl time.Duration) bool
	Remove(key string) bool
	RemoveAll(keys []string) int
	RemoveByPrefix(prefix string) int
	Increment(key string, delta int64, ttl time.Duration) (int64, error)
	SetIfHigher(key string, value float64, ttl time.Duration) bool
	SetIfLower(key string, value float64, ttl time.Duration) bool
	GetExpiration(key string) (time.Duration, bool)
	SetExpiration(key string, ttl time.Duration) bool
}

var _ Client = (*Cache)(nil)
