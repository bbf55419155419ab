package cache

import (
	"time"

	"foundrycore/clock"
	"foundrycore/serializer"
)

// Option configures a Cache at construction time, following the
// functional-options pattern used throughout foundrycore.
type Option func(*Cache)

// WithMaxItems bounds the cache to n entries. Once exceeded, the entry
// minimizing (lastAccess, sequence) is evicted synchronously on the write
// that caused the overflow. n <= 0 means unbounded (the default).
func WithMaxItems(n int) Option {
	return func(c *Cache) { c.maxItems = n }
}

// WithDefaultTTL sets the TTL applied to writes that don't specify one
// (ttl == 0 passed to Set/Add/SetAll/Replace/Increment). The default is
// no expiry.
func WithDefaultTTL(d time.Duration) Option {
	return func(c *Cache) { c.defaultTTL = d }
}

// WithCloneValues toggles whether reads and writes deep-copy the payload
// so caller mutations can't alter cached state. Enabled by default.
func WithCloneValues(enabled bool) Option {
	return func(c *Cache) { c.cloneValues = enabled }
}

// WithSerializer overrides the Serializer used for deep-cloning complex
// payloads. The default is serializer.JSONSerializer{}.
func WithSerializer(s serializer.Serializer) Option {
	return func(c *Cache) { c.ser = s }
}

// WithClock overrides the time source, used by tests to control expiry
// deterministically.
func WithClock(c2 clock.Clock) Option {
	return func(c *Cache) { c.clk = c2 }
}
