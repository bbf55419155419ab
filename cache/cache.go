// Package cache implements a bounded, TTL-aware, access-ordered in-memory
// cache engine: a key/value store with LRU eviction, timer-driven expiry,
// atomic numeric operations, and an ItemExpired event consumed by the
// hybrid cache and metric aggregator's callers.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"foundrycore/clock"
	"foundrycore/serializer"
)

// Result is the outcome of a lookup: the stored value (already cloned, if
// cloning is enabled) and whether the key was present and unexpired.
type Result struct {
	Value any
	Found bool
}

// ExpiredFunc is invoked once per entry removed by the maintenance sweep.
// Handlers must not block; the cache invokes them synchronously from the
// maintenance goroutine.
type ExpiredFunc func(key string)

// Cache is a bounded, TTL-aware, in-memory key/value store. The zero value
// is not usable; construct one with New.
type Cache struct {
	mu       sync.Mutex
	items    map[string]*entry
	order    *list.List // front = most recently used, back = least recently used
	seq      uint64
	hits     atomic.Int64
	misses   atomic.Int64
	evicted  atomic.Int64

	maxItems    int
	defaultTTL  time.Duration
	cloneValues bool
	ser         serializer.Serializer
	clk         clock.Clock

	expiredMu sync.Mutex
	onExpired []ExpiredFunc

	timer    *time.Timer
	timerAt  time.Time // zero means no maintenance wakeup scheduled
	closed   bool
}

// New constructs a Cache. By default it is unbounded, entries never
// expire unless given an explicit TTL, and values are deep-cloned on
// read/write via JSON round-trip.
func New(opts ...Option) *Cache {
	c := &Cache{
		items:       make(map[string]*entry),
		order:       list.New(),
		cloneValues: true,
		ser:         serializer.JSONSerializer{},
		clk:         clock.Default,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close stops the maintenance timer. A closed Cache continues to serve
// Get/Set but no longer actively sweeps expired entries or fires
// ItemExpired; callers that want a final sweep should call it before Close.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// OnExpired registers a handler invoked for every key the maintenance
// sweep removes. Lazy expiry on Get does not fire this event, so read
// latency never depends on event dispatch.
func (c *Cache) OnExpired(h ExpiredFunc) {
	c.expiredMu.Lock()
	defer c.expiredMu.Unlock()
	c.onExpired = append(c.onExpired, h)
}

func (c *Cache) fireExpired(keys []string) {
	if len(keys) == 0 {
		return
	}
	c.expiredMu.Lock()
	handlers := append([]ExpiredFunc(nil), c.onExpired...)
	c.expiredMu.Unlock()

	for _, key := range keys {
		for _, h := range handlers {
			h(key)
		}
	}
}

// Get returns the value stored at key, or (nil, false) if it's absent or
// expired. A hit updates lastAccess and moves the entry to the front of
// the LRU order; an expired entry is removed lazily without firing
// ItemExpired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	e, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}

	now := c.clk.Now()
	if e.expired(now) {
		c.removeLocked(key)
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}

	e.lastAccess = now
	c.order.MoveToFront(e.elem)
	v := e.value
	clone := e.cloneOnRW
	c.mu.Unlock()

	c.hits.Add(1)
	return c.cloneOut(v, clone), true
}

// GetAll looks up every key in keys, returning a Result per key.
func (c *Cache) GetAll(keys []string) map[string]Result {
	out := make(map[string]Result, len(keys))
	for _, k := range keys {
		v, ok := c.Get(k)
		out[k] = Result{Value: v, Found: ok}
	}
	return out
}

// Add writes key only if it is absent or its existing entry is expired.
// It returns false and leaves the store unchanged otherwise.
func (c *Cache) Add(key string, value any, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clk.Now()
	if e, ok := c.items[key]; ok && !e.expired(now) {
		return false
	}

	c.writeLocked(key, value, ttl, now)
	return true
}

// Set unconditionally upserts key, always returning true.
func (c *Cache) Set(key string, value any, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeLocked(key, value, ttl, c.clk.Now())
	return true
}

// SetAll upserts every key in values, returning the number of keys
// written.
func (c *Cache) SetAll(values map[string]any, ttl time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clk.Now()
	for k, v := range values {
		c.writeLocked(k, v, ttl, now)
	}
	return len(values)
}

// Replace updates key only if it is present and not expired; an expired
// entry is treated the same as an absent one.
func (c *Cache) Replace(key string, value any, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clk.Now()
	e, ok := c.items[key]
	if !ok || e.expired(now) {
		return false
	}

	c.writeLocked(key, value, ttl, now)
	return true
}

// Remove deletes key, reporting whether it was present.
func (c *Cache) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	if ok {
		c.removeLocked(key)
	}
	return ok
}

// RemoveAll deletes every key in keys, returning the count actually
// removed.
func (c *Cache) RemoveAll(keys []string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, k := range keys {
		if _, ok := c.items[k]; ok {
			c.removeLocked(k)
			n++
		}
	}
	return n
}

// RemoveByPrefix deletes every key starting with prefix, returning the
// count removed. An empty prefix matches every key (used by ScopedCache
// to implement RemoveAll(nil) bounded to its scope).
func (c *Cache) RemoveByPrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []string
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			toRemove = append(toRemove, k)
		}
	}
	for _, k := range toRemove {
		c.removeLocked(k)
	}
	return len(toRemove)
}

// GetExpiration returns the remaining TTL for key, or false if it has no
// expiry or doesn't exist.
func (c *Cache) GetExpiration(key string) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clk.Now()
	e, ok := c.items[key]
	if !ok || e.expired(now) {
		return 0, false
	}
	return e.ttlRemaining(now)
}

// SetExpiration updates key's expiry. ttl <= 0 removes the key.
func (c *Cache) SetExpiration(key string, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return false
	}

	if ttl <= 0 {
		c.removeLocked(key)
		return true
	}

	now := c.clk.Now()
	e.expiresAt = now.Add(ttl)
	c.scheduleLocked(e.expiresAt)
	return true
}

// Hits returns the monotonically increasing count of successful Get
// calls.
func (c *Cache) Hits() int64 { return c.hits.Load() }

// Misses returns the monotonically increasing count of Get calls that
// found nothing (absent or expired).
func (c *Cache) Misses() int64 { return c.misses.Load() }

// Evictions returns the count of entries dropped by the LRU eviction
// policy because maxItems was exceeded.
func (c *Cache) Evictions() int64 { return c.evicted.Load() }

// Len reports the current number of stored entries (including any not
// yet lazily/actively expired).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// writeLocked inserts or updates key. Callers must hold c.mu.
func (c *Cache) writeLocked(key string, value any, ttl time.Duration, now time.Time) {
	v := c.cloneIn(value)

	if e, ok := c.items[key]; ok {
		e.value = v
		e.lastAccess = now
		e.lastModified = now
		e.expiresAt = c.expiryFor(ttl, now)
		c.order.MoveToFront(e.elem)
		c.scheduleLocked(e.expiresAt)
		return
	}

	c.seq++
	e := &entry{
		key:          key,
		value:        v,
		expiresAt:    c.expiryFor(ttl, now),
		lastAccess:   now,
		lastModified: now,
		sequence:     c.seq,
		cloneOnRW:    c.cloneValues,
	}
	e.elem = c.order.PushFront(key)
	c.items[key] = e
	c.scheduleLocked(e.expiresAt)

	c.evictIfNeededLocked(key)
}

// expiryFor resolves a caller-supplied ttl (0 meaning "use the cache's
// configured default") to an absolute expiry, or the zero time for "never
// expires".
func (c *Cache) expiryFor(ttl time.Duration, now time.Time) time.Time {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

// removeLocked deletes key from both the map and the LRU list. Callers
// must hold c.mu.
func (c *Cache) removeLocked(key string) {
	e, ok := c.items[key]
	if !ok {
		return
	}
	c.order.Remove(e.elem)
	delete(c.items, key)
}
