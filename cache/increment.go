package cache

import "time"

// Increment atomically adds delta to the int64-valued payload at key,
// creating it with value delta if absent, and resets the key's expiry to
// ttl. delta may be negative to decrement. A negative ttl removes the key
// and returns -1.
func (c *Cache) Increment(key string, delta int64, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl < 0 {
		c.removeLocked(key)
		return -1, nil
	}

	now := c.clk.Now()
	e, ok := c.items[key]
	if !ok || e.expired(now) {
		if ok {
			c.removeLocked(key)
		}
		c.writeLocked(key, delta, ttl, now)
		return delta, nil
	}

	cur, err := toInt64(e.value)
	if err != nil {
		return 0, err
	}

	next := cur + delta
	e.value = next
	e.lastAccess = now
	e.lastModified = now
	e.expiresAt = c.expiryFor(ttl, now)
	c.order.MoveToFront(e.elem)
	c.scheduleLocked(e.expiresAt)
	return next, nil
}

// SetIfHigher conditionally writes value at key iff key is absent,
// expired, or its current payload converts to a number lower than value.
// It never decreases what Get(key) subsequently returns. Used by the
// metric aggregator to maintain gauge/timing max buckets.
func (c *Cache) SetIfHigher(key string, value float64, ttl time.Duration) bool {
	return c.setIfCmp(key, value, ttl, func(cur, v float64) bool { return v > cur })
}

// SetIfLower is the mirror of SetIfHigher: it never increases what
// Get(key) subsequently returns. Used by the metric aggregator to
// maintain timing min buckets.
func (c *Cache) SetIfLower(key string, value float64, ttl time.Duration) bool {
	return c.setIfCmp(key, value, ttl, func(cur, v float64) bool { return v < cur })
}

func (c *Cache) setIfCmp(key string, value float64, ttl time.Duration, shouldWrite func(cur, v float64) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clk.Now()
	e, ok := c.items[key]
	if !ok || e.expired(now) {
		if ok {
			c.removeLocked(key)
		}
		c.writeLocked(key, value, ttl, now)
		return true
	}

	cur, err := toFloat64(e.value)
	if err != nil || shouldWrite(cur, value) {
		e.value = value
		e.lastAccess = now
		e.lastModified = now
		e.expiresAt = c.expiryFor(ttl, now)
		c.order.MoveToFront(e.elem)
		c.scheduleLocked(e.expiresAt)
		return true
	}
	return false
}
