package cache

// evictIfNeededLocked drops the single entry minimizing (lastAccess,
// sequence), the back of the LRU order list, if maxItems is set and
// exceeded after a write. justWrittenKey lets the caller detect the case
// where a newly written entry immediately evicts itself because maxItems
// <= the working set.
//
// Callers must hold c.mu.
func (c *Cache) evictIfNeededLocked(justWrittenKey string) {
	if c.maxItems <= 0 {
		return
	}

	for len(c.items) > c.maxItems {
		back := c.order.Back()
		if back == nil {
			return
		}
		key := back.Value.(string)
		c.removeLocked(key)
		c.evicted.Add(1)

		if key == justWrittenKey {
			evictionLossLog.WithField("key", key).Warn("maxItems <= working set: entry evicted itself on write")
		}
	}
}
