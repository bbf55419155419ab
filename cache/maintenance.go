package cache

import "time"

// scheduleLocked (re)arms the maintenance timer for at, unless an earlier
// wakeup is already scheduled. Callers must hold c.mu.
func (c *Cache) scheduleLocked(at time.Time) {
	if c.closed || at.IsZero() {
		return
	}
	if !c.timerAt.IsZero() && !at.Before(c.timerAt) {
		return
	}
	c.armTimerLocked(at)
}

func (c *Cache) armTimerLocked(at time.Time) {
	d := at.Sub(c.clk.Now())
	if d < 0 {
		d = 0
	}
	if c.timer == nil {
		c.timer = time.AfterFunc(d, c.sweep)
	} else {
		c.timer.Reset(d)
	}
	c.timerAt = at
}

// sweep is the single maintenance task: it removes every entry whose
// expiry has passed, fires ItemExpired for each, and reschedules itself
// for the earliest remaining expiry.
func (c *Cache) sweep() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	now := c.clk.Now()
	var expired []string
	var earliest time.Time
	for key, e := range c.items {
		if e.expired(now) {
			expired = append(expired, key)
			continue
		}
		if e.expiresAt.IsZero() {
			continue
		}
		if earliest.IsZero() || e.expiresAt.Before(earliest) {
			earliest = e.expiresAt
		}
	}

	for _, key := range expired {
		c.removeLocked(key)
	}

	c.timerAt = time.Time{}
	if !earliest.IsZero() {
		c.armTimerLocked(earliest)
	}
	c.mu.Unlock()

	c.fireExpired(expired)
}
