package cache

import (
	"container/list"
	"time"
)

// entry is the internal representation of a stored value plus its
// metadata. All mutation of an entry happens while the owning Cache's
// mutex is held; the elem field lets the cache remove an entry from its
// LRU list in O(1).
type entry struct {
	key          string
	value        any
	expiresAt    time.Time // zero value means "never expires"
	lastAccess   time.Time
	lastModified time.Time
	sequence     uint64
	cloneOnRW    bool
	elem         *list.Element
}

// expired reports whether now has reached or passed the entry's expiry.
// An entry with a zero expiresAt never expires.
func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// ttlRemaining returns the time left until expiry, or false if the entry
// has no expiry set.
func (e *entry) ttlRemaining(now time.Time) (time.Duration, bool) {
	if e.expiresAt.IsZero() {
		return 0, false
	}
	return e.expiresAt.Sub(now), true
}
