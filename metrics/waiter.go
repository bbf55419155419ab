package metrics

import (
	"context"
	"time"
)

// waiterFor registers and returns a fresh channel, closed the next time an
// entry named name is written through (unbuffered mode) or flushed
// (buffered mode).
func (a *Aggregator) waiterFor(name string) <-chan struct{} {
	a.waitersMu.Lock()
	defer a.waitersMu.Unlock()
	ch := make(chan struct{})
	a.waiters[name] = append(a.waiters[name], ch)
	return ch
}

// WaitForCounter blocks until the named counter's value over [baseline,
// now] has increased by at least n relative to its value at call time, or
// ctx is cancelled. work, if non-nil, runs once after the baseline read
// and before the first re-check.
func (a *Aggregator) WaitForCounter(ctx context.Context, name string, n int64, work func()) bool {
	t0 := a.clock.Now()
	baseline := a.GetCounterStats(name, t0, t0).Sum

	if work != nil {
		work()
	}

	for {
		now := a.clock.Now()
		if a.GetCounterStats(name, t0, now).Sum-baseline >= n {
			return true
		}

		event := a.waiterFor(name)
		select {
		case <-event:
		case <-ctx.Done():
			return false
		case <-time.After(50 * time.Millisecond):
			// Buffered submissions only notify on flush; this bound keeps
			// the loop re-checking even if no flush has happened yet.
		}
	}
}
