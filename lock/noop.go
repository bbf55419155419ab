package lock

import "context"

// Noop always succeeds. It is the queue-job supervisor's default
// GetQueueEntryLock hook for callers that don't need cross-process mutual
// exclusion on a dequeued entry.
type Noop struct{}

// Acquire always reports success.
func (Noop) Acquire(context.Context) (bool, error) { return true, nil }

// Release is a no-op.
func (Noop) Release(context.Context) error { return nil }

// Renew is a no-op.
func (Noop) Renew(context.Context) error { return nil }
