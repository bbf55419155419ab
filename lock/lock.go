// Package lock defines the distributed-lock collaborator. Spec.md scopes
// concrete distributed-lock providers out of the core: this package
// specifies only the interface the queue-job supervisor's
// GetQueueEntryLock hook consumes.
package lock

import "context"

// Lock guards a single named resource across processes. Acquire must be
// safe to call repeatedly; a failed Acquire leaves the lock unheld.
type Lock interface {
	// Acquire attempts to take the lock, returning false (not an error) if
	// another holder currently has it.
	Acquire(ctx context.Context) (bool, error)
	// Release gives up the lock. Releasing a lock this holder doesn't own
	// is a no-op, not an error.
	Release(ctx context.Context) error
	// Renew extends the lock's lease without releasing it, used by
	// long-running handlers that need more time than the initial lease.
	Renew(ctx context.Context) error
}
