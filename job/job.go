// Package job implements a single-run/continuous-run harness around a
// user Job, with the queue-job supervisor (queuejob.go) as a
// specialization for processing queue.Queue entries. Grounded on the
// teacher's backoff.BackoffWrapper for the retry/notify shape and
// redis_stream/memory.go's logger.WithFields component logging
// convention.
package job

import (
	"context"

	"github.com/cockroachdb/errors"

	"foundrycore/logging"
)

var log = logging.For("job")

// Job is a unit of work a runner drives to completion or cancellation.
type Job interface {
	// Name identifies the job in logs.
	Name() string
	// Run executes one unit of work, returning ctx.Err() (or a wrapped
	// form of it) when ctx is cancelled.
	Run(ctx context.Context) error
}

// Outcome classifies how a single TryRun attempt ended.
type Outcome int

const (
	// Success means Run returned nil.
	Success Outcome = iota
	// Cancelled means ctx was done, whether or not Run noticed.
	Cancelled
	// Failed means Run returned a non-cancellation error, or panicked.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one TryRun attempt.
type Result struct {
	Outcome Outcome
	Err     error
	Message string
}

// CancelledWithMessage builds a Cancelled result carrying an explanatory
// message, used by the queue-job supervisor when it abandons an entry
// rather than processing it.
func CancelledWithMessage(msg string) Result {
	return Result{Outcome: Cancelled, Message: msg}
}

// SuccessWithMessage builds a Success result carrying an explanatory
// message, used for the queue-job supervisor's empty-dequeue case.
func SuccessWithMessage(msg string) Result {
	return Result{Outcome: Success, Message: msg}
}

// FromError builds a Failed result from a driver or handler error.
func FromError(err error) Result {
	return Result{Outcome: Failed, Err: err, Message: err.Error()}
}

// TryRun executes j.Run once, mapping a context cancellation to
// Cancelled and a recovered panic to Failed.
func TryRun(ctx context.Context, j Job) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Outcome: Failed, Err: errors.Errorf("job %s panicked: %v", j.Name(), r)}
		}
	}()

	err := j.Run(ctx)
	switch {
	case err == nil:
		return Result{Outcome: Success}
	case ctx.Err() != nil:
		return Result{Outcome: Cancelled, Err: ctx.Err()}
	default:
		return FromError(err)
	}
}
