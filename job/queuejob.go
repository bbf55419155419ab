package job

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"foundrycore/lock"
	"foundrycore/queue"
)

const dequeueTimeout = 30 * time.Second

// QueueHandler processes one dequeued entry. It may call entry.Complete
// or entry.Abandon itself; if it does neither, the supervisor applies
// autoComplete's default disposition.
type QueueHandler[T any] func(ctx context.Context, entry queue.Entry[T]) error

// QueueJob adapts a queue.Queue[T] into a Job that dequeues one entry
// per iteration, acquires an optional per-entry lock, runs Process, and
// completes or abandons the entry. Queue is required; the rest have
// usable zero values (GetQueueEntryLock defaults to lock.Noop{},
// AutoComplete defaults to true via NewQueueJob).
type QueueJob[T any] struct {
	// JobName is returned by Name.
	JobName string
	// Queue is the collaborator entries are dequeued from.
	Queue queue.Queue[T]
	// Process handles one dequeued entry.
	Process QueueHandler[T]
	// GetQueueEntryLock returns the per-entry lock to acquire before
	// Process runs. Defaults to lock.Noop{} (always succeeds).
	GetQueueEntryLock func(entry queue.Entry[T]) lock.Lock
	// AutoComplete controls whether the supervisor completes/abandons an
	// entry the handler left untouched. Defaults to true via NewQueueJob;
	// a zero-value QueueJob literal instead gets the Go zero value
	// (false) and must opt in explicitly.
	AutoComplete bool
}

// NewQueueJob builds a QueueJob with sensible defaults: AutoComplete
// true and a no-op entry lock.
func NewQueueJob[T any](name string, q queue.Queue[T], process QueueHandler[T]) *QueueJob[T] {
	return &QueueJob[T]{
		JobName:      name,
		Queue:        q,
		Process:      process,
		AutoComplete: true,
		GetQueueEntryLock: func(queue.Entry[T]) lock.Lock {
			return lock.Noop{}
		},
	}
}

func (j *QueueJob[T]) Name() string { return j.JobName }

// Run executes exactly one queue-job iteration and reports it through
// the error return the way TryRun expects: nil for Success, ctx.Err()
// for Cancelled, anything else for Failed. Callers that need the
// intermediate Result (e.g. to read the "no entry" message) should call
// RunIteration directly instead of going through TryRun/RunContinuous.
func (j *QueueJob[T]) Run(ctx context.Context) error {
	result := j.RunIteration(ctx)
	switch result.Outcome {
	case Success:
		return nil
	case Cancelled:
		return ctx.Err()
	default:
		return result.Err
	}
}

// RunIteration dequeues and processes exactly one entry, reporting the
// result of the full lock-acquire/process/complete-or-abandon lifecycle.
func (j *QueueJob[T]) RunIteration(ctx context.Context) Result {
	dequeueCtx, cancel := context.WithTimeout(ctx, dequeueTimeout)
	entry, err := j.Queue.Dequeue(dequeueCtx, dequeueTimeout)
	cancel()

	switch {
	case err != nil && ctx.Err() != nil:
		return Result{Outcome: Cancelled, Err: ctx.Err()}
	case err != nil:
		return FromError(errors.Errorf("dequeue: %w", err))
	case entry == nil:
		return SuccessWithMessage("no entry")
	}

	if ctx.Err() != nil {
		abandonBestEffort(ctx, entry)
		return CancelledWithMessage("outer cancellation tripped before processing")
	}

	var entryLock lock.Lock = lock.Noop{}
	if j.GetQueueEntryLock != nil {
		entryLock = j.GetQueueEntryLock(entry)
	}
	acquired, err := entryLock.Acquire(ctx)
	if err != nil || !acquired {
		abandonBestEffort(ctx, entry)
		return CancelledWithMessage("could not acquire queue entry lock")
	}
	defer entryLock.Release(ctx)

	return j.processEntry(ctx, entry)
}

func (j *QueueJob[T]) processEntry(ctx context.Context, entry queue.Entry[T]) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			if !entry.IsCompleted() && !entry.IsAbandoned() {
				abandonBestEffort(ctx, entry)
			}
			result = FromError(errors.Errorf("job %s panicked: %v", j.JobName, r))
		}
	}()

	err := j.Process(ctx, entry)
	result = resultForProcess(err, ctx)

	if j.AutoComplete && !entry.IsCompleted() && !entry.IsAbandoned() {
		if result.Outcome == Success {
			if cerr := entry.Complete(ctx); cerr != nil {
				log.WithError(cerr).WithField("job", j.JobName).Warn("failed to auto-complete queue entry")
			}
		} else {
			log.WithField("job", j.JobName).WithField("outcome", result.Outcome.String()).Warn("auto-abandoning queue entry")
			if aerr := entry.Abandon(ctx); aerr != nil {
				log.WithError(aerr).WithField("job", j.JobName).Warn("failed to auto-abandon queue entry")
			}
		}
	}
	return result
}

func resultForProcess(err error, ctx context.Context) Result {
	switch {
	case err == nil:
		return Result{Outcome: Success}
	case ctx.Err() != nil:
		return Result{Outcome: Cancelled, Err: ctx.Err()}
	default:
		return FromError(err)
	}
}

func abandonBestEffort[T any](ctx context.Context, entry queue.Entry[T]) {
	if entry.IsCompleted() || entry.IsAbandoned() {
		return
	}
	if err := entry.Abandon(context.WithoutCancel(ctx)); err != nil {
		log.WithError(err).Warn("failed to abandon queue entry")
	}
}

// RunUntilEmpty drains the queue: it runs j continuously with a 1ms
// interval and a continuation that stops once Stats reports nothing
// queued or in flight.
func RunUntilEmpty[T any](ctx context.Context, j *QueueJob[T]) int {
	return RunContinuous(ctx, j, Options{
		Interval: time.Millisecond,
		Continuation: func() bool {
			stats, err := j.Queue.Stats(ctx)
			if err != nil {
				return false
			}
			return stats.Queued+stats.Working > 0
		},
	})
}
