package job

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"
)

// Options configures RunContinuous.
type Options struct {
	// Interval is the pause between successful iterations. Zero means no
	// pause (beyond the scheduler yield in step f).
	Interval time.Duration
	// IterationLimit stops the loop after this many iterations. Zero or
	// negative means unbounded.
	IterationLimit int
	// Continuation is invoked at the end of every iteration; returning
	// false stops the loop. A panic inside it is logged and ignored.
	Continuation func() bool
	// InstanceCount spawns this many independent continuous loops, each
	// from its own Job obtained from Factory, and awaits them all. Values
	// <= 1 behave as a single instance running j directly.
	InstanceCount int
	// Factory builds one Job per instance when InstanceCount > 1.
	Factory func() Job
}

// RunContinuous drives j (or, for multi-instance, jobs built by
// opts.Factory) through TryRun in a loop until cancellation, the
// iteration limit is reached, or the continuation returns false.
func RunContinuous(ctx context.Context, j Job, opts Options) int {
	if opts.InstanceCount > 1 {
		return runMultiInstance(ctx, opts)
	}
	return runOneContinuous(ctx, j, opts)
}

func runMultiInstance(ctx context.Context, opts Options) int {
	var wg sync.WaitGroup
	counts := make([]int, opts.InstanceCount)
	for i := 0; i < opts.InstanceCount; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			instanceOpts := opts
			instanceOpts.InstanceCount = 0
			counts[i] = runOneContinuous(ctx, opts.Factory(), instanceOpts)
		}()
	}
	wg.Wait()

	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}

func runOneContinuous(ctx context.Context, j Job, opts Options) int {
	log.WithField("job", j.Name()).WithField("host", hostname()).Info("starting continuous job")

	iterations := 0
	for {
		result := TryRun(ctx, j)
		logResult(j.Name(), result)

		iterations++
		if opts.IterationLimit > 0 && iterations >= opts.IterationLimit {
			return iterations
		}

		switch {
		case result.Outcome == Failed:
			sleep(ctx, max(opts.Interval, 100*time.Millisecond))
		case opts.Interval > 0:
			sleep(ctx, opts.Interval)
		}

		runtime.Gosched()

		if opts.Continuation != nil && !invokeContinuation(j.Name(), opts.Continuation) {
			return iterations
		}

		if ctx.Err() != nil {
			return iterations
		}
	}
}

func invokeContinuation(name string, cont func() bool) (keepGoing bool) {
	keepGoing = true
	defer func() {
		if r := recover(); r != nil {
			log.WithField("job", name).WithField("panic", r).Warn("continuation panicked")
			keepGoing = true
		}
	}()
	return cont()
}

func logResult(name string, r Result) {
	entry := log.WithField("job", name).WithField("outcome", r.Outcome.String())
	switch r.Outcome {
	case Failed:
		entry.WithError(r.Err).Warn("job iteration failed")
	case Cancelled:
		entry.Info("job iteration cancelled")
	default:
		entry.Debug("job iteration completed")
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
