package job_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"foundrycore/job"
)

type funcJob struct {
	name string
	run  func(ctx context.Context) error
}

func (f funcJob) Name() string                  { return f.name }
func (f funcJob) Run(ctx context.Context) error { return f.run(ctx) }

func TestTryRun_SuccessWhenRunReturnsNil(t *testing.T) {
	j := funcJob{name: "ok", run: func(context.Context) error { return nil }}
	result := job.TryRun(context.Background(), j)
	assert.Equal(t, job.Success, result.Outcome)
	assert.NoError(t, result.Err)
}

func TestTryRun_FailedWhenRunReturnsError(t *testing.T) {
	boom := errors.New("boom")
	j := funcJob{name: "failing", run: func(context.Context) error { return boom }}
	result := job.TryRun(context.Background(), j)
	assert.Equal(t, job.Failed, result.Outcome)
	assert.ErrorIs(t, result.Err, boom)
}

func TestTryRun_CancelledWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	j := funcJob{name: "cancel-aware", run: func(ctx context.Context) error { return ctx.Err() }}
	result := job.TryRun(ctx, j)
	assert.Equal(t, job.Cancelled, result.Outcome)
}

func TestTryRun_RecoversPanicAsFailed(t *testing.T) {
	j := funcJob{name: "panics", run: func(context.Context) error { panic("kaboom") }}
	result := job.TryRun(context.Background(), j)
	assert.Equal(t, job.Failed, result.Outcome)
	assert.Error(t, result.Err)
}
