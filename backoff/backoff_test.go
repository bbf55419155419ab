package backoff

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
)

func TestRetry_Success(t *testing.T) {
	ctx := context.Background()
	counter := int32(0)

	op := func() (string, error) {
		if atomic.AddInt32(&counter, 1) < 3 {
			return "", errors.New("temporary error")
		}
		return "ok", nil
	}

	cfg := Config{InitialInterval: time.Millisecond, Multiplier: 1, MaxTries: 5}
	got, err := Retry(ctx, cfg, op)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("got=%q, want=%q", got, "ok")
	}
	if counter != 3 {
		t.Errorf("retry count got=%d, want=3", counter)
	}
}

func TestRetry_ExhaustsMaxTries(t *testing.T) {
	ctx := context.Background()
	counter := int32(0)

	op := func() (string, error) {
		atomic.AddInt32(&counter, 1)
		return "", errors.New("always fails")
	}

	cfg := Config{InitialInterval: time.Millisecond, Multiplier: 1, MaxTries: 3}
	_, err := Retry(ctx, cfg, op)

	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if counter != 3 {
		t.Errorf("retry count got=%d, want=3", counter)
	}
}

func TestRetry_StopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	op := func() (string, error) {
		return "", errors.New("should not be retried")
	}

	cfg := DefaultConfig()
	_, err := Retry(ctx, cfg, op)
	if err == nil {
		t.Fatal("expected an error when context is already cancelled")
	}
}
