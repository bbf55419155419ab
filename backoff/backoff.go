// Package backoff wraps cenkalti/backoff/v5 into a small retry helper,
// used by queue/redisqueue's connection-acquisition retry, replacing the teacher's single-use
// BackoffWrapper with a generic one callers parametrize per call site
// instead of constructing a new wrapper type per operation.
package backoff

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Config mirrors the teacher's constructor parameters for an exponential
// backoff policy.
type Config struct {
	InitialInterval     time.Duration
	RandomizationFactor float64
	Multiplier          float64
	MaxTries            uint
}

// DefaultConfig matches backoff.NewExponentialBackOff's own defaults,
// capped at 5 tries.
func DefaultConfig() Config {
	eb := backoff.NewExponentialBackOff()
	return Config{
		InitialInterval:     eb.InitialInterval,
		RandomizationFactor: eb.RandomizationFactor,
		Multiplier:          eb.Multiplier,
		MaxTries:            5,
	}
}

// Retry runs op with exponential backoff until it succeeds, ctx is
// cancelled, or cfg.MaxTries is exhausted.
func Retry[T any](ctx context.Context, cfg Config, op backoff.Operation[T]) (T, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.InitialInterval
	eb.RandomizationFactor = cfg.RandomizationFactor
	eb.Multiplier = cfg.Multiplier

	opts := []backoff.RetryOption{backoff.WithBackOff(eb)}
	if cfg.MaxTries > 0 {
		opts = append(opts, backoff.WithMaxTries(cfg.MaxTries))
	}
	return backoff.Retry(ctx, op, opts...)
}
