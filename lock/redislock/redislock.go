// Package redislock is an example distributed-lock driver over Redis,
// grounded on the teacher's redis.DistributedLock (SETNX + a
// compare-and-delete Lua script so a holder never releases a lock it
// doesn't own).
package redislock

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"foundrycore/lock"
)

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

var renewScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`)

// ErrNotOwned is returned by Renew when the lock is held by a different
// fencing token (or has already expired). Release reports no error in
// that case.
var ErrNotOwned = errors.New("redislock: lock not owned")

// Lock is a lock.Lock backed by a single Redis key.
type Lock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

var _ lock.Lock = (*Lock)(nil)

// New returns a Lock for key with the given lease duration. Each Lock
// instance carries its own fencing token so Release/Renew never affect a
// lease acquired by a different holder.
func New(client *redis.Client, key string, ttl time.Duration) *Lock {
	return &Lock{
		client: client,
		key:    "lock:" + key,
		token:  uuid.NewString(),
		ttl:    ttl,
	}
}

// Acquire attempts SETNX on the lock key with the configured TTL.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, errors.Errorf("redislock: acquire: %w", err)
	}
	return ok, nil
}

// Release runs the compare-and-delete script. Per the lock.Lock contract,
// releasing a lease this holder doesn't (or no longer) own is a no-op, not
// an error.
func (l *Lock) Release(ctx context.Context) error {
	_, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Result()
	if err != nil {
		return errors.Errorf("redislock: release: %w", err)
	}
	return nil
}

// Renew extends the lease by the lock's configured TTL.
func (l *Lock) Renew(ctx context.Context) error {
	res, err := renewScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Result()
	if err != nil {
		return errors.Errorf("redislock: renew: %w", err)
	}
	if n, _ := res.(int64); n == 0 {
		return ErrNotOwned
	}
	return nil
}
