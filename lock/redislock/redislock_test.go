package redislock_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foundrycore/lock/redislock"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestLock_AcquireSucceedsWhenKeyIsFree(t *testing.T) {
	client := newTestClient(t)
	l := redislock.New(client, "job-1", time.Minute)

	ok, err := l.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_AcquireFailsWhenAlreadyHeldByAnotherToken(t *testing.T) {
	client := newTestClient(t)
	first := redislock.New(client, "job-1", time.Minute)
	second := redislock.New(client, "job-1", time.Minute)

	ok, err := first.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLock_ReleaseByNonOwnerIsANoopAndLeavesTheLockHeld(t *testing.T) {
	client := newTestClient(t)
	first := redislock.New(client, "job-1", time.Minute)
	second := redislock.New(client, "job-1", time.Minute)

	ok, err := first.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	assert.NoError(t, second.Release(context.Background()))

	third := redislock.New(client, "job-1", time.Minute)
	ok, err = third.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "lock should still be held by first")
}

func TestLock_ReleaseByOwnerSucceedsAndFreesTheKey(t *testing.T) {
	client := newTestClient(t)
	first := redislock.New(client, "job-1", time.Minute)

	ok, err := first.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, first.Release(context.Background()))

	second := redislock.New(client, "job-1", time.Minute)
	ok, err = second.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_RenewExtendsOwnedLease(t *testing.T) {
	client := newTestClient(t)
	l := redislock.New(client, "job-1", time.Minute)

	ok, err := l.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	assert.NoError(t, l.Renew(context.Background()))
}

func TestLock_RenewByNonOwnerFailsClosed(t *testing.T) {
	client := newTestClient(t)
	first := redislock.New(client, "job-1", time.Minute)
	second := redislock.New(client, "job-1", time.Minute)

	ok, err := first.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	err = second.Renew(context.Background())
	assert.ErrorIs(t, err, redislock.ErrNotOwned)
}
