// Package redisqueue is an example queue.Queue driver backed by a Redis
// list, using github.com/gomodule/redigo rather than go-redis/v9 (the
// cache and bus packages' client) so the queue collaborator never shares
// a driver with them, matching how the teacher kept redis and
// redis_stream as separate packages with separate Redis clients. The
// connection-pool shape is grounded on redis_stream/redis.go's
// getReadConnectionPool/getWriteConnectionPool.
package redisqueue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"

	"foundrycore/backoff"
	"foundrycore/queue"
	"foundrycore/serializer"
)

// connRetry governs how hard getConn tries before giving up on a pool
// that's momentarily out of idle connections or mid-reconnect.
var connRetry = backoff.Config{InitialInterval: 10 * time.Millisecond, Multiplier: 2, MaxTries: 3}

// getConn retries transient pool exhaustion/dial failures instead of
// failing a Dequeue or Enqueue on the first hiccup.
func getConn(ctx context.Context, pool *redis.Pool) (redis.Conn, error) {
	return backoff.Retry(ctx, connRetry, func() (redis.Conn, error) {
		return pool.GetContext(ctx)
	})
}

// NewPool builds a redigo connection pool dialing addr, following
// redis_stream/redis.go's pool field choices (MaxIdle, MaxActive,
// IdleTimeout, Wait).
func NewPool(addr string, maxIdle, maxActive int, idleTimeout time.Duration) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     maxIdle,
		MaxActive:   maxActive,
		IdleTimeout: idleTimeout,
		Wait:        true,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr,
				redis.DialConnectTimeout(idleTimeout),
				redis.DialReadTimeout(idleTimeout),
			)
		},
	}
}

type envelope struct {
	ID         string            `json:"id"`
	Value      json.RawMessage   `json:"value"`
	Attempts   int               `json:"attempts"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Queue is a queue.Queue[T] backed by a Redis list: Enqueue LPUSHes,
// Dequeue BRPOPLPUSHes into a companion "working" list so an entry
// neither Completed nor Abandoned survives a crash for later recovery.
type Queue[T any] struct {
	pool       *redis.Pool
	name       string
	workingKey string
	ser        serializer.Serializer
}

var _ queue.Queue[int] = (*Queue[int])(nil)

// New constructs a Queue named name over pool.
func New[T any](pool *redis.Pool, name string) *Queue[T] {
	return &Queue[T]{
		pool:       pool,
		name:       "queue:" + name,
		workingKey: "queue:" + name + ":working",
		ser:        serializer.JSONSerializer{},
	}
}

func (q *Queue[T]) Enqueue(ctx context.Context, value T) error {
	body, err := q.ser.Marshal(value)
	if err != nil {
		return errors.Errorf("redisqueue: marshal value: %w", err)
	}
	raw, err := json.Marshal(envelope{ID: uuid.NewString(), Value: body})
	if err != nil {
		return errors.Errorf("redisqueue: marshal envelope: %w", err)
	}

	conn, err := getConn(ctx, q.pool)
	if err != nil {
		return errors.Errorf("redisqueue: get conn: %w", err)
	}
	defer conn.Close()

	_, err = conn.Do("LPUSH", q.name, raw)
	if err != nil {
		return errors.Errorf("redisqueue: enqueue: %w", err)
	}
	return nil
}

// Dequeue blocks for up to timeout (rounded up to a whole second, the
// granularity BRPOPLPUSH accepts) waiting for an entry.
func (q *Queue[T]) Dequeue(ctx context.Context, timeout time.Duration) (queue.Entry[T], error) {
	conn, err := getConn(ctx, q.pool)
	if err != nil {
		return nil, errors.Errorf("redisqueue: get conn: %w", err)
	}
	defer conn.Close()

	secs := int((timeout + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}

	raw, err := redis.Bytes(conn.Do("BRPOPLPUSH", q.name, q.workingKey, secs))
	if errors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Errorf("redisqueue: dequeue: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Errorf("redisqueue: decode envelope: %w", err)
	}

	var value T
	if err := q.ser.Unmarshal(env.Value, &value); err != nil {
		return nil, errors.Errorf("redisqueue: decode value: %w", err)
	}
	env.Attempts++

	return &entry[T]{q: q, raw: raw, env: env, val: value}, nil
}

// Stats reports queued and in-flight counts. Completed/Abandoned aren't
// tracked by a plain list queue, which keeps no history once an entry
// leaves the working list; they're always reported as zero.
func (q *Queue[T]) Stats(ctx context.Context) (queue.Stats, error) {
	conn, err := getConn(ctx, q.pool)
	if err != nil {
		return queue.Stats{}, errors.Errorf("redisqueue: get conn: %w", err)
	}
	defer conn.Close()

	queued, err := redis.Int(conn.Do("LLEN", q.name))
	if err != nil {
		return queue.Stats{}, errors.Errorf("redisqueue: stats queued: %w", err)
	}
	working, err := redis.Int(conn.Do("LLEN", q.workingKey))
	if err != nil {
		return queue.Stats{}, errors.Errorf("redisqueue: stats working: %w", err)
	}
	return queue.Stats{Queued: queued, Working: working}, nil
}

type entry[T any] struct {
	q   *Queue[T]
	raw []byte
	env envelope
	val T

	mu        sync.Mutex
	completed bool
	abandoned bool
}

var _ queue.Entry[int] = (*entry[int])(nil)

func (e *entry[T]) Value() T                       { return e.val }
func (e *entry[T]) Attempts() int                   { return e.env.Attempts }
func (e *entry[T]) Properties() map[string]string   { return e.env.Properties }
func (e *entry[T]) IsCompleted() bool               { e.mu.Lock(); defer e.mu.Unlock(); return e.completed }
func (e *entry[T]) IsAbandoned() bool               { e.mu.Lock(); defer e.mu.Unlock(); return e.abandoned }

func (e *entry[T]) Complete(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.completed || e.abandoned {
		return nil
	}

	conn, err := getConn(ctx, e.q.pool)
	if err != nil {
		return errors.Errorf("redisqueue: get conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Do("LREM", e.q.workingKey, 1, e.raw); err != nil {
		return errors.Errorf("redisqueue: complete: %w", err)
	}
	e.completed = true
	return nil
}

// Abandon removes the entry from the working list and re-enqueues it
// with an incremented attempt count for another consumer to pick up.
func (e *entry[T]) Abandon(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.completed || e.abandoned {
		return nil
	}

	retryRaw, err := json.Marshal(e.env)
	if err != nil {
		return errors.Errorf("redisqueue: encode retry envelope: %w", err)
	}

	conn, err := getConn(ctx, e.q.pool)
	if err != nil {
		return errors.Errorf("redisqueue: get conn: %w", err)
	}
	defer conn.Close()

	conn.Send("MULTI")
	conn.Send("LREM", e.q.workingKey, 1, e.raw)
	conn.Send("LPUSH", e.q.name, retryRaw)
	if _, err := conn.Do("EXEC"); err != nil {
		return errors.Errorf("redisqueue: abandon: %w", err)
	}
	e.abandoned = true
	return nil
}

// RenewLock is a no-op: a list-based queue has no per-entry lease to
// extend. Long-running handlers that need mutual exclusion should use
// the queue-job supervisor's GetQueueEntryLock hook instead.
func (e *entry[T]) RenewLock(ctx context.Context) error { return nil }
