// Package rediscache implements a cache.Client over Redis, grounded on
// the teacher's redis.RedisClient (redis/redis.go) and expanded well
// beyond its original Set/Get/HSet surface to cover the full cache.Client
// contract, so it can serve as a HybridCache's remote layer.
package rediscache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"foundrycore/cache"
	"foundrycore/serializer"
)

const scanBatch = 100

// Client is a cache.Client backed by a single Redis keyspace. Values are
// JSON-encoded, the same convention cache.Secure and cache.Cache's own
// clone path use, so a payload stored here and later read back through
// cache.Cache's serializer decodes the same way.
type Client struct {
	rdb *redis.Client
	ser serializer.Serializer
}

var _ cache.Client = (*Client)(nil)

// New wraps an already-configured *redis.Client.
func New(rdb *redis.Client) *Client {
	return &Client{rdb: rdb, ser: serializer.JSONSerializer{}}
}

func (c *Client) Get(key string) (any, bool) {
	b, err := c.rdb.Get(context.Background(), key).Bytes()
	if err != nil {
		return nil, false
	}
	var out any
	if err := c.ser.Unmarshal(b, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *Client) GetAll(keys []string) map[string]cache.Result {
	out := make(map[string]cache.Result, len(keys))
	for _, k := range keys {
		v, ok := c.Get(k)
		out[k] = cache.Result{Value: v, Found: ok}
	}
	return out
}

func (c *Client) Add(key string, value any, ttl time.Duration) bool {
	b, err := c.ser.Marshal(value)
	if err != nil {
		return false
	}
	ok, err := c.rdb.SetNX(context.Background(), key, b, ttl).Result()
	return err == nil && ok
}

func (c *Client) Set(key string, value any, ttl time.Duration) bool {
	b, err := c.ser.Marshal(value)
	if err != nil {
		return false
	}
	return c.rdb.Set(context.Background(), key, b, ttl).Err() == nil
}

func (c *Client) SetAll(values map[string]any, ttl time.Duration) int {
	n := 0
	for k, v := range values {
		if c.Set(k, v, ttl) {
			n++
		}
	}
	return n
}

// Replace writes value only if key currently exists. The existence check
// and the write are two round trips rather than a single atomic
// operation; a concurrent expiry between them is treated as a miss on
// the next Replace rather than corrupting state.
func (c *Client) Replace(key string, value any, ttl time.Duration) bool {
	ctx := context.Background()
	exists, err := c.rdb.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return false
	}
	return c.Set(key, value, ttl)
}

func (c *Client) Remove(key string) bool {
	n, err := c.rdb.Del(context.Background(), key).Result()
	return err == nil && n > 0
}

func (c *Client) RemoveAll(keys []string) int {
	if len(keys) == 0 {
		return 0
	}
	n, err := c.rdb.Del(context.Background(), keys...).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

// RemoveByPrefix scans the keyspace in batches rather than issuing KEYS,
// since KEYS blocks the server for the duration of the scan on a large
// dataset.
func (c *Client) RemoveByPrefix(prefix string) int {
	ctx := context.Background()
	var cursor uint64
	removed := 0
	pattern := prefix + "*"
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed
		}
		if len(keys) > 0 {
			if n, err := c.rdb.Del(ctx, keys...).Result(); err == nil {
				removed += int(n)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return removed
}

// Increment relies on the JSON encoding of an int64 being a plain decimal
// string, which is exactly what Redis's own INCRBY expects, so no
// marshal/unmarshal round trip is needed on the hot path.
func (c *Client) Increment(key string, delta int64, ttl time.Duration) (int64, error) {
	ctx := context.Background()
	if ttl < 0 {
		c.rdb.Del(ctx, key)
		return -1, nil
	}

	pipe := c.rdb.TxPipeline()
	incr := pipe.IncrBy(ctx, key, delta)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *Client) SetIfHigher(key string, value float64, ttl time.Duration) bool {
	return c.setIfCmp(key, value, ttl, func(cur, v float64) bool { return v > cur })
}

func (c *Client) SetIfLower(key string, value float64, ttl time.Duration) bool {
	return c.setIfCmp(key, value, ttl, func(cur, v float64) bool { return v < cur })
}

// setIfCmp uses WATCH/MULTI so the read-compare-write isn't racing a
// concurrent writer of the same key.
func (c *Client) setIfCmp(key string, value float64, ttl time.Duration, shouldWrite func(cur, v float64) bool) bool {
	ctx := context.Background()
	written := false
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		write := false
		cur, err := tx.Get(ctx, key).Float64()
		switch {
		case err == redis.Nil:
			write = true
		case err != nil:
			return err
		default:
			write = shouldWrite(cur, value)
		}
		if !write {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, strconv.FormatFloat(value, 'f', -1, 64), ttl)
			return nil
		})
		if err == nil {
			written = true
		}
		return err
	}, key)
	return err == nil && written
}

func (c *Client) GetExpiration(key string) (time.Duration, bool) {
	ttl, err := c.rdb.TTL(context.Background(), key).Result()
	if err != nil || ttl < 0 {
		return 0, false
	}
	return ttl, true
}

func (c *Client) SetExpiration(key string, ttl time.Duration) bool {
	ctx := context.Background()
	if ttl <= 0 {
		n, err := c.rdb.Del(ctx, key).Result()
		return err == nil && n > 0
	}
	ok, err := c.rdb.Expire(ctx, key, ttl).Result()
	return err == nil && ok
}
