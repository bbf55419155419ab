package rediscache_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foundrycore/hybridcache/rediscache"
)

func newTestClient(t *testing.T) *rediscache.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return rediscache.New(rdb)
}

func TestClient_SetThenGetRoundTrips(t *testing.T) {
	c := newTestClient(t)

	assert.True(t, c.Set("k", "v", time.Minute))

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestClient_GetMissingKeyReturnsFoundFalse(t *testing.T) {
	c := newTestClient(t)

	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestClient_AddFailsWhenKeyAlreadyExists(t *testing.T) {
	c := newTestClient(t)

	assert.True(t, c.Add("k", "first", time.Minute))
	assert.False(t, c.Add("k", "second", time.Minute))

	v, _ := c.Get("k")
	assert.Equal(t, "first", v)
}

func TestClient_ReplaceFailsWhenKeyAbsent(t *testing.T) {
	c := newTestClient(t)

	assert.False(t, c.Replace("k", "v", time.Minute))
}

func TestClient_ReplaceSucceedsWhenKeyPresent(t *testing.T) {
	c := newTestClient(t)

	require.True(t, c.Set("k", "v1", time.Minute))
	assert.True(t, c.Replace("k", "v2", time.Minute))

	v, _ := c.Get("k")
	assert.Equal(t, "v2", v)
}

func TestClient_RemoveDeletesTheKey(t *testing.T) {
	c := newTestClient(t)

	require.True(t, c.Set("k", "v", time.Minute))
	assert.True(t, c.Remove("k"))

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestClient_RemoveByPrefixDeletesAllMatches(t *testing.T) {
	c := newTestClient(t)

	require.True(t, c.Set("user:1", "a", time.Minute))
	require.True(t, c.Set("user:2", "b", time.Minute))
	require.True(t, c.Set("order:1", "c", time.Minute))

	n := c.RemoveByPrefix("user:")
	assert.Equal(t, 2, n)

	_, ok := c.Get("order:1")
	assert.True(t, ok)
}

func TestClient_IncrementAccumulatesAndSetsTTL(t *testing.T) {
	c := newTestClient(t)

	v, err := c.Increment("counter", 3, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 3, v)

	v, err = c.Increment("counter", 4, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 7, v)

	ttl, ok := c.GetExpiration("counter")
	assert.True(t, ok)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestClient_IncrementWithNegativeTTLDeletesKey(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Increment("counter", 1, time.Minute)
	require.NoError(t, err)

	v, err := c.Increment("counter", 1, -time.Second)
	require.NoError(t, err)
	assert.EqualValues(t, -1, v)

	_, ok := c.Get("counter")
	assert.False(t, ok)
}

func TestClient_SetIfHigherOnlyWritesWhenGreater(t *testing.T) {
	c := newTestClient(t)

	assert.True(t, c.SetIfHigher("max", 5, time.Minute))
	assert.False(t, c.SetIfHigher("max", 3, time.Minute))
	assert.True(t, c.SetIfHigher("max", 9, time.Minute))

	v, _ := c.Get("max")
	assert.Equal(t, float64(9), v)
}

func TestClient_SetIfLowerOnlyWritesWhenLesser(t *testing.T) {
	c := newTestClient(t)

	assert.True(t, c.SetIfLower("min", 5, time.Minute))
	assert.False(t, c.SetIfLower("min", 9, time.Minute))
	assert.True(t, c.SetIfLower("min", 1, time.Minute))

	v, _ := c.Get("min")
	assert.Equal(t, float64(1), v)
}

func TestClient_SetExpirationWithZeroTTLDeletesKey(t *testing.T) {
	c := newTestClient(t)

	require.True(t, c.Set("k", "v", time.Minute))
	assert.True(t, c.SetExpiration("k", 0))

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestClient_GetAllReportsFoundAndMissingKeys(t *testing.T) {
	c := newTestClient(t)

	require.True(t, c.Set("a", "1", time.Minute))

	results := c.GetAll([]string{"a", "b"})
	assert.True(t, results["a"].Found)
	assert.False(t, results["b"].Found)
}
