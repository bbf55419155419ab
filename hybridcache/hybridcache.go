// Package hybridcache implements a composite cache: a bounded local
// cache.Cache kept coherent with a remote cache.Client over a bus.Bus
// invalidation channel. It is grounded on the teacher's
// capacitor/multilayer.go layered-DAL shape (try the fast layer first,
// fall through to the slower one, promote on miss) adapted to a
// publish-invalidate-then-mirror write path instead of capacitor's
// write-through-every-layer model.
package hybridcache

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"foundrycore/bus"
	"foundrycore/cache"
	"foundrycore/logging"
)

const defaultLocalMaxItems = 100

// HybridCache composes a bounded local cache, a remote cache.Client, and
// a bus.Bus used to propagate invalidations between instances sharing the
// same remote store.
type HybridCache struct {
	cacheID string
	local   *cache.Cache
	remote  cache.Client
	b       *bus.Bus
	log     *logrus.Entry

	localMaxItems int
	subID         string
	closeCh       chan struct{}

	localHits            atomic.Int64
	invalidateCacheCalls atomic.Int64
}

var _ cache.Client = (*HybridCache)(nil)

// New constructs a HybridCache fronting remote with a local layer, and
// subscribes it to b for invalidation traffic. Each instance gets a
// process-unique cacheID so it can recognize and ignore the invalidations
// it published itself.
func New(remote cache.Client, b *bus.Bus, opts ...Option) (*HybridCache, error) {
	h := &HybridCache{
		cacheID:       uuid.NewString(),
		remote:        remote,
		b:             b,
		log:           logging.For("hybridcache"),
		localMaxItems: defaultLocalMaxItems,
		closeCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.local = cache.New(cache.WithMaxItems(h.localMaxItems))
	h.local.OnExpired(func(key string) {
		h.publishInvalidate(InvalidateCache{CacheID: h.cacheID, Keys: []string{key}})
	})

	subID, err := bus.Subscribe(context.Background(), b, h.onInvalidate, h.closeCh)
	if err != nil {
		return nil, err
	}
	h.subID = subID
	return h, nil
}

// CacheID returns this instance's process-unique identity.
func (h *HybridCache) CacheID() string { return h.cacheID }

// LocalHits returns the count of Get calls satisfied from the local
// layer without consulting the remote cache.
func (h *HybridCache) LocalHits() int64 { return h.localHits.Load() }

// InvalidateCacheCalls returns the count of invalidation messages this
// instance has applied to its local layer.
func (h *HybridCache) InvalidateCacheCalls() int64 { return h.invalidateCacheCalls.Load() }

// Close stops this instance's bus subscription and local maintenance
// timer. It does not affect the remote cache or other instances.
func (h *HybridCache) Close() {
	close(h.closeCh)
	h.local.Close()
}

func (h *HybridCache) publishInvalidate(inv InvalidateCache) {
	if err := bus.Publish(context.Background(), h.b, inv); err != nil {
		h.log.WithError(err).Warn("failed to publish cache invalidation")
	}
}

// onInvalidate applies a peer's write to the local layer. Messages carrying
// this instance's own cacheID, including its local-expiry notices, are
// ignored.
func (h *HybridCache) onInvalidate(_ context.Context, msg InvalidateCache) error {
	if msg.CacheID == h.cacheID {
		return nil
	}

	switch {
	case msg.FlushAll:
		h.local.RemoveByPrefix("")
	case msg.Prefix != "":
		h.local.RemoveByPrefix(msg.Prefix)
	default:
		for _, k := range msg.Keys {
			if strings.HasSuffix(k, "*") {
				h.local.RemoveByPrefix(strings.TrimSuffix(k, "*"))
			} else {
				h.local.Remove(k)
			}
		}
	}
	h.invalidateCacheCalls.Add(1)
	return nil
}

// Get consults the local layer first; on miss it falls through to the
// remote cache and, on a remote hit, populates the local entry with the
// remote's remaining TTL (unknown TTL means indefinite locally).
func (h *HybridCache) Get(key string) (any, bool) {
	if v, ok := h.local.Get(key); ok {
		h.localHits.Add(1)
		return v, true
	}

	v, ok := h.remote.Get(key)
	if !ok {
		return nil, false
	}
	ttl, _ := h.remote.GetExpiration(key)
	h.local.Set(key, v, ttl)
	return v, true
}

// GetAll looks up every key in keys via Get, so each individually falls
// through to the remote cache and repopulates the local layer on a miss.
func (h *HybridCache) GetAll(keys []string) map[string]cache.Result {
	out := make(map[string]cache.Result, len(keys))
	for _, k := range keys {
		v, ok := h.Get(k)
		out[k] = cache.Result{Value: v, Found: ok}
	}
	return out
}

// Add writes locally and then to the distributed cache, returning the
// distributed cache's result: the entry is either new everywhere or the
// remote rejects it because it already held a live copy. No invalidation
// is published, since a brand-new key can't make a peer's local copy
// stale.
func (h *HybridCache) Add(key string, value any, ttl time.Duration) bool {
	h.local.Add(key, value, ttl)
	return h.remote.Add(key, value, ttl)
}

// Set publishes an invalidation, mirrors the write locally, then forwards
// it to the distributed cache and returns its result.
func (h *HybridCache) Set(key string, value any, ttl time.Duration) bool {
	h.publishInvalidate(InvalidateCache{CacheID: h.cacheID, Keys: []string{key}})
	h.local.Set(key, value, ttl)
	return h.remote.Set(key, value, ttl)
}

// SetAll is Set's batch form.
func (h *HybridCache) SetAll(values map[string]any, ttl time.Duration) int {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	h.publishInvalidate(InvalidateCache{CacheID: h.cacheID, Keys: keys})
	h.local.SetAll(values, ttl)
	return h.remote.SetAll(values, ttl)
}

// Replace mirrors the write-path contract; the local layer is set
// unconditionally as a best-effort mirror regardless of whether it
// already held the key.
func (h *HybridCache) Replace(key string, value any, ttl time.Duration) bool {
	h.publishInvalidate(InvalidateCache{CacheID: h.cacheID, Keys: []string{key}})
	h.local.Set(key, value, ttl)
	return h.remote.Replace(key, value, ttl)
}

// Remove follows the write-path contract for a single key.
func (h *HybridCache) Remove(key string) bool {
	h.publishInvalidate(InvalidateCache{CacheID: h.cacheID, Keys: []string{key}})
	h.local.Remove(key)
	return h.remote.Remove(key)
}

// RemoveAll follows the write-path contract for a key batch.
func (h *HybridCache) RemoveAll(keys []string) int {
	h.publishInvalidate(InvalidateCache{CacheID: h.cacheID, Keys: keys})
	h.local.RemoveAll(keys)
	return h.remote.RemoveAll(keys)
}

// RemoveByPrefix follows the write-path contract, publishing a
// Prefix-keyed invalidation rather than enumerating individual keys.
func (h *HybridCache) RemoveByPrefix(prefix string) int {
	h.publishInvalidate(InvalidateCache{CacheID: h.cacheID, Prefix: prefix})
	h.local.RemoveByPrefix(prefix)
	return h.remote.RemoveByPrefix(prefix)
}

// FlushAll clears both layers and tells peers to clear theirs too. It
// isn't part of cache.Client since flushing an entire remote store isn't
// a per-key operation any of the other cache.Client implementations
// expose.
func (h *HybridCache) FlushAll() {
	h.publishInvalidate(InvalidateCache{CacheID: h.cacheID, FlushAll: true})
	h.local.RemoveByPrefix("")
	h.remote.RemoveByPrefix("")
}

// Increment forwards only to the distributed cache; the local layer is
// left untouched and no invalidation is published. A key Get'd locally
// before this call may remain stale there until it naturally expires or
// some other write invalidates it.
func (h *HybridCache) Increment(key string, delta int64, ttl time.Duration) (int64, error) {
	return h.remote.Increment(key, delta, ttl)
}

// Decrement is Increment with delta negated, provided for symmetry;
// cache.Client itself only needs the signed Increment.
func (h *HybridCache) Decrement(key string, delta int64, ttl time.Duration) (int64, error) {
	return h.remote.Increment(key, -delta, ttl)
}

// SetIfHigher forwards only to the distributed cache, following the same
// bypass as Increment.
func (h *HybridCache) SetIfHigher(key string, value float64, ttl time.Duration) bool {
	return h.remote.SetIfHigher(key, value, ttl)
}

// SetIfLower forwards only to the distributed cache, following the same
// bypass as Increment.
func (h *HybridCache) SetIfLower(key string, value float64, ttl time.Duration) bool {
	return h.remote.SetIfLower(key, value, ttl)
}

// GetExpiration checks the local layer first, falling through to the
// remote cache.
func (h *HybridCache) GetExpiration(key string) (time.Duration, bool) {
	if ttl, ok := h.local.GetExpiration(key); ok {
		return ttl, true
	}
	return h.remote.GetExpiration(key)
}

// SetExpiration follows the write-path contract for a single key.
func (h *HybridCache) SetExpiration(key string, ttl time.Duration) bool {
	h.publishInvalidate(InvalidateCache{CacheID: h.cacheID, Keys: []string{key}})
	h.local.SetExpiration(key, ttl)
	return h.remote.SetExpiration(key, ttl)
}
