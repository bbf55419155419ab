package cache

import "time"

// ScopedCache wraps a Client and prefixes every key with a fixed scope
// plus separator before delegating. RemoveAll(nil) maps to
// RemoveByPrefix("") within the scope so a scoped flush never touches keys
// outside it.
type ScopedCache struct {
	scope  string
	sep    string
	client Client
}

var _ Client = (*ScopedCache)(nil)

// NewScoped returns a ScopedCache delegating to client, with every key
// prefixed by scope + ":".
func NewScoped(scope string, client Client) *ScopedCache {
	return &ScopedCache{scope: scope, sep: ":", client: client}
}

func (s *ScopedCache) key(k string) string {
	return s.scope + s.sep + k
}

func (s *ScopedCache) Get(key string) (any, bool) {
	return s.client.Get(s.key(key))
}

func (s *ScopedCache) GetAll(keys []string) map[string]Result {
	scoped := make([]string, len(keys))
	for i, k := range keys {
		scoped[i] = s.key(k)
	}
	res := s.client.GetAll(scoped)

	out := make(map[string]Result, len(keys))
	for _, k := range keys {
		out[k] = res[s.key(k)]
	}
	return out
}

func (s *ScopedCache) Add(key string, value any, ttl time.Duration) bool {
	return s.client.Add(s.key(key), value, ttl)
}

func (s *ScopedCache) Set(key string, value any, ttl time.Duration) bool {
	return s.client.Set(s.key(key), value, ttl)
}

func (s *ScopedCache) SetAll(values map[string]any, ttl time.Duration) int {
	scoped := make(map[string]any, len(values))
	for k, v := range values {
		scoped[s.key(k)] = v
	}
	return s.client.SetAll(scoped, ttl)
}

func (s *ScopedCache) Replace(key string, value any, ttl time.Duration) bool {
	return s.client.Replace(s.key(key), value, ttl)
}

func (s *ScopedCache) Remove(key string) bool {
	return s.client.Remove(s.key(key))
}

// RemoveAll deletes every key in keys within the scope. A nil keys maps to
// RemoveByPrefix("") so the whole scope (and nothing outside it) is
// cleared.
func (s *ScopedCache) RemoveAll(keys []string) int {
	if keys == nil {
		return s.RemoveByPrefix("")
	}
	scoped := make([]string, len(keys))
	for i, k := range keys {
		scoped[i] = s.key(k)
	}
	return s.client.RemoveAll(scoped)
}

func (s *ScopedCache) RemoveByPrefix(prefix string) int {
	return s.client.RemoveByPrefix(s.key(prefix))
}

func (s *ScopedCache) Increment(key string, delta int64, ttl time.Duration) (int64, error) {
	return s.client.Increment(s.key(key), delta, ttl)
}

func (s *ScopedCache) SetIfHigher(key string, value float64, ttl time.Duration) bool {
	return s.client.SetIfHigher(s.key(key), value, ttl)
}

func (s *ScopedCache) SetIfLower(key string, value float64, ttl time.Duration) bool {
	return s.client.SetIfLower(s.key(key), value, ttl)
}

func (s *ScopedCache) GetExpiration(key string) (time.Duration, bool) {
	return s.client.GetExpiration(s.key(key))
}

func (s *ScopedCache) SetExpiration(key string, ttl time.Duration) bool {
	return s.client.SetExpiration(s.key(key), ttl)
}
