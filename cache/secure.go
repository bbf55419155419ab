package cache

import (
	"time"

	"foundrycore/crypter"
	"foundrycore/serializer"
)

// Secure wraps a Client and transparently AES-encrypts every payload
// written through Set/Add/Replace/SetAll, decrypting it again on
// Get/GetAll, grounded on crypter.Aes. Keys are left in the clear since
// the underlying store still needs them for lookup, prefix matching, and
// eviction.
//
// Numeric accumulator operations (Increment, SetIfHigher, SetIfLower) pass
// straight through to the underlying Client unencrypted: they need to
// operate on the stored numeric representation directly, and encrypting a
// running counter would make it unreadable to the very operation that
// maintains it.
type Secure struct {
	client Client
	crypt  crypter.Crypter
	ser    serializer.Serializer
}

var _ Client = (*Secure)(nil)

// NewSecure returns a Secure cache client that encrypts payloads with
// crypt before delegating to client.
func NewSecure(client Client, crypt crypter.Crypter) *Secure {
	return &Secure{client: client, crypt: crypt, ser: serializer.JSONSerializer{}}
}

func (s *Secure) seal(value any) ([]byte, error) {
	plain, err := s.ser.Marshal(value)
	if err != nil {
		return nil, err
	}
	return s.crypt.EnCrypt(plain)
}

func (s *Secure) open(sealed any) (any, bool) {
	ct, ok := sealed.([]byte)
	if !ok {
		return nil, false
	}
	plain, err := s.crypt.DeCrypt(ct)
	if err != nil {
		return nil, false
	}
	var out any
	if err := s.ser.Unmarshal(plain, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (s *Secure) Get(key string) (any, bool) {
	sealed, ok := s.client.Get(key)
	if !ok {
		return nil, false
	}
	return s.open(sealed)
}

func (s *Secure) GetAll(keys []string) map[string]Result {
	raw := s.client.GetAll(keys)
	out := make(map[string]Result, len(raw))
	for k, r := range raw {
		if !r.Found {
			out[k] = Result{}
			continue
		}
		v, ok := s.open(r.Value)
		out[k] = Result{Value: v, Found: ok}
	}
	return out
}

func (s *Secure) Add(key string, value any, ttl time.Duration) bool {
	ct, err := s.seal(value)
	if err != nil {
		return false
	}
	return s.client.Add(key, ct, ttl)
}

func (s *Secure) Set(key string, value any, ttl time.Duration) bool {
	ct, err := s.seal(value)
	if err != nil {
		return false
	}
	return s.client.Set(key, ct, ttl)
}

func (s *Secure) SetAll(values map[string]any, ttl time.Duration) int {
	sealed := make(map[string]any, len(values))
	for k, v := range values {
		ct, err := s.seal(v)
		if err != nil {
			continue
		}
		sealed[k] = ct
	}
	return s.client.SetAll(sealed, ttl)
}

func (s *Secure) Replace(key string, value any, ttl time.Duration) bool {
	ct, err := s.seal(value)
	if err != nil {
		return false
	}
	return s.client.Replace(key, ct, ttl)
}

func (s *Secure) Remove(key string) bool           { return s.client.Remove(key) }
func (s *Secure) RemoveAll(keys []string) int      { return s.client.RemoveAll(keys) }
func (s *Secure) RemoveByPrefix(prefix string) int { return s.client.RemoveByPrefix(prefix) }

func (s *Secure) Increment(key string, delta int64, ttl time.Duration) (int64, error) {
	return s.client.Increment(key, delta, ttl)
}

func (s *Secure) SetIfHigher(key string, value float64, ttl time.Duration) bool {
	return s.client.SetIfHigher(key, value, ttl)
}

func (s *Secure) SetIfLower(key string, value float64, ttl time.Duration) bool {
	return s.client.SetIfLower(key, value, ttl)
}

func (s *Secure) GetExpiration(key string) (time.Duration, bool) {
	return s.client.GetExpiration(key)
}

func (s *Secure) SetExpiration(key string, ttl time.Duration) bool {
	return s.client.SetExpiration(key, ttl)
}
