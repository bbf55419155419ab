package cache

import "reflect"

// isPrimitive reports whether v is a value type that's immutable from the
// caller's perspective, so cloning it is unnecessary.
func isPrimitive(v any) bool {
	switch v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// cloneValue deep-copies v via a serializer marshal/unmarshal round trip,
// delegating the hard part of cloning arbitrary payloads to the
// serializer. A clone failure falls back to returning v unchanged rather
// than surfacing an error from what is otherwise a best-effort safety
// net.
func (c *Cache) cloneValue(v any) any {
	if v == nil || isPrimitive(v) {
		return v
	}

	b, err := c.ser.Marshal(v)
	if err != nil {
		return v
	}

	typ := reflect.TypeOf(v)
	ptr := reflect.New(typ)
	if err := c.ser.Unmarshal(b, ptr.Interface()); err != nil {
		return v
	}
	return ptr.Elem().Interface()
}

// cloneIn clones v for storage if the cache's cloneValues option is set.
func (c *Cache) cloneIn(v any) any {
	if !c.cloneValues {
		return v
	}
	return c.cloneValue(v)
}

// cloneOut clones v before handing it back to a caller, honoring the
// per-entry clone flag captured when the entry was written.
func (c *Cache) cloneOut(v any, enabled bool) any {
	if !enabled {
		return v
	}
	return c.cloneValue(v)
}
