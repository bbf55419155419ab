package cache

import "github.com/cockroachdb/errors"

// ErrNotNumeric is returned by Increment when an existing entry's payload
// can't be treated as a signed 64-bit integer. Values are otherwise opaque
// and only need to support a numeric conversion when accessed through a
// numeric operation.
var ErrNotNumeric = errors.New("cache: value is not convertible to int64")

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	default:
		return 0, errors.Errorf("%w: %T", ErrNotNumeric, v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	default:
		return 0, errors.Errorf("%w: %T", ErrNotNumeric, v)
	}
}
