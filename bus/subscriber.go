package bus

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// Any is the universal message type: a subscriber registered with
// Subscribe[Any] receives every message regardless of its resolved type.
type Any struct{}

var anyType = reflect.TypeOf(Any{})

type subscription struct {
	id       string
	typ      reflect.Type
	dispatch func(*Message)
}

// subscriberRegistry is the bus's concurrent map of active subscriptions,
// keyed by id.
type subscriberRegistry struct {
	subs  sync.Map // id -> *subscription
	count atomic.Int64
}

func (r *subscriberRegistry) add(s *subscription) int64 {
	r.subs.Store(s.id, s)
	return r.count.Add(1)
}

func (r *subscriberRegistry) remove(id string) int64 {
	if _, ok := r.subs.LoadAndDelete(id); !ok {
		return r.count.Load()
	}
	return r.count.Add(-1)
}

// matching returns every subscription whose target type accepts msgType:
// an exact match, the universal Any marker, or (for interface targets)
// implementation by msgType.
func (r *subscriberRegistry) matching(msgType reflect.Type) []*subscription {
	var out []*subscription
	r.subs.Range(func(_, v any) bool {
		s := v.(*subscription)
		if s.typ == anyType || s.typ == msgType {
			out = append(out, s)
			return true
		}
		if s.typ.Kind() == reflect.Interface && msgType != nil && msgType.Implements(s.typ) {
			out = append(out, s)
		}
		return true
	})
	return out
}
