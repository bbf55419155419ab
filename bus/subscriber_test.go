package bus

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type widgetCreated struct{}
type gadgetCreated struct{}

func TestSubscriberRegistry_MatchingReturnsExactTypeMatch(t *testing.T) {
	var reg subscriberRegistry
	widgetType := reflect.TypeOf(widgetCreated{})
	sub := &subscription{id: "1", typ: widgetType}
	reg.add(sub)

	matches := reg.matching(widgetType)
	assert.Len(t, matches, 1)
	assert.Equal(t, "1", matches[0].id)

	assert.Empty(t, reg.matching(reflect.TypeOf(gadgetCreated{})))
}

func TestSubscriberRegistry_MatchingIncludesAnySubscribers(t *testing.T) {
	var reg subscriberRegistry
	reg.add(&subscription{id: "any-sub", typ: anyType})

	matches := reg.matching(reflect.TypeOf(widgetCreated{}))
	assert.Len(t, matches, 1)
	assert.Equal(t, "any-sub", matches[0].id)
}

func TestSubscriberRegistry_RemoveDropsSubscription(t *testing.T) {
	var reg subscriberRegistry
	widgetType := reflect.TypeOf(widgetCreated{})
	reg.add(&subscription{id: "1", typ: widgetType})

	count := reg.remove("1")
	assert.Equal(t, int64(0), count)
	assert.Empty(t, reg.matching(widgetType))
}

func TestSubscriberRegistry_CountTracksAddAndRemove(t *testing.T) {
	var reg subscriberRegistry
	widgetType := reflect.TypeOf(widgetCreated{})

	assert.Equal(t, int64(1), reg.add(&subscription{id: "1", typ: widgetType}))
	assert.Equal(t, int64(2), reg.add(&subscription{id: "2", typ: widgetType}))
	assert.Equal(t, int64(1), reg.remove("1"))
	assert.Equal(t, int64(0), reg.remove("2"))
}

func TestSubscriberRegistry_RemoveUnknownIDIsNoop(t *testing.T) {
	var reg subscriberRegistry
	reg.add(&subscription{id: "1", typ: reflect.TypeOf(widgetCreated{})})

	count := reg.remove("does-not-exist")
	assert.Equal(t, int64(1), count)
}
