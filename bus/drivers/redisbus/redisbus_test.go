package redisbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foundrycore/bus"
	"foundrycore/bus/drivers/redisbus"
	"foundrycore/bus/wire"
)

func newTestDriver(t *testing.T) *redisbus.Driver {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return redisbus.New(client, wire.CompressorNone)
}

func TestDriver_PublishIsDeliveredToSubscriber(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	received := make(chan *bus.Message, 1)
	require.NoError(t, d.EnsureTopicSubscription(ctx, "orders", "sub-1", func(m *bus.Message) {
		received <- m
	}))

	// Give the subscription goroutine a moment to attach before publishing.
	time.Sleep(50 * time.Millisecond)

	msg := &bus.Message{ID: "m-1", CorrelationID: "c-1", TypeName: "OrderCreated", Body: []byte(`{"id":1}`)}
	require.NoError(t, d.PublishImpl(ctx, "orders", msg))

	select {
	case got := <-received:
		assert.Equal(t, msg.ID, got.ID)
		assert.Equal(t, msg.CorrelationID, got.CorrelationID)
		assert.Equal(t, msg.TypeName, got.TypeName)
		assert.Equal(t, msg.Body, got.Body)
	case <-time.After(2 * time.Second):
		t.Fatal("message was not delivered")
	}
}

func TestDriver_RemoveTopicSubscriptionStopsDelivery(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	received := make(chan *bus.Message, 1)
	require.NoError(t, d.EnsureTopicSubscription(ctx, "orders", "sub-1", func(m *bus.Message) {
		received <- m
	}))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, d.RemoveTopicSubscription(ctx, "orders", "sub-1"))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, d.PublishImpl(ctx, "orders", &bus.Message{ID: "m-1"}))

	select {
	case <-received:
		t.Fatal("message delivered after subscription was removed")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDriver_EnsureTopicCreatedIsANoop(t *testing.T) {
	d := newTestDriver(t)
	assert.NoError(t, d.EnsureTopicCreated(context.Background(), "orders"))
}
