package bus_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"foundrycore/bus"
	"foundrycore/bus/drivers/memory"
	"foundrycore/clock"
)

type orderPlaced struct {
	OrderID string
}

type orderCancelled struct {
	OrderID string
}

func TestBus_PublishSubscribeRoundTrip(t *testing.T) {
	b := bus.New("", memory.New())

	received := make(chan orderPlaced, 1)
	_, err := bus.Subscribe(context.Background(), b, func(_ context.Context, msg orderPlaced) error {
		received <- msg
		return nil
	}, nil)
	assert.NoError(t, err)

	err = bus.Publish(context.Background(), b, orderPlaced{OrderID: "o1"})
	assert.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, "o1", msg.OrderID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestBus_SubscriberOnlyReceivesItsOwnType(t *testing.T) {
	b := bus.New("", memory.New())

	var placedCount, cancelledCount int
	var mu sync.Mutex

	_, _ = bus.Subscribe(context.Background(), b, func(_ context.Context, _ orderPlaced) error {
		mu.Lock()
		placedCount++
		mu.Unlock()
		return nil
	}, nil)
	_, _ = bus.Subscribe(context.Background(), b, func(_ context.Context, _ orderCancelled) error {
		mu.Lock()
		cancelledCount++
		mu.Unlock()
		return nil
	}, nil)

	_ = bus.Publish(context.Background(), b, orderPlaced{OrderID: "o1"})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, placedCount)
	assert.Equal(t, 0, cancelledCount)
}

func TestBus_SubscribeAnyReceivesEveryType(t *testing.T) {
	b := bus.New("", memory.New())

	var count int
	var mu sync.Mutex
	_, err := bus.SubscribeRaw(context.Background(), b, func(_ context.Context, _ *bus.Message) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}, nil)
	assert.NoError(t, err)

	_ = bus.Publish(context.Background(), b, orderPlaced{OrderID: "o1"})
	_ = bus.Publish(context.Background(), b, orderCancelled{OrderID: "o1"})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, count)
}

func TestBus_CancelRemovesSubscriber(t *testing.T) {
	b := bus.New("", memory.New())

	cancel := make(chan struct{})
	var count int
	var mu sync.Mutex
	_, err := bus.Subscribe(context.Background(), b, func(_ context.Context, _ orderPlaced) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}, cancel)
	assert.NoError(t, err)

	_ = bus.Publish(context.Background(), b, orderPlaced{OrderID: "o1"})
	close(cancel)
	time.Sleep(20 * time.Millisecond) // let the cancellation goroutine run

	_ = bus.Publish(context.Background(), b, orderPlaced{OrderID: "o2"})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestBus_ExpiredMessageDroppedSilently(t *testing.T) {
	fc := clock.NewFake(time.Unix(1000, 0))
	b := bus.New("", memory.New(), bus.WithClock(fc))

	received := false
	_, _ = bus.Subscribe(context.Background(), b, func(_ context.Context, _ orderPlaced) error {
		received = true
		return nil
	}, nil)

	err := bus.Publish(context.Background(), b, orderPlaced{OrderID: "o1"},
		bus.WithExpiresAt(time.Unix(999, 0)))
	assert.NoError(t, err)
	assert.False(t, received)
}

func TestBus_DelayedDeliveryArrivesAfterDelay(t *testing.T) {
	b := bus.New("", memory.New())

	received := make(chan struct{}, 1)
	_, _ = bus.Subscribe(context.Background(), b, func(_ context.Context, _ orderPlaced) error {
		received <- struct{}{}
		return nil
	}, nil)

	start := time.Now()
	err := bus.Publish(context.Background(), b, orderPlaced{OrderID: "o1"}, bus.WithDelay(150*time.Millisecond))
	assert.NoError(t, err)

	select {
	case <-received:
		assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("delayed message never arrived")
	}
}

func TestBus_CloseDropsPendingDelayedMessages(t *testing.T) {
	b := bus.New("", memory.New())

	received := false
	_, _ = bus.Subscribe(context.Background(), b, func(_ context.Context, _ orderPlaced) error {
		received = true
		return nil
	}, nil)

	_ = bus.Publish(context.Background(), b, orderPlaced{OrderID: "o1"}, bus.WithDelay(time.Hour))
	b.Close()
	time.Sleep(10 * time.Millisecond)

	assert.False(t, received)
}

func TestBus_CorrelationInheritedFromContext(t *testing.T) {
	b := bus.New("", memory.New())

	var gotCorrID string
	_, _ = bus.SubscribeRaw(context.Background(), b, func(_ context.Context, m *bus.Message) error {
		gotCorrID = m.CorrelationID
		return nil
	}, nil)

	ctx := bus.WithCorrelationContext(context.Background(), "trace-123")
	_ = bus.Publish(ctx, b, orderPlaced{OrderID: "o1"})

	assert.Equal(t, "trace-123", gotCorrID)
}
