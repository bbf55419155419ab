// Package memory implements an in-process bus.Driver for tests and
// single-binary deployments: publish fans a message out to every
// registered subscription directly, with no network hop.
package memory

import (
	"context"
	"sync"

	"foundrycore/bus"
)

// Driver is a bus.Driver that delivers messages synchronously within the
// same process, grounded on the in-memory fan-out shape of the teacher's
// redis pubsub driver with the network call removed.
type Driver struct {
	mu      sync.Mutex
	topics  map[string]bool
	deliver map[string]func(*bus.Message) // topic -> current subscriber callback
}

// New constructs an empty memory driver.
func New() *Driver {
	return &Driver{
		topics:  make(map[string]bool),
		deliver: make(map[string]func(*bus.Message)),
	}
}

func (d *Driver) EnsureTopicCreated(ctx context.Context, topic string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.topics[topic] = true
	return nil
}

func (d *Driver) PublishImpl(ctx context.Context, topic string, msg *bus.Message) error {
	d.mu.Lock()
	deliver := d.deliver[topic]
	d.mu.Unlock()
	if deliver != nil {
		deliver(msg)
	}
	return nil
}

func (d *Driver) EnsureTopicSubscription(ctx context.Context, topic, subscriptionID string, deliver func(*bus.Message)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deliver[topic] = deliver
	return nil
}

func (d *Driver) RemoveTopicSubscription(ctx context.Context, topic, subscriptionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.deliver, topic)
	return nil
}
