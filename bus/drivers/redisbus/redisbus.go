// Package redisbus implements a bus.Driver over Redis pub/sub, grounded
// on the teacher's redis.PubSubService (redis/pubsub.go): Publish and
// Subscribe map directly onto *redis.Client's Publish/Subscribe, with the
// message envelope (correlation id, type name, properties, body) packed
// by bus/wire so it survives the single-[]byte channel payload.
package redisbus

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"foundrycore/bus"
	"foundrycore/bus/wire"
	"foundrycore/logging"
)

// Driver is a bus.Driver backed by a *redis.Client.
type Driver struct {
	client     *redis.Client
	compressor wire.CompressorID
	log        *logrus.Entry

	mu     sync.Mutex
	active map[string]context.CancelFunc // topic -> subscription-loop cancel
}

// New constructs a redisbus Driver. comp selects the codec used to
// compress envelope bodies; wire.CompressorNone disables compression.
func New(client *redis.Client, comp wire.CompressorID) *Driver {
	return &Driver{
		client:     client,
		compressor: comp,
		log:        logging.For("bus.redis"),
		active:     make(map[string]context.CancelFunc),
	}
}

// EnsureTopicCreated is a no-op: Redis channels need no provisioning.
func (d *Driver) EnsureTopicCreated(ctx context.Context, topic string) error {
	return nil
}

func (d *Driver) PublishImpl(ctx context.Context, topic string, msg *bus.Message) error {
	payload, err := wire.Encode(wire.Envelope{
		CorrelationID: msg.CorrelationID,
		TypeName:      msg.TypeName,
		ID:            msg.ID,
		Properties:    msg.Properties,
		Body:          msg.Body,
	}, d.compressor)
	if err != nil {
		return err
	}
	return d.client.Publish(ctx, topic, payload).Err()
}

func (d *Driver) EnsureTopicSubscription(ctx context.Context, topic, subscriptionID string, deliver func(*bus.Message)) error {
	sub := d.client.Subscribe(ctx, topic)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	d.mu.Lock()
	d.active[topic] = cancel
	d.mu.Unlock()

	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-loopCtx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				env, err := wire.Decode([]byte(m.Payload))
				if err != nil {
					d.log.WithError(err).Warn("failed to decode bus envelope: dropping")
					continue
				}
				deliver(&bus.Message{
					CorrelationID: env.CorrelationID,
					TypeName:      env.TypeName,
					ID:            env.ID,
					Properties:    env.Properties,
					Body:          env.Body,
				})
			}
		}
	}()
	return nil
}

func (d *Driver) RemoveTopicSubscription(ctx context.Context, topic, subscriptionID string) error {
	d.mu.Lock()
	cancel, ok := d.active[topic]
	delete(d.active, topic)
	d.mu.Unlock()
	if ok {
		cancel()
	}
	return nil
}
