package bus

import (
	"context"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"foundrycore/clock"
	"foundrycore/serializer"

	"foundrycore/logging"
)

// DefaultTopic is used when no topic is supplied to New.
const DefaultTopic = "messages"

// Bus is a topic-based, type-routed pub/sub message bus backed by a
// pluggable Driver. Its topic is fixed for the bus's lifetime.
type Bus struct {
	topic        string
	messageBusID string
	driver       Driver
	types        *typeMap
	registry     subscriberRegistry
	ser          serializer.Serializer
	clk          clock.Clock
	delayed      *delayedScheduler
	log          *logrus.Entry

	mu           sync.Mutex
	topicCreated bool
	closed       bool
}

// Option configures a Bus at construction time.
type Option func(*Bus)

// WithTypeOverrides supplies a user-defined {name -> type} map consulted
// before the default name derivation.
func WithTypeOverrides(overrides map[string]reflect.Type) Option {
	return func(b *Bus) { b.types = newTypeMap(overrides) }
}

// WithSerializer overrides the payload codec. The default is
// serializer.JSONSerializer{}.
func WithSerializer(s serializer.Serializer) Option {
	return func(b *Bus) { b.ser = s }
}

// WithClock overrides the time source, used by tests to control delayed
// delivery deterministically.
func WithClock(c clock.Clock) Option {
	return func(b *Bus) { b.clk = c }
}

// New constructs a Bus over driver. An empty topic defaults to
// DefaultTopic.
func New(topic string, driver Driver, opts ...Option) *Bus {
	if topic == "" {
		topic = DefaultTopic
	}
	b := &Bus{
		topic:        topic,
		messageBusID: topic + "-" + uuid.NewString(),
		driver:       driver,
		types:        newTypeMap(nil),
		ser:          serializer.JSONSerializer{},
		clk:          clock.Default,
		log:          logging.For("bus"),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.delayed = newDelayedScheduler(b.clk, b.publishNow)
	return b
}

// Topic returns the bus's immutable topic name.
func (b *Bus) Topic() string { return b.topic }

// MessageBusID returns this instance's per-process identity, combining
// the topic with a random suffix.
func (b *Bus) MessageBusID() string { return b.messageBusID }

type correlationKeyType struct{}

var correlationKey correlationKeyType

// WithCorrelationContext attaches a correlation id to ctx so a later
// Publish call without an explicit WithCorrelationID option inherits it.
func WithCorrelationContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// CorrelationFromContext returns the correlation id attached by
// WithCorrelationContext, if any.
func CorrelationFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationKey).(string)
	return id, ok
}

func (b *Bus) ensureTopicCreated(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.topicCreated {
		return nil
	}
	if err := b.driver.EnsureTopicCreated(ctx, b.topic); err != nil {
		return err
	}
	b.topicCreated = true
	return nil
}

// Publish serializes payload and hands it to the bus's driver, honoring
// any delay, expiry, correlation id, or property overrides from opts. It
// is a package-level function (Go methods can't carry their own type
// parameters) so callers write bus.Publish(ctx, b, payload, opts...).
func Publish[T any](ctx context.Context, b *Bus, payload T, opts ...PublishOption) error {
	var o PublishOptions
	for _, opt := range opts {
		opt(&o)
	}

	corrID := o.CorrelationID
	if corrID == "" {
		corrID, _ = CorrelationFromContext(ctx)
	}

	body, err := b.ser.Marshal(payload)
	if err != nil {
		return err
	}

	msg := &Message{
		CorrelationID: corrID,
		TypeName:      b.types.nameFromType(reflect.TypeOf(payload)),
		Type:          reflect.TypeOf(payload),
		ID:            uuid.NewString(),
		Body:          body,
		Properties:    o.Properties,
		ExpiresAt:     o.ExpiresAt,
	}

	if !msg.ExpiresAt.IsZero() && !b.clk.Now().Before(msg.ExpiresAt) {
		return nil
	}

	if o.Delay > 0 {
		b.delayed.schedule(msg, b.clk.Now().Add(o.Delay))
		return nil
	}

	return b.publish(ctx, msg)
}

func (b *Bus) publish(ctx context.Context, msg *Message) error {
	if err := b.ensureTopicCreated(ctx); err != nil {
		return err
	}
	return b.driver.PublishImpl(ctx, b.topic, msg)
}

// publishNow is the delayed scheduler's fire callback; publish errors for
// delayed messages are logged rather than surfaced, since there is no
// caller left waiting on the original Publish call.
func (b *Bus) publishNow(msg *Message) {
	if err := b.publish(context.Background(), msg); err != nil {
		b.log.WithError(err).WithField("type", msg.TypeName).Warn("delayed publish failed")
	}
}

// Subscribe registers handler for messages whose resolved type is T. Use
// Any as T to receive every message regardless of type. If cancel fires,
// the subscriber is removed; when the subscriber count reaches zero, the
// bus releases its topic subscription.
func Subscribe[T any](ctx context.Context, b *Bus, handler func(context.Context, T) error, cancel <-chan struct{}) (string, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		t = reflect.TypeOf((*T)(nil)).Elem()
	}
	b.types.register(t)

	id := uuid.NewString()
	sub := &subscription{
		id:  id,
		typ: t,
		dispatch: func(raw *Message) {
			payload, ok := decodeInto[T](b, raw)
			if !ok {
				return
			}
			if err := handler(ctx, payload); err != nil {
				b.log.WithError(err).WithField("type", raw.TypeName).Warn("bus subscriber handler failed")
			}
		},
	}

	if err := b.registerSubscription(ctx, sub); err != nil {
		return "", err
	}
	if cancel != nil {
		go func() {
			<-cancel
			b.unsubscribe(id)
		}()
	}
	return id, nil
}

func decodeInto[T any](b *Bus, raw *Message) (T, bool) {
	var out T
	if reflect.TypeOf(out) == anyType {
		// Any carries no payload of its own; callers receiving Any should
		// use SubscribeRaw instead if they need message metadata.
		return out, true
	}
	if err := b.ser.Unmarshal(raw.Body, &out); err != nil {
		b.log.WithError(err).WithField("type", raw.TypeName).Warn("invalid payload: dropping message for this subscriber")
		var zero T
		return zero, false
	}
	return out, true
}

// SubscribeRaw registers handler to receive every message's raw envelope
// (correlation id, type name, properties, bytes) rather than a decoded
// payload. This is the Go shape of the universal IMessage subscriber.
func SubscribeRaw(ctx context.Context, b *Bus, handler func(context.Context, *Message) error, cancel <-chan struct{}) (string, error) {
	id := uuid.NewString()
	sub := &subscription{
		id:  id,
		typ: anyType,
		dispatch: func(raw *Message) {
			if err := handler(ctx, raw); err != nil {
				b.log.WithError(err).WithField("type", raw.TypeName).Warn("bus subscriber handler failed")
			}
		},
	}
	if err := b.registerSubscription(ctx, sub); err != nil {
		return "", err
	}
	if cancel != nil {
		go func() {
			<-cancel
			b.unsubscribe(id)
		}()
	}
	return id, nil
}

func (b *Bus) registerSubscription(ctx context.Context, sub *subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	newCount := b.registry.add(sub)
	if newCount == 1 {
		if err := b.driver.EnsureTopicSubscription(ctx, b.topic, b.messageBusID, b.dispatch); err != nil {
			b.registry.remove(sub.id)
			return err
		}
	}
	return nil
}

func (b *Bus) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	newCount := b.registry.remove(id)
	if newCount == 0 {
		if err := b.driver.RemoveTopicSubscription(context.Background(), b.topic, b.messageBusID); err != nil {
			b.log.WithError(err).Warn("failed to remove topic subscription")
		}
	}
}

// dispatch resolves raw's type name and fans it out to every matching
// subscriber, each running in its own goroutine so one handler's panic or
// slow handler can't block or take down the others. dispatch waits for
// all of them before returning, so a publish's fan-out is complete once
// dispatch returns.
func (b *Bus) dispatch(raw *Message) {
	t, ok := b.types.typeFromName(raw.TypeName)
	if !ok {
		b.log.WithField("type", raw.TypeName).Warn("unknown message type: dropping")
		return
	}
	raw.Type = t

	var wg sync.WaitGroup
	for _, sub := range b.registry.matching(t) {
		sub := sub
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.log.WithField("type", raw.TypeName).WithField("panic", r).Warn("bus subscriber handler panicked")
				}
			}()
			sub.dispatch(raw)
		}()
	}
	wg.Wait()
}

// Close stops the delayed-delivery scheduler. Messages still pending
// delayed delivery are dropped, not flushed.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.delayed.close()
}
