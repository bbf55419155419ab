package bus

import "context"

// Driver is the transport-facing hook set a concrete bus backend
// implements: PublishImpl, EnsureTopicCreated, EnsureTopicSubscription and
// RemoveTopicSubscription, composed together by the bus core.
type Driver interface {
	// EnsureTopicCreated idempotently provisions the topic. Called once,
	// lazily, before the first publish.
	EnsureTopicCreated(ctx context.Context, topic string) error

	// PublishImpl sends msg's already-serialized body to topic.
	PublishImpl(ctx context.Context, topic string, msg *Message) error

	// EnsureTopicSubscription idempotently provisions a subscription
	// identified by subscriptionID and starts delivering messages on topic
	// to deliver. Called when the bus's subscriber count transitions from
	// zero to one.
	EnsureTopicSubscription(ctx context.Context, topic, subscriptionID string, deliver func(*Message)) error

	// RemoveTopicSubscription tears down the subscription. Called when the
	// bus's subscriber count drops back to zero.
	RemoveTopicSubscription(ctx context.Context, topic, subscriptionID string) error
}
