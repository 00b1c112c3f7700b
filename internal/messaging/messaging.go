package messaging

import "context"

// Event is an integration event published for other subsystems. The event
// type name doubles as the topic it is published to.
type Event interface {
	EventType() string
}

// EventBus publishes integration events with at-least-once delivery.
type EventBus interface {
	Publish(ctx context.Context, event Event) error
}

// Subscriber defines an interface for subscribing to a message topic.
type Subscriber interface {
	Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error)
}

// InstrumentedBus counts successful publishes before delegating the rest
// of the contract to the wrapped bus.
type InstrumentedBus struct {
	Next    EventBus
	Observe func(eventType string)
}

func (b InstrumentedBus) Publish(ctx context.Context, event Event) error {
	if err := b.Next.Publish(ctx, event); err != nil {
		return err
	}
	b.Observe(event.EventType())
	return nil
}
