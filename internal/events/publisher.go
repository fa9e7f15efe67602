package events

import "context"

// Publisher forwards encoded events to an external bus.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
	Close() error
}

// NoopPublisher is a Publisher that does nothing (used when NATS is not configured).
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, subject string, payload []byte) error {
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}
