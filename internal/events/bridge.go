package events

import (
	"context"

	"github.com/specialistvlad/flowsim/internal/ctxlog"
)

// DefaultSubjectPrefix namespaces every subject the Bridge publishes to.
const DefaultSubjectPrefix = "flowsim"

// Bridge relays every event of a Stream to a Publisher under
// "<prefix>.<topic>". Publish failures are logged and dropped: the
// simulation never waits on, or fails because of, an external bus.
type Bridge struct {
	ctx    context.Context
	pub    Publisher
	prefix string
	sub    *Subscription
}

// NewBridge subscribes to stream. It must be called from the event loop.
func NewBridge(ctx context.Context, stream *Stream, pub Publisher, prefix string) *Bridge {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	b := &Bridge{ctx: ctx, pub: pub, prefix: prefix}
	b.sub = stream.Subscribe(b.forward)
	return b
}

// Subject returns the subject an event with the given topic is published on.
func (b *Bridge) Subject(topic string) string {
	return b.prefix + "." + topic
}

func (b *Bridge) forward(e Event) {
	logger := ctxlog.FromContext(b.ctx)
	payload, err := Encode(e)
	if err != nil {
		logger.Error("Failed to encode event for bus.", "topic", e.Topic(), "error", err)
		return
	}
	if err := b.pub.Publish(b.ctx, b.Subject(e.Topic()), payload); err != nil {
		logger.Warn("Failed to publish event to bus.", "topic", e.Topic(), "seq", e.Header().Seq, "error", err)
	}
}

// Close unsubscribes from the stream. The publisher is left to its owner.
func (b *Bridge) Close() {
	b.sub.Unsubscribe()
}
