package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/flowsim/internal/node"
)

func seqs(evs []Event) []uint64 {
	out := make([]uint64, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.Header().Seq)
	}
	return out
}

func TestStream_DeliversInOrderWithIncreasingSeq(t *testing.T) {
	s := NewStream(0)
	var a, b []Event
	s.Subscribe(func(e Event) { a = append(a, e) })
	s.Subscribe(func(e Event) { b = append(b, e) })

	s.Publish(RunStarted{Trigger: "t"})
	s.Publish(NodeStatusChanged{NodeID: "n", Old: node.Pending, New: node.Running})
	s.Publish(EdgeActivated{EdgeID: "e1"})

	assert.Equal(t, []uint64{1, 2, 3}, seqs(a))
	assert.Equal(t, a, b)
	assert.Equal(t, TopicNodeStatusChanged, a[1].Topic())
	assert.Equal(t, uint64(3), s.LastSeq())
}

func TestStream_PublishReturnsStampedEvent(t *testing.T) {
	s := NewStream(4)
	e := s.Publish(RunReset{})
	assert.Equal(t, uint64(1), e.Header().Seq)
	_, ok := e.(RunReset)
	assert.True(t, ok)
}

func TestStream_UnsubscribeStopsDelivery(t *testing.T) {
	s := NewStream(4)
	var got int
	sub := s.Subscribe(func(Event) { got++ })

	s.Publish(RunReset{})
	sub.Unsubscribe()
	sub.Unsubscribe()
	s.Publish(RunReset{})

	assert.Equal(t, 1, got)
}

func TestStream_UnsubscribeFromHandler(t *testing.T) {
	s := NewStream(4)
	var first, second int
	var sub *Subscription
	sub = s.Subscribe(func(Event) {
		first++
		sub.Unsubscribe()
	})
	s.Subscribe(func(Event) { second++ })

	s.Publish(RunReset{})
	s.Publish(RunReset{})

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestStream_SinceWithinWindow(t *testing.T) {
	s := NewStream(8)
	for i := 0; i < 5; i++ {
		s.Publish(EdgeActivated{EdgeID: "e"})
	}

	got, complete := s.Since(2)
	require.True(t, complete)
	assert.Equal(t, []uint64{3, 4, 5}, seqs(got))

	got, complete = s.Since(5)
	assert.True(t, complete)
	assert.Empty(t, got)
}

func TestStream_SinceAfterEviction(t *testing.T) {
	s := NewStream(3)
	for i := 0; i < 7; i++ {
		s.Publish(EdgeActivated{EdgeID: "e"})
	}

	got, complete := s.Since(0)
	assert.False(t, complete)
	assert.Equal(t, []uint64{5, 6, 7}, seqs(got))

	got, complete = s.Since(4)
	assert.True(t, complete)
	assert.Equal(t, []uint64{5, 6, 7}, seqs(got))
}

func TestStream_SinceOnEmptyStream(t *testing.T) {
	got, complete := NewStream(3).Since(0)
	assert.True(t, complete)
	assert.Empty(t, got)
}
