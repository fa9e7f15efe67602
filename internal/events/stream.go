package events

// DefaultHistory is the number of recent events a Stream keeps for replay.
const DefaultHistory = 512

// Handler receives events in emission order. Handlers run synchronously on
// the publisher's goroutine and must not block; forward to a buffered channel
// when the consumer lives elsewhere.
type Handler func(Event)

// Stream delivers published events to subscribers in order and keeps a
// bounded replay window. It is not safe for concurrent use: every call is
// expected to come from the event loop.
type Stream struct {
	subs   []*Subscription
	nextID int
	seq    uint64

	history []Event
	limit   int
	start   int // index of the oldest event in history once it is full
}

// Subscription is returned by Subscribe.
type Subscription struct {
	id      int
	handler Handler
	stream  *Stream
}

// NewStream creates a stream retaining up to history events for replay.
func NewStream(history int) *Stream {
	if history <= 0 {
		history = DefaultHistory
	}
	return &Stream{limit: history}
}

// Subscribe registers a handler for every event published from now on.
func (s *Stream) Subscribe(h Handler) *Subscription {
	s.nextID++
	sub := &Subscription{id: s.nextID, handler: h, stream: s}
	s.subs = append(s.subs, sub)
	return sub
}

// Unsubscribe stops delivery to the subscription's handler. It is safe to
// call more than once and from within a handler.
func (sub *Subscription) Unsubscribe() {
	if sub == nil || sub.stream == nil {
		return
	}
	s := sub.stream
	for i, other := range s.subs {
		if other == sub {
			// Copy so an in-flight Publish keeps iterating its own slice.
			s.subs = append(append([]*Subscription(nil), s.subs[:i]...), s.subs[i+1:]...)
			break
		}
	}
	sub.stream = nil
}

// Publish stamps the event with the next sequence number, records it and
// hands it to every current subscriber. Callers publish only after the state
// change the event describes has been applied.
func (s *Stream) Publish(e Event) Event {
	s.seq++
	e = e.withSeq(s.seq)
	s.record(e)

	for _, sub := range s.subs {
		if sub.stream == nil {
			continue
		}
		sub.handler(e)
	}
	return e
}

// LastSeq returns the sequence number of the newest event, 0 if none.
func (s *Stream) LastSeq() uint64 { return s.seq }

// Since returns the retained events with a sequence number above seq, oldest
// first. The boolean is false when events after seq were already evicted,
// meaning the caller cannot rebuild a gap-free history from the window.
func (s *Stream) Since(seq uint64) ([]Event, bool) {
	all := s.ordered()
	complete := len(all) == 0 || all[0].Header().Seq <= seq+1
	var out []Event
	for _, e := range all {
		if e.Header().Seq > seq {
			out = append(out, e)
		}
	}
	return out, complete
}

func (s *Stream) record(e Event) {
	if len(s.history) < s.limit {
		s.history = append(s.history, e)
		return
	}
	s.history[s.start] = e
	s.start = (s.start + 1) % s.limit
}

func (s *Stream) ordered() []Event {
	out := make([]Event, 0, len(s.history))
	out = append(out, s.history[s.start:]...)
	out = append(out, s.history[:s.start]...)
	return out
}
