package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the wire form of an event for transports. RunID and Timestamp
// repeat the event's Meta so consumers can route without decoding Data.
type Envelope struct {
	Seq       uint64          `json:"seq"`
	Topic     string          `json:"topic"`
	RunID     string          `json:"run_id"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Encode wraps an event in an Envelope and marshals it.
func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s event: %w", e.Topic(), err)
	}
	h := e.Header()
	return json.Marshal(Envelope{
		Seq:       h.Seq,
		Topic:     e.Topic(),
		RunID:     h.RunID,
		Timestamp: h.Timestamp,
		Data:      data,
	})
}

// Decode parses an Envelope back into its concrete event type.
func Decode(b []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}

	var e Event
	var err error
	switch env.Topic {
	case TopicNodeStatusChanged:
		e, err = decodeAs[NodeStatusChanged](env.Data)
	case TopicEdgeActivated:
		e, err = decodeAs[EdgeActivated](env.Data)
	case TopicEdgeDeactivated:
		e, err = decodeAs[EdgeDeactivated](env.Data)
	case TopicRunStarted:
		e, err = decodeAs[RunStarted](env.Data)
	case TopicRunCompleted:
		e, err = decodeAs[RunCompleted](env.Data)
	case TopicRunCancelled:
		e, err = decodeAs[RunCancelled](env.Data)
	case TopicRunReset:
		e, err = decodeAs[RunReset](env.Data)
	case TopicLogAppended:
		e, err = decodeAs[LogAppended](env.Data)
	default:
		return nil, fmt.Errorf("unknown event topic %q", env.Topic)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s event: %w", env.Topic, err)
	}
	return e, nil
}

func decodeAs[T Event](data json.RawMessage) (Event, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
