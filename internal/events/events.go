// Package events is the ordered stream of state changes a run produces, plus
// the plumbing that forwards it to out-of-process consumers.
package events

import (
	"time"

	"github.com/specialistvlad/flowsim/internal/node"
)

// Event topic constants
const (
	TopicNodeStatusChanged = "node.status_changed"
	TopicEdgeActivated     = "edge.activated"
	TopicEdgeDeactivated   = "edge.deactivated"

	TopicRunStarted   = "run.started"
	TopicRunCompleted = "run.completed"
	TopicRunCancelled = "run.cancelled"
	TopicRunReset     = "run.reset"

	TopicLogAppended = "log.appended"
)

// Meta is common to every event. Seq is assigned by the Stream on publish.
type Meta struct {
	Seq       uint64    `json:"seq"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Event is implemented by every concrete event type below.
type Event interface {
	Topic() string
	Header() Meta
	withSeq(seq uint64) Event
}

// NodeStatusChanged reports a committed status transition.
type NodeStatusChanged struct {
	Meta
	NodeID string      `json:"node_id"`
	Old    node.Status `json:"old_status"`
	New    node.Status `json:"new_status"`
}

// EdgeActivated reports an edge flipping to active.
type EdgeActivated struct {
	Meta
	EdgeID string `json:"edge_id"`
}

// EdgeDeactivated reports an edge flipping back to inactive on cancel or reset.
type EdgeDeactivated struct {
	Meta
	EdgeID string `json:"edge_id"`
}

// RunStarted is published before any node of the run changes.
type RunStarted struct {
	Meta
	Trigger string `json:"trigger"`
}

// RunCompleted is published once every layer reached a terminal status.
type RunCompleted struct {
	Meta
	Elapsed time.Duration `json:"elapsed"`
}

// RunCancelled is published when a run is aborted before completing.
type RunCancelled struct {
	Meta
	Reason string `json:"reason"`
}

// RunReset is published when the trigger is cleared and all state returns
// to its initial values.
type RunReset struct {
	Meta
}

// LogAppended carries a new activity feed entry.
type LogAppended struct {
	Meta
	Entry node.LogEntry `json:"entry"`
}

func (e NodeStatusChanged) Topic() string { return TopicNodeStatusChanged }
func (e EdgeActivated) Topic() string     { return TopicEdgeActivated }
func (e EdgeDeactivated) Topic() string   { return TopicEdgeDeactivated }
func (e RunStarted) Topic() string        { return TopicRunStarted }
func (e RunCompleted) Topic() string      { return TopicRunCompleted }
func (e RunCancelled) Topic() string      { return TopicRunCancelled }
func (e RunReset) Topic() string          { return TopicRunReset }
func (e LogAppended) Topic() string       { return TopicLogAppended }

func (m Meta) Header() Meta { return m }

func (e NodeStatusChanged) withSeq(seq uint64) Event { e.Seq = seq; return e }
func (e EdgeActivated) withSeq(seq uint64) Event     { e.Seq = seq; return e }
func (e EdgeDeactivated) withSeq(seq uint64) Event   { e.Seq = seq; return e }
func (e RunStarted) withSeq(seq uint64) Event        { e.Seq = seq; return e }
func (e RunCompleted) withSeq(seq uint64) Event      { e.Seq = seq; return e }
func (e RunCancelled) withSeq(seq uint64) Event      { e.Seq = seq; return e }
func (e RunReset) withSeq(seq uint64) Event          { e.Seq = seq; return e }
func (e LogAppended) withSeq(seq uint64) Event       { e.Seq = seq; return e }
