package activitylog

import (
	"time"

	"github.com/specialistvlad/flowsim/internal/node"
)

// DefaultCapacity is the number of entries a Feed keeps.
const DefaultCapacity = 50

// Feed is a bounded, newest-first list of log entries. Ids increase by one
// per entry for the lifetime of the feed. It is not safe for concurrent use.
type Feed struct {
	entries []node.LogEntry
	limit   int
	lastID  uint64
}

// NewFeed creates a feed keeping at most capacity entries.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{limit: capacity, entries: make([]node.LogEntry, 0, capacity)}
}

// Add records an entry, evicting the oldest one when the feed is full.
func (f *Feed) Add(ts time.Time, nodeID, message string, sev node.Severity) node.LogEntry {
	f.lastID++
	e := node.LogEntry{
		ID:        f.lastID,
		Timestamp: ts,
		NodeID:    nodeID,
		Message:   message,
		Severity:  sev,
	}
	if len(f.entries) < f.limit {
		f.entries = append(f.entries, node.LogEntry{})
	}
	copy(f.entries[1:], f.entries[:len(f.entries)-1])
	f.entries[0] = e
	return e
}

// Entries returns a copy of the feed, newest first.
func (f *Feed) Entries() []node.LogEntry {
	return append([]node.LogEntry{}, f.entries...)
}

// Len returns the number of entries held.
func (f *Feed) Len() int { return len(f.entries) }

// Cap returns the maximum number of entries held.
func (f *Feed) Cap() int { return f.limit }
