package node

import (
	"fmt"
	"time"
)

// Severity classifies an activity log entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
)

// ParseSeverity validates a severity string.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityInfo, SeverityWarning, SeverityError, SeveritySuccess:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// SystemOrigin is the NodeID of log entries that no agent produced.
const SystemOrigin = "system"

// LogEntry is one line of the activity feed.
type LogEntry struct {
	ID        uint64    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"agent"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"level"`
}
