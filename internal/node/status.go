package node

import "fmt"

// Status represents the lifecycle state of a node within a run.
type Status int

const (
	// Pending is the initial state of every node in a fresh run.
	Pending Status = iota
	// Running means the node's simulated work is in progress.
	Running
	// Success is terminal: the node finished its dwell.
	Success
	// Error is terminal. The simulation defines it but never reaches it.
	Error
)

var statusNames = map[Status]string{
	Pending: "pending",
	Running: "running",
	Success: "success",
	Error:   "error",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// IsTerminal reports whether no further transition is allowed within a run.
func (s Status) IsTerminal() bool {
	return s == Success || s == Error
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	for st, name := range statusNames {
		if name == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(b))
}

// CanTransition reports whether a node may move from one status to another.
// Pending only goes to Running; Running only goes to a terminal status.
func CanTransition(from, to Status) bool {
	switch from {
	case Pending:
		return to == Running
	case Running:
		return to == Success || to == Error
	default:
		return false
	}
}
