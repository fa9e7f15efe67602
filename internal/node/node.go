// Package node defines the vertices and edges of a simulated workflow and the
// lifecycle states a vertex moves through during a run.
package node

import "fmt"

// Node is a single agent in the workflow graph. Description is fixed when the
// node is created; Logs only ever grows for the lifetime of a run.
type Node struct {
	// ID is the unique identifier used by edges and events.
	ID string `json:"id"`
	// Label is the human-readable name shown by renderers.
	Label string `json:"label"`
	// Status is the node's position in the lifecycle.
	Status Status `json:"status"`
	// Description is an ordered list of bullet points describing the agent.
	Description []string `json:"description"`
	// Logs is the append-only log scoped to this node.
	Logs []string `json:"logs"`
}

// New creates a pending node. The description slice is copied so callers
// cannot mutate it after construction.
func New(id, label string, description []string) *Node {
	desc := make([]string, len(description))
	copy(desc, description)
	return &Node{
		ID:          id,
		Label:       label,
		Status:      Pending,
		Description: desc,
		Logs:        []string{},
	}
}

// Clone returns a deep copy of the node, safe to hand to readers.
func (n *Node) Clone() Node {
	c := *n
	c.Description = append([]string(nil), n.Description...)
	c.Logs = append([]string{}, n.Logs...)
	return c
}

// AppendLog adds a line to the node's log.
func (n *Node) AppendLog(line string) {
	n.Logs = append(n.Logs, line)
}

// Transition moves the node to the next status, rejecting moves that skip
// Running or leave a terminal state.
func (n *Node) Transition(to Status) (Status, error) {
	from := n.Status
	if !CanTransition(from, to) {
		return from, fmt.Errorf("node %q: disallowed transition %s -> %s", n.ID, from, to)
	}
	n.Status = to
	return from, nil
}

// Edge is a directed dependency between two nodes. Active marks an edge that
// renderers should draw as a live conduit.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Active bool   `json:"active"`
}

// EdgeID returns the canonical identifier for an edge without an explicit id.
func EdgeID(source, target string) string {
	return source + "->" + target
}

// Touches reports whether the edge has the given node as an endpoint.
func (e Edge) Touches(id string) bool {
	return e.Source == id || e.Target == id
}
