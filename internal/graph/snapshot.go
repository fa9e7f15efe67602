package graph

import (
	"time"

	"github.com/specialistvlad/flowsim/internal/dag"
	"github.com/specialistvlad/flowsim/internal/node"
)

// Snapshot is a deep copy of a run, safe to serialize or hand across
// goroutines.
type Snapshot struct {
	RunID     string      `json:"run_id,omitempty"`
	Trigger   string      `json:"trigger"`
	State     State       `json:"state"`
	StartedAt *time.Time  `json:"started_at,omitempty"`
	Layers    [][]string  `json:"layers"`
	Nodes     []node.Node `json:"nodes"`
	Edges     []node.Edge `json:"edges"`
}

// Snapshot copies the run's current state.
func (r *Run) Snapshot() Snapshot {
	started := r.started
	s := Snapshot{
		RunID:     r.id,
		Trigger:   r.trigger,
		State:     r.state,
		StartedAt: &started,
		Layers:    r.graph.Layers(),
		Nodes:     make([]node.Node, len(r.nodes)),
		Edges:     append([]node.Edge(nil), r.edges...),
	}
	for i, n := range r.nodes {
		s.Nodes[i] = n.Clone()
	}
	return s
}

// IdleSnapshot describes g before any run: every node Pending, every edge
// inactive.
func IdleSnapshot(g *dag.TaskGraph) Snapshot {
	nodes, _ := freshNodes(g)
	edges, _ := freshEdges(g)
	s := Snapshot{
		State:  StateIdle,
		Layers: g.Layers(),
		Nodes:  make([]node.Node, len(nodes)),
		Edges:  edges,
	}
	for i, n := range nodes {
		s.Nodes[i] = n.Clone()
	}
	return s
}

// Node returns the snapshot entry for id.
func (s Snapshot) Node(id string) (node.Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return node.Node{}, false
}

// Edge returns the snapshot entry for id.
func (s Snapshot) Edge(id string) (node.Edge, bool) {
	for _, e := range s.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return node.Edge{}, false
}
