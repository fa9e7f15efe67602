package graph

import (
	"fmt"
	"time"

	"github.com/specialistvlad/flowsim/internal/dag"
	"github.com/specialistvlad/flowsim/internal/node"
)

// State is the coarse lifecycle position of a run.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
)

// Run is the per-run view of the workflow.
type Run struct {
	id      string
	trigger string
	started time.Time
	state   State

	graph   *dag.TaskGraph
	nodes   []*node.Node
	nodeIdx map[string]int
	edges   []node.Edge
	edgeIdx map[string]int
}

// NewRun creates a run over g with every node Pending and every edge
// inactive.
func NewRun(g *dag.TaskGraph, id, trigger string, started time.Time) *Run {
	r := &Run{
		id:      id,
		trigger: trigger,
		started: started,
		state:   StateRunning,
		graph:   g,
	}
	r.nodes, r.nodeIdx = freshNodes(g)
	r.edges, r.edgeIdx = freshEdges(g)
	return r
}

func freshNodes(g *dag.TaskGraph) ([]*node.Node, map[string]int) {
	specs := g.Nodes()
	nodes := make([]*node.Node, len(specs))
	idx := make(map[string]int, len(specs))
	for i, s := range specs {
		nodes[i] = node.New(s.ID, s.Label, s.Description)
		idx[s.ID] = i
	}
	return nodes, idx
}

func freshEdges(g *dag.TaskGraph) ([]node.Edge, map[string]int) {
	specs := g.Edges()
	edges := make([]node.Edge, len(specs))
	idx := make(map[string]int, len(specs))
	for i, s := range specs {
		edges[i] = node.Edge{ID: s.ID, Source: s.Source, Target: s.Target}
		idx[s.ID] = i
	}
	return edges, idx
}

func (r *Run) ID() string            { return r.id }
func (r *Run) Trigger() string       { return r.trigger }
func (r *Run) Started() time.Time    { return r.started }
func (r *Run) State() State          { return r.state }
func (r *Run) Graph() *dag.TaskGraph { return r.graph }
func (r *Run) Cancelled() bool       { return r.state == StateCancelled }
func (r *Run) Active() bool          { return r.state == StateRunning }

func (r *Run) Elapsed(now time.Time) time.Duration { return now.Sub(r.started) }

// Complete marks a running run as finished. It reports false if the run had
// already ended.
func (r *Run) Complete() bool {
	if r.state != StateRunning {
		return false
	}
	r.state = StateCompleted
	return true
}

// Cancel sets the cancellation flag. It reports false if the run had already
// ended.
func (r *Run) Cancel() bool {
	if r.state != StateRunning {
		return false
	}
	r.state = StateCancelled
	return true
}

// Status returns a node's current status.
func (r *Run) Status(id string) (node.Status, bool) {
	n, ok := r.node(id)
	if !ok {
		return node.Pending, false
	}
	return n.Status, true
}

// MarkRunning moves a node from Pending to Running.
func (r *Run) MarkRunning(id string) (node.Status, error) {
	return r.transition(id, node.Running)
}

// MarkSucceeded moves a node from Running to Success.
func (r *Run) MarkSucceeded(id string) (node.Status, error) {
	return r.transition(id, node.Success)
}

// MarkFailed moves a node from Running to Error.
func (r *Run) MarkFailed(id string) (node.Status, error) {
	return r.transition(id, node.Error)
}

func (r *Run) transition(id string, to node.Status) (node.Status, error) {
	n, ok := r.node(id)
	if !ok {
		return node.Pending, fmt.Errorf("run %s: unknown node %q", r.id, id)
	}
	return n.Transition(to)
}

// StatusChange records a node that moved during a bulk reset.
type StatusChange struct {
	NodeID string
	Old    node.Status
}

// ResetNodes returns every node to Pending and reports the ones that were
// not already Pending, in declaration order. Logs are kept.
func (r *Run) ResetNodes() []StatusChange {
	var changed []StatusChange
	for _, n := range r.nodes {
		if n.Status == node.Pending {
			continue
		}
		changed = append(changed, StatusChange{NodeID: n.ID, Old: n.Status})
		n.Status = node.Pending
	}
	return changed
}

// ActivateIncident activates every edge touching the node and returns the ids
// of the edges that were inactive before, in declaration order.
func (r *Run) ActivateIncident(id string) []string {
	var flipped []string
	for i := range r.edges {
		e := &r.edges[i]
		if e.Active || !e.Touches(id) {
			continue
		}
		e.Active = true
		flipped = append(flipped, e.ID)
	}
	return flipped
}

// DeactivateAll clears every active edge and returns the ids that changed.
func (r *Run) DeactivateAll() []string {
	var flipped []string
	for i := range r.edges {
		if !r.edges[i].Active {
			continue
		}
		r.edges[i].Active = false
		flipped = append(flipped, r.edges[i].ID)
	}
	return flipped
}

// EdgeActive reports whether an edge is currently active.
func (r *Run) EdgeActive(id string) bool {
	i, ok := r.edgeIdx[id]
	return ok && r.edges[i].Active
}

// ActiveEdges returns the ids of active edges in declaration order.
func (r *Run) ActiveEdges() []string {
	var out []string
	for _, e := range r.edges {
		if e.Active {
			out = append(out, e.ID)
		}
	}
	return out
}

// RunningNodes returns the ids of nodes currently Running.
func (r *Run) RunningNodes() []string {
	var out []string
	for _, n := range r.nodes {
		if n.Status == node.Running {
			out = append(out, n.ID)
		}
	}
	return out
}

// NodeIDs returns every node id in declaration order.
func (r *Run) NodeIDs() []string {
	out := make([]string, len(r.nodes))
	for i, n := range r.nodes {
		out[i] = n.ID
	}
	return out
}

// AppendNodeLog adds a line to a node's own log.
func (r *Run) AppendNodeLog(id, line string) error {
	n, ok := r.node(id)
	if !ok {
		return fmt.Errorf("run %s: unknown node %q", r.id, id)
	}
	n.AppendLog(line)
	return nil
}

func (r *Run) node(id string) (*node.Node, bool) {
	i, ok := r.nodeIdx[id]
	if !ok {
		return nil, false
	}
	return r.nodes[i], true
}
