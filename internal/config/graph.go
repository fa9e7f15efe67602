package config

import (
	"errors"

	"github.com/specialistvlad/flowsim/internal/dag"
)

// ErrNoWorkflow is returned by Model.Graph when no workflow was configured.
var ErrNoWorkflow = errors.New("no workflow configured")

// Graph builds the configured workflow. Edges come from `edge` blocks first,
// then from each node's depends_on list, in declaration order.
func (m *Model) Graph() (*dag.TaskGraph, error) {
	if m.Workflow == nil {
		return nil, ErrNoWorkflow
	}
	return m.Workflow.Build()
}

// Build validates the workflow as a DAG.
func (w *Workflow) Build() (*dag.TaskGraph, error) {
	nodes := make([]dag.NodeSpec, 0, len(w.Nodes))
	for _, n := range w.Nodes {
		nodes = append(nodes, dag.NodeSpec{ID: n.ID, Label: n.Label, Description: n.Description})
	}

	edges := make([]dag.EdgeSpec, 0, len(w.Edges))
	for _, e := range w.Edges {
		edges = append(edges, dag.EdgeSpec{ID: e.ID, Source: e.From, Target: e.To})
	}
	for _, n := range w.Nodes {
		for _, dep := range n.DependsOn {
			edges = append(edges, dag.EdgeSpec{Source: dep, Target: n.ID})
		}
	}
	return dag.Build(nodes, edges)
}
