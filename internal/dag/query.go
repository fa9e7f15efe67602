package dag

// Nodes returns the node declarations in declaration order.
func (g *TaskGraph) Nodes() []NodeSpec {
	out := make([]NodeSpec, len(g.nodes))
	for i, n := range g.nodes {
		n.Description = append([]string(nil), n.Description...)
		out[i] = n
	}
	return out
}

// Edges returns the edge declarations, each with its resolved id.
func (g *TaskGraph) Edges() []EdgeSpec {
	return append([]EdgeSpec(nil), g.edges...)
}

// Node looks up a node declaration by id.
func (g *TaskGraph) Node(id string) (NodeSpec, bool) {
	i, ok := g.index[id]
	if !ok {
		return NodeSpec{}, false
	}
	n := g.nodes[i]
	n.Description = append([]string(nil), n.Description...)
	return n, true
}

// Len returns the number of nodes.
func (g *TaskGraph) Len() int { return len(g.nodes) }

// Layers returns the node ids of every layer, layer 0 first.
func (g *TaskGraph) Layers() [][]string {
	out := make([][]string, len(g.layers))
	for d, members := range g.layers {
		out[d] = g.ids(members)
	}
	return out
}

// LayerOf returns the layer index of a node.
func (g *TaskGraph) LayerOf(id string) (int, bool) {
	i, ok := g.index[id]
	if !ok {
		return 0, false
	}
	return g.layer[i], true
}

// Predecessors returns the direct dependencies of a node.
func (g *TaskGraph) Predecessors(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.ids(g.preds[i])
}

// Successors returns the nodes that directly depend on a node.
func (g *TaskGraph) Successors(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.ids(g.succs[i])
}

// IncidentEdges returns the ids of every edge with the node as an endpoint,
// in edge declaration order.
func (g *TaskGraph) IncidentEdges(id string) []string {
	var out []string
	for _, e := range g.edges {
		if e.Source == id || e.Target == id {
			out = append(out, e.ID)
		}
	}
	return out
}

// Roots returns layer 0.
func (g *TaskGraph) Roots() []string {
	return g.ids(g.layers[0])
}

func (g *TaskGraph) ids(idx []int) []string {
	out := make([]string, len(idx))
	for k, i := range idx {
		out[k] = g.nodes[i].ID
	}
	return out
}
