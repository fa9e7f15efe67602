package dag

import (
	"sort"

	"github.com/specialistvlad/flowsim/internal/node"
)

// Build validates the declared nodes and edges and computes dependency
// layers. It rejects empty graphs, blank or duplicate ids, edges that
// reference unknown nodes, self loops, duplicate edges, graphs without a root
// and any cycle. No graph is returned when an error is.
func Build(nodes []NodeSpec, edges []EdgeSpec) (*TaskGraph, error) {
	if len(nodes) == 0 {
		return nil, invalidf("no nodes")
	}

	g := &TaskGraph{
		nodes: make([]NodeSpec, 0, len(nodes)),
		edges: make([]EdgeSpec, 0, len(edges)),
		index: make(map[string]int, len(nodes)),
	}

	for _, n := range nodes {
		if n.ID == "" {
			return nil, invalidf("node id is required")
		}
		if _, exists := g.index[n.ID]; exists {
			return nil, invalidf("duplicate node id %q", n.ID)
		}
		n.Description = append([]string(nil), n.Description...)
		g.index[n.ID] = len(g.nodes)
		g.nodes = append(g.nodes, n)
	}

	g.preds = make([][]int, len(g.nodes))
	g.succs = make([][]int, len(g.nodes))

	seenPairs := make(map[[2]int]struct{}, len(edges))
	seenIDs := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		from, okFrom := g.index[e.Source]
		if !okFrom {
			return nil, danglingf("edge %s references unknown source %q", edgeLabel(e), e.Source)
		}
		to, okTo := g.index[e.Target]
		if !okTo {
			return nil, danglingf("edge %s references unknown target %q", edgeLabel(e), e.Target)
		}
		if from == to {
			return nil, cycleError([]string{e.Source})
		}
		if e.ID == "" {
			e.ID = node.EdgeID(e.Source, e.Target)
		}
		pair := [2]int{from, to}
		if _, dup := seenPairs[pair]; dup {
			return nil, invalidf("duplicate edge %q -> %q", e.Source, e.Target)
		}
		if _, dup := seenIDs[e.ID]; dup {
			return nil, invalidf("duplicate edge id %q", e.ID)
		}
		seenPairs[pair] = struct{}{}
		seenIDs[e.ID] = struct{}{}

		g.edges = append(g.edges, e)
		g.preds[to] = append(g.preds[to], from)
		g.succs[from] = append(g.succs[from], to)
	}

	for i := range g.nodes {
		sort.Ints(g.preds[i])
		sort.Ints(g.succs[i])
	}

	if err := g.computeLayers(); err != nil {
		return nil, err
	}
	return g, nil
}

// computeLayers levels the graph Kahn-style, one generation at a time.
func (g *TaskGraph) computeLayers() error {
	indeg := make([]int, len(g.nodes))
	var current []int
	for i := range g.nodes {
		indeg[i] = len(g.preds[i])
		if indeg[i] == 0 {
			current = append(current, i)
		}
	}
	if len(current) == 0 {
		return noRootError()
	}

	g.layer = make([]int, len(g.nodes))
	placed := 0
	for depth := 0; len(current) > 0; depth++ {
		g.layers = append(g.layers, current)
		var next []int
		for _, u := range current {
			g.layer[u] = depth
			placed++
			for _, v := range g.succs[u] {
				indeg[v]--
				if indeg[v] == 0 {
					next = append(next, v)
				}
			}
		}
		sort.Ints(next)
		current = next
	}

	if placed < len(g.nodes) {
		var stuck []string
		for i, d := range indeg {
			if d > 0 {
				stuck = append(stuck, g.nodes[i].ID)
			}
		}
		g.layers = nil
		return cycleError(stuck)
	}
	return nil
}

func edgeLabel(e EdgeSpec) string {
	if e.ID != "" {
		return e.ID
	}
	return node.EdgeID(e.Source, e.Target)
}
