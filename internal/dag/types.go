package dag

// NodeSpec declares a node. Declaration order is significant: it breaks ties
// inside a layer.
type NodeSpec struct {
	ID          string
	Label       string
	Description []string
}

// EdgeSpec declares that Target depends on Source. ID is optional; an empty
// ID becomes "source->target".
type EdgeSpec struct {
	ID     string
	Source string
	Target string
}

// TaskGraph is an immutable, validated DAG. It is safe for concurrent reads.
type TaskGraph struct {
	nodes []NodeSpec
	edges []EdgeSpec
	index map[string]int

	preds  [][]int // by node index, declaration order
	succs  [][]int // by node index, declaration order
	layer  []int   // by node index
	layers [][]int
}
