package dag

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidGraph covers structural problems that are not one of the
	// named kinds below: empty graphs, blank or duplicate ids, duplicate edges.
	ErrInvalidGraph = errors.New("invalid task graph")
	ErrCycle        = errors.New("cycle detected")
	ErrDanglingEdge = errors.New("dangling edge")
	ErrNoRoot       = errors.New("no root node")
)

// GraphError is returned by Build. Kind is one of the sentinel errors above
// and is reachable through errors.Is.
type GraphError struct {
	Kind  error
	Msg   string
	Nodes []string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

// Is reports a rootless graph as a cycle as well: a finite graph in which
// every node has an incoming edge always contains one.
func (e *GraphError) Is(target error) bool {
	return e.Kind == ErrNoRoot && target == ErrCycle
}

func invalidf(format string, args ...any) error {
	return &GraphError{Kind: ErrInvalidGraph, Msg: fmt.Sprintf(format, args...)}
}

func danglingf(format string, args ...any) error {
	return &GraphError{Kind: ErrDanglingEdge, Msg: fmt.Sprintf(format, args...)}
}

func cycleError(nodes []string) error {
	return &GraphError{
		Kind:  ErrCycle,
		Msg:   "unresolvable nodes: " + strings.Join(nodes, ", "),
		Nodes: nodes,
	}
}

func noRootError() error {
	return &GraphError{Kind: ErrNoRoot, Msg: "every node has an incoming edge"}
}
