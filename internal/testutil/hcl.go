package testutil

import (
	"fmt"
	"strings"
)

// Node describes one node for WorkflowHCL.
type Node struct {
	ID        string
	DependsOn []string
}

// WorkflowHCL renders a workflow block with the given timing. Labels default
// to the node id and every node gets a one-line description.
func WorkflowHCL(name, dwell, stagger string, nodes ...Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "workflow %q {\n", name)
	fmt.Fprintf(&b, "  timing {\n    dwell   = %q\n    stagger = %q\n  }\n", dwell, stagger)
	for _, n := range nodes {
		fmt.Fprintf(&b, "  node %q {\n", n.ID)
		fmt.Fprintf(&b, "    label       = %q\n", n.ID)
		fmt.Fprintf(&b, "    description = [%q]\n", "• "+n.ID)
		if len(n.DependsOn) > 0 {
			quoted := make([]string, len(n.DependsOn))
			for i, d := range n.DependsOn {
				quoted[i] = fmt.Sprintf("%q", d)
			}
			fmt.Fprintf(&b, "    depends_on  = [%s]\n", strings.Join(quoted, ", "))
		}
		b.WriteString("  }\n")
	}
	b.WriteString("}\n")
	return b.String()
}
