package dag

// Example returns the six-agent supply-chain workflow: a coordinator fans out
// to three analysis agents, and each of them feeds both result agents.
func Example() *TaskGraph {
	nodes := []NodeSpec{
		{ID: "coordinator", Label: "Coordinator Agent", Description: []string{"• Receives input params", "• Orchestrates Workflow"}},
		{ID: "demand", Label: "Demand Forecast agent", Description: []string{"• Analyzes market trends", "• Predicts future demand"}},
		{ID: "inventory", Label: "Inventory Monitoring agent", Description: []string{"• Track Live stock Levels", "• Flags low stock & discrepancies"}},
		{ID: "pricing", Label: "Pricing Optimization agent", Description: []string{"• Optimizes pricing strategy", "• Market competitive analysis"}},
		{ID: "final", Label: "Final Results Agent", Description: []string{"• Compiles final analysis", "• Generates comprehensive report"}},
		{ID: "downstream", Label: "Downstream Systems agent", Description: []string{"• Integrates with external systems", "• Publishes results"}},
	}
	edges := []EdgeSpec{
		{ID: "e1", Source: "coordinator", Target: "demand"},
		{ID: "e2", Source: "coordinator", Target: "inventory"},
		{ID: "e3", Source: "coordinator", Target: "pricing"},
		{ID: "e4", Source: "demand", Target: "final"},
		{ID: "e5", Source: "inventory", Target: "final"},
		{ID: "e6", Source: "pricing", Target: "final"},
		{ID: "e7", Source: "demand", Target: "downstream"},
		{ID: "e8", Source: "inventory", Target: "downstream"},
		{ID: "e9", Source: "pricing", Target: "downstream"},
	}
	g, err := Build(nodes, edges)
	if err != nil {
		// The literal above is fixed; failing here is a programmer error.
		panic(err)
	}
	return g
}
