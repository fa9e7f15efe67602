package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Workflows []*Workflow      `hcl:"workflow,block"`
	Servers   []*ServerBlock   `hcl:"server,block"`
	Analyses  []*AnalysisBlock `hcl:"analysis,block"`
	NATS      []*NATSBlock     `hcl:"nats,block"`
	Activity  []*ActivityBlock `hcl:"activity,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

// singletonBlocks may appear at most once per file.
var singletonBlocks = []string{"workflow", "server", "analysis", "nats", "activity"}

// Workflow is the HCL representation of a `workflow "<name>"` block.
type Workflow struct {
	Name   string       `hcl:"name,label"`
	Timing *TimingBlock `hcl:"timing,block"`
	Nodes  []*NodeBlock `hcl:"node,block"`
	Edges  []*EdgeBlock `hcl:"edge,block"`
}

// TimingBlock holds duration strings such as "2s".
type TimingBlock struct {
	Dwell   hcl.Expression `hcl:"dwell,optional"`
	Stagger hcl.Expression `hcl:"stagger,optional"`
}

// NodeBlock is the HCL representation of a `node "<id>"` block.
type NodeBlock struct {
	ID          string         `hcl:"id,label"`
	Label       hcl.Expression `hcl:"label,optional"`
	Description hcl.Expression `hcl:"description,optional"`
	DependsOn   hcl.Expression `hcl:"depends_on,optional"`
}

// EdgeBlock is the HCL representation of an `edge "<id>"` block.
type EdgeBlock struct {
	ID   string         `hcl:"id,label"`
	From hcl.Expression `hcl:"from"`
	To   hcl.Expression `hcl:"to"`
}

// ServerBlock configures the HTTP listener.
type ServerBlock struct {
	Listen hcl.Expression `hcl:"listen,optional"`
}

// AnalysisBlock configures the analysis service client.
type AnalysisBlock struct {
	URL     hcl.Expression `hcl:"url,optional"`
	Timeout hcl.Expression `hcl:"timeout,optional"`
}

// NATSBlock configures the event bus bridge.
type NATSBlock struct {
	URL           hcl.Expression `hcl:"url,optional"`
	SubjectPrefix hcl.Expression `hcl:"subject_prefix,optional"`
}

// ActivityBlock tunes the activity feed.
type ActivityBlock struct {
	Interval     hcl.Expression `hcl:"interval,optional"`
	Capacity     hcl.Expression `hcl:"capacity,optional"`
	PrefixLength hcl.Expression `hcl:"prefix_length,optional"`
	Seed         hcl.Expression `hcl:"seed,optional"`
}
