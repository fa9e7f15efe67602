package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/specialistvlad/flowsim/internal/config"
	"github.com/specialistvlad/flowsim/internal/ctxlog"
)

// translateWorkflow converts a workflow block. Timing attributes it leaves
// out are inherited from prev.
func (l *Loader) translateWorkflow(ctx context.Context, wf *Workflow, prev *config.Workflow, evalCtx *hcl.EvalContext) (*config.Workflow, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Translating workflow.", "name", wf.Name, "nodes", len(wf.Nodes), "edges", len(wf.Edges))

	out := &config.Workflow{Name: wf.Name}
	if prev != nil {
		out.Timing = prev.Timing
	}

	if wf.Timing != nil {
		if isExprDefined(ctx, wf.Timing.Dwell, "dwell") {
			d, err := evalDuration(wf.Timing.Dwell, evalCtx, "workflow timing dwell")
			if err != nil {
				return nil, err
			}
			out.Timing.Dwell = d
		}
		if isExprDefined(ctx, wf.Timing.Stagger, "stagger") {
			d, err := evalDuration(wf.Timing.Stagger, evalCtx, "workflow timing stagger")
			if err != nil {
				return nil, err
			}
			out.Timing.Stagger = d
		}
	}

	for _, nb := range wf.Nodes {
		n, err := l.translateNode(ctx, nb, evalCtx)
		if err != nil {
			return nil, err
		}
		out.Nodes = append(out.Nodes, n)
	}
	for _, eb := range wf.Edges {
		from, err := evalString(eb.From, evalCtx, fmt.Sprintf("edge %q from", eb.ID))
		if err != nil {
			return nil, err
		}
		to, err := evalString(eb.To, evalCtx, fmt.Sprintf("edge %q to", eb.ID))
		if err != nil {
			return nil, err
		}
		out.Edges = append(out.Edges, &config.Edge{ID: eb.ID, From: from, To: to})
	}
	return out, nil
}

func (l *Loader) translateNode(ctx context.Context, nb *NodeBlock, evalCtx *hcl.EvalContext) (*config.Node, error) {
	n := &config.Node{ID: nb.ID, Label: nb.ID}
	if isExprDefined(ctx, nb.Label, "label") {
		label, err := evalString(nb.Label, evalCtx, fmt.Sprintf("node %q label", nb.ID))
		if err != nil {
			return nil, err
		}
		n.Label = label
	}
	if isExprDefined(ctx, nb.Description, "description") {
		desc, err := evalStringList(nb.Description, evalCtx, fmt.Sprintf("node %q description", nb.ID))
		if err != nil {
			return nil, err
		}
		n.Description = desc
	}
	if isExprDefined(ctx, nb.DependsOn, "depends_on") {
		deps, err := evalStringList(nb.DependsOn, evalCtx, fmt.Sprintf("node %q depends_on", nb.ID))
		if err != nil {
			return nil, err
		}
		n.DependsOn = deps
	}
	return n, nil
}

func (l *Loader) applyServer(ctx context.Context, dst *config.Server, b *ServerBlock, evalCtx *hcl.EvalContext) error {
	if isExprDefined(ctx, b.Listen, "listen") {
		v, err := evalString(b.Listen, evalCtx, "server listen")
		if err != nil {
			return err
		}
		dst.Listen = v
	}
	return nil
}

func (l *Loader) applyAnalysis(ctx context.Context, dst *config.Analysis, b *AnalysisBlock, evalCtx *hcl.EvalContext) error {
	if isExprDefined(ctx, b.URL, "url") {
		v, err := evalString(b.URL, evalCtx, "analysis url")
		if err != nil {
			return err
		}
		dst.URL = v
	}
	if isExprDefined(ctx, b.Timeout, "timeout") {
		d, err := evalDuration(b.Timeout, evalCtx, "analysis timeout")
		if err != nil {
			return err
		}
		dst.Timeout = d
	}
	return nil
}

func (l *Loader) applyNATS(ctx context.Context, dst *config.NATS, b *NATSBlock, evalCtx *hcl.EvalContext) error {
	if isExprDefined(ctx, b.URL, "url") {
		v, err := evalString(b.URL, evalCtx, "nats url")
		if err != nil {
			return err
		}
		dst.URL = v
	}
	if isExprDefined(ctx, b.SubjectPrefix, "subject_prefix") {
		v, err := evalString(b.SubjectPrefix, evalCtx, "nats subject_prefix")
		if err != nil {
			return err
		}
		dst.SubjectPrefix = v
	}
	return nil
}

func (l *Loader) applyActivity(ctx context.Context, dst *config.Activity, b *ActivityBlock, evalCtx *hcl.EvalContext) error {
	if isExprDefined(ctx, b.Interval, "interval") {
		d, err := evalDuration(b.Interval, evalCtx, "activity interval")
		if err != nil {
			return err
		}
		dst.Interval = d
	}
	if isExprDefined(ctx, b.Capacity, "capacity") {
		n, err := evalInt(b.Capacity, evalCtx, "activity capacity")
		if err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("activity capacity must be positive, got %d", n)
		}
		dst.Capacity = n
	}
	if isExprDefined(ctx, b.PrefixLength, "prefix_length") {
		n, err := evalInt(b.PrefixLength, evalCtx, "activity prefix_length")
		if err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("activity prefix_length must be positive, got %d", n)
		}
		dst.PrefixLength = n
	}
	if isExprDefined(ctx, b.Seed, "seed") {
		n, err := evalUint64(b.Seed, evalCtx, "activity seed")
		if err != nil {
			return err
		}
		dst.Seed = n
	}
	return nil
}
