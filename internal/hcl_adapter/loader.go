package hcl_adapter

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/specialistvlad/flowsim/internal/config"
	"github.com/specialistvlad/flowsim/internal/ctxlog"
	"github.com/specialistvlad/flowsim/internal/fsutil"
)

//go:embed default.hcl
var defaultHCL []byte

// DefaultFilename is the name the built-in configuration is parsed under.
const DefaultFilename = "default.hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	env map[string]string
}

var _ config.Loader = (*Loader)(nil)

// LoaderOption customises a Loader.
type LoaderOption func(*Loader)

// WithEnv replaces the process environment exposed as `env`.
func WithEnv(env map[string]string) LoaderOption {
	return func(l *Loader) { l.env = env }
}

// NewLoader creates a new HCL configuration loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.env == nil {
		l.env = environ()
	}
	return l
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}

// Load merges the built-in configuration and every .hcl file under paths.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := config.Default()
	parser := hclparse.NewParser()
	evalCtx := newEvalContext(l.env)

	builtin, diags := parser.ParseHCL(defaultHCL, DefaultFilename)
	if diags.HasErrors() {
		// The embedded file ships with the binary; failing here is a programmer error.
		panic(fmt.Sprintf("parsing built-in configuration: %s", diags))
	}
	if err := l.apply(ctx, model, builtin, evalCtx); err != nil {
		panic(fmt.Sprintf("applying built-in configuration: %s", err))
	}

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		if err := l.apply(ctx, model, hclFile, evalCtx); err != nil {
			return nil, fmt.Errorf("failed to load HCL file %s: %w", file, err)
		}
	}

	logger.Debug("HCL loading complete.", "files", len(hclFiles), "workflow", model.Workflow.Name, "nodes", len(model.Workflow.Nodes))
	return model, nil
}

// LoadBytes merges a single in-memory HCL document over the defaults.
func (l *Loader) LoadBytes(ctx context.Context, src []byte, filename string) (*config.Model, error) {
	model, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL %s: %w", filename, diags)
	}
	if err := l.apply(ctx, model, f, newEvalContext(l.env)); err != nil {
		return nil, fmt.Errorf("failed to load HCL %s: %w", filename, err)
	}
	return model, nil
}

func (l *Loader) apply(ctx context.Context, model *config.Model, f *hcl.File, evalCtx *hcl.EvalContext) error {
	content, _, diags := f.Body.PartialContent(rootSchema)
	if diags.HasErrors() {
		return diags
	}
	if diags := findDuplicateBlocks(content.Blocks, singletonBlocks...); diags.HasErrors() {
		return diags
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return diags
	}

	if len(root.Workflows) == 1 {
		wf, err := l.translateWorkflow(ctx, root.Workflows[0], model.Workflow, evalCtx)
		if err != nil {
			return err
		}
		model.Workflow = wf
	}
	if len(root.Servers) == 1 {
		if err := l.applyServer(ctx, &model.Server, root.Servers[0], evalCtx); err != nil {
			return err
		}
	}
	if len(root.Analyses) == 1 {
		if err := l.applyAnalysis(ctx, &model.Analysis, root.Analyses[0], evalCtx); err != nil {
			return err
		}
	}
	if len(root.NATS) == 1 {
		if err := l.applyNATS(ctx, &model.NATS, root.NATS[0], evalCtx); err != nil {
			return err
		}
	}
	if len(root.Activity) == 1 {
		if err := l.applyActivity(ctx, &model.Activity, root.Activity[0], evalCtx); err != nil {
			return err
		}
	}
	return nil
}

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "workflow", LabelNames: []string{"name"}},
		{Type: "server"},
		{Type: "analysis"},
		{Type: "nats"},
		{Type: "activity"},
	},
}

// findAllHCLFiles returns every .hcl file under paths in load order.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	return fsutil.CollectFiles(paths, ".hcl")
}
