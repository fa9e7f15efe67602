package hcl_adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/specialistvlad/flowsim/internal/ctxlog"
)

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder populates omitted optional fields with zero-width
// expressions, so a nil check alone is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	isDefined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", r.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

// newEvalContext exposes env as the `env` object.
func newEvalContext(env map[string]string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vars[k] = cty.StringVal(v)
	}
	envVal := cty.EmptyObjectVal
	if len(vars) > 0 {
		envVal = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{Variables: map[string]cty.Value{"env": envVal}}
}

// evalAs evaluates expr, converts it to ty and decodes it into target.
func evalAs(expr hcl.Expression, evalCtx *hcl.EvalContext, ty cty.Type, target any, attrName string) error {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return fmt.Errorf("evaluating %s: %w", attrName, diags)
	}
	if val.IsNull() {
		return fmt.Errorf("%s must not be null", attrName)
	}
	conv, err := convert.Convert(val, ty)
	if err != nil {
		return fmt.Errorf("%s: %w", attrName, err)
	}
	if err := gocty.FromCtyValue(conv, target); err != nil {
		return fmt.Errorf("%s: %w", attrName, err)
	}
	return nil
}

func evalString(expr hcl.Expression, evalCtx *hcl.EvalContext, attrName string) (string, error) {
	var s string
	err := evalAs(expr, evalCtx, cty.String, &s, attrName)
	return s, err
}

func evalStringList(expr hcl.Expression, evalCtx *hcl.EvalContext, attrName string) ([]string, error) {
	var out []string
	err := evalAs(expr, evalCtx, cty.List(cty.String), &out, attrName)
	return out, err
}

func evalInt(expr hcl.Expression, evalCtx *hcl.EvalContext, attrName string) (int, error) {
	var n int
	err := evalAs(expr, evalCtx, cty.Number, &n, attrName)
	return n, err
}

func evalUint64(expr hcl.Expression, evalCtx *hcl.EvalContext, attrName string) (uint64, error) {
	var n uint64
	err := evalAs(expr, evalCtx, cty.Number, &n, attrName)
	return n, err
}

func evalDuration(expr hcl.Expression, evalCtx *hcl.EvalContext, attrName string) (time.Duration, error) {
	s, err := evalString(expr, evalCtx, attrName)
	if err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", attrName, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", attrName, d)
	}
	return d, nil
}
