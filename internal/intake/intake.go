// Package intake turns user input into scheduler triggers. It is the only
// path from other goroutines into the scheduler and hops onto the event loop
// for every call.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/flowsim/internal/analysis"
	"github.com/specialistvlad/flowsim/internal/ctxlog"
	"github.com/specialistvlad/flowsim/internal/eventloop"
	"github.com/specialistvlad/flowsim/internal/scheduler"
)

var (
	// ErrInvalidGoal is returned for goals missing a title or description.
	ErrInvalidGoal = errors.New("invalid goal")
	// ErrNoAnalyzer is returned by SubmitProduct when no analysis service is
	// configured.
	ErrNoAnalyzer = errors.New("analysis service not configured")
)

// Goal is a titled request.
type Goal struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validate requires a non-blank title and description.
func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidGoal)
	}
	if strings.TrimSpace(g.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidGoal)
	}
	return nil
}

// Text renders the goal as the trigger string.
func (g Goal) Text() string {
	return strings.TrimSpace(g.Title) + ": " + strings.TrimSpace(g.Description)
}

// Analyzer is the subset of *analysis.Client intake uses.
type Analyzer interface {
	Analyze(ctx context.Context, productID int) (*analysis.Result, error)
}

// Intake forwards triggers to a scheduler on its event loop.
type Intake struct {
	loop     *eventloop.Loop
	ctrl     scheduler.Controller
	analyzer Analyzer
}

// New creates an intake. analyzer may be nil.
func New(loop *eventloop.Loop, ctrl scheduler.Controller, analyzer Analyzer) *Intake {
	return &Intake{loop: loop, ctrl: ctrl, analyzer: analyzer}
}

// Submit starts a run for text. A blank text clears the workflow and returns
// a nil handle.
func (in *Intake) Submit(ctx context.Context, text string) (*scheduler.RunHandle, error) {
	var h *scheduler.RunHandle
	if err := in.loop.Do(ctx, func() { h = in.ctrl.Start(text) }); err != nil {
		return nil, fmt.Errorf("submitting trigger: %w", err)
	}
	if h == nil {
		ctxlog.FromContext(ctx).Debug("Blank trigger submitted, workflow cleared.")
	}
	return h, nil
}

// SubmitGoal validates g and starts a run for it.
func (in *Intake) SubmitGoal(ctx context.Context, g Goal) (*scheduler.RunHandle, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return in.Submit(ctx, g.Text())
}

// Clear stops any run and returns the workflow to idle.
func (in *Intake) Clear(ctx context.Context) error {
	_, err := in.Submit(ctx, "")
	return err
}

// Cancel aborts the run behind h. It reports false for stale handles.
func (in *Intake) Cancel(ctx context.Context, h *scheduler.RunHandle) (bool, error) {
	var ok bool
	if err := in.loop.Do(ctx, func() { ok = in.ctrl.Cancel(h) }); err != nil {
		return false, fmt.Errorf("cancelling run: %w", err)
	}
	return ok, nil
}

// CancelCurrent aborts whatever run is in progress. It reports false when
// nothing was running.
func (in *Intake) CancelCurrent(ctx context.Context) (bool, error) {
	var ok bool
	if err := in.loop.Do(ctx, func() { ok = in.ctrl.Cancel(in.ctrl.Handle()) }); err != nil {
		return false, fmt.Errorf("cancelling run: %w", err)
	}
	return ok, nil
}

// SubmitProduct asks the analysis service about a product and, when it
// answers, starts a run describing the result. Any analysis failure leaves
// the scheduler untouched.
func (in *Intake) SubmitProduct(ctx context.Context, productID int) (*analysis.Result, *scheduler.RunHandle, error) {
	if in.analyzer == nil {
		return nil, nil, ErrNoAnalyzer
	}
	res, err := in.analyzer.Analyze(ctx, productID)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Product analysis failed.", "product_id", productID, "error", err)
		return nil, nil, err
	}
	h, err := in.Submit(ctx, res.Trigger())
	if err != nil {
		return res, nil, err
	}
	return res, h, nil
}

// HasAnalyzer reports whether SubmitProduct can be used.
func (in *Intake) HasAnalyzer() bool { return in.analyzer != nil }
