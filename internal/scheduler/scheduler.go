package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/specialistvlad/flowsim/internal/ctxlog"
	"github.com/specialistvlad/flowsim/internal/dag"
	"github.com/specialistvlad/flowsim/internal/eventloop"
	"github.com/specialistvlad/flowsim/internal/events"
	"github.com/specialistvlad/flowsim/internal/graph"
	"github.com/specialistvlad/flowsim/internal/idgen"
	"github.com/specialistvlad/flowsim/internal/node"
)

// Cancellation reasons carried by RunCancelled.
const (
	ReasonCancelled  = "cancelled"
	ReasonSuperseded = "superseded"
	ReasonCleared    = "cleared"
)

// Scheduler drives runs of a single TaskGraph.
type Scheduler struct {
	ctx    context.Context
	graph  *dag.TaskGraph
	layers [][]string
	loop   *eventloop.Loop
	stream *events.Stream
	cfg    Config
	newID  func() string

	run    *graph.Run
	handle *RunHandle
	timer  *eventloop.Timer
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithRunIDs replaces the nanoid run id generator.
func WithRunIDs(fn func() string) Option {
	return func(s *Scheduler) { s.newID = fn }
}

// New creates a scheduler. A nil graph, loop or stream is a programmer error
// and panics; bad timing is reported as ErrInvalidTiming.
func New(ctx context.Context, g *dag.TaskGraph, loop *eventloop.Loop, stream *events.Stream, cfg Config, opts ...Option) (*Scheduler, error) {
	if g == nil || loop == nil || stream == nil {
		panic("scheduler: graph, loop and stream are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{
		ctx:    ctx,
		graph:  g,
		layers: g.Layers(),
		loop:   loop,
		stream: stream,
		cfg:    cfg,
		newID:  idgen.MustRunID,
	}
	for _, opt := range opts {
		opt(s)
	}
	ctxlog.FromContext(ctx).Debug("Scheduler created.", "nodes", g.Len(), "layers", len(s.layers), "dwell", cfg.Dwell, "stagger", cfg.Stagger)
	return s, nil
}

// Config returns the timing in use.
func (s *Scheduler) Config() Config { return s.cfg }

// Graph returns the graph being scheduled.
func (s *Scheduler) Graph() *dag.TaskGraph { return s.graph }

// Start begins a new run for trigger, ending whatever run is displayed. An
// empty or all-whitespace trigger is a Clear.
//
// Subscribers may call back into the scheduler. Once a callback replaces or
// ends a run, nothing more is emitted for that run.
func (s *Scheduler) Start(trigger string) *RunHandle {
	if strings.TrimSpace(trigger) == "" {
		s.Clear()
		return nil
	}
	prev := s.run
	s.endCurrent()
	if s.run != prev {
		// A subscriber started another run while this one was ending.
		return s.Start(trigger)
	}

	now := s.loop.Now()
	id := s.newID()
	run := graph.NewRun(s.graph, id, trigger, now)
	h := newHandle(id)
	s.run, s.handle = run, h

	ctxlog.FromContext(s.ctx).Info("Run started.", "run_id", id, "trigger", trigger)
	s.publish(events.RunStarted{Meta: s.meta(run), Trigger: trigger})
	s.startLayer(run, 0, now)
	return h
}

// Cancel aborts the active run behind h. Nodes keep their statuses; edges
// are switched off.
func (s *Scheduler) Cancel(h *RunHandle) bool {
	if h == nil || h != s.handle || s.run == nil || !s.run.Active() {
		return false
	}
	s.cancel(ReasonCancelled)
	return true
}

// Clear cancels any active run, returns every node to Pending, switches off
// every edge and drops the run. With nothing displayed it does nothing.
func (s *Scheduler) Clear() {
	run := s.run
	if run == nil {
		return
	}
	if run.Active() {
		s.cancel(ReasonCleared)
		if run != s.run {
			return
		}
	}
	for _, c := range run.ResetNodes() {
		s.publish(events.NodeStatusChanged{Meta: s.meta(run), NodeID: c.NodeID, Old: c.Old, New: node.Pending})
		if run != s.run {
			return
		}
	}
	if !s.deactivateEdges(run) {
		return
	}
	s.publish(events.RunReset{Meta: s.meta(run)})
	if run != s.run {
		return
	}
	ctxlog.FromContext(s.ctx).Info("Workflow cleared.", "run_id", run.ID())

	s.run = nil
	s.handle = nil
}

// Snapshot returns the displayed state, or the idle graph when no run exists.
func (s *Scheduler) Snapshot() graph.Snapshot {
	if s.run == nil {
		return graph.IdleSnapshot(s.graph)
	}
	return s.run.Snapshot()
}

// Current returns the displayed run, finished or not, or nil.
func (s *Scheduler) Current() *graph.Run { return s.run }

// ActiveRun returns the run in progress, or nil.
func (s *Scheduler) ActiveRun() *graph.Run {
	if s.run == nil || !s.run.Active() {
		return nil
	}
	return s.run
}

// Handle returns the handle of the displayed run, or nil.
func (s *Scheduler) Handle() *RunHandle { return s.handle }

// endCurrent stops the displayed run before a new one replaces it.
func (s *Scheduler) endCurrent() {
	if s.run == nil {
		return
	}
	if s.run.Active() {
		s.cancel(ReasonSuperseded)
		return
	}
	s.deactivateEdges(s.run)
}

func (s *Scheduler) cancel(reason string) {
	run, h := s.run, s.handle
	run.Cancel()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	defer h.finish(OutcomeCancelled)
	if !s.deactivateEdges(run) {
		return
	}
	s.publish(events.RunCancelled{Meta: s.meta(run), Reason: reason})
	ctxlog.FromContext(s.ctx).Info("Run cancelled.", "run_id", run.ID(), "reason", reason)
}

// deactivateEdges switches every edge of run off. It reports false when a
// subscriber replaced the run part way through.
func (s *Scheduler) deactivateEdges(run *graph.Run) bool {
	for _, id := range run.DeactivateAll() {
		s.publish(events.EdgeDeactivated{Meta: s.meta(run), EdgeID: id})
		if run != s.run {
			return false
		}
	}
	return true
}

// live reports whether run is displayed and still in progress.
func (s *Scheduler) live(run *graph.Run) bool {
	return run == s.run && run.Active()
}

// startLayer moves layer d to Running and arms its dwell timer.
func (s *Scheduler) startLayer(run *graph.Run, d int, layerStart time.Time) {
	if !s.live(run) {
		return
	}
	logger := ctxlog.FromContext(s.ctx)
	logger.Debug("Layer started.", "run_id", run.ID(), "layer", d, "nodes", s.layers[d])

	for _, id := range s.layers[d] {
		s.transition(run, id, node.Running)
		if !s.live(run) {
			return
		}
	}
	for _, id := range s.layers[d] {
		for _, eid := range run.ActivateIncident(id) {
			s.publish(events.EdgeActivated{Meta: s.meta(run), EdgeID: eid})
			if !s.live(run) {
				return
			}
		}
	}

	s.timer = s.loop.AfterFunc(s.cfg.Dwell, func() {
		s.finishLayer(run, d, layerStart)
	})
}

// finishLayer moves layer d to Success, then either completes the run or
// schedules the next layer relative to this layer's start.
func (s *Scheduler) finishLayer(run *graph.Run, d int, layerStart time.Time) {
	if !s.live(run) {
		return
	}
	h := s.handle
	s.timer = nil
	for _, id := range s.layers[d] {
		s.transition(run, id, node.Success)
		if !s.live(run) {
			return
		}
	}

	if d == len(s.layers)-1 {
		run.Complete()
		elapsed := run.Elapsed(s.loop.Now())
		s.publish(events.RunCompleted{Meta: s.meta(run), Elapsed: elapsed})
		h.finish(OutcomeCompleted)
		ctxlog.FromContext(s.ctx).Info("Run completed.", "run_id", run.ID(), "elapsed", elapsed)
		return
	}

	next := layerStart.Add(s.cfg.Stagger)
	s.timer = s.loop.AfterFunc(next.Sub(s.loop.Now()), func() {
		s.startLayer(run, d+1, next)
	})
}

func (s *Scheduler) transition(run *graph.Run, id string, to node.Status) {
	var (
		old node.Status
		err error
	)
	switch to {
	case node.Running:
		old, err = run.MarkRunning(id)
	case node.Success:
		old, err = run.MarkSucceeded(id)
	default:
		old, err = run.MarkFailed(id)
	}
	if err != nil {
		// Layers are disjoint and visited once, so this is a scheduler bug.
		panic(err)
	}
	s.publish(events.NodeStatusChanged{Meta: s.meta(run), NodeID: id, Old: old, New: to})
}

func (s *Scheduler) meta(run *graph.Run) events.Meta {
	return events.Meta{RunID: run.ID(), Timestamp: s.loop.Now()}
}

func (s *Scheduler) publish(e events.Event) {
	s.stream.Publish(e)
}
