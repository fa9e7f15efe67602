package activitylog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/specialistvlad/flowsim/internal/ctxlog"
	"github.com/specialistvlad/flowsim/internal/eventloop"
	"github.com/specialistvlad/flowsim/internal/events"
	"github.com/specialistvlad/flowsim/internal/graph"
	"github.com/specialistvlad/flowsim/internal/node"
)

// DefaultInterval is the tick cadence.
const DefaultInterval = 3 * time.Second

// RunSource exposes the run in progress. *scheduler.Scheduler satisfies it.
type RunSource interface {
	ActiveRun() *graph.Run
}

// Config tunes a Generator. Zero fields take their defaults; negative ones
// are rejected.
type Config struct {
	Interval     time.Duration // 0 means DefaultInterval
	PrefixLength int           // 0 means DefaultPrefixLength
	Weights      Weights       // zero value means DefaultWeights
	// Seed makes the severity and agent draws reproducible. Zero picks a
	// random seed.
	Seed uint64
}

func (c Config) withDefaults() Config {
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	if c.PrefixLength == 0 {
		c.PrefixLength = DefaultPrefixLength
	}
	if c.Weights == (Weights{}) {
		c.Weights = DefaultWeights
	}
	return c
}

// Generator ticks while a run is active. It arms itself on RunStarted and
// disarms on RunCompleted, RunCancelled and RunReset.
type Generator struct {
	ctx    context.Context
	loop   *eventloop.Loop
	stream *events.Stream
	runs   RunSource
	feed   *Feed
	cfg    Config
	rng    *rand.Rand

	sub     *events.Subscription
	ticker  *eventloop.Timer
	pending *eventloop.Timer
	closing *eventloop.Timer
	runID   string
	trigger string
}

// Option customises a Generator.
type Option func(*Generator)

// WithSource replaces the seeded PCG source.
func WithSource(src rand.Source) Option {
	return func(g *Generator) { g.rng = rand.New(src) }
}

// NewGenerator subscribes a generator to stream. It must be called from the
// event loop.
func NewGenerator(ctx context.Context, loop *eventloop.Loop, stream *events.Stream, runs RunSource, feed *Feed, cfg Config, opts ...Option) (*Generator, error) {
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("activity interval must not be negative, got %s", cfg.Interval)
	}
	cfg = cfg.withDefaults()
	if cfg.PrefixLength < 0 {
		return nil, errors.New("activity prefix length must not be negative")
	}
	if err := cfg.Weights.validate(); err != nil {
		return nil, err
	}
	if feed == nil {
		feed = NewFeed(DefaultCapacity)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	g := &Generator{
		ctx:    ctx,
		loop:   loop,
		stream: stream,
		runs:   runs,
		feed:   feed,
		cfg:    cfg,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.sub = stream.Subscribe(g.onEvent)
	return g, nil
}

// Feed returns the feed the generator writes to.
func (g *Generator) Feed() *Feed { return g.feed }

// Armed reports whether a tick is scheduled.
func (g *Generator) Armed() bool { return g.ticker.Pending() }

// Close stops ticking and unsubscribes from the stream.
func (g *Generator) Close() {
	g.disarm()
	g.closing.Stop()
	g.sub.Unsubscribe()
}

func (g *Generator) onEvent(e events.Event) {
	switch ev := e.(type) {
	case events.RunStarted:
		g.disarm()
		g.runID = ev.RunID
		g.trigger = ev.Trigger
		g.ticker = g.loop.AfterFunc(g.cfg.Interval, g.tick)
	case events.RunCompleted:
		if ev.RunID != g.runID {
			return
		}
		g.disarm()
		// Published on the next turn so every subscriber sees RunCompleted first.
		runID, trigger := g.runID, g.trigger
		g.closing = g.loop.AfterFunc(0, func() { g.recordCompletion(runID, trigger) })
	case events.RunCancelled:
		g.disarm()
	case events.RunReset:
		g.disarm()
		g.closing.Stop()
	}
}

func (g *Generator) disarm() {
	g.ticker.Stop()
	g.pending.Stop()
	g.ticker = nil
	g.pending = nil
}

func (g *Generator) activeRun() *graph.Run {
	run := g.runs.ActiveRun()
	if run == nil || run.ID() != g.runID {
		return nil
	}
	return run
}

func (g *Generator) tick() {
	g.ticker = nil
	if g.activeRun() == nil {
		return
	}
	g.ticker = g.loop.AfterFunc(g.cfg.Interval, g.tick)
	// Layer transitions due at this same instant are applied first.
	g.pending = g.loop.AfterFunc(0, g.emit)
}

func (g *Generator) emit() {
	g.pending = nil
	run := g.activeRun()
	if run == nil {
		return
	}

	candidates := run.RunningNodes()
	if len(candidates) == 0 {
		candidates = run.NodeIDs()
	}
	nodeID := candidates[g.rng.IntN(len(candidates))]
	msg := ProcessingMessage(g.trigger, g.cfg.PrefixLength)
	sev := g.cfg.Weights.draw(g.rng)

	if err := run.AppendNodeLog(nodeID, msg); err != nil {
		ctxlog.FromContext(g.ctx).Error("Failed to append node log.", "node_id", nodeID, "error", err)
	}
	g.append(run.ID(), nodeID, msg, sev)
}

func (g *Generator) recordCompletion(runID, trigger string) {
	g.append(runID, node.SystemOrigin, CompletedMessage(trigger, g.cfg.PrefixLength), node.SeveritySuccess)
}

func (g *Generator) append(runID, nodeID, msg string, sev node.Severity) {
	now := g.loop.Now()
	entry := g.feed.Add(now, nodeID, msg, sev)
	ctxlog.FromContext(g.ctx).Debug("Activity logged.", "run_id", runID, "agent", nodeID, "level", sev)
	g.stream.Publish(events.LogAppended{
		Meta:  events.Meta{RunID: runID, Timestamp: now},
		Entry: entry,
	})
}
