package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/flowsim/internal/activitylog"
	"github.com/specialistvlad/flowsim/internal/analysis"
	"github.com/specialistvlad/flowsim/internal/config"
	"github.com/specialistvlad/flowsim/internal/ctxlog"
	"github.com/specialistvlad/flowsim/internal/dag"
	"github.com/specialistvlad/flowsim/internal/eventloop"
	"github.com/specialistvlad/flowsim/internal/events"
	"github.com/specialistvlad/flowsim/internal/intake"
	"github.com/specialistvlad/flowsim/internal/scheduler"
	"github.com/specialistvlad/flowsim/internal/server"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx    context.Context
	outW   io.Writer
	logger *slog.Logger
	config *Config
	model  *config.Model
	graph  *dag.TaskGraph

	loop      *eventloop.Loop
	stream    *events.Stream
	scheduler *scheduler.Scheduler
	generator *activitylog.Generator
	feed      *activitylog.Feed
	analyzer  *analysis.Client
	intake    *intake.Intake
	server    *server.Server

	httpServer *http.Server
	addr       chan string
}

// NewApp is the constructor for the main application. It loads configuration,
// builds the workflow graph and wires every component onto a fresh event
// loop. Invalid configuration is a startup error and panics.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.ConfigPaths...)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	applyOverrides(model, cfg)
	logger.Debug("Configuration loaded.", "listen", model.Server.Listen, "nats", model.NATS.URL != "", "analysis", model.Analysis.URL != "")

	g, err := model.Graph()
	if err != nil {
		panic(fmt.Errorf("failed to build workflow graph: %w", err))
	}
	logger.Debug("Workflow graph built.", "workflow", model.Workflow.Name, "nodes", g.Len(), "layers", len(g.Layers()))

	app := &App{
		ctx:    ctx,
		outW:   outW,
		logger: logger,
		config: cfg,
		model:  model,
		graph:  g,
		loop:   eventloop.New(eventloop.WallClock{}),
		stream: events.NewStream(events.DefaultHistory),
		addr:   make(chan string, 1),
	}
	if err := app.wire(); err != nil {
		panic(err)
	}
	return app
}

// applyOverrides lets command-line values win over file values.
func applyOverrides(m *config.Model, cfg *Config) {
	if cfg.Listen != "" {
		m.Server.Listen = cfg.Listen
	}
	if cfg.NATSURL != "" {
		m.NATS.URL = cfg.NATSURL
	}
	if cfg.AnalysisURL != "" {
		m.Analysis.URL = cfg.AnalysisURL
	}
	if cfg.Seed != 0 {
		m.Activity.Seed = cfg.Seed
	}
}

// wire builds the loop-confined components. It runs before the loop starts,
// so subscribing to the stream here is safe.
func (app *App) wire() error {
	var err error
	timing := scheduler.Config{
		Dwell:   app.model.Workflow.Timing.Dwell,
		Stagger: app.model.Workflow.Timing.Stagger,
	}
	if timing.Dwell == 0 {
		timing.Dwell = scheduler.DefaultDwell
	}
	if timing.Stagger == 0 {
		timing.Stagger = scheduler.DefaultStagger
	}
	app.scheduler, err = scheduler.New(app.ctx, app.graph, app.loop, app.stream, timing)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	act := app.model.Activity
	app.feed = activitylog.NewFeed(act.Capacity)
	app.generator, err = activitylog.NewGenerator(app.ctx, app.loop, app.stream, app.scheduler, app.feed, activitylog.Config{
		Interval:     act.Interval,
		PrefixLength: act.PrefixLength,
		Seed:         act.Seed,
	})
	if err != nil {
		return fmt.Errorf("failed to create activity generator: %w", err)
	}

	var analyzer intake.Analyzer
	if app.model.Analysis.URL != "" {
		app.analyzer = analysis.New(app.ctx, app.model.Analysis.URL, app.model.Analysis.Timeout)
		analyzer = app.analyzer
	}
	app.intake = intake.New(app.loop, app.scheduler, analyzer)

	if !app.config.Headless() {
		app.server = server.New(app.ctx, server.Deps{
			Loop:      app.loop,
			Stream:    app.stream,
			Scheduler: app.scheduler,
			Feed:      app.feed,
			Intake:    app.intake,
		})
	}
	return nil
}

// Model returns the loaded configuration. This is primarily for testing.
func (app *App) Model() *config.Model {
	return app.model
}

// Addr blocks until the HTTP server is listening and returns its address.
// It returns "" if ctx ends first.
func (app *App) Addr(ctx context.Context) string {
	select {
	case addr := <-app.addr:
		app.addr <- addr
		return addr
	case <-ctx.Done():
		return ""
	}
}
