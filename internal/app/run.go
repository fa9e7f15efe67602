package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/flowsim/internal/ctxlog"
	"github.com/specialistvlad/flowsim/internal/events"
	"github.com/specialistvlad/flowsim/internal/node"
	"github.com/specialistvlad/flowsim/internal/scheduler"
)

// Run drives the event loop until ctx ends. In headless mode it runs the
// configured goal to completion, prints the activity feed and returns.
func (app *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, app.logger)
	app.logger.Debug("App.Run method started.")

	pub, err := app.connectPublisher()
	if err != nil {
		return err
	}
	defer func() {
		if err := pub.Close(); err != nil {
			app.logger.Warn("Event publisher did not close cleanly", "error", err)
		}
	}()
	bridge := events.NewBridge(app.ctx, app.stream, pub, app.model.NATS.SubjectPrefix)

	var logSub *events.Subscription
	if app.config.Headless() {
		logSub = app.stream.Subscribe(app.logEvent)
	}

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = app.loop.Run(loopCtx)
	}()
	defer func() {
		// Detach loop-confined subscribers while the loop is still running.
		_ = app.loop.Do(context.Background(), func() {
			app.generator.Close()
			bridge.Close()
			logSub.Unsubscribe()
		})
		stopLoop()
		<-loopDone
		if app.analyzer != nil {
			_ = app.analyzer.Close()
		}
		app.logger.Debug("App.Run method finished.")
	}()

	if app.config.Headless() {
		return app.runHeadless(ctx)
	}
	return app.serve(ctx)
}

// connectPublisher returns the NATS publisher when a URL is configured and a
// no-op one otherwise.
func (app *App) connectPublisher() (events.Publisher, error) {
	url := app.model.NATS.URL
	if url == "" {
		app.logger.Debug("NATS not configured, events stay in process.")
		return &events.NoopPublisher{}, nil
	}
	pub, err := events.NewNATSPublisher(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect event bus: %w", err)
	}
	app.logger.Info("📡 Publishing events to NATS", "url", url, "prefix", app.model.NATS.SubjectPrefix)
	return pub, nil
}

func (app *App) serve(ctx context.Context) error {
	errc := make(chan error, 1)
	if err := app.startHTTPServer(errc); err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		app.logger.Info("Shutdown requested.")
	case serveErr = <-errc:
	}

	if err := app.closeHTTPServer(); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

func (app *App) runHeadless(ctx context.Context) error {
	app.logger.Info("🚀 Running goal", "goal", app.config.Goal, "layers", len(app.graph.Layers()))

	h, err := app.intake.Submit(ctx, app.config.Goal)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	if h == nil {
		return errors.New("goal must not be blank")
	}

	select {
	case <-h.Done():
	case <-ctx.Done():
		if _, err := app.intake.Cancel(context.Background(), h); err != nil {
			app.logger.Warn("Failed to cancel run", "error", err)
		}
		return ctx.Err()
	}
	if h.Outcome() != scheduler.OutcomeCompleted {
		return fmt.Errorf("run %s ended %s", h.ID(), h.Outcome())
	}
	app.logger.Info("🏁 Run finished.", "run_id", h.ID())

	// The completion entry is added by a timer queued when the run ended.
	// A timer queued now fires after it.
	got := make(chan []node.LogEntry, 1)
	if err := app.loop.Do(ctx, func() {
		app.loop.AfterFunc(0, func() { got <- app.feed.Entries() })
	}); err != nil {
		return fmt.Errorf("failed to read activity feed: %w", err)
	}
	var entries []node.LogEntry
	select {
	case entries = <-got:
	case <-ctx.Done():
		return ctx.Err()
	}
	app.printFeed(entries)
	return nil
}

// ANSI colours per severity.
var severityColors = map[node.Severity]string{
	node.SeverityInfo:    "\033[36m",
	node.SeverityWarning: "\033[33m",
	node.SeverityError:   "\033[31m",
	node.SeveritySuccess: "\033[32m",
}

const colorReset = "\033[0m"

// printFeed writes the feed oldest first.
func (app *App) printFeed(entries []node.LogEntry) {
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		tag := "[" + string(e.Severity) + "]"
		if c, ok := severityColors[e.Severity]; ok && app.config.Color {
			tag = c + tag + colorReset
		}
		fmt.Fprintf(app.outW, "%s %s %s: %s\n", e.Timestamp.Format("15:04:05"), tag, e.NodeID, e.Message)
	}
}

// logEvent mirrors stream events into the structured log.
func (app *App) logEvent(e events.Event) {
	attrs := []any{"seq", e.Header().Seq, "run_id", e.Header().RunID}
	switch ev := e.(type) {
	case events.NodeStatusChanged:
		attrs = append(attrs, "node", ev.NodeID, "from", ev.Old, "to", ev.New)
	case events.EdgeActivated:
		attrs = append(attrs, "edge", ev.EdgeID)
	case events.EdgeDeactivated:
		attrs = append(attrs, "edge", ev.EdgeID)
	case events.RunCompleted:
		attrs = append(attrs, "elapsed", ev.Elapsed)
	case events.LogAppended:
		attrs = append(attrs, "agent", ev.Entry.NodeID, "level", ev.Entry.Severity, "message", ev.Entry.Message)
	}
	app.logger.Info(e.Topic(), attrs...)
}
