// Package server exposes a running workflow over HTTP. Renderers read the
// snapshot and follow the event stream over SSE or socket.io; goals come in
// over plain JSON endpoints or socket.io messages.
//
// Every read of scheduler or feed state hops onto the event loop, so handlers
// may run on any goroutine.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/zishang520/socket.io/v2/socket"

	"github.com/specialistvlad/flowsim/internal/activitylog"
	"github.com/specialistvlad/flowsim/internal/ctxlog"
	"github.com/specialistvlad/flowsim/internal/eventloop"
	"github.com/specialistvlad/flowsim/internal/events"
	"github.com/specialistvlad/flowsim/internal/graph"
	"github.com/specialistvlad/flowsim/internal/intake"
	"github.com/specialistvlad/flowsim/internal/scheduler"
)

// Deps are the pieces of the simulation the server reads from and writes to.
type Deps struct {
	Loop      *eventloop.Loop
	Stream    *events.Stream
	Scheduler scheduler.Controller
	Feed      *activitylog.Feed
	Intake    *intake.Intake
}

// Server serves the workflow API. Build it with New, mount Handler, and call
// Close on shutdown.
type Server struct {
	ctx    context.Context
	loop   *eventloop.Loop
	stream *events.Stream
	ctrl   scheduler.Controller
	feed   *activitylog.Feed
	intake *intake.Intake

	hub *hub
	sub *events.Subscription
	io  *socket.Server
	mux *http.ServeMux

	closeOnce sync.Once
}

// New builds a server and subscribes it to the event stream. It must be
// called before the loop starts running or from the loop goroutine.
func New(ctx context.Context, d Deps) *Server {
	if d.Loop == nil || d.Stream == nil || d.Scheduler == nil || d.Feed == nil || d.Intake == nil {
		panic("server: all dependencies are required")
	}

	s := &Server{
		ctx:    ctxlog.With(ctx, "component", "server"),
		loop:   d.Loop,
		stream: d.Stream,
		ctrl:   d.Scheduler,
		feed:   d.Feed,
		intake: d.Intake,
		hub:    newHub(),
	}
	s.sub = s.stream.Subscribe(s.onEvent)
	s.io = s.newSocketServer()
	s.mux = s.routes()
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("POST /api/goal", s.handleSubmitGoal)
	mux.HandleFunc("DELETE /api/goal", s.handleClearGoal)
	mux.HandleFunc("POST /api/cancel", s.handleCancel)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/events", s.handleEventStream)
	mux.Handle("/socket.io/", s.io.ServeHandler(nil))
	return mux
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.mux }

// onEvent runs on the loop goroutine for every published event.
func (s *Server) onEvent(e events.Event) {
	payload, err := events.Encode(e)
	if err != nil {
		ctxlog.FromContext(s.ctx).Warn("Failed to encode event for clients.", "topic", e.Topic(), "error", err)
		return
	}
	s.hub.broadcast(&sseEvent{ID: e.Header().Seq, Topic: e.Topic(), Data: payload})
}

// Close detaches from the stream, ends open event streams and disconnects
// socket.io clients. It is safe to call more than once.
func (s *Server) Close(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		logger := ctxlog.FromContext(s.ctx)
		logger.Debug("Closing server transports...")

		if doErr := s.loop.Do(ctx, s.sub.Unsubscribe); doErr != nil && !errors.Is(doErr, eventloop.ErrStopped) {
			err = fmt.Errorf("detaching from event stream: %w", doErr)
		}
		s.hub.close()
		s.io.Close(nil)
		logger.Debug("Server transports closed.")
	})
	return err
}

// snapshotMessage pairs a snapshot with the sequence number of the last event
// it reflects, so clients can drop stream events they already see in it.
type snapshotMessage struct {
	Seq uint64 `json:"seq"`
	graph.Snapshot
}

// snapshot reads state and the stream position in one loop turn.
func (s *Server) snapshot(ctx context.Context) (snapshotMessage, error) {
	var msg snapshotMessage
	err := s.loop.Do(ctx, func() {
		msg = snapshotMessage{Seq: s.stream.LastSeq(), Snapshot: s.ctrl.Snapshot()}
	})
	return msg, err
}
