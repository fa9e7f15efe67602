package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/specialistvlad/flowsim/internal/ctxlog"
	"github.com/specialistvlad/flowsim/internal/events"
)

const (
	// sseKeepaliveInterval is how often a comment line is written to keep
	// idle connections open through proxies.
	sseKeepaliveInterval = 15 * time.Second

	// sseClientBuffer is the per-client backlog before events are dropped.
	sseClientBuffer = 64

	// snapshotTopic names the SSE event carrying a full snapshot.
	snapshotTopic = "snapshot"
)

// sseEvent is one encoded event ready to write.
type sseEvent struct {
	ID    uint64
	Topic string
	Data  []byte // JSON envelope
}

// hub fans out encoded events to connected clients. broadcast runs on the
// loop goroutine; subscribe and unsubscribe may be called from anywhere.
type hub struct {
	mu      sync.RWMutex
	clients map[*sseClient]struct{}
	done    chan struct{}
	closed  bool
}

type sseClient struct {
	topics []string // topic patterns, empty matches all
	ch     chan *sseEvent
}

func newHub() *hub {
	return &hub{
		clients: make(map[*sseClient]struct{}),
		done:    make(chan struct{}),
	}
}

func (h *hub) broadcast(evt *sseEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.matchesTopic(evt.Topic) {
			continue
		}
		select {
		case c.ch <- evt:
		default:
			// Slow client: drop rather than stall the loop.
		}
	}
}

func (h *hub) subscribe(topics []string, buffer int) *sseClient {
	c := &sseClient{topics: topics, ch: make(chan *sseEvent, buffer)}
	h.mu.Lock()
	if !h.closed {
		h.clients[c] = struct{}{}
	}
	h.mu.Unlock()
	return c
}

func (h *hub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// close drops every client and releases anyone waiting on done.
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	clear(h.clients)
	close(h.done)
}

func (c *sseClient) matchesTopic(topic string) bool {
	if len(c.topics) == 0 {
		return true
	}
	for _, pattern := range c.topics {
		if matchTopicPattern(pattern, topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern matches a dot-separated topic against a pattern. "*"
// matches one segment and a trailing ">" matches one or more.
func matchTopicPattern(pattern, topic string) bool {
	if pattern == topic {
		return true
	}

	patParts := strings.Split(pattern, ".")
	topParts := strings.Split(topic, ".")

	for i, pp := range patParts {
		if pp == ">" {
			return i < len(topParts)
		}
		if i >= len(topParts) {
			return false
		}
		if pp != "*" && pp != topParts[i] {
			return false
		}
	}
	return len(patParts) == len(topParts)
}

func parseTopics(q string) []string {
	var topics []string
	for _, t := range strings.Split(q, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// handleEventStream serves GET /api/events.
//
// A client sending Last-Event-ID gets the events it missed from the stream
// history. A fresh client, or one whose gap was already evicted, gets a
// snapshot event first instead. The client is registered before the history
// is read and live events at or below the read position are skipped, so
// nothing is lost or repeated in between.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	logger := ctxlog.FromContext(s.ctx)

	topics := parseTopics(r.URL.Query().Get("topics"))

	var lastID uint64
	resume := false
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			lastID, resume = id, true
		}
	}

	client := s.hub.subscribe(topics, sseClientBuffer)
	defer s.hub.unsubscribe(client)

	var (
		replay   []events.Event
		snap     *snapshotMessage
		cutoff   uint64
		complete bool
	)
	err := s.loop.Do(r.Context(), func() {
		cutoff = s.stream.LastSeq()
		if resume {
			replay, complete = s.stream.Since(lastID)
		}
		if !resume || !complete {
			replay = nil
			snap = &snapshotMessage{Seq: cutoff, Snapshot: s.ctrl.Snapshot()}
		}
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if snap != nil {
		data, err := json.Marshal(snap)
		if err != nil {
			logger.Warn("Failed to encode snapshot for SSE client.", "error", err)
			return
		}
		writeSSEEvent(w, &sseEvent{ID: snap.Seq, Topic: snapshotTopic, Data: data})
	}
	for _, e := range replay {
		if !client.matchesTopic(e.Topic()) {
			continue
		}
		data, err := events.Encode(e)
		if err != nil {
			logger.Warn("Failed to encode replayed event.", "topic", e.Topic(), "error", err)
			continue
		}
		writeSSEEvent(w, &sseEvent{ID: e.Header().Seq, Topic: e.Topic(), Data: data})
	}
	flusher.Flush()

	logger.Debug("SSE client connected.", "remote_addr", r.RemoteAddr, "replayed", len(replay), "topics", topics)
	defer logger.Debug("SSE client disconnected.", "remote_addr", r.RemoteAddr)

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.hub.done:
			return
		case evt := <-client.ch:
			if evt.ID <= cutoff {
				continue
			}
			writeSSEEvent(w, evt)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprintf(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, evt *sseEvent) {
	fmt.Fprintf(w, "id:%d\n", evt.ID)
	fmt.Fprintf(w, "event:%s\n", evt.Topic)
	fmt.Fprintf(w, "data:%s\n\n", evt.Data)
}
