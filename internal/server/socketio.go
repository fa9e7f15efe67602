package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zishang520/socket.io/v2/socket"

	"github.com/specialistvlad/flowsim/internal/analysis"
	"github.com/specialistvlad/flowsim/internal/ctxlog"
	"github.com/specialistvlad/flowsim/internal/intake"
	"github.com/specialistvlad/flowsim/internal/scheduler"
)

// Socket.io event names.
const (
	socketEventSnapshot = "snapshot"
	socketEventWorkflow = "workflow:event"
	socketEventGoal     = "goal"
	socketEventClear    = "clear"
	socketEventCancel   = "cancel"
	socketEventAnalyze  = "analyze"
)

// socketFanoutBuffer is larger than the SSE backlog: one consumer serves every
// socket.io client.
const socketFanoutBuffer = 512

func (s *Server) newSocketServer() *socket.Server {
	io := socket.NewServer(nil, nil)
	io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		s.onSocketConnect(client)
	})

	fanout := s.hub.subscribe(nil, socketFanoutBuffer)
	go s.socketFanout(io, fanout)
	return io
}

// socketFanout relays stream events to every socket.io client until the hub
// closes.
func (s *Server) socketFanout(io *socket.Server, c *sseClient) {
	logger := ctxlog.FromContext(s.ctx)
	for {
		select {
		case <-s.hub.done:
			return
		case evt := <-c.ch:
			payload, err := toSocketPayload(evt.Data)
			if err != nil {
				logger.Warn("Failed to convert event for socket.io.", "topic", evt.Topic, "error", err)
				continue
			}
			io.Emit(socketEventWorkflow, payload)
		}
	}
}

func (s *Server) onSocketConnect(client *socket.Socket) {
	ctx := ctxlog.With(s.ctx, "socket_id", client.Id())
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Socket.io client connected.")

	if msg, err := s.snapshot(ctx); err != nil {
		logger.Warn("Failed to read snapshot for socket.io client.", "error", err)
	} else if payload, err := marshalToSocket(msg); err != nil {
		logger.Warn("Failed to convert snapshot for socket.io.", "error", err)
	} else if err := client.Emit(socketEventSnapshot, payload); err != nil {
		logger.Warn("Failed to send snapshot.", "error", err)
	}

	client.On(socketEventGoal, func(args ...any) {
		args, ack := splitAck(args)
		h, trigger, err := s.socketGoal(ctx, args)
		reply(ack, runReply(h, trigger), err)
	})
	client.On(socketEventClear, func(args ...any) {
		_, ack := splitAck(args)
		reply(ack, map[string]any{}, s.intake.Clear(ctx))
	})
	client.On(socketEventCancel, func(args ...any) {
		_, ack := splitAck(args)
		ok, err := s.intake.CancelCurrent(ctx)
		reply(ack, map[string]any{"cancelled": ok}, err)
	})
	client.On(socketEventAnalyze, func(args ...any) {
		args, ack := splitAck(args)
		id, err := productIDArg(args)
		if err != nil {
			reply(ack, nil, err)
			return
		}
		res, h, err := s.intake.SubmitProduct(ctx, id)
		if err != nil {
			reply(ack, nil, err)
			return
		}
		reply(ack, runReply(h, res.Trigger()), nil)
	})
	client.On("disconnect", func(reason ...any) {
		logger.Debug("Socket.io client disconnected.", "reason", reason)
	})
}

// socketGoal accepts a raw trigger string, {"goal": "..."} or
// {"title": "...", "description": "..."}.
func (s *Server) socketGoal(ctx context.Context, args []any) (*scheduler.RunHandle, string, error) {
	if len(args) == 0 {
		return nil, "", fmt.Errorf("%w: missing payload", intake.ErrInvalidGoal)
	}
	switch v := args[0].(type) {
	case string:
		h, err := s.intake.Submit(ctx, v)
		return h, v, err
	case map[string]any:
		if raw, ok := v["goal"].(string); ok {
			h, err := s.intake.Submit(ctx, raw)
			return h, raw, err
		}
		title, _ := v["title"].(string)
		desc, _ := v["description"].(string)
		g := intake.Goal{Title: title, Description: desc}
		h, err := s.intake.SubmitGoal(ctx, g)
		return h, g.Text(), err
	}
	return nil, "", fmt.Errorf("%w: unsupported payload %T", intake.ErrInvalidGoal, args[0])
}

func productIDArg(args []any) (int, error) {
	if len(args) == 0 {
		return 0, errors.New("missing product id")
	}
	var f float64
	switch v := args[0].(type) {
	case float64:
		f = v
	case map[string]any:
		f, _ = v["product_id"].(float64)
	}
	if f <= 0 || f != float64(int(f)) {
		return 0, errors.New("product_id must be a positive integer")
	}
	return int(f), nil
}

func runReply(h *scheduler.RunHandle, trigger string) map[string]any {
	if h == nil {
		return map[string]any{}
	}
	return map[string]any{"run_id": h.ID(), "trigger": trigger}
}

// splitAck separates a trailing acknowledgement callback from the payload.
func splitAck(args []any) ([]any, socket.Ack) {
	if n := len(args); n > 0 {
		if ack, ok := args[n-1].(socket.Ack); ok {
			return args[:n-1], ack
		}
	}
	return args, nil
}

// reply answers an acknowledged message with either the result or an
// {"error": "..."} object.
func reply(ack socket.Ack, result map[string]any, err error) {
	if ack == nil {
		return
	}
	if err != nil {
		msg := err.Error()
		var aerr *analysis.Error
		if errors.As(err, &aerr) {
			msg = aerr.Notice()
		}
		ack([]any{map[string]any{"error": strings.TrimSpace(msg)}}, nil)
		return
	}
	ack([]any{result}, nil)
}

// toSocketPayload turns JSON into the map form the socket.io encoder
// serializes.
func toSocketPayload(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func marshalToSocket(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return toSocketPayload(data)
}
