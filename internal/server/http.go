package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/specialistvlad/flowsim/internal/analysis"
	"github.com/specialistvlad/flowsim/internal/ctxlog"
	"github.com/specialistvlad/flowsim/internal/intake"
	"github.com/specialistvlad/flowsim/internal/node"
	"github.com/specialistvlad/flowsim/internal/scheduler"
)

// goalRequest accepts either a structured goal or a raw trigger string.
type goalRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Goal        *string `json:"goal"`
}

type analyzeRequest struct {
	ProductID int `json:"product_id"`
}

// runResponse describes the run a request started. RunID is empty when the
// request cleared the workflow instead.
type runResponse struct {
	RunID    string           `json:"run_id,omitempty"`
	Trigger  string           `json:"trigger"`
	Analysis *analysis.Result `json:"analysis,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(s.ctx).Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	msg, err := s.snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// handleLogs serves the feed newest first. ?limit=n trims it.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := -1
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	var entries []node.LogEntry
	if err := s.loop.Do(r.Context(), func() { entries = s.feed.Entries() }); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if entries == nil {
		entries = []node.LogEntry{}
	}
	if limit >= 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSubmitGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var (
		h       *scheduler.RunHandle
		trigger string
		err     error
	)
	if req.Goal != nil {
		trigger = *req.Goal
		h, err = s.intake.Submit(r.Context(), trigger)
	} else {
		g := intake.Goal{Title: req.Title, Description: req.Description}
		trigger = g.Text()
		h, err = s.intake.SubmitGoal(r.Context(), g)
	}
	if err != nil {
		s.writeIntakeError(w, err)
		return
	}

	if h == nil {
		writeJSON(w, http.StatusOK, runResponse{})
		return
	}
	ctxlog.FromContext(s.ctx).Info("Goal accepted.", "run_id", h.ID(), "trigger", trigger)
	writeJSON(w, http.StatusAccepted, runResponse{RunID: h.ID(), Trigger: trigger})
}

func (s *Server) handleClearGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.intake.Clear(r.Context()); err != nil {
		s.writeIntakeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	ok, err := s.intake.CancelCurrent(r.Context())
	if err != nil {
		s.writeIntakeError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "no run in progress")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		writeError(w, http.StatusBadRequest, "product_id must be a positive integer")
		return
	}

	res, h, err := s.intake.SubmitProduct(r.Context(), req.ProductID)
	if err != nil {
		s.writeIntakeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, runResponse{RunID: h.ID(), Trigger: res.Trigger(), Analysis: res})
}

// writeIntakeError maps intake and analysis failures to status codes.
func (s *Server) writeIntakeError(w http.ResponseWriter, err error) {
	var aerr *analysis.Error
	switch {
	case errors.Is(err, intake.ErrInvalidGoal):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, intake.ErrNoAnalyzer):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &aerr):
		writeError(w, http.StatusBadGateway, aerr.Notice())
	default:
		ctxlog.FromContext(s.ctx).Error("Request failed.", "error", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
