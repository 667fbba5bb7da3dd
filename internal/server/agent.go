package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/example/warden/internal/models"
	"github.com/example/warden/internal/ports/primary"
)

type statusResponse struct {
	Kingdom   int    `json:"kingdom"`
	Activity  string `json:"activity"`
	Message   string `json:"message,omitempty"`
	Progress  int    `json:"progress,omitempty"`
	Total     int    `json:"total,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func (s *Server) handleAgentStatus(w http.ResponseWriter, r *http.Request) {
	kingdom, ok := kingdomParam(w, r)
	if !ok {
		return
	}

	status, err := s.control.Status(r.Context(), kingdom)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	resp := statusResponse{
		Kingdom:  status.Kingdom,
		Activity: string(status.Activity),
		Message:  status.Message,
		Progress: status.Progress,
		Total:    status.Total,
	}
	if !status.UpdatedAt.IsZero() {
		resp.UpdatedAt = status.UpdatedAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	if !s.botAuth(w, r) {
		return
	}
	kingdom, ok := kingdomParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Activity string `json:"activity"`
		Message  string `json:"message"`
		Progress int    `json:"progress"`
		Total    int    `json:"total"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	err := s.control.Heartbeat(r.Context(), primary.HeartbeatRequest{
		Kingdom:  kingdom,
		Activity: req.Activity,
		Message:  req.Message,
		Progress: req.Progress,
		Total:    req.Total,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type modeResponse struct {
	Kingdom     int    `json:"kingdom"`
	Mode        string `json:"mode"`
	RequestedBy string `json:"requested_by,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

func newModeResponse(state *models.ModeState) modeResponse {
	resp := modeResponse{
		Kingdom:     state.Kingdom,
		Mode:        string(state.Mode),
		RequestedBy: state.RequestedBy,
	}
	if !state.UpdatedAt.IsZero() {
		resp.UpdatedAt = state.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func (s *Server) handleGetMode(w http.ResponseWriter, r *http.Request) {
	kingdom, ok := kingdomParam(w, r)
	if !ok {
		return
	}

	state, err := s.control.Mode(r.Context(), kingdom)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newModeResponse(state))
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	if !s.ownerAuth(w, r) {
		return
	}
	kingdom, ok := kingdomParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Mode        string `json:"mode"`
		RequestedBy string `json:"requested_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	state, err := s.control.SetMode(r.Context(), kingdom, req.Mode, req.RequestedBy)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newModeResponse(state))
}

// handlePollCommand is the agent's consume-once poll. An empty slot and
// a lost consume race are the same answer: nothing to do.
func (s *Server) handlePollCommand(w http.ResponseWriter, r *http.Request) {
	if !s.botAuth(w, r) {
		return
	}
	kingdom, ok := kingdomParam(w, r)
	if !ok {
		return
	}

	cmd, err := s.control.PollCommand(r.Context(), kingdom)
	if err != nil {
		if errors.Is(err, models.ErrNoCommand) {
			writeJSON(w, http.StatusOK, map[string]any{"command": nil})
			return
		}
		s.serviceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"command": map[string]any{
			"kind":      string(cmd.Kind),
			"scan_type": string(cmd.ScanType),
			"options":   cmd.Options,
			"issued_at": cmd.IssuedAt.UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleIssueCommand(w http.ResponseWriter, r *http.Request) {
	if !s.ownerAuth(w, r) {
		return
	}
	kingdom, ok := kingdomParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Kind     string `json:"kind"`
		ScanType string `json:"scan_type"`
		Options  string `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	err := s.control.IssueCommand(r.Context(), primary.CommandRequest{
		Kingdom:  kingdom,
		Kind:     req.Kind,
		ScanType: req.ScanType,
		Options:  req.Options,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
