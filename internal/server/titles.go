package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/example/warden/internal/models"
	"github.com/example/warden/internal/ports/primary"
	"github.com/example/warden/internal/ports/secondary"
)

type titleRequestResponse struct {
	ID            int64  `json:"id"`
	Kingdom       int    `json:"kingdom"`
	GovernorID    int64  `json:"governor_id,omitempty"`
	GovernorName  string `json:"governor_name"`
	AllianceTag   string `json:"alliance_tag,omitempty"`
	Kind          string `json:"kind"`
	DurationHours int    `json:"duration_hours"`
	Status        string `json:"status"`
	Priority      int    `json:"priority,omitempty"`
	Note          string `json:"note,omitempty"`
	CreatedAt     string `json:"created_at"`
	AssignedAt    string `json:"assigned_at,omitempty"`
	CompletedAt   string `json:"completed_at,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

func newTitleRequestResponse(req *models.TitleRequest) titleRequestResponse {
	resp := titleRequestResponse{
		ID:            req.ID,
		Kingdom:       req.Kingdom,
		GovernorID:    req.GovernorID,
		GovernorName:  req.GovernorName,
		AllianceTag:   req.AllianceTag,
		Kind:          string(req.Kind),
		DurationHours: req.DurationHours,
		Status:        string(req.Status),
		Priority:      req.Priority,
		Note:          req.Note,
		CreatedAt:     req.CreatedAt.UTC().Format(time.RFC3339),
	}
	if !req.AssignedAt.IsZero() {
		resp.AssignedAt = req.AssignedAt.UTC().Format(time.RFC3339)
	}
	if !req.CompletedAt.IsZero() {
		resp.CompletedAt = req.CompletedAt.UTC().Format(time.RFC3339)
	}
	if !req.ExpiresAt.IsZero() {
		resp.ExpiresAt = req.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// handleSubmitTitle runs admission. Rejection is a 200 with
// admitted=false: the chat reader relays the verdict, it is not an
// HTTP failure.
func (s *Server) handleSubmitTitle(w http.ResponseWriter, r *http.Request) {
	kingdom, ok := kingdomParam(w, r)
	if !ok {
		return
	}

	var req struct {
		GovernorID    int64  `json:"governor_id"`
		GovernorName  string `json:"governor_name"`
		AllianceTag   string `json:"alliance_tag"`
		Kind          string `json:"kind"`
		DurationHours int    `json:"duration_hours"`
		Priority      int    `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	result, err := s.titles.Submit(r.Context(), primary.SubmitTitleRequest{
		Kingdom:       kingdom,
		GovernorID:    req.GovernorID,
		GovernorName:  req.GovernorName,
		AllianceTag:   req.AllianceTag,
		Kind:          req.Kind,
		DurationHours: req.DurationHours,
		Priority:      req.Priority,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"admitted":    result.Admitted,
		"reason_code": result.ReasonCode,
		"request_id":  result.RequestID,
		"position":    result.Position,
	})
}

func (s *Server) handleTitleQueue(w http.ResponseWriter, r *http.Request) {
	kingdom, ok := kingdomParam(w, r)
	if !ok {
		return
	}

	filters := secondary.TitleFilters{}
	if v := r.URL.Query().Get("status"); v != "" {
		filters.Status = models.TitleStatus(v)
	}

	requests, err := s.titles.Queue(r.Context(), kingdom, filters)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	resp := make([]titleRequestResponse, 0, len(requests))
	for _, req := range requests {
		resp = append(resp, newTitleRequestResponse(req))
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": resp})
}

func (s *Server) handleClearQueue(w http.ResponseWriter, r *http.Request) {
	if !s.ownerAuth(w, r) {
		return
	}
	kingdom, ok := kingdomParam(w, r)
	if !ok {
		return
	}

	scope := secondary.ClearPending
	if v := r.URL.Query().Get("scope"); v != "" {
		switch secondary.ClearScope(v) {
		case secondary.ClearPending, secondary.ClearAll:
			scope = secondary.ClearScope(v)
		default:
			writeError(w, http.StatusBadRequest, "scope must be pending or all")
			return
		}
	}

	n, err := s.titles.Clear(r.Context(), kingdom, scope)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cancelled": n})
}

// handleNextTitle is the agent's take-next poll. Empty queue and
// occupied in-flight slot are the same answer.
func (s *Server) handleNextTitle(w http.ResponseWriter, r *http.Request) {
	if !s.botAuth(w, r) {
		return
	}
	kingdom, ok := kingdomParam(w, r)
	if !ok {
		return
	}

	assignment, err := s.titles.Next(r.Context(), kingdom)
	if err != nil {
		if errors.Is(err, models.ErrNoRequest) {
			writeJSON(w, http.StatusOK, map[string]any{"request": nil})
			return
		}
		s.serviceError(w, r, err)
		return
	}

	resp := map[string]any{
		"request":  newTitleRequestResponse(assignment.Request),
		"recycled": assignment.Recycled,
	}
	if len(assignment.Skipped) > 0 {
		skipped := make([]titleRequestResponse, 0, len(assignment.Skipped))
		for _, sk := range assignment.Skipped {
			skipped = append(skipped, newTitleRequestResponse(sk))
		}
		resp["skipped"] = skipped
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompleteTitle(w http.ResponseWriter, r *http.Request) {
	if !s.botAuth(w, r) {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := s.titles.ReportOutcome(r.Context(), id, req.Success, req.Message); err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCancelTitle(w http.ResponseWriter, r *http.Request) {
	kingdom, ok := kingdomParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	governorID, err := strconv64(r.URL.Query().Get("governor_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid governor_id")
		return
	}

	if err := s.titles.Cancel(r.Context(), kingdom, id, governorID); err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleTitleStats(w http.ResponseWriter, r *http.Request) {
	kingdom, ok := kingdomParam(w, r)
	if !ok {
		return
	}

	stats, err := s.titles.Stats(r.Context(), kingdom)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pending":         stats.Pending,
		"assigned":        stats.Assigned,
		"completed_today": stats.CompletedToday,
	})
}
