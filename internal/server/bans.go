package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/example/warden/internal/models"
	"github.com/example/warden/internal/ports/primary"
)

type banResponse struct {
	ID           int64  `json:"id"`
	Kingdom      int    `json:"kingdom"`
	GovernorID   int64  `json:"governor_id"`
	GovernorName string `json:"governor_name"`
	BanType      string `json:"ban_type"`
	Reason       string `json:"reason,omitempty"`
	BannedBy     string `json:"banned_by,omitempty"`
	CreatedAt    string `json:"created_at"`
	ExpiresAt    string `json:"expires_at,omitempty"`
}

func newBanResponse(ban *models.Ban) banResponse {
	resp := banResponse{
		ID:           ban.ID,
		Kingdom:      ban.Kingdom,
		GovernorID:   ban.GovernorID,
		GovernorName: ban.GovernorName,
		BanType:      string(ban.Type),
		Reason:       ban.Reason,
		BannedBy:     ban.BannedBy,
		CreatedAt:    ban.CreatedAt.UTC().Format(time.RFC3339),
	}
	if !ban.ExpiresAt.IsZero() {
		resp.ExpiresAt = ban.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func (s *Server) handleListBans(w http.ResponseWriter, r *http.Request) {
	kingdom, ok := kingdomParam(w, r)
	if !ok {
		return
	}

	bans, err := s.bans.List(r.Context(), kingdom)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	resp := make([]banResponse, 0, len(bans))
	for _, ban := range bans {
		resp = append(resp, newBanResponse(ban))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bans": resp})
}

func (s *Server) handleAddBan(w http.ResponseWriter, r *http.Request) {
	if !s.ownerAuth(w, r) {
		return
	}
	kingdom, ok := kingdomParam(w, r)
	if !ok {
		return
	}

	var req struct {
		GovernorID   int64  `json:"governor_id"`
		GovernorName string `json:"governor_name"`
		BanType      string `json:"ban_type"`
		Reason       string `json:"reason"`
		BannedBy     string `json:"banned_by"`
		ExpiresDays  int    `json:"expires_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.GovernorID == 0 {
		writeError(w, http.StatusBadRequest, "governor_id is required")
		return
	}

	id, err := s.bans.Add(r.Context(), primary.AddBanRequest{
		Kingdom:      kingdom,
		GovernorID:   req.GovernorID,
		GovernorName: req.GovernorName,
		BanType:      req.BanType,
		Reason:       req.Reason,
		BannedBy:     req.BannedBy,
		ExpiresDays:  req.ExpiresDays,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) handleRemoveBan(w http.ResponseWriter, r *http.Request) {
	if !s.ownerAuth(w, r) {
		return
	}
	kingdom, ok := kingdomParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := s.bans.Remove(r.Context(), kingdom, id); err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// handleCheckBan is the agent-side pre-grant eligibility check.
func (s *Server) handleCheckBan(w http.ResponseWriter, r *http.Request) {
	if !s.botAuth(w, r) {
		return
	}
	kingdom, ok := kingdomParam(w, r)
	if !ok {
		return
	}

	governorID, err := strconv64(r.URL.Query().Get("governor_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid governor_id")
		return
	}
	kind := r.URL.Query().Get("kind")

	verdict, err := s.bans.Check(r.Context(), kingdom, governorID, kind)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"banned":     verdict.Banned,
		"reason":     verdict.Reason,
		"expires_at": verdict.ExpiresAt,
	})
}
