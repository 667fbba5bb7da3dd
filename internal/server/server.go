// Package server is the HTTP control plane: the surface the remote
// agent polls and the dashboard drives.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/example/warden/internal/models"
	"github.com/example/warden/internal/ports/primary"
	"github.com/example/warden/internal/version"
)

// Server is the main HTTP server for the warden API.
type Server struct {
	control  primary.ControlService
	titles   primary.TitleService
	bans     primary.BanService
	importer primary.ImportService
	scansDir string
	botKey   string
	ownerKey string
	logger   *zap.Logger
	mux      *http.ServeMux
}

// New creates a new Server with all routes registered. An empty botKey
// or ownerKey disables that check.
func New(control primary.ControlService, titles primary.TitleService, bans primary.BanService, importer primary.ImportService, scansDir, botKey, ownerKey string, logger *zap.Logger) *Server {
	s := &Server{
		control:  control,
		titles:   titles,
		bans:     bans,
		importer: importer,
		scansDir: scansDir,
		botKey:   botKey,
		ownerKey: ownerKey,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// routes registers all HTTP routes on the server mux.
func (s *Server) routes() {
	// Health
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// Agent control plane
	s.mux.HandleFunc("GET /kingdoms/{kingdom}/agent/status", s.handleAgentStatus)
	s.mux.HandleFunc("POST /kingdoms/{kingdom}/agent/heartbeat", s.handleHeartbeat)
	s.mux.HandleFunc("GET /kingdoms/{kingdom}/agent/mode", s.handleGetMode)
	s.mux.HandleFunc("POST /kingdoms/{kingdom}/agent/mode", s.handleSetMode)
	s.mux.HandleFunc("GET /kingdoms/{kingdom}/agent/command", s.handlePollCommand)
	s.mux.HandleFunc("POST /kingdoms/{kingdom}/agent/command", s.handleIssueCommand)

	// Title queue
	s.mux.HandleFunc("POST /kingdoms/{kingdom}/titles/requests", s.handleSubmitTitle)
	s.mux.HandleFunc("DELETE /kingdoms/{kingdom}/titles/requests/{id}", s.handleCancelTitle)
	s.mux.HandleFunc("GET /kingdoms/{kingdom}/titles/queue", s.handleTitleQueue)
	s.mux.HandleFunc("DELETE /kingdoms/{kingdom}/titles/queue", s.handleClearQueue)
	s.mux.HandleFunc("GET /kingdoms/{kingdom}/titles/next", s.handleNextTitle)
	s.mux.HandleFunc("GET /kingdoms/{kingdom}/titles/stats", s.handleTitleStats)
	s.mux.HandleFunc("POST /titles/requests/{id}/complete", s.handleCompleteTitle)

	// Ban filter
	s.mux.HandleFunc("GET /kingdoms/{kingdom}/bans", s.handleListBans)
	s.mux.HandleFunc("POST /kingdoms/{kingdom}/bans", s.handleAddBan)
	s.mux.HandleFunc("DELETE /kingdoms/{kingdom}/bans/{id}", s.handleRemoveBan)
	s.mux.HandleFunc("GET /kingdoms/{kingdom}/bans/check", s.handleCheckBan)

	// Scan import
	s.mux.HandleFunc("POST /kingdoms/{kingdom}/scans/import", s.handleImportScans)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "warden",
		"version": version.Version,
	})
}

// botAuth checks the X-Bot-Key header on agent endpoints.
func (s *Server) botAuth(w http.ResponseWriter, r *http.Request) bool {
	if s.botKey != "" && r.Header.Get("X-Bot-Key") != s.botKey {
		writeError(w, http.StatusUnauthorized, "invalid bot key")
		return false
	}
	return true
}

// ownerAuth checks the X-Owner-Key header on owner write endpoints.
func (s *Server) ownerAuth(w http.ResponseWriter, r *http.Request) bool {
	if s.ownerKey != "" && r.Header.Get("X-Owner-Key") != s.ownerKey {
		writeError(w, http.StatusUnauthorized, "invalid owner key")
		return false
	}
	return true
}

// kingdomParam parses the {kingdom} path value.
func kingdomParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(r.PathValue("kingdom"))
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "invalid kingdom number")
		return 0, false
	}
	return n, true
}

// idParam parses the {id} path value.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// strconv64 parses a required int64 query parameter.
func strconv64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// serviceError maps domain sentinel errors onto HTTP statuses. Unknown
// errors are logged and hidden behind a 500.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrAlreadyBanned), errors.Is(err, models.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
