package server

import (
	"net/http"
)

// handleImportScans imports every CSV in the configured scans folder.
// The batch never aborts on one bad file; per-file outcomes come back
// in the response.
func (s *Server) handleImportScans(w http.ResponseWriter, r *http.Request) {
	if !s.ownerAuth(w, r) {
		return
	}
	kingdom, ok := kingdomParam(w, r)
	if !ok {
		return
	}
	if s.scansDir == "" {
		writeError(w, http.StatusConflict, "no scans folder configured")
		return
	}

	// Files whose name carries no kingdom number belong to the kingdom
	// the import was requested for.
	result, err := s.importer.ImportFolder(r.Context(), s.scansDir, kingdom)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
