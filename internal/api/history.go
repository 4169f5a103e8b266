package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-deck/internal/audit"
)

// handleListHistory lists audit entries, newest first. The repository caps limit.
// Query parameters: kind, subject, limit, offset.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "audit log is disabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Kind:    audit.Kind(q.Get("kind")),
		Subject: q.Get("subject"),
	}

	var err error
	if filter.Limit, err = queryInt(q.Get("limit"), 50); err != nil || filter.Limit < 1 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	if filter.Offset, err = queryInt(q.Get("offset"), 0); err != nil || filter.Offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	result, err := s.history.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list history", "error", err)
		writeError(w, http.StatusInternalServerError, "listing history failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func queryInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
