package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"pet-gallery/pkg/apperr"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", slog.Any("error", err))
	}
}

// writeError is the boundary adapter between the internal error taxonomy
// and the transport. The full error is logged; the client only sees the
// sanitized message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)

	var status int
	switch kind {
	case apperr.Validation, apperr.Parse:
		status = http.StatusBadRequest
	case apperr.UnsupportedMedia:
		status = http.StatusUnsupportedMediaType
	case apperr.NotFound, apperr.EmptyCatalog:
		status = http.StatusNotFound
	case apperr.Storage:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	logAttrs := []any{
		slog.String("path", r.URL.Path),
		slog.String("kind", kind.String()),
		slog.Any("error", err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", logAttrs...)
	} else {
		s.logger.Warn("Request rejected", logAttrs...)
	}

	s.writeJSON(w, status, errorResponse{Error: apperr.MessageOf(err)})
}
