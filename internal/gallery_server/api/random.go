package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"pet-gallery/pkg/apperr"
)

func (s *Server) RandomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	if len(query) != 1 || !query.Has("label") {
		s.writeError(w, r, apperr.New(apperr.Validation,
			"invalid query parameter, supported parameters: 'label' ("+strings.Join(s.cfg.Labels, ", ")+")"))
		return
	}

	image, err := s.service.RandomImage(r.Context(), query.Get("label"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", image.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(image.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(image.Data); err != nil {
		s.logger.Error("Failed to write image response", slog.Any("error", err))
	}
}
