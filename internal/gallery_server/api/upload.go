package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"pet-gallery/pkg/apperr"
)

func (s *Server) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	boundary, err := multipartBoundary(r.Header.Get("Content-Type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.writeError(w, r, apperr.Wrap(apperr.Validation, "request body too large", err))
			return
		}
		s.writeError(w, r, apperr.Wrap(apperr.Parse, "invalid multipart request", err))
		return
	}
	if len(body) == 0 {
		s.writeError(w, r, apperr.New(apperr.Parse, "invalid multipart request"))
		return
	}

	result, err := s.service.Upload(r.Context(), body, boundary)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, result)
}

// multipartBoundary extracts the boundary token from a multipart/form-data
// content-type header.
func multipartBoundary(contentType string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", apperr.Wrap(apperr.Parse, "invalid multipart request", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/form-data") || params["boundary"] == "" {
		return "", apperr.New(apperr.Parse, "invalid multipart request")
	}
	return params["boundary"], nil
}
