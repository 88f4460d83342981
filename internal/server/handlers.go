package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/biascheck/internal/app"
)

// Client-facing error messages.
const (
	msgURLRequired      = "URL is required"
	msgInvalidURL       = "Invalid URL format"
	msgExtractionFailed = "Failed to extract article content. The page might be protected or contain mostly dynamic content."
	msgContentTooShort  = "Article content too short for meaningful analysis."
	msgInternal         = "Internal server error during analysis"
)

// maxRequestBytes bounds the analyze request body.
const maxRequestBytes = 64 << 10

type analyzeRequest struct {
	URL string `json:"url"`
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		logger.Warn().Err(err).Msg("unreadable analyze request body")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	resp, err := s.analyzer.Analyze(r.Context(), req.URL)
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.Error().Err(err).Msg("analysis failed")
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// statusFor maps pipeline errors onto the HTTP contract.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, app.ErrURLRequired):
		return http.StatusBadRequest, msgURLRequired
	case errors.Is(err, app.ErrInvalidURL):
		return http.StatusBadRequest, msgInvalidURL
	case errors.Is(err, app.ErrExtractionFailed):
		return http.StatusBadRequest, msgExtractionFailed
	case errors.Is(err, app.ErrContentTooShort):
		return http.StatusBadRequest, msgContentTooShort
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.build.Version,
		"commit":  s.build.Commit,
	})
}
