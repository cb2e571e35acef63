package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hyperifyio/gocetd/internal/cetd"
	"github.com/hyperifyio/gocetd/internal/extract"
)

const (
	formatText     = "text"
	formatMarkdown = "markdown"
	formatHTML     = "html"
)

var formats = []string{formatText, formatMarkdown, formatHTML}

// extractResponse is the body of a successful POST /v1/extract.
type extractResponse struct {
	Format string `json:"format"`
	*extract.Result
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleExtract reads raw HTML from the body and returns the extracted
// content. Query parameters: format (text, markdown or html) and
// keep_links (bool).
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := parseFormat(q.Get("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	keepLinks := false
	if v := q.Get("keep_links"); v != "" {
		keepLinks, err = strconv.ParseBool(v)
		if err != nil {
			jsonError(w, "keep_links must be a boolean", http.StatusBadRequest)
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.opts.MaxBodyBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(raw) == 0 {
		jsonError(w, "empty body", http.StatusBadRequest)
		return
	}

	res, err := s.extractors[variant{format, keepLinks}].Extract(raw, r.Header.Get("Content-Type"))
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.log.Error().Err(err).Msg("extract failed")
		}
		jsonError(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, extractResponse{Format: format, Result: res})
}

func parseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", formatText:
		return formatText, nil
	case formatMarkdown, "md":
		return formatMarkdown, nil
	case formatHTML:
		return formatHTML, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// statusFor maps extraction errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, cetd.ErrInvalidDocument):
		return http.StatusBadRequest
	case errors.Is(err, cetd.ErrEmptyDocument):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
