package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// UserIDHeader is set by the authenticating proxy in front of the API.
const UserIDHeader = "X-User-ID"

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps the core error classes onto HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, core.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal"
}

// writeError logs err and writes its mapped status. Internal details are only
// exposed for client errors.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	logger := log.FromContext(r.Context())
	msg := err.Error()
	if status >= 500 {
		fields := log.NewFields()
		fields[log.FieldPath] = r.URL.Path
		fields[log.FieldStatusCode] = status
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, log.ComponentHTTP, r.Pattern, fields)
		msg = http.StatusText(status)
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			log.FieldError, err, log.FieldPath, r.URL.Path, log.FieldStatusCode, status)
	}
	writeJSON(w, r, status, errorBody{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to encode response", log.FieldError, err)
	}
}

// userID reads the caller's identity. Services re-check it; handlers that
// talk to the notification store directly rely on this check.
func userID(r *http.Request) (string, error) {
	id := sanitizeInput(r.Header.Get(UserIDHeader))
	if id == "" {
		return "", fmt.Errorf("%w: missing %s header", core.ErrUnauthorized, UserIDHeader)
	}
	return id, nil
}

// sanitizeInput removes control characters (except tab and newlines) and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
