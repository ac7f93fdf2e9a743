package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

type healthDTO struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Uptime    string            `json:"uptime,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// handleHealth is the liveness check; it never touches dependencies.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthDTO{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady checks the backend with a bounded ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	status, code := "ready", http.StatusOK

	if s.ping == nil {
		checks["backend"] = "ok"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			checks["backend"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["backend"] = "ok"
		}
	}

	switch e := s.exporter.(type) {
	case nil:
		checks["exporter"] = "not_configured"
	case sheets.Destination:
		checks["exporter"] = e.Destination()
	default:
		checks["exporter"] = "ok"
	}

	lm := s.limiter.GetMetrics()
	tm := s.tracer.GetMetrics()
	s.logger.DebugContext(r.Context(), "Readiness metrics",
		"rate_limit_clients", lm.ClientCount,
		"rate_limit_rejected", lm.Rejected,
		"requests_total", tm.TotalRequests,
		"server_errors", tm.ServerErrors,
		"blocked_requests", s.detector.GetMetrics().BlockedRequests)

	writeJSON(w, r, code, healthDTO{Status: status, Timestamp: time.Now().UTC(), Checks: checks})
}
