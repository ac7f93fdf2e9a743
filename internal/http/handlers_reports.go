package http

import (
	"fmt"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.svc.Dashboard(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toDashboard(d))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.svc.Report(r.Context(), user, ParsePeriod(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toReport(rep))
}

// handleExportReport builds the period report and hands it to the exporter.
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if s.exporter == nil {
		writeError(w, r, fmt.Errorf("%w: report export is not configured", core.ErrUnavailable))
		return
	}

	period := ParsePeriod(r.URL.Query())
	rep, err := s.svc.Report(r.Context(), user, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	written, err := s.exporter.ExportReport(r.Context(), user, rep)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Report exported",
		log.NewFields().
			WithUser(user).
			WithOperation(log.OpExport).
			ToSlice()...)
	writeJSON(w, r, http.StatusOK, exportDTO{Period: rep.Period, Range: written})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	kind, err := requestKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cats, err := s.svc.Categories(kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"kind": kind, "categories": cats})
}
