// Package sheets exports report views to spreadsheets.
package sheets

import (
	"context"

	"fintrack/internal/report"
)

// ReportExporter writes a report somewhere a user can open it and returns a
// reference to the written range.
type ReportExporter interface {
	ExportReport(ctx context.Context, userID string, r report.Report) (ref string, err error)
}

// Destination is implemented by exporters that can say where reports land,
// for readiness output.
type Destination interface {
	Destination() string
}
