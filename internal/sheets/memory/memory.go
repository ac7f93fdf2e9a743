package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fintrack/internal/report"
	ports "fintrack/internal/sheets"
)

var _ ports.ReportExporter = (*Store)(nil)

// Export is one recorded report export.
type Export struct {
	UserID string
	Title  string
	Rows   [][]any
}

// Store records exports in memory. It backs the export endpoint when no
// spreadsheet is configured.
type Store struct {
	mu      sync.Mutex
	exports []Export
	now     func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

func (s *Store) ExportReport(_ context.Context, userID string, r report.Report) (string, error) {
	rows := ports.ReportRows(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	title := ports.SheetTitle(userID, r, s.now())
	s.exports = append(s.exports, Export{UserID: userID, Title: title, Rows: rows})
	return fmt.Sprintf("mem:%d!A1:E%d", len(s.exports), len(rows)), nil
}

// Destination reports that exports stay in process memory.
func (s *Store) Destination() string { return "memory" }

// Exports returns a copy of the recorded exports.
func (s *Store) Exports() []Export {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Export(nil), s.exports...)
}
