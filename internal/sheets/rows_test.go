package sheets

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/report"
)

func sampleReport(t *testing.T) report.Report {
	t.Helper()
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	expenses := []core.Transaction{
		{ID: "1", Kind: core.Expense, Date: core.NewDate(2024, 3, 2), Description: "Market", Amount: core.Money{Cents: 4000}, Category: "Groceries"},
		{ID: "2", Kind: core.Expense, Date: core.NewDate(2024, 3, 3), Description: "Fuel", Amount: core.Money{Cents: 2000}, Category: "Gas"},
	}
	income := []core.Transaction{
		{ID: "3", Kind: core.Income, Date: core.NewDate(2024, 3, 1), Description: "Pay", Amount: core.Money{Cents: 100000}, Category: "Salary"},
	}
	r, err := report.BuildReport(expenses, income, report.CurrentMonth, now)
	require.NoError(t, err)
	return r
}

func TestReportRows(t *testing.T) {
	rows := ReportRows(sampleReport(t))

	assert.Equal(t, []any{"Report", "current-month"}, rows[0])
	assert.Equal(t, []any{"From", "2024-03-01"}, rows[1])
	assert.Equal(t, []any{"To", "2024-03-31"}, rows[2])
	assert.Equal(t, []any{"Net", 940.0}, rows[6])
	assert.Equal(t, []any{"Groceries", 40.0, 66.67}, rows[9])
	assert.Equal(t, []any{"Gas", 20.0, 33.33}, rows[10])

	last := rows[len(rows)-1]
	assert.Equal(t, []any{"2024-03-01", "income", "Pay", "Salary", 1000.0}, last)
}

func TestSheetTitle(t *testing.T) {
	r := sampleReport(t)
	generated := time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC)

	assert.Equal(t, "u1 current-month 2024-03-15", SheetTitle("u1", r, generated))
	long := SheetTitle(strings.Repeat("x", 200), r, generated)
	assert.Equal(t, 100, utf8.RuneCountInString(long))
	assert.True(t, strings.HasPrefix(long, "xxxx"))
	assert.True(t, strings.HasSuffix(long, " current-month 2024-03-15"))

	// Multi-byte ids stay valid UTF-8 and distinct ids stay on distinct tabs.
	a := SheetTitle(strings.Repeat("é", 150)+"a", r, generated)
	b := SheetTitle(strings.Repeat("é", 150)+"b", r, generated)
	assert.True(t, utf8.ValidString(a))
	assert.LessOrEqual(t, utf8.RuneCountInString(a), 100)
	assert.NotEqual(t, a, b)
}
