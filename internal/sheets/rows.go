package sheets

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"fintrack/internal/report"
)

// maxTitleRunes is the longest tab title Sheets accepts.
const maxTitleRunes = 100

// SheetTitle names the tab a report is written to. Titles are unique per
// user, period and generation day so a re-export overwrites the same tab.
// A user id too long to fit is shortened to a prefix plus a hash of the
// whole id, which keeps distinct users on distinct tabs.
func SheetTitle(userID string, r report.Report, generated time.Time) string {
	suffix := fmt.Sprintf(" %s %s", r.Period, generated.UTC().Format("2006-01-02"))
	if utf8.RuneCountInString(userID)+utf8.RuneCountInString(suffix) <= maxTitleRunes {
		return userID + suffix
	}

	sum := sha256.Sum256([]byte(userID))
	tag := "~" + hex.EncodeToString(sum[:4])
	keep := maxTitleRunes - utf8.RuneCountInString(suffix) - len(tag)
	if keep < 0 {
		keep = 0
	}
	return string([]rune(userID)[:keep]) + tag + suffix
}

// ReportRows lays a report out as spreadsheet rows: a summary block, the two
// category breakdowns, the monthly trend and the recent transactions.
func ReportRows(r report.Report) [][]any {
	rows := [][]any{
		{"Report", string(r.Period)},
		{"From", r.Range.Start.Format("2006-01-02")},
		{"To", r.Range.End.Format("2006-01-02")},
		{},
		{"Total income", r.TotalIncome.Dollars()},
		{"Total expenses", r.TotalExpenses.Dollars()},
		{"Net", r.Net.Dollars()},
		{},
		{"Expense category", "Amount", "Percent"},
	}
	for _, c := range r.ExpenseBreakdown {
		rows = append(rows, []any{c.Name, c.Amount.Dollars(), round2(c.Percent)})
	}

	rows = append(rows, []any{}, []any{"Income category", "Amount", "Percent"})
	for _, c := range r.IncomeBreakdown {
		rows = append(rows, []any{c.Name, c.Amount.Dollars(), round2(c.Percent)})
	}

	rows = append(rows, []any{}, []any{"Month", "Income", "Expenses", "Net"})
	for _, p := range r.Trend {
		rows = append(rows, []any{fmt.Sprintf("%s %d", p.Label, p.Year), p.Income.Dollars(), p.Expenses.Dollars(), p.Net.Dollars()})
	}

	rows = append(rows, []any{}, []any{"Date", "Kind", "Description", "Category", "Amount"})
	for _, t := range r.Recent {
		rows = append(rows, []any{t.Date.ISO(), string(t.Kind), t.Description, t.CategoryOrDefault(), t.Amount.Dollars()})
	}
	return rows
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
