package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/report"
)

func tx(id string, cents int64, category string, y, m, d int) core.Transaction {
	return core.Transaction{
		ID:          id,
		Amount:      core.Money{Cents: cents},
		Category:    category,
		Description: "item " + id,
		Date:        core.NewDate(y, m, d),
	}
}

func TestSum(t *testing.T) {
	assert.Equal(t, core.Money{}, report.Sum(nil))
	assert.Equal(t, core.Money{}, report.Sum([]core.Transaction{}))

	records := []core.Transaction{
		tx("1", 10, "Gas", 2024, 1, 1),
		tx("2", 20, "Gas", 2024, 1, 2),
		tx("3", 1, "Other", 2024, 1, 3),
	}
	assert.Equal(t, core.Money{Cents: 31}, report.Sum(records))
}

func TestSum_NoFloatingDrift(t *testing.T) {
	// 0.1 + 0.2 in binary floating point is 0.30000000000000004.
	records := []core.Transaction{tx("1", 10, "Gas", 2024, 1, 1), tx("2", 20, "Gas", 2024, 1, 1)}
	assert.Equal(t, "0.30", report.Sum(records).String())
}

func TestBreakdownByCategory(t *testing.T) {
	tests := []struct {
		name    string
		records []core.Transaction
		want    []report.CategoryAmount
	}{
		{
			name: "same category across months is summed",
			records: []core.Transaction{
				tx("1", 5000, "Food", 2024, 1, 5),
				tx("2", 3000, "Food", 2024, 2, 10),
			},
			want: []report.CategoryAmount{{Name: "Food", Amount: core.Money{Cents: 8000}}},
		},
		{
			name:    "empty category is uncategorized",
			records: []core.Transaction{tx("1", 100, "", 2024, 1, 1)},
			want:    []report.CategoryAmount{{Name: core.Uncategorized, Amount: core.Money{Cents: 100}}},
		},
		{
			name: "ordered by amount desc then name asc",
			records: []core.Transaction{
				tx("1", 100, "Gas", 2024, 1, 1),
				tx("2", 300, "Travel", 2024, 1, 1),
				tx("3", 100, "Education", 2024, 1, 1),
			},
			want: []report.CategoryAmount{
				{Name: "Travel", Amount: core.Money{Cents: 300}},
				{Name: "Education", Amount: core.Money{Cents: 100}},
				{Name: "Gas", Amount: core.Money{Cents: 100}},
			},
		},
		{
			name:    "empty input",
			records: nil,
			want:    []report.CategoryAmount{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, report.BreakdownByCategory(tt.records))
		})
	}
}

func TestBreakdownByCategory_PartitionsSum(t *testing.T) {
	records := []core.Transaction{
		tx("1", 1999, "Gas", 2024, 1, 1),
		tx("2", 1, "", 2024, 1, 2),
		tx("3", 250, "Travel", 2024, 2, 1),
		tx("4", 7, "Gas", 2024, 3, 1),
		tx("5", 333, "Other", 2024, 3, 9),
	}

	var total core.Money
	for _, c := range report.BreakdownByCategory(records) {
		total = total.Add(c.Amount)
	}
	assert.Equal(t, report.Sum(records), total)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, report.Percentage(core.Money{Cents: 10}, core.Money{}))
	assert.InDelta(t, 25.0, report.Percentage(core.Money{Cents: 25}, core.Money{Cents: 100}), 1e-9)
}

func TestMonthlyTrend(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	expenses := []core.Transaction{
		tx("e1", 1000, "Gas", 2024, 3, 1),
		tx("e2", 500, "Gas", 2024, 1, 31),
		tx("e3", 999, "Gas", 2023, 9, 30), // outside the window
	}
	income := []core.Transaction{
		tx("i1", 4000, "Salary", 2024, 3, 31),
		tx("i2", 100, "Gift", 2023, 10, 1),
	}

	points, err := report.MonthlyTrend(expenses, income, now, 6)
	require.NoError(t, err)
	require.Len(t, points, 6)

	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Label
		assert.Equal(t, p.Income.Sub(p.Expenses), p.Net, "net of %s", p.Label)
	}
	assert.Equal(t, []string{"Oct", "Nov", "Dec", "Jan", "Feb", "Mar"}, labels)
	assert.Equal(t, 2023, points[0].Year)
	assert.Equal(t, core.Money{Cents: 100}, points[0].Income)
	assert.Equal(t, core.Money{Cents: 500}, points[3].Expenses)
	assert.Equal(t, core.Money{Cents: 4000}, points[5].Income)
	assert.Equal(t, core.Money{Cents: 1000}, points[5].Expenses)
	assert.Equal(t, core.Money{Cents: 3000}, points[5].Net)
}

func TestMonthlyTrend_InvalidCount(t *testing.T) {
	_, err := report.MonthlyTrend(nil, nil, time.Now(), 0)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestRecentTransactions(t *testing.T) {
	expenses := []core.Transaction{
		tx("e1", 1, "Gas", 2024, 3, 10),
		tx("e2", 1, "Gas", 2024, 3, 10),
		tx("e3", 1, "Gas", 2024, 1, 1),
	}
	income := []core.Transaction{
		tx("i1", 1, "Salary", 2024, 3, 12),
		tx("i2", 1, "Salary", 2024, 2, 1),
	}

	got := report.RecentTransactions(expenses, income, 4)
	require.Len(t, got, 4)

	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
		if i > 0 {
			assert.False(t, r.Date.After(got[i-1].Date.Time), "not sorted at %d", i)
		}
	}
	// e1 and e2 share a date and keep their fetch order.
	assert.Equal(t, []string{"i1", "e1", "e2", "i2"}, ids)
	assert.Equal(t, core.Income, got[0].Kind)
	assert.Equal(t, core.Expense, got[1].Kind)
}

func TestRecentTransactions_Limit(t *testing.T) {
	expenses := []core.Transaction{tx("e1", 1, "Gas", 2024, 3, 10)}
	assert.Len(t, report.RecentTransactions(expenses, nil, 10), 1)
	assert.Empty(t, report.RecentTransactions(expenses, nil, 0))
}

func TestRecentTransactions_DoesNotMutateInput(t *testing.T) {
	expenses := []core.Transaction{tx("e1", 1, "Gas", 2024, 3, 10)}
	_ = report.RecentTransactions(expenses, nil, 5)
	assert.Equal(t, core.Kind(""), expenses[0].Kind)
}

func TestAggregatorsAreIdempotent(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	expenses := []core.Transaction{tx("e1", 10, "Gas", 2024, 3, 1), tx("e2", 20, "", 2024, 2, 1)}
	income := []core.Transaction{tx("i1", 30, "Salary", 2024, 3, 2)}

	assert.Equal(t, report.Sum(expenses), report.Sum(expenses))
	assert.Equal(t, report.BreakdownByCategory(expenses), report.BreakdownByCategory(expenses))
	assert.Equal(t, report.RecentTransactions(expenses, income, 3), report.RecentTransactions(expenses, income, 3))

	first, err := report.MonthlyTrend(expenses, income, now, 6)
	require.NoError(t, err)
	second, err := report.MonthlyTrend(expenses, income, now, 6)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
