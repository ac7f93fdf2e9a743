package report

import (
	"fmt"
	"sort"
	"time"

	"fintrack/internal/core"
)

// CategoryAmount is the summed amount of one category.
type CategoryAmount struct {
	Name   string
	Amount core.Money
}

// TrendPoint is one month of the trend series.
type TrendPoint struct {
	Year     int
	Month    time.Month
	Label    string
	Income   core.Money
	Expenses core.Money
	Net      core.Money
}

// Sum totals the amounts of records. An empty input yields zero.
func Sum(records []core.Transaction) core.Money {
	var total core.Money
	for _, tx := range records {
		total = total.Add(tx.Amount)
	}
	return total
}

// BreakdownByCategory groups records by category and sums each group.
// Blank categories fall under core.Uncategorized. The result is ordered by
// amount descending, then by name ascending.
func BreakdownByCategory(records []core.Transaction) []CategoryAmount {
	sums := make(map[string]core.Money)
	for _, tx := range records {
		name := tx.CategoryOrDefault()
		sums[name] = sums[name].Add(tx.Amount)
	}

	out := make([]CategoryAmount, 0, len(sums))
	for name, amount := range sums {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Percentage returns part as a percentage of total, or 0 when total is zero.
func Percentage(part, total core.Money) float64 {
	if total.Cents == 0 {
		return 0
	}
	return float64(part.Cents) * 100 / float64(total.Cents)
}

// MonthlyTrend computes income, expense and net totals for the monthCount
// months ending with now's month, oldest first.
func MonthlyTrend(expenses, income []core.Transaction, now time.Time, monthCount int) ([]TrendPoint, error) {
	if monthCount < 1 {
		return nil, fmt.Errorf("%w: month count must be positive, got %d", core.ErrInvalidArgument, monthCount)
	}
	now = now.UTC()

	points := make([]TrendPoint, 0, monthCount)
	for i := monthCount - 1; i >= 0; i-- {
		r := monthRange(now, -i)
		in := Sum(FilterByPeriod(income, r))
		out := Sum(FilterByPeriod(expenses, r))
		points = append(points, TrendPoint{
			Year:     r.Start.Year(),
			Month:    r.Start.Month(),
			Label:    r.Start.Format("Jan"),
			Income:   in,
			Expenses: out,
			Net:      in.Sub(out),
		})
	}
	return points, nil
}

// RecentTransactions merges both kinds, tags each record with its kind and
// returns at most limit records, newest first. Records with equal dates keep
// their fetch order, income before expenses.
func RecentTransactions(expenses, income []core.Transaction, limit int) []core.Transaction {
	if limit <= 0 {
		return []core.Transaction{}
	}

	merged := make([]core.Transaction, 0, len(expenses)+len(income))
	for _, tx := range income {
		tx.Kind = core.Income
		merged = append(merged, tx)
	}
	for _, tx := range expenses {
		tx.Kind = core.Expense
		merged = append(merged, tx)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date.Time)
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
