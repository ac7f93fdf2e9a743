package report

import (
	"time"

	"fintrack/internal/core"
)

const (
	DashboardRecentLimit = 5
	ReportRecentLimit    = 10
	TrendMonths          = 6
)

// Dashboard is the landing-page summary.
type Dashboard struct {
	TotalIncome     core.Money
	TotalExpenses   core.Money
	Balance         core.Money
	MonthlyIncome   core.Money
	MonthlyExpenses core.Money
	Recent          []core.Transaction
}

// CategoryShare is a breakdown entry with its share of the kind total.
type CategoryShare struct {
	CategoryAmount
	Percent float64
}

// Report is the period-scoped analytics view.
type Report struct {
	Period           PeriodName
	Range            Range
	TotalIncome      core.Money
	TotalExpenses    core.Money
	Net              core.Money
	ExpenseBreakdown []CategoryShare
	IncomeBreakdown  []CategoryShare
	Trend            []TrendPoint
	Recent           []core.Transaction
}

// BuildDashboard composes all-time totals, the current month's totals and
// the most recent transactions across both kinds.
func BuildDashboard(expenses, income []core.Transaction, now time.Time) Dashboard {
	month := monthRange(now.UTC(), 0)
	totalIncome := Sum(income)
	totalExpenses := Sum(expenses)

	return Dashboard{
		TotalIncome:     totalIncome,
		TotalExpenses:   totalExpenses,
		Balance:         totalIncome.Sub(totalExpenses),
		MonthlyIncome:   Sum(FilterByPeriod(income, month)),
		MonthlyExpenses: Sum(FilterByPeriod(expenses, month)),
		Recent:          RecentTransactions(expenses, income, DashboardRecentLimit),
	}
}

// BuildReport composes the period-filtered report. It fails without a
// partial result when the period name is not recognised.
func BuildReport(expenses, income []core.Transaction, period PeriodName, now time.Time) (Report, error) {
	r, err := SelectPeriod(period, now)
	if err != nil {
		return Report{}, err
	}
	trend, err := MonthlyTrend(expenses, income, now, TrendMonths)
	if err != nil {
		return Report{}, err
	}

	periodExpenses := FilterByPeriod(expenses, r)
	periodIncome := FilterByPeriod(income, r)
	totalIncome := Sum(periodIncome)
	totalExpenses := Sum(periodExpenses)

	return Report{
		Period:           period,
		Range:            r,
		TotalIncome:      totalIncome,
		TotalExpenses:    totalExpenses,
		Net:              totalIncome.Sub(totalExpenses),
		ExpenseBreakdown: withShares(BreakdownByCategory(periodExpenses), totalExpenses),
		IncomeBreakdown:  withShares(BreakdownByCategory(periodIncome), totalIncome),
		Trend:            trend,
		Recent:           RecentTransactions(periodExpenses, periodIncome, ReportRecentLimit),
	}, nil
}

func withShares(breakdown []CategoryAmount, total core.Money) []CategoryShare {
	out := make([]CategoryShare, len(breakdown))
	for i, c := range breakdown {
		out[i] = CategoryShare{CategoryAmount: c, Percent: Percentage(c.Amount, total)}
	}
	return out
}
