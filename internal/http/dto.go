package http

import (
	"time"

	"fintrack/internal/core"
	"fintrack/internal/notify"
	"fintrack/internal/report"
)

// moneyDTO carries exact cents for clients plus a ready-to-show string.
type moneyDTO struct {
	Cents   int64  `json:"cents"`
	Display string `json:"display"`
}

func toMoney(m core.Money) moneyDTO {
	return moneyDTO{Cents: m.Cents, Display: formatDollars(m)}
}

// formatDollars renders money as "$12.34", or "-$12.34" when negative.
func formatDollars(m core.Money) string {
	if m.Cents < 0 {
		return "-$" + core.Money{Cents: -m.Cents}.String()
	}
	return "$" + m.String()
}

type transactionDTO struct {
	ID          string     `json:"id"`
	Kind        core.Kind  `json:"kind"`
	Date        string     `json:"date"`
	Description string     `json:"description"`
	Amount      moneyDTO   `json:"amount"`
	Category    string     `json:"category"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

func toTransaction(t core.Transaction) transactionDTO {
	dto := transactionDTO{
		ID:          t.ID,
		Kind:        t.Kind,
		Date:        t.Date.ISO(),
		Description: t.Description,
		Amount:      toMoney(t.Amount),
		Category:    t.CategoryOrDefault(),
		Notes:       t.Notes,
	}
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt.UTC()
		dto.CreatedAt = &created
	}
	if !t.UpdatedAt.IsZero() {
		updated := t.UpdatedAt.UTC()
		dto.UpdatedAt = &updated
	}
	return dto
}

func toTransactions(ts []core.Transaction) []transactionDTO {
	out := make([]transactionDTO, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTransaction(t))
	}
	return out
}

type transactionListDTO struct {
	Kind         core.Kind        `json:"kind"`
	Count        int              `json:"count"`
	Total        moneyDTO         `json:"total"`
	Transactions []transactionDTO `json:"transactions"`
}

type dashboardDTO struct {
	TotalIncome     moneyDTO         `json:"totalIncome"`
	TotalExpenses   moneyDTO         `json:"totalExpenses"`
	Balance         moneyDTO         `json:"balance"`
	MonthlyIncome   moneyDTO         `json:"monthlyIncome"`
	MonthlyExpenses moneyDTO         `json:"monthlyExpenses"`
	Recent          []transactionDTO `json:"recent"`
}

func toDashboard(d report.Dashboard) dashboardDTO {
	return dashboardDTO{
		TotalIncome:     toMoney(d.TotalIncome),
		TotalExpenses:   toMoney(d.TotalExpenses),
		Balance:         toMoney(d.Balance),
		MonthlyIncome:   toMoney(d.MonthlyIncome),
		MonthlyExpenses: toMoney(d.MonthlyExpenses),
		Recent:          toTransactions(d.Recent),
	}
}

type categoryShareDTO struct {
	Name    string   `json:"name"`
	Amount  moneyDTO `json:"amount"`
	Percent float64  `json:"percent"`
}

type trendPointDTO struct {
	Year     int      `json:"year"`
	Month    int      `json:"month"`
	Label    string   `json:"label"`
	Income   moneyDTO `json:"income"`
	Expenses moneyDTO `json:"expenses"`
	Net      moneyDTO `json:"net"`
}

type reportDTO struct {
	Period           report.PeriodName  `json:"period"`
	Start            time.Time          `json:"start"`
	End              time.Time          `json:"end"`
	TotalIncome      moneyDTO           `json:"totalIncome"`
	TotalExpenses    moneyDTO           `json:"totalExpenses"`
	Net              moneyDTO           `json:"net"`
	ExpenseBreakdown []categoryShareDTO `json:"expenseBreakdown"`
	IncomeBreakdown  []categoryShareDTO `json:"incomeBreakdown"`
	Trend            []trendPointDTO    `json:"trend"`
	Recent           []transactionDTO   `json:"recent"`
}

func toShares(shares []report.CategoryShare) []categoryShareDTO {
	out := make([]categoryShareDTO, 0, len(shares))
	for _, s := range shares {
		out = append(out, categoryShareDTO{Name: s.Name, Amount: toMoney(s.Amount), Percent: s.Percent})
	}
	return out
}

func toReport(r report.Report) reportDTO {
	trend := make([]trendPointDTO, 0, len(r.Trend))
	for _, p := range r.Trend {
		trend = append(trend, trendPointDTO{
			Year:     p.Year,
			Month:    int(p.Month),
			Label:    p.Label,
			Income:   toMoney(p.Income),
			Expenses: toMoney(p.Expenses),
			Net:      toMoney(p.Net),
		})
	}
	return reportDTO{
		Period:           r.Period,
		Start:            r.Range.Start,
		End:              r.Range.End,
		TotalIncome:      toMoney(r.TotalIncome),
		TotalExpenses:    toMoney(r.TotalExpenses),
		Net:              toMoney(r.Net),
		ExpenseBreakdown: toShares(r.ExpenseBreakdown),
		IncomeBreakdown:  toShares(r.IncomeBreakdown),
		Trend:            trend,
		Recent:           toTransactions(r.Recent),
	}
}

type exportDTO struct {
	Period report.PeriodName `json:"period"`
	Range  string            `json:"range"`
}

type notificationsDTO struct {
	Notifications []notify.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unreadCount"`
}

func toNotifications(ns []notify.Notification) notificationsDTO {
	if ns == nil {
		ns = []notify.Notification{}
	}
	return notificationsDTO{Notifications: ns, UnreadCount: notify.UnreadCount(ns)}
}
