// Package notify builds user notifications from transactions and delivers
// them on a best-effort basis.
package notify

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// Type classifies a notification.
type Type string

const (
	TypeExpense     Type = "expense"
	TypeIncome      Type = "income"
	TypeBudgetAlert Type = "budget_alert"
	TypeGoal        Type = "goal"
)

// Notification is derived from a user action. Only Read changes after creation.
type Notification struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Icon      string    `json:"icon"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func BuildExpenseNotification(t core.Transaction) Notification {
	return Notification{
		Type:    TypeExpense,
		Title:   "New Expense Added",
		Message: fmt.Sprintf("You added $%s for %s", t.Amount.Compact(), t.Category),
		Icon:    "💸",
	}
}

func BuildIncomeNotification(t core.Transaction) Notification {
	return Notification{
		Type:    TypeIncome,
		Title:   "New Income Added",
		Message: fmt.Sprintf("You added $%s from %s", t.Amount.Compact(), t.Category),
		Icon:    "💰",
	}
}

// BuildBudgetAlert reports spending against a category budget.
func BuildBudgetAlert(category string, spent, budget core.Money) Notification {
	return Notification{
		Type:    TypeBudgetAlert,
		Title:   "Budget Alert",
		Message: fmt.Sprintf("You've spent $%s of $%s budget for %s", spent.Compact(), budget.Compact(), category),
		Icon:    "⚠️",
	}
}

func BuildGoalNotification(goal string) Notification {
	return Notification{
		Type:    TypeGoal,
		Title:   "Goal Achievement",
		Message: fmt.Sprintf("Congratulations! You've achieved your %s goal!", goal),
		Icon:    "🎉",
	}
}

// Build picks the builder matching the transaction kind.
func Build(t core.Transaction) (Notification, error) {
	switch t.Kind {
	case core.Expense:
		return BuildExpenseNotification(t), nil
	case core.Income:
		return BuildIncomeNotification(t), nil
	}
	return Notification{}, fmt.Errorf("build notification: %w", t.Kind.Validate())
}

// UnreadCount counts notifications not yet marked read.
func UnreadCount(ns []Notification) int {
	n := 0
	for _, x := range ns {
		if !x.Read {
			n++
		}
	}
	return n
}
