package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/notify"
	"fintrack/internal/report"
)

// maxBodyBytes bounds request bodies; transactions are small.
const maxBodyBytes = 64 << 10

// transactionRequest is the body of create and update calls. Amount accepts
// either a JSON number or a decimal string ("12.34" or "12,34").
type transactionRequest struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Notes       string          `json:"notes"`
}

// decodeJSON reads one JSON object from the body, rejecting unknown fields
// and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body exceeds %d bytes", core.ErrInvalidArgument, tooLarge.Limit)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", core.ErrInvalidArgument)
		}
		return fmt.Errorf("%w: malformed JSON: %v", core.ErrInvalidArgument, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON object", core.ErrInvalidArgument)
	}
	return nil
}

// parseAmount turns the raw amount field into money without going through float64.
func parseAmount(raw json.RawMessage) (core.Money, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return core.Money{}, fmt.Errorf("%w: missing", core.ErrInvalidAmount)
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return core.Money{}, fmt.Errorf("%w: %v", core.ErrInvalidAmount, err)
		}
	}
	cents, err := core.ParseDecimalToCents(text)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// Patch validates the request shape and converts it. Domain rules (length,
// category membership) are left to the service.
func (req transactionRequest) Patch() (core.Patch, error) {
	date, err := core.ParseISODate(req.Date)
	if err != nil {
		return core.Patch{}, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Patch{}, err
	}
	return core.Patch{
		Date:        date,
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Category:    sanitizeInput(req.Category),
		Notes:       sanitizeInput(req.Notes),
	}, nil
}

// parseTransactionRequest decodes a create or update body.
func parseTransactionRequest(w http.ResponseWriter, r *http.Request) (core.Patch, error) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return core.Patch{}, err
	}
	return req.Patch()
}

// notificationRequest is the body of a manual notification: a budget alert
// (category, spent, budget) or a goal achievement (goal).
type notificationRequest struct {
	Type     notify.Type     `json:"type"`
	Category string          `json:"category"`
	Spent    json.RawMessage `json:"spent"`
	Budget   json.RawMessage `json:"budget"`
	Goal     string          `json:"goal"`
}

// Notification validates the request and builds the matching notification.
func (req notificationRequest) Notification() (notify.Notification, error) {
	switch req.Type {
	case notify.TypeBudgetAlert:
		category := sanitizeInput(req.Category)
		if category == "" {
			return notify.Notification{}, fmt.Errorf("%w: category is required", core.ErrInvalidArgument)
		}
		spent, err := parseAmount(req.Spent)
		if err != nil {
			return notify.Notification{}, fmt.Errorf("spent: %w", err)
		}
		budget, err := parseAmount(req.Budget)
		if err != nil {
			return notify.Notification{}, fmt.Errorf("budget: %w", err)
		}
		return notify.BuildBudgetAlert(category, spent, budget), nil
	case notify.TypeGoal:
		goal := sanitizeInput(req.Goal)
		if goal == "" {
			return notify.Notification{}, fmt.Errorf("%w: goal is required", core.ErrInvalidArgument)
		}
		return notify.BuildGoalNotification(goal), nil
	}
	return notify.Notification{}, fmt.Errorf("%w: unsupported notification type %q (valid: %s, %s)",
		core.ErrInvalidArgument, string(req.Type), notify.TypeBudgetAlert, notify.TypeGoal)
}

func parseNotificationRequest(w http.ResponseWriter, r *http.Request) (notify.Notification, error) {
	var req notificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return notify.Notification{}, err
	}
	return req.Notification()
}

// ParseListOptions reads search, category and sort from the query string.
func ParseListOptions(query url.Values) report.ListOptions {
	return report.ListOptions{
		Search:   sanitizeInput(query.Get("search")),
		Category: sanitizeInput(query.Get("category")),
		SortBy:   report.SortKey(strings.ToLower(strings.TrimSpace(query.Get("sort")))),
	}
}

// ParsePeriod reads the period query parameter, defaulting to the current month.
func ParsePeriod(query url.Values) report.PeriodName {
	if p := strings.TrimSpace(query.Get("period")); p != "" {
		return report.PeriodName(p)
	}
	return report.CurrentMonth
}
