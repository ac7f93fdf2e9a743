// Package core holds the transaction record, money and date values, and the
// error sentinels shared by every layer.
package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Expense Kind = "expense"
	Income  Kind = "income"
)

// Uncategorized groups records whose category is missing.
const Uncategorized = "Uncategorized"

type (
	// Kind discriminates expense records from income records.
	Kind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is one expense or income entry owned by a single user.
	Transaction struct {
		ID          string
		Kind        Kind
		Date        Date
		Description string
		Amount      Money
		Category    string
		Notes       string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Patch carries the editable fields of a Transaction. Updates replace all of them.
	Patch struct {
		Date        Date
		Description string
		Amount      Money
		Category    string
		Notes       string
	}
)

var (
	ErrInvalidKind      = fmt.Errorf("%w: invalid kind", ErrInvalidArgument)
	ErrInvalidDate      = fmt.Errorf("%w: invalid date", ErrInvalidArgument)
	ErrInvalidAmount    = fmt.Errorf("%w: invalid amount", ErrInvalidArgument)
	ErrShortDescription = fmt.Errorf("%w: description must be at least 2 characters", ErrInvalidArgument)
	ErrLongDescription  = fmt.Errorf("%w: description too long (max 200 characters)", ErrInvalidArgument)
	ErrLongNotes        = fmt.Errorf("%w: notes too long (max 1000 characters)", ErrInvalidArgument)
	ErrUnknownCategory  = fmt.Errorf("%w: unknown category", ErrInvalidArgument)
	ErrEmptyCategory    = fmt.Errorf("%w: empty category", ErrInvalidArgument)
	errZeroDate         = errors.New("date cannot be zero")
)

var expenseCategories = []string{
	"Food & Dining",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Bills & Utilities",
	"Healthcare",
	"Education",
	"Travel",
	"Groceries",
	"Gas",
	"Insurance",
	"Other",
}

var incomeCategories = []string{
	"Salary",
	"Freelance",
	"Business",
	"Investment",
	"Rental Income",
	"Bonus",
	"Commission",
	"Gift",
	"Refund",
	"Other",
}

// ParseKind accepts the singular kind names plus the collection names used in URLs.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense", "expenses":
		return Expense, nil
	case "income", "incomes":
		return Income, nil
	}
	return "", fmt.Errorf("%w %q", ErrInvalidKind, s)
}

func (k Kind) Validate() error {
	switch k {
	case Expense, Income:
		return nil
	}
	return fmt.Errorf("%w %q", ErrInvalidKind, string(k))
}

// Categories returns the closed category set for the kind.
func (k Kind) Categories() []string {
	switch k {
	case Expense:
		return append([]string(nil), expenseCategories...)
	case Income:
		return append([]string(nil), incomeCategories...)
	}
	return nil
}

// HasCategory reports whether name belongs to the kind's category set.
func (k Kind) HasCategory(name string) bool {
	for _, c := range k.Categories() {
		if c == name {
			return true
		}
	}
	return false
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: %v", ErrInvalidDate, errZeroDate)
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (p Patch) Validate(kind Kind) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	if err := p.Date.Validate(); err != nil {
		return err
	}
	desc := strings.TrimSpace(p.Description)
	if utf8.RuneCountInString(desc) < 2 {
		return ErrShortDescription
	}
	if utf8.RuneCountInString(desc) > 200 {
		return ErrLongDescription
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Category) == "" {
		return ErrEmptyCategory
	}
	if !kind.HasCategory(p.Category) {
		return fmt.Errorf("%w %q for %s", ErrUnknownCategory, p.Category, kind)
	}
	if utf8.RuneCountInString(p.Notes) > 1000 {
		return ErrLongNotes
	}
	return nil
}

// Validate checks the editable fields of t against its kind.
func (t Transaction) Validate() error {
	return t.Patch().Validate(t.Kind)
}

// Patch extracts the editable fields.
func (t Transaction) Patch() Patch {
	return Patch{
		Date:        t.Date,
		Description: t.Description,
		Amount:      t.Amount,
		Category:    t.Category,
		Notes:       t.Notes,
	}
}

// Apply returns a copy of t with the editable fields replaced by p.
func (t Transaction) Apply(p Patch) Transaction {
	t.Date = p.Date
	t.Description = strings.TrimSpace(p.Description)
	t.Amount = p.Amount
	t.Category = p.Category
	t.Notes = p.Notes
	return t
}

// CategoryOrDefault returns the category, or Uncategorized when it is blank.
func (t Transaction) CategoryOrDefault() string {
	if c := strings.TrimSpace(t.Category); c != "" {
		return c
	}
	return Uncategorized
}
