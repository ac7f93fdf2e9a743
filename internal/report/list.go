package report

import (
	"fmt"
	"sort"
	"strings"

	"fintrack/internal/core"
)

// SortKey orders a transaction list.
type SortKey string

const (
	SortByDate   SortKey = "date"
	SortByAmount SortKey = "amount"
)

// AllCategories disables category filtering, like an empty Category.
const AllCategories = "All Categories"

// ListOptions narrows and orders a single-kind transaction list.
type ListOptions struct {
	// Search matches description or notes, case-insensitively.
	Search   string
	Category string
	SortBy   SortKey
}

// ApplyListOptions filters and sorts records without modifying the input.
// Both sort orders are descending and stable.
func ApplyListOptions(records []core.Transaction, opts ListOptions) ([]core.Transaction, error) {
	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = SortByDate
	}
	if sortBy != SortByDate && sortBy != SortByAmount {
		return nil, fmt.Errorf("%w: unknown sort key %q", core.ErrInvalidArgument, string(opts.SortBy))
	}

	needle := strings.ToLower(strings.TrimSpace(opts.Search))
	category := strings.TrimSpace(opts.Category)
	if category == AllCategories {
		category = ""
	}

	out := make([]core.Transaction, 0, len(records))
	for _, tx := range records {
		if needle != "" &&
			!strings.Contains(strings.ToLower(tx.Description), needle) &&
			!strings.Contains(strings.ToLower(tx.Notes), needle) {
			continue
		}
		if category != "" && tx.Category != category {
			continue
		}
		out = append(out, tx)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if sortBy == SortByAmount {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Date.After(out[j].Date.Time)
	})
	return out, nil
}
