// Package report reduces fetched transaction sets into dashboard and report
// summaries. Everything here is pure: inputs are never mutated and the
// reference time is always passed in.
package report

import (
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
)

// PeriodName identifies a reporting window relative to a reference time.
type PeriodName string

const (
	CurrentMonth PeriodName = "current-month"
	LastMonth    PeriodName = "last-month"
	Last3Months  PeriodName = "last-3-months"
	Last6Months  PeriodName = "last-6-months"
	LastYear     PeriodName = "last-year"
)

// Periods lists the recognised period names in display order.
func Periods() []PeriodName {
	return []PeriodName{CurrentMonth, LastMonth, Last3Months, Last6Months, LastYear}
}

func validPeriods() string {
	names := make([]string, 0, len(Periods()))
	for _, p := range Periods() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

// Range is a closed interval [Start, End]. End is the last instant of its day.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the range, both bounds inclusive.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// SelectPeriod resolves a period name to its date range, anchored on now.
// Month boundaries are computed in UTC, the zone records are normalized to.
func SelectPeriod(name PeriodName, now time.Time) (Range, error) {
	now = now.UTC()
	switch name {
	case CurrentMonth:
		return monthRange(now, 0), nil
	case LastMonth:
		return monthRange(now, -1), nil
	case Last3Months:
		return Range{Start: startOfMonth(now, -3), End: endOfMonth(now, 0)}, nil
	case Last6Months:
		return Range{Start: startOfMonth(now, -6), End: endOfMonth(now, 0)}, nil
	case LastYear:
		return Range{Start: startOfMonth(now, -12), End: endOfMonth(now, 0)}, nil
	}
	return Range{}, fmt.Errorf("%w: unknown period %q (valid: %s)", core.ErrInvalidArgument, string(name), validPeriods())
}

// FilterByPeriod returns the records dated within r, preserving input order.
func FilterByPeriod(records []core.Transaction, r Range) []core.Transaction {
	out := make([]core.Transaction, 0, len(records))
	for _, tx := range records {
		if r.Contains(tx.Date.Time) {
			out = append(out, tx)
		}
	}
	return out
}

func monthRange(now time.Time, offset int) Range {
	return Range{Start: startOfMonth(now, offset), End: endOfMonth(now, offset)}
}

// startOfMonth returns midnight of the first day of the month offset months from now.
func startOfMonth(now time.Time, offset int) time.Time {
	return time.Date(now.Year(), now.Month()+time.Month(offset), 1, 0, 0, 0, 0, time.UTC)
}

func endOfMonth(now time.Time, offset int) time.Time {
	return startOfMonth(now, offset+1).Add(-time.Nanosecond)
}
