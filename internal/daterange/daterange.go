// Package daterange computes inclusive calendar ranges as ISO (YYYY-MM-DD)
// date strings. ISO dates compare correctly as plain strings, which is how
// every range check in the ledger is done.
package daterange

import (
	"fmt"
	"strconv"
	"time"
)

// Layout is the ISO calendar date layout used for every stored date.
const Layout = "2006-01-02"

// Range is an inclusive [From, To] window. An empty bound is unbounded.
type Range struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Contains reports whether the ISO date lies within the range.
func (r Range) Contains(date string) bool {
	if r.From != "" && date < r.From {
		return false
	}
	if r.To != "" && date > r.To {
		return false
	}
	return true
}

// IsZero reports whether both bounds are open.
func (r Range) IsZero() bool {
	return r.From == "" && r.To == ""
}

// Today returns the current local date in ISO form.
func Today() string {
	return time.Now().Format(Layout)
}

// MonthRange returns the calendar month offset by offsetMonths from the
// current month (0 = this month, -1 = previous month).
func MonthRange(offsetMonths int) Range {
	return MonthRangeAt(time.Now(), offsetMonths)
}

// MonthRangeAt is MonthRange relative to now.
func MonthRangeAt(now time.Time, offsetMonths int) Range {
	first := time.Date(now.Year(), now.Month()+time.Month(offsetMonths), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)
	return Range{From: first.Format(Layout), To: last.Format(Layout)}
}

// LastNDays returns the n-day window ending today, both ends inclusive.
func LastNDays(n int) Range {
	return LastNDaysAt(time.Now(), n)
}

// LastNDaysAt is LastNDays relative to now.
func LastNDaysAt(now time.Time, n int) Range {
	if n < 1 {
		n = 1
	}
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := end.AddDate(0, 0, -(n - 1))
	return Range{From: start.Format(Layout), To: end.Format(Layout)}
}

// ForMonth returns the full calendar month for a "YYYY-MM" value.
func ForMonth(month string) (Range, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return Range{}, fmt.Errorf("invalid month %q, use YYYY-MM", month)
	}
	return MonthRangeAt(t, 0), nil
}

// Period presets offered by the transaction list.
const (
	PeriodCurrentMonth  = "current"
	PeriodPreviousMonth = "previous"
	PeriodLast7Days     = "7"
	PeriodLast30Days    = "30"
	PeriodAll           = "all"
)

// ForPeriod resolves a period preset relative to now. Any other positive
// integer is treated as a trailing day count.
func ForPeriod(period string, now time.Time) (Range, error) {
	switch period {
	case PeriodCurrentMonth:
		return MonthRangeAt(now, 0), nil
	case PeriodPreviousMonth:
		return MonthRangeAt(now, -1), nil
	case PeriodAll, "":
		return Range{}, nil
	}

	days, err := strconv.Atoi(period)
	if err != nil || days < 1 {
		return Range{}, fmt.Errorf("invalid period %q", period)
	}
	return LastNDaysAt(now, days), nil
}

// ValidDate reports whether s is a well-formed ISO calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(Layout, s)
	return err == nil
}
