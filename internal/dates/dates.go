// Package dates holds the calendar arithmetic shared by the dashboards:
// YYYY-MM month keys, trailing month windows, fiscal months and
// subscription renewal dates.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/domain"
)

const (
	// MonthLayout is the layout of a month key.
	MonthLayout = "2006-01"

	// DefaultMonths is the trailing window used when a caller does not ask for one.
	DefaultMonths = 6

	// MaxMonths bounds trailing windows.
	MaxMonths = 24
)

var monthKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format(MonthLayout)
}

// DateMonthKey formats d as YYYY-MM.
func DateMonthKey(d civil.Date) string {
	return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
}

// ParseMonth validates a YYYY-MM key and returns the first instant of that
// month in UTC.
func ParseMonth(key string) (time.Time, error) {
	if !monthKeyPattern.MatchString(key) {
		return time.Time{}, fmt.Errorf("%w: month must be in YYYY-MM format", domain.ErrInvalidInput)
	}
	t, err := time.Parse(MonthLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month %q: %v", domain.ErrInvalidInput, key, err)
	}
	return t, nil
}

// MonthBounds returns the first and last calendar day of the month key.
func MonthBounds(key string) (civil.Date, civil.Date, error) {
	start, err := ParseMonth(key)
	if err != nil {
		return civil.Date{}, civil.Date{}, err
	}
	end := start.AddDate(0, 1, -1)
	return civil.DateOf(start), civil.DateOf(end), nil
}

// PreviousMonth returns the key of the month before key.
func PreviousMonth(key string) (string, error) {
	t, err := ParseMonth(key)
	if err != nil {
		return "", err
	}
	return MonthKey(t.AddDate(0, -1, 0)), nil
}

// ClampMonths turns a user supplied window size into one within 1..MaxMonths.
// Zero or negative means "not given" and yields DefaultMonths.
func ClampMonths(n int) int {
	switch {
	case n <= 0:
		return DefaultMonths
	case n > MaxMonths:
		return MaxMonths
	}
	return n
}

// ParseMonths parses the months query parameter. An empty string gives
// DefaultMonths; anything outside 1..MaxMonths is rejected.
func ParseMonths(s string) (int, error) {
	if s == "" {
		return DefaultMonths, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > MaxMonths {
		return 0, fmt.Errorf("%w: months must be between 1 and %d", domain.ErrInvalidInput, MaxMonths)
	}
	return n, nil
}

// MonthWindow returns n month keys, oldest first, ending with the month of ref.
func MonthWindow(ref time.Time, n int) []string {
	n = ClampMonths(n)
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	keys := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		keys = append(keys, MonthKey(first.AddDate(0, -i, 0)))
	}
	return keys
}

// WindowBounds returns the first day of the oldest month and the last day of
// the newest month in a window produced by MonthWindow.
func WindowBounds(window []string) (civil.Date, civil.Date, error) {
	if len(window) == 0 {
		return civil.Date{}, civil.Date{}, fmt.Errorf("%w: empty month window", domain.ErrInvalidInput)
	}
	from, _, err := MonthBounds(window[0])
	if err != nil {
		return civil.Date{}, civil.Date{}, err
	}
	_, to, err := MonthBounds(window[len(window)-1])
	if err != nil {
		return civil.Date{}, civil.Date{}, err
	}
	return from, to, nil
}

// FiscalMonth returns the fiscal month containing ref when fiscal months
// begin on startDay (for example a salary day). Start days past the end of a
// short month clamp to its last day. A startDay of 1 or less yields the
// calendar month.
func FiscalMonth(ref civil.Date, startDay int) (civil.Date, civil.Date) {
	if startDay < 1 {
		startDay = 1
	}
	start := anchor(ref.Year, ref.Month, startDay)
	if ref.Before(start) {
		prev := time.Date(ref.Year, ref.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		start = anchor(prev.Year(), prev.Month(), startDay)
	}
	nextMonth := time.Date(start.Year, start.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	next := anchor(nextMonth.Year(), nextMonth.Month(), startDay)
	return start, next.AddDays(-1)
}

func anchor(year int, month time.Month, day int) civil.Date {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	return civil.Date{Year: year, Month: month, Day: day}
}

// NextRenewal steps from start by one cycle at a time until the date is
// strictly after now. Steps are counted from start so that a start on the
// 31st lands on month ends rather than drifting.
func NextRenewal(start civil.Date, cycle domain.Cycle, now time.Time) civil.Date {
	today := civil.DateOf(now)
	base := start.In(time.UTC)
	next := start
	for i := 1; !next.After(today); i++ {
		switch cycle {
		case domain.CycleYearly:
			next = addMonthsClamped(base, 12*i)
		default:
			next = addMonthsClamped(base, i)
		}
	}
	return next
}

func addMonthsClamped(t time.Time, months int) civil.Date {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	return anchor(first.Year(), first.Month(), t.Day())
}

// InRange reports whether d lies within [from, to].
func InRange(d, from, to civil.Date) bool {
	return !d.Before(from) && !d.After(to)
}
