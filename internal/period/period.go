// Package period implements calendar arithmetic for the week/month/year
// buckets behind every aggregation view: range resolution, label formatting,
// offset navigation and cross-timeframe conversion. Everything here is pure
// and operates in UTC; the ledger stores dates at UTC midnight.
package period

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/hausledger/backend/internal/apperrors"
)

// Timeframe is the bucketing granularity for period-based aggregation.
type Timeframe string

const (
	Week  Timeframe = "week"
	Month Timeframe = "month"
	Year  Timeframe = "year"
)

// ParseTimeframe validates a timeframe string from a request.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case Week, Month, Year:
		return Timeframe(s), nil
	}
	return "", apperrors.Validation("invalid timeframe %q: must be week, month or year", s)
}

// DateRange is one resolved period. End is exclusive: the first instant of
// the following period.
type DateRange struct {
	Start time.Time
	End   time.Time
	Label string
}

var (
	weekKeyRe  = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)
	monthKeyRe = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	yearKeyRe  = regexp.MustCompile(`^(\d{4})$`)
)

// KeyFor returns the canonical period key containing the given instant:
// ISO week "YYYY-Www" (Monday start, week 1 contains Jan 4), month "YYYY-MM"
// or year "YYYY".
func KeyFor(tf Timeframe, t time.Time) string {
	t = t.UTC()
	switch tf {
	case Week:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case Month:
		return t.Format("2006-01")
	default:
		return t.Format("2006")
	}
}

// Range resolves a period key into its half-open date range and display label.
func Range(tf Timeframe, key string) (DateRange, error) {
	switch tf {
	case Week:
		m := weekKeyRe.FindStringSubmatch(key)
		if m == nil {
			return DateRange{}, apperrors.Validation("invalid week key %q: expected YYYY-Www", key)
		}
		year, _ := strconv.Atoi(m[1])
		week, _ := strconv.Atoi(m[2])
		if week < 1 || week > 53 {
			return DateRange{}, apperrors.Validation("invalid week key %q: week out of range", key)
		}
		start := isoWeekStart(year, week)
		return DateRange{
			Start: start,
			End:   start.AddDate(0, 0, 7),
			Label: fmt.Sprintf("Week %d, %d", week, year),
		}, nil
	case Month:
		m := monthKeyRe.FindStringSubmatch(key)
		if m == nil {
			return DateRange{}, apperrors.Validation("invalid month key %q: expected YYYY-MM", key)
		}
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return DateRange{}, apperrors.Validation("invalid month key %q: month out of range", key)
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return DateRange{
			Start: start,
			End:   start.AddDate(0, 1, 0),
			Label: start.Format("January 2006"),
		}, nil
	case Year:
		m := yearKeyRe.FindStringSubmatch(key)
		if m == nil {
			return DateRange{}, apperrors.Validation("invalid year key %q: expected YYYY", key)
		}
		year, _ := strconv.Atoi(m[1])
		start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		return DateRange{
			Start: start,
			End:   start.AddDate(1, 0, 0),
			Label: m[1],
		}, nil
	}
	return DateRange{}, apperrors.Validation("invalid timeframe %q", string(tf))
}

// Offset shifts a period key by n whole periods (n may be negative).
func Offset(tf Timeframe, key string, n int) (string, error) {
	r, err := Range(tf, key)
	if err != nil {
		return "", err
	}
	switch tf {
	case Week:
		return KeyFor(Week, r.Start.AddDate(0, 0, 7*n)), nil
	case Month:
		return KeyFor(Month, r.Start.AddDate(0, n, 0)), nil
	default:
		return KeyFor(Year, r.Start.AddDate(n, 0, 0)), nil
	}
}

// Convert re-expresses a period in another timeframe. The anchor is the last
// day of the source period, so when the user switches chart granularity the
// view stays near the same point in time.
func Convert(from, to Timeframe, key string) (string, error) {
	r, err := Range(from, key)
	if err != nil {
		return "", err
	}
	lastDay := r.End.AddDate(0, 0, -1)
	return KeyFor(to, lastDay), nil
}

// IsCurrent reports whether key identifies the period containing now.
func IsCurrent(tf Timeframe, key string, now time.Time) bool {
	return KeyFor(tf, now) == key
}

// PreviousRange resolves the calendar period immediately before key.
func PreviousRange(tf Timeframe, key string) (DateRange, error) {
	prev, err := Offset(tf, key, -1)
	if err != nil {
		return DateRange{}, err
	}
	return Range(tf, prev)
}

// YearAgoRange resolves the same period exactly one year earlier. For week
// and month the already-resolved range is shifted back a year rather than
// re-deriving from the period string, which keeps it immune to leap-year
// week-count drift.
func YearAgoRange(tf Timeframe, key string) (DateRange, error) {
	r, err := Range(tf, key)
	if err != nil {
		return DateRange{}, err
	}
	if tf == Year {
		return PreviousRange(tf, key)
	}
	return DateRange{
		Start: r.Start.AddDate(-1, 0, 0),
		End:   r.End.AddDate(-1, 0, 0),
		Label: r.Label,
	}, nil
}

// Sequence returns the n consecutive period keys ending at endKey inclusive,
// oldest first. It always returns exactly n keys; trend series are built over
// this so empty periods are never omitted.
func Sequence(tf Timeframe, endKey string, n int) ([]string, error) {
	if n <= 0 {
		return nil, apperrors.Validation("period count must be positive, got %d", n)
	}
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		key, err := Offset(tf, endKey, -(n - 1 - i))
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}
	return keys, nil
}

// isoWeekStart returns the Monday starting the given ISO week, at UTC
// midnight. Week 1 is the week containing January 4.
func isoWeekStart(year, week int) time.Time {
	jan4 := time.Date(year, 1, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	week1Monday := jan4.AddDate(0, 0, -(weekday - 1))
	return week1Monday.AddDate(0, 0, (week-1)*7)
}
