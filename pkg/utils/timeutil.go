package utils

import (
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the calendar date format used on the CLI, in the store and
// in provider paths.
const DateLayout = "2006-01-02"

// TimestampLayout is the provider's UTC timestamp format, e.g. "2021-03-30T14:05:00Z".
const TimestampLayout = "2006-01-02T15:04:05Z"

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsDate reports whether s has the YYYY-MM-DD shape.
func IsDate(s string) bool {
	return dateRe.MatchString(s)
}

// ParseDate parses a YYYY-MM-DD string as a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	if !IsDate(s) {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate formats t as YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// StartOfDayUTC returns the provider timestamp for midnight UTC on date,
// e.g. "2021-03-30T00:00:00Z".
func StartOfDayUTC(date string) string {
	return date + "T00:00:00Z"
}

// PublishedDate extracts the calendar date from a provider timestamp.
// Timestamps with fractional seconds or offsets are accepted as well.
func PublishedDate(ts string) (string, error) {
	for _, layout := range []string{TimestampLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, ts); err == nil {
			return FormatDate(t), nil
		}
	}
	return "", fmt.Errorf("invalid timestamp %q", ts)
}

// DaysInRange returns every calendar date from start to end, inclusive and
// ascending. It fails when either bound is malformed or start is after end.
func DaysInRange(start, end string) ([]string, error) {
	s, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return nil, err
	}
	if s.After(e) {
		return nil, fmt.Errorf("start date %s is after end date %s", start, end)
	}

	var days []string
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days, nil
}

// DefaultRange returns yesterday and today relative to now, as YYYY-MM-DD.
func DefaultRange(now time.Time) (start, end string) {
	now = now.UTC()
	return FormatDate(now.AddDate(0, 0, -1)), FormatDate(now)
}
