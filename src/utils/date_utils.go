package utils

import (
	"fmt"
	"time"
)

const DefaultDateFormat = "2006-01-02"

// ParseDate parses a date string using the default format.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(DefaultDateFormat, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected %s): %w", dateStr, DefaultDateFormat, err)
	}
	return t, nil
}

// YearMonth extracts the calendar year and month from a date string.
func YearMonth(dateStr string) (int, int, error) {
	t, err := ParseDate(dateStr)
	if err != nil {
		return 0, 0, err
	}
	return t.Year(), int(t.Month()), nil
}

// MonthStart returns the first day of a (year, month) in the default format.
func MonthStart(year, month int) string {
	return fmt.Sprintf("%04d-%02d-01", year, month)
}
