package utils

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDate: invalid date %q: %w", value, err)
	}

	return t, nil
}

// DaysBetween returns whole days from `from` to `to`, negative when `to`
// precedes `from`. Both are truncated to dates first.
func DaysBetween(from, to time.Time) int {
	fromDate := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDate := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	return int(toDate.Sub(fromDate).Hours() / 24)
}

func IsWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

// LastFriday returns the most recent Friday on or before the given date.
// Market flat files only exist for trading days, so weekend dates get
// pointed here.
func LastFriday(t time.Time) time.Time {
	for t.Weekday() != time.Friday {
		t = t.AddDate(0, 0, -1)
	}

	return t
}

// PreviousBusinessDay steps back one day, skipping weekends. Holidays are
// not tracked; a missing-data response covers those.
func PreviousBusinessDay(t time.Time) time.Time {
	t = t.AddDate(0, 0, -1)
	for IsWeekend(t) {
		t = t.AddDate(0, 0, -1)
	}

	return t
}
