package core

import (
	"errors"
	"time"
)

// ErrFutureMonth is returned when month navigation would move past the
// current calendar month.
var ErrFutureMonth = errors.New("cannot navigate past the current month")

const monthKeyLayout = "2006-01"

// MonthKey derives the YYYY-MM grouping identity from a date. The key is
// both the summary bucket and the user-facing navigation unit.
func (d Date) MonthKey() string {
	return d.Format(monthKeyLayout)
}

// ParseMonthKey parses a YYYY-MM key into the first instant of that month
// in UTC.
func ParseMonthKey(key string) (time.Time, error) {
	t, err := time.Parse(monthKeyLayout, key)
	if err != nil {
		return time.Time{}, ErrInvalidMonthKey
	}
	return t, nil
}

// CurrentMonthKey returns the key for the current calendar month.
func CurrentMonthKey() string {
	return time.Now().Format(monthKeyLayout)
}

// PrevMonth returns the key one month earlier, handling year rollover.
func PrevMonth(key string) (string, error) {
	t, err := ParseMonthKey(key)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, -1, 0).Format(monthKeyLayout), nil
}

// NextMonth returns the key one month later. Navigating forward past the
// current calendar month is refused with ErrFutureMonth.
func NextMonth(key string) (string, error) {
	return nextMonthAt(key, time.Now())
}

func nextMonthAt(key string, now time.Time) (string, error) {
	t, err := ParseMonthKey(key)
	if err != nil {
		return "", err
	}
	if key >= now.Format(monthKeyLayout) {
		return "", ErrFutureMonth
	}
	return t.AddDate(0, 1, 0).Format(monthKeyLayout), nil
}
