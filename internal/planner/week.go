package planner

import (
	"fmt"
	"strings"
	"time"

	"bargain-bites/internal/database"
)

// WeekStart returns the Sunday 00:00 that opens t's week, in t's location.
// Every instant from Sunday through Saturday maps to the same value.
func WeekStart(t time.Time) time.Time {
	d := t.AddDate(0, 0, -int(t.Weekday()))
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}

// NextWeekStart returns the start of the week after t's.
func NextWeekStart(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 7)
}

// WeekKey is the storage form of t's week start.
func WeekKey(t time.Time) string {
	return WeekStart(t).Format(database.DateLayout)
}

// ParseWeek resolves a week query value to its week start. An empty value
// means the week containing now. Dates ("2006-01-02") and RFC 3339
// timestamps are read in now's location.
func ParseWeek(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return WeekStart(now), nil
	}

	loc := now.Location()
	if t, err := time.ParseInLocation(database.DateLayout, s, loc); err == nil {
		return WeekStart(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return WeekStart(t.In(loc)), nil
	}
	return time.Time{}, fmt.Errorf("invalid week %q: want YYYY-MM-DD or RFC 3339", s)
}
