// Package dateparse parses natural language dates for history filters.
package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	daysAgoPattern  = regexp.MustCompile(`^(\d+)\s*(?:d|days?)\s*ago$`)
	weeksAgoPattern = regexp.MustCompile(`^(\d+)\s*(?:w|weeks?)\s*ago$`)
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Parse parses a natural language date and returns it as YYYY-MM-DD.
// Dates resolve into the past, which is what history filters want.
// Supported formats:
//   - today, yesterday
//   - monday, tuesday, ... (most recent occurrence, today excluded)
//   - last week, last month
//   - -N (N days ago)
//   - N days ago, N weeks ago
//   - YYYY-MM-DD (passthrough)
//
// Unrecognized input is returned as-is so the server can reject it.
func Parse(input string) string {
	return ParseFrom(input, time.Now())
}

// ParseFrom parses relative to a reference time. Used by tests.
func ParseFrom(input string, now time.Time) string {
	input = strings.ToLower(strings.TrimSpace(input))

	switch input {
	case "today":
		return formatDate(now)
	case "yesterday":
		return formatDate(now.AddDate(0, 0, -1))
	case "last week", "lastweek":
		return formatDate(now.AddDate(0, 0, -7))
	case "last month", "lastmonth":
		return formatDate(now.AddDate(0, -1, 0))
	}

	if day, ok := parseWeekday(strings.TrimPrefix(input, "last ")); ok {
		return formatDate(previousWeekday(now, day))
	}

	if strings.HasPrefix(input, "-") {
		if days, err := strconv.Atoi(input[1:]); err == nil && days >= 0 {
			return formatDate(now.AddDate(0, 0, -days))
		}
	}

	if m := daysAgoPattern.FindStringSubmatch(input); m != nil {
		if days, err := strconv.Atoi(m[1]); err == nil {
			return formatDate(now.AddDate(0, 0, -days))
		}
	}

	if m := weeksAgoPattern.FindStringSubmatch(input); m != nil {
		if weeks, err := strconv.Atoi(m[1]); err == nil {
			return formatDate(now.AddDate(0, 0, -weeks*7))
		}
	}

	if datePattern.MatchString(input) {
		return input
	}

	return input
}

// previousWeekday returns the most recent occurrence of day strictly
// before now, so "monday" on a Monday means one week back.
func previousWeekday(now time.Time, day time.Weekday) time.Time {
	delta := int(now.Weekday()) - int(day)
	if delta <= 0 {
		delta += 7
	}
	return now.AddDate(0, 0, -delta)
}

func parseWeekday(s string) (time.Weekday, bool) {
	switch s {
	case "sunday", "sun":
		return time.Sunday, true
	case "monday", "mon":
		return time.Monday, true
	case "tuesday", "tue", "tues":
		return time.Tuesday, true
	case "wednesday", "wed":
		return time.Wednesday, true
	case "thursday", "thu", "thurs":
		return time.Thursday, true
	case "friday", "fri":
		return time.Friday, true
	case "saturday", "sat":
		return time.Saturday, true
	}
	return 0, false
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
