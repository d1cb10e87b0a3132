package utils

import (
	"fmt"
	"time"
)

// ParseDate accepts "2006-01-02" or RFC 3339 and returns midnight of that
// calendar day in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		t, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC 3339", value)
		}
		t = t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// ParseTimestamp parses an RFC 3339 instant; values without an offset are
// read as wall-clock time in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", value, loc)
	if err != nil {
		t, err = time.ParseInLocation("2006-01-02T15:04", value, loc)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q, expected RFC 3339", value)
	}
	return t, nil
}
