// Package kst holds the Korea Standard Time helpers used to name daily files.
package kst

import "time"

var Location = time.FixedZone("KST", 9*60*60)

const DateLayout = "2006-01-02"

// Now returns the current time in KST.
func Now() time.Time {
	return time.Now().In(Location)
}

// Today returns the current KST date as YYYY-MM-DD.
func Today() string {
	return Date(time.Now())
}

// Date formats t as a KST date.
func Date(t time.Time) string {
	return t.In(Location).Format(DateLayout)
}

// ParseDate parses YYYY-MM-DD as midnight KST.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, Location)
}

// AddDays shifts a YYYY-MM-DD date by n days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// Timestamp formats t in UTC with millisecond precision, e.g. 2025-01-02T03:04:05.000Z.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
