// Package core holds the domain model shared by storage, services and the
// HTTP layer. It has no dependencies on the rest of the application.
package core

import "time"

// MonthInterval returns the closed interval covering a whole calendar month,
// from the first day at 00:00:00 to the last day at 23:59:59 UTC.
func MonthInterval(year int, month time.Month) (start, end time.Time) {
	start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Second)
	return start, end
}

// LastDayOfMonth returns the number of days in the given month.
func LastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay clamps a day-of-month to the last valid day of the given month,
// so a template configured for day 31 lands on Feb 28 (or 29).
func ClampDay(day, year int, month time.Month) int {
	if day < 1 {
		day = 1
	}
	if last := LastDayOfMonth(year, month); day > last {
		return last
	}
	return day
}

// MonthLabel renders a human-readable month name, e.g. "March 2025".
func MonthLabel(year int, month time.Month) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}
