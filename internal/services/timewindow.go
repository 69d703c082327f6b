package services

import "time"

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns the most recent Sunday at midnight, in t's location.
// A Sunday maps to its own midnight.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	y, m, d := day.Date()
	return time.Date(y, m, d-int(day.Weekday()), 0, 0, 0, 0, t.Location())
}

// StartOfMonth returns the first instant of t's calendar month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// TrailingMonths returns the starts of n calendar months ending with the
// month of now, oldest first.
func TrailingMonths(now time.Time, n int) []time.Time {
	if n <= 0 {
		return []time.Time{}
	}

	y, m, _ := now.Date()
	months := make([]time.Time, n)
	for i := 0; i < n; i++ {
		// time.Date normalizes month underflow into the previous year.
		months[i] = time.Date(y, m-time.Month(n-1-i), 1, 0, 0, 0, 0, now.Location())
	}
	return months
}

// monthKey identifies a calendar month of t in loc.
func monthKey(t time.Time, loc *time.Location) int {
	y, m, _ := t.In(loc).Date()
	return y*12 + int(m) - 1
}

// within reports whether t lies in the closed interval [start, end].
func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
