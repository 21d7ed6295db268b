// Package period implements calendar-month interval arithmetic for
// billing periods. Months are calendar months, never fixed 30-day
// blocks: adding a month to Jan 31 yields Feb 28 (or 29).
package period

import "time"

// DateOf truncates a timestamp to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddMonths shifts a date by n calendar months, clamping the day of
// month to the last day of the target month.
func AddMonths(d time.Time, n int) time.Time {
	d = d.UTC()
	year, month, day := d.Year(), int(d.Month())-1+n, d.Day()
	year += month / 12
	month = month % 12
	if month < 0 {
		month += 12
		year--
	}
	if last := daysIn(year, time.Month(month+1)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month+1), day, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), time.UTC)
}

// MonthSpan decomposes [start, end) into whole calendar months plus a
// residual day count shorter than one month. start must not be after end.
func MonthSpan(start, end time.Time) (months int, restDays int) {
	for !AddMonths(start, months+1).After(end) {
		months++
	}
	restDays = DaysBetween(AddMonths(start, months), end)
	return months, restDays
}

// DaysBetween returns the number of whole days from start to end,
// rounded toward zero.
func DaysBetween(start, end time.Time) int {
	return int(end.Sub(start) / (24 * time.Hour))
}

// EndOfDay returns the last representable instant of t's UTC calendar day.
func EndOfDay(t time.Time) time.Time {
	return DateOf(t).Add(24*time.Hour - time.Nanosecond)
}

// SameDay reports whether two timestamps fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
