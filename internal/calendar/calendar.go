// Package calendar does weekday-only date arithmetic. Holidays are not
// modelled: every Monday to Friday is a business day.
package calendar

import "time"

func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// AddBusinessDays advances t by n business days, skipping weekends. The
// time of day is preserved. n <= 0 returns t unchanged.
func AddBusinessDays(t time.Time, n int) time.Time {
	cur := t
	for n > 0 {
		cur = cur.AddDate(0, 0, 1)
		if IsBusinessDay(cur) {
			n--
		}
	}
	return cur
}

// BusinessDaysBetween counts weekdays strictly between the calendar days of
// from and to; neither endpoint day is counted. Returns 0 when to <= from.
func BusinessDaysBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	last := dateOf(to)
	n := 0
	for cur := dateOf(from).AddDate(0, 0, 1); cur.Before(last); cur = cur.AddDate(0, 0, 1) {
		if IsBusinessDay(cur) {
			n++
		}
	}
	return n
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
