package timetable

import (
	"time"

	"compliance-evidence-service/internal/modal"
)

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func daysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func monthEnd(year int, m time.Month, loc *time.Location) time.Time {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, loc)
}

// anchoredEnd returns the period end in the given (possibly unnormalised)
// month. An anchor on the last day of its month (30 June, 28 Feb) tracks
// month ends; any other day is clamped to the month's length.
func anchoredEnd(a modal.FiscalAnchor, year int, m time.Month, loc *time.Location) time.Time {
	first := time.Date(year, m, 1, 0, 0, 0, 0, loc)
	year, m = first.Year(), first.Month()
	if a.Day >= daysIn(2001, a.Month) {
		return monthEnd(year, m, loc)
	}
	day := a.Day
	if n := daysIn(year, m); day > n {
		day = n
	}
	return time.Date(year, m, day, 0, 0, 0, 0, loc)
}

// fiscalYearEnd returns the end of the fiscal year containing day (a
// midnight date): the first anchored year end on or after it.
func fiscalYearEnd(a modal.FiscalAnchor, day time.Time) time.Time {
	loc := day.Location()
	fy := anchoredEnd(a, day.Year(), a.Month, loc)
	if fy.Before(day) {
		fy = anchoredEnd(a, day.Year()+1, a.Month, loc)
	}
	return fy
}

// firstPeriodEnd returns where the due-date search starts for day: the
// current month's end, the first quarter end of the fiscal year containing
// day, or that fiscal year's end.
func firstPeriodEnd(o modal.Obligation, day time.Time) time.Time {
	switch o.Frequency {
	case modal.FrequencyMonthly:
		return monthEnd(day.Year(), day.Month(), day.Location())
	case modal.FrequencyQuarterly:
		fy := fiscalYearEnd(o.Anchor, day)
		return anchoredEnd(o.Anchor, fy.Year(), fy.Month()-9, day.Location())
	default:
		return fiscalYearEnd(o.Anchor, day)
	}
}

func nextPeriodEnd(o modal.Obligation, pe time.Time) time.Time {
	loc := pe.Location()
	switch o.Frequency {
	case modal.FrequencyMonthly:
		return monthEnd(pe.Year(), pe.Month()+1, loc)
	case modal.FrequencyQuarterly:
		return anchoredEnd(o.Anchor, pe.Year(), pe.Month()+3, loc)
	default:
		return anchoredEnd(o.Anchor, pe.Year()+1, o.Anchor.Month, loc)
	}
}
