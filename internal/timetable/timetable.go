// Package timetable computes statutory due dates for recurring obligations
// from an injected obligation registry. Due dates are period end plus the
// obligation's offset in calendar days.
package timetable

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"compliance-evidence-service/internal/modal"
)

var ErrInvalidRegistry = errors.New("timetable: invalid obligation registry")

// Upcoming is one row of a due-date forecast.
type Upcoming struct {
	ObligationID string          `json:"obligationId"`
	Frequency    modal.Frequency `json:"frequency"`
	DueDate      time.Time       `json:"dueDate"`
}

// Resolver is immutable after construction and safe for concurrent use.
type Resolver struct {
	obligations map[string]modal.Obligation
	ids         []string
}

func NewResolver(obligations []modal.Obligation) (*Resolver, error) {
	r := &Resolver{obligations: make(map[string]modal.Obligation, len(obligations))}
	for _, o := range obligations {
		if err := validate(o); err != nil {
			return nil, err
		}
		if _, dup := r.obligations[o.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate obligation %q", ErrInvalidRegistry, o.ID)
		}
		r.obligations[o.ID] = o
		r.ids = append(r.ids, o.ID)
	}
	sort.Strings(r.ids)
	return r, nil
}

func validate(o modal.Obligation) error {
	if o.ID == "" {
		return fmt.Errorf("%w: obligation with empty id", ErrInvalidRegistry)
	}
	if o.OffsetDays < 0 {
		return fmt.Errorf("%w: %s: negative offset %d", ErrInvalidRegistry, o.ID, o.OffsetDays)
	}
	switch o.Frequency {
	case modal.FrequencyPerEvent, modal.FrequencyMonthly:
		return nil
	case modal.FrequencyQuarterly, modal.FrequencyAnnual:
		if o.Anchor.Month < time.January || o.Anchor.Month > time.December {
			return fmt.Errorf("%w: %s: anchor month %d", ErrInvalidRegistry, o.ID, o.Anchor.Month)
		}
		if o.Anchor.Day < 1 || o.Anchor.Day > daysIn(2000, o.Anchor.Month) {
			return fmt.Errorf("%w: %s: anchor day %d", ErrInvalidRegistry, o.ID, o.Anchor.Day)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s: unknown frequency %q", ErrInvalidRegistry, o.ID, o.Frequency)
	}
}

// IDs returns the registered obligation ids in ascending order.
func (r *Resolver) IDs() []string {
	return append([]string(nil), r.ids...)
}

func (r *Resolver) Obligation(id string) (modal.Obligation, bool) {
	o, ok := r.obligations[id]
	return o, ok
}

// DueDateForPeriodEnd returns periodEnd plus the obligation's offset. ok is
// false for an unregistered obligation.
func (r *Resolver) DueDateForPeriodEnd(id string, periodEnd time.Time) (due time.Time, ok bool) {
	o, ok := r.obligations[id]
	if !ok {
		return time.Time{}, false
	}
	return periodEnd.AddDate(0, 0, o.OffsetDays), true
}

// NextDueDate returns the first due date strictly after from. ok is false
// for an unregistered obligation and for PER_EVENT obligations, which have
// no schedule.
//
// Monthly obligations start from the current month's end, annual ones from
// the end of the fiscal year containing from, and quarterly ones from the
// first quarter end of that fiscal year. Later period ends are tried until
// the due date passes from; quarterly rolls into the next fiscal year's
// first quarter.
func (r *Resolver) NextDueDate(id string, from time.Time) (due time.Time, ok bool) {
	o, ok := r.obligations[id]
	if !ok || o.Frequency == modal.FrequencyPerEvent {
		return time.Time{}, false
	}
	pe := firstPeriodEnd(o, dateOnly(from))
	for {
		due = pe.AddDate(0, 0, o.OffsetDays)
		if due.After(from) {
			return due, true
		}
		pe = nextPeriodEnd(o, pe)
	}
}

// UpcomingDueDates forecasts the next due date of every scheduled obligation
// and keeps those on or before to, ascending by date then obligation id.
func (r *Resolver) UpcomingDueDates(from, to time.Time) []Upcoming {
	var out []Upcoming
	for _, id := range r.ids {
		due, ok := r.NextDueDate(id, from)
		if !ok || due.After(to) {
			continue
		}
		out = append(out, Upcoming{ObligationID: id, Frequency: r.obligations[id].Frequency, DueDate: due})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ObligationID < out[j].ObligationID
	})
	return out
}
