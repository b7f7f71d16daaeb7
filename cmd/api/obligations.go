package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"compliance-evidence-service/internal/timetable"
)

// defaultHorizon bounds /obligations/upcoming when "to" is omitted.
const defaultHorizon = 90 * 24 * time.Hour

type nextResp struct {
	ObligationID string    `json:"obligationId"`
	From         time.Time `json:"from"`
	DueDate      time.Time `json:"dueDate"`
}

func registerObligationRoutes(r chi.Router, tt *timetable.Resolver) {
	r.Get("/obligations/upcoming", func(w http.ResponseWriter, r *http.Request) {
		from, ok := dateParam(w, r, "from", today())
		if !ok {
			return
		}
		to, ok := dateParam(w, r, "to", from.Add(defaultHorizon))
		if !ok {
			return
		}
		if to.Before(from) {
			http.Error(w, "to must not be before from", http.StatusBadRequest)
			return
		}
		out := tt.UpcomingDueDates(from, to)
		if out == nil {
			out = []timetable.Upcoming{}
		}
		writeJSON(w, out)
	})

	r.Get("/obligations/{id}/next", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		from, ok := dateParam(w, r, "from", today())
		if !ok {
			return
		}
		due, found := tt.NextDueDate(id, from)
		if !found {
			http.Error(w, "no upcoming due date for obligation "+id, http.StatusNotFound)
			return
		}
		writeJSON(w, nextResp{ObligationID: id, From: from, DueDate: due})
	})
}

func dateParam(w http.ResponseWriter, r *http.Request, name string, def time.Time) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		http.Error(w, "invalid "+name+": want YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, false
	}
	return t, true
}

func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
