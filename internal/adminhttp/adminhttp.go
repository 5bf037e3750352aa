// Package adminhttp exposes a small chi-routed HTTP surface for operating a
// running dispatch process: liveness, and a snapshot of the cron JobTable.
package adminhttp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/gamemesh/internal/dispatch"
)

// Router builds the admin HTTP surface for d.
func Router(d *dispatch.Dispatcher) http.Handler {
	routes := &adminRoutes{d: d}
	r := chi.NewRouter()
	r.Get("/healthz", routes.getHealthz)
	r.Get("/debug/crons", routes.getCrons)
	r.Get("/debug/stats", routes.getStats)
	return r
}

type adminRoutes struct {
	d *dispatch.Dispatcher
}

// getHealthz reports 204 while the dispatcher is STARTED, 503 otherwise
// (both before Start and after Stop).
func (a *adminRoutes) getHealthz(w http.ResponseWriter, r *http.Request) {
	if a.d.State() != dispatch.StateStarted {
		http.Error(w, "dispatcher state: "+a.d.State().String(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cronStatus struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Time      string `json:"time"`
	Scheduled bool   `json:"scheduled"`
}

func (a *adminRoutes) getCrons(w http.ResponseWriter, r *http.Request) {
	sched := a.d.Scheduler()
	if sched == nil {
		writeJSON(w, []cronStatus{})
		return
	}
	entries := sched.Entries()
	out := make([]cronStatus, 0, len(entries))
	for _, e := range entries {
		out = append(out, cronStatus{
			ID:        e.Entry.ID,
			Action:    e.Entry.Action,
			Time:      e.Entry.Time,
			Scheduled: e.Scheduled,
		})
	}
	writeJSON(w, out)
}

func (a *adminRoutes) getStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.d.Stats())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
