// Package metrics exposes Prometheus counters for the dispatch core's
// operational visibility: requests handled locally, forwarded, and ended in
// an error (by stage), and cron fires/skips.
package metrics

import (
	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the counters a Dispatcher reports through.
type Collector struct {
	Handled     prometheus.Counter
	Forwarded   prometheus.Counter
	Errored     *prometheus.CounterVec
	CronFired   prometheus.Counter
	CronSkipped *prometheus.CounterVec
}

// NewCollector builds and registers a Collector against reg. Passing a
// fresh prometheus.NewRegistry() keeps tests isolated from the default
// global registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Handled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gamemesh_dispatch_handled_total",
			Help: "Requests handled locally by this process.",
		}),
		Forwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gamemesh_dispatch_forwarded_total",
			Help: "Requests forwarded to another server type.",
		}),
		Errored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamemesh_dispatch_errors_total",
			Help: "Requests that ended in an error, by stage.",
		}, []string{"stage"}),
		CronFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gamemesh_cron_fired_total",
			Help: "Cron actions that were invoked.",
		}),
		CronSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamemesh_cron_skipped_total",
			Help: "Cron entries that were not scheduled, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(c.Handled, c.Forwarded, c.Errored, c.CronFired, c.CronSkipped)
	return c
}

// Snapshot is a point-in-time read of the plain counters, for admin/debug
// surfaces that would rather not scrape Prometheus text format.
type Snapshot struct {
	Handled   float64 `json:"handled"`
	Forwarded float64 `json:"forwarded"`
	CronFired float64 `json:"cron_fired"`
}

// Snapshot reads the current counter values.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Handled:   readCounter(c.Handled),
		Forwarded: readCounter(c.Forwarded),
		CronFired: readCounter(c.CronFired),
	}
}

func readCounter(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
