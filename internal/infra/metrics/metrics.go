package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
)

// Counters tracks payment lifecycle events and settlement write conflicts.
type Counters struct {
	Events    *prometheus.CounterVec
	Conflicts prometheus.Counter
	Rejected  *prometheus.CounterVec
}

func NewCounters(reg prometheus.Registerer) *Counters {
	c := &Counters{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_events_total",
			Help: "Payment lifecycle events by type.",
		}, []string{"type"}),
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payments_version_conflicts_total",
			Help: "Writes retried because the payment set changed underneath.",
		}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_rejected_total",
			Help: "Operations rejected by the domain, by error kind.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(c.Events, c.Conflicts, c.Rejected)
	}
	return c
}

func (c *Counters) IncEvent(t event.Type) {
	c.Events.WithLabelValues(string(t)).Inc()
}

func (c *Counters) IncConflict() {
	c.Conflicts.Inc()
}

func (c *Counters) IncRejected(kind string) {
	c.Rejected.WithLabelValues(kind).Inc()
}
