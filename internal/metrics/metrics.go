// Package metrics exposes Prometheus collectors for room lifecycle
// and mailbox health, scraped at /metrics via promhttp.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors the service registers. MailboxDrops
// and TeardownsByReason are written by the wiring in cmd/main.go;
// RoomsActive and SessionsActive are registered and exported but
// nothing in this module sets them, so they stay at zero.
type Metrics struct {
	RoomsActive       prometheus.Gauge
	MailboxDrops      *prometheus.CounterVec
	SessionsActive    *prometheus.GaugeVec
	TeardownsByReason *prometheus.CounterVec
}

// New registers and returns the collector set against registry r.
func New(r prometheus.Registerer) *Metrics {
	m := &Metrics{
		RoomsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reactive_rooms_active",
			Help: "Number of rooms currently registered.",
		}),
		MailboxDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reactive_rooms_mailbox_drops_total",
			Help: "Messages dropped by the mailbox fabric, by reason.",
		}, []string{"reason"}),
		SessionsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "reactive_rooms_sessions_active",
			Help: "Sessions currently running, by role.",
		}, []string{"role"}),
		TeardownsByReason: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reactive_rooms_session_teardowns_total",
			Help: "Session teardowns, by role and disconnect reason.",
		}, []string{"role", "reason"}),
	}

	r.MustRegister(m.RoomsActive, m.MailboxDrops, m.SessionsActive, m.TeardownsByReason)
	return m
}

// OnMailboxDrop is passed to mailbox.New as its drop callback.
func (m *Metrics) OnMailboxDrop(reason string) {
	m.MailboxDrops.WithLabelValues(reason).Inc()
}

// Handler returns the /metrics HTTP handler for the given registry.
func Handler(r *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(r, promhttp.HandlerOpts{})
}
