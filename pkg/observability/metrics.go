// Package observability holds the Prometheus instruments shared by the
// voice client and the credential backend.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by rtvoice. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	ActiveSessions     prometheus.Gauge
	SessionStarts      prometheus.Counter
	SessionFailures    *prometheus.CounterVec
	SessionEvents      *prometheus.CounterVec
	MicToggles         *prometheus.CounterVec
	EstablishLatency   prometheus.Histogram
	CredentialRequests *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics registers instruments on reg. A nil reg uses a fresh private
// registry.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of established realtime voice sessions.",
		}),
		SessionStarts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_starts_total",
			Help:      "Session start attempts.",
		}),
		SessionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_failures_total",
			Help:      "Session failures by error kind.",
		}, []string{"kind"}),
		SessionEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Event channel messages by type.",
		}, []string{"event"}),
		MicToggles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mic_toggles_total",
			Help:      "Microphone enable and disable operations.",
		}, []string{"state"}),
		EstablishLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "establish_latency_ms",
			Help:      "Time from start to an established session in milliseconds.",
			Buckets:   []float64{250, 500, 750, 1000, 1500, 2000, 3000, 5000},
		}),
		CredentialRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credential_requests_total",
			Help:      "Ephemeral session requests by outcome.",
		}, []string{"outcome"}),
		gatherer: reg,
	}
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionStarts.Inc()
}

func (m *Metrics) SessionEstablished(d time.Duration) {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
	m.EstablishLatency.Observe(float64(d.Milliseconds()))
}

// SessionEnded decrements the active gauge for an established session.
func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

func (m *Metrics) SessionFailed(kind string) {
	if m == nil {
		return
	}
	m.SessionFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) EventReceived(eventType string) {
	if m == nil {
		return
	}
	m.SessionEvents.WithLabelValues(eventType).Inc()
}

func (m *Metrics) MicToggled(enabled bool) {
	if m == nil {
		return
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	m.MicToggles.WithLabelValues(state).Inc()
}

func (m *Metrics) CredentialIssued(ok bool) {
	if m == nil {
		return
	}
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	m.CredentialRequests.WithLabelValues(outcome).Inc()
}

// Handler serves the registry the metrics were created on.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
