// Package metrics owns the Prometheus registry of the service.  Every
// method is safe to call on a nil *Metrics so components can run without
// instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported on /metrics.
type Metrics struct {
	reg          *prometheus.Registry
	reservations *prometheus.CounterVec
	ingestRows   *prometheus.CounterVec
	calendarSync *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	rateLimited  prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		reservations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cabin_reservation_operations_total",
			Help: "Reservation lifecycle operations by action and outcome.",
		}, []string{"action", "outcome"}),
		ingestRows: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cabin_ingest_rows_total",
			Help: "External booking rows processed by source and outcome.",
		}, []string{"source", "outcome"}),
		calendarSync: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cabin_calendar_sync_total",
			Help: "Calendar feed synchronisations by outcome.",
		}, []string{"outcome"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cabin_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route", "status"}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "cabin_http_rate_limited_total",
			Help: "Requests rejected by the public rate limiter.",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Reservation counts one lifecycle operation.  outcome is "ok" or an
// error class such as "conflict".
func (m *Metrics) Reservation(action, outcome string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(action, outcome).Inc()
}

// IngestRows adds n rows with the given outcome.
func (m *Metrics) IngestRows(source, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ingestRows.WithLabelValues(source, outcome).Add(float64(n))
}

// CalendarSync counts one feed synchronisation.
func (m *Metrics) CalendarSync(ok bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "ok"
	}
	m.calendarSync.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records the latency of one request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// RateLimited counts one rejected request.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
