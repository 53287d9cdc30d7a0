// Package telemetry exposes Prometheus counters for the operations worth
// watching in production: key issuance, webhook intake, design generation
// and email delivery.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every collector the server registers. A nil *Metrics is
// valid and records nothing, so instrumentation stays optional.
type Metrics struct {
	registry *prometheus.Registry

	keysIssued     prometheus.Counter
	validations    *prometheus.CounterVec
	quotaExceeded  prometheus.Counter
	webhookEvents  *prometheus.CounterVec
	generations    *prometheus.CounterVec
	emailsSent     *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDurationMs *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		keysIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kanva",
			Name:      "access_keys_issued_total",
			Help:      "Access keys issued, across admin and webhook paths.",
		}),
		validations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kanva",
			Name:      "access_validations_total",
			Help:      "Password validation attempts by resulting role.",
		}, []string{"role"}),
		quotaExceeded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kanva",
			Name:      "quota_exceeded_total",
			Help:      "Requests rejected because the key exhausted its quota.",
		}),
		webhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kanva",
			Name:      "webhook_events_total",
			Help:      "Payment webhook deliveries by outcome.",
		}, []string{"outcome"}),
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kanva",
			Name:      "design_generations_total",
			Help:      "Design generation attempts by outcome.",
		}, []string{"outcome"}),
		emailsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kanva",
			Name:      "access_emails_total",
			Help:      "Access email deliveries by outcome.",
		}, []string{"outcome"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kanva",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status class.",
		}, []string{"method", "route", "status"}),
		httpDurationMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kanva",
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"method", "route"}),
	}
}

// Registry returns the registry backing the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *Metrics) KeyIssued() {
	if m != nil {
		m.keysIssued.Inc()
	}
}

func (m *Metrics) ValidationResult(role string) {
	if m != nil {
		m.validations.WithLabelValues(role).Inc()
	}
}

func (m *Metrics) QuotaExceeded() {
	if m != nil {
		m.quotaExceeded.Inc()
	}
}

func (m *Metrics) WebhookEvent(outcome string) {
	if m != nil {
		m.webhookEvents.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) GenerationResult(outcome string) {
	if m != nil {
		m.generations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) EmailResult(outcome string) {
	if m != nil {
		m.emailsSent.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) HTTPRequest(method, route, status string, durationMs float64) {
	if m != nil {
		m.httpRequests.WithLabelValues(method, route, status).Inc()
		m.httpDurationMs.WithLabelValues(method, route).Observe(durationMs)
	}
}
