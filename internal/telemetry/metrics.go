// Package telemetry owns the Prometheus collectors and the OpenTelemetry tracer
// shared by the authorization binaries.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/card-authorization-gateway/internal/domain/shared"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing,
// so components can be built without a registry in tests.
type Metrics struct {
	authorizations        *prometheus.CounterVec
	authorizationDuration prometheus.Histogram
	httpRequests          *prometheus.CounterVec
	httpDuration          *prometheus.HistogramVec
	outboxPublished       prometheus.Counter
	outboxFailures        prometheus.Counter
	consumedMessages      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		authorizations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "card_authorizations_total",
				Help: "Total number of authorization decisions by outcome",
			},
			[]string{"decision"},
		),
		authorizationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "card_authorization_duration_seconds",
				Help:    "Duration of authorization decisions in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		outboxPublished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "transaction_outbox_published_total",
				Help: "Transaction records published from the outbox",
			},
		),
		outboxFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "transaction_outbox_failures_total",
				Help: "Failed attempts to publish transaction records",
			},
		),
		consumedMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authorization_messages_consumed_total",
				Help: "Authorization requests consumed from Kafka by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.authorizations,
		m.authorizationDuration,
		m.httpRequests,
		m.httpDuration,
		m.outboxPublished,
		m.outboxFailures,
		m.consumedMessages,
	)

	return m
}

// ObserveAuthorization counts a decision and records how long it took.
func (m *Metrics) ObserveAuthorization(decision shared.Decision, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.authorizations.WithLabelValues(decision.Label()).Inc()
	m.authorizationDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (m *Metrics) OutboxPublished() {
	if m == nil {
		return
	}
	m.outboxPublished.Inc()
}

func (m *Metrics) OutboxFailed() {
	if m == nil {
		return
	}
	m.outboxFailures.Inc()
}

// MessageConsumed counts a Kafka message by result: "processed", "invalid" or "failed".
func (m *Metrics) MessageConsumed(result string) {
	if m == nil {
		return
	}
	m.consumedMessages.WithLabelValues(result).Inc()
}

// Handler exposes the collectors of gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
