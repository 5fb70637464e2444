// Package metrics provides Prometheus metrics for storefront client
// operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for storefront client operations.
type Metrics struct {
	enabled bool

	// Request metrics
	requestsTotal   *prometheus.CounterVec
	requestDuration prometheus.Histogram
	retriesTotal    prometheus.Counter

	// Session metrics
	refreshTotal     *prometheus.CounterVec
	autoLogoutsTotal prometheus.Counter
}

// New creates and registers Prometheus metrics.
// If enabled is false, returns a no-op Metrics instance.
func New(enabled bool) *Metrics {
	m := &Metrics{enabled: enabled}

	if !enabled {
		return m
	}

	m.requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_requests_total",
		Help: "Total API requests by method and status class",
	}, []string{"method", "class"})

	m.requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_request_duration_seconds",
		Help:    "API request duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	m.retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_request_retries_total",
		Help: "Requests replayed after a successful token refresh",
	})

	m.refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_token_refresh_total",
		Help: "Token refresh attempts by outcome",
	}, []string{"outcome"})

	m.autoLogoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_auto_logouts_total",
		Help: "Sessions terminated by the auto-logout controller",
	})

	return m
}

// RecordRequest records one completed API request.
func (m *Metrics) RecordRequest(method string, status int, elapsed time.Duration) {
	if !m.enabled {
		return
	}
	m.requestsTotal.WithLabelValues(method, statusClass(status)).Inc()
	m.requestDuration.Observe(elapsed.Seconds())
}

// RecordRetry records a request replayed with a refreshed token.
func (m *Metrics) RecordRetry() {
	if !m.enabled {
		return
	}
	m.retriesTotal.Inc()
}

// RecordRefresh records a token refresh attempt outcome ("success" or
// "failure").
func (m *Metrics) RecordRefresh(outcome string) {
	if !m.enabled {
		return
	}
	m.refreshTotal.WithLabelValues(outcome).Inc()
}

// RecordAutoLogout records a session terminated by auto-logout.
func (m *Metrics) RecordAutoLogout() {
	if !m.enabled {
		return
	}
	m.autoLogoutsTotal.Inc()
}

func statusClass(status int) string {
	switch {
	case status == 0:
		return "network_error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
