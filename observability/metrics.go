package observability

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	hubErrors "graphhub/core/errors"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	hubMetricsOnce sync.Once
	hubRegistry    *HubMetrics
)

// ModuleMetrics returns the lazily-initialised registry used to record
// JSON-RPC activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "graphhub",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "graphhub",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total JSON-RPC errors segmented by method and error code.",
			}, []string{"method", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "graphhub",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "graphhub",
				Subsystem: "rpc",
				Name:      "throttles_total",
				Help:      "Count of requests rejected due to throttling policies.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a JSON-RPC call. code is zero on success.
func (m *moduleMetrics) Observe(method string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if code != 0 {
		outcome = "error"
		m.errors.WithLabelValues(method, fmt.Sprintf("%d", code)).Inc()
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter. Reasons should be stable
// strings such as "rate_limit".
func (m *moduleMetrics) RecordThrottle(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(reason).Inc()
}

// HubMetrics captures hub transaction execution.
type HubMetrics struct {
	transactions *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	state        prometheus.Gauge
	height       prometheus.Gauge
}

// Hub returns the singleton hub metrics registry.
func Hub() *HubMetrics {
	hubMetricsOnce.Do(func() {
		hubRegistry = &HubMetrics{
			transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "graphhub",
				Subsystem: "hub",
				Name:      "transactions_total",
				Help:      "Count of hub transactions segmented by entry point and outcome.",
			}, []string{"op", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "graphhub",
				Subsystem: "hub",
				Name:      "transaction_duration_seconds",
				Help:      "Latency distribution for hub transaction execution.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
			state: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "graphhub",
				Subsystem: "hub",
				Name:      "protocol_state",
				Help:      "Current protocol state (0 unpaused, 1 publishing paused, 2 paused).",
			}),
			height: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "graphhub",
				Subsystem: "hub",
				Name:      "committed_height",
				Help:      "Number of committed hub transactions.",
			}),
		}
		prometheus.MustRegister(
			hubRegistry.transactions,
			hubRegistry.latency,
			hubRegistry.state,
			hubRegistry.height,
		)
	})
	return hubRegistry
}

// Outcome maps an execution error to a bounded label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.Is(err, hubErrors.ErrPaused), errors.Is(err, hubErrors.ErrPublishingPaused):
		return "paused"
	case errors.Is(err, hubErrors.ErrSignatureExpired), errors.Is(err, hubErrors.ErrSignatureInvalid):
		return "bad_signature"
	case errors.Is(err, hubErrors.ErrExecutorInvalid),
		errors.Is(err, hubErrors.ErrNotGovernance),
		errors.Is(err, hubErrors.ErrNotGovernanceOrEmergencyAdmin),
		errors.Is(err, hubErrors.ErrEmergencyAdminCanOnlyPauseFurther),
		errors.Is(err, hubErrors.ErrNotOwnerOrApproved),
		errors.Is(err, hubErrors.ErrNotWhitelisted):
		return "unauthorised"
	default:
		return "rejected"
	}
}

// ObserveTransaction records one executed hub transaction.
func (m *HubMetrics) ObserveTransaction(op string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.transactions.WithLabelValues(op, Outcome(err)).Inc()
	m.latency.WithLabelValues(op).Observe(duration.Seconds())
}

// SetProtocolState publishes the current circuit breaker value.
func (m *HubMetrics) SetProtocolState(state uint8) {
	if m == nil {
		return
	}
	m.state.Set(float64(state))
}

// SetHeight publishes the committed height.
func (m *HubMetrics) SetHeight(height uint64) {
	if m == nil {
		return
	}
	m.height.Set(float64(height))
}
