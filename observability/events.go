package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	committed *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking committed hub events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			committed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "graphhub",
				Subsystem: "events",
				Name:      "committed_total",
				Help:      "Count of committed hub events segmented by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(eventRegistry.committed)
	})
	return eventRegistry
}

// RecordEvent increments the counter for the supplied event type.
func (m *eventMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(strings.ToLower(eventType))
	if normalized == "" {
		normalized = "unknown"
	}
	m.committed.WithLabelValues(normalized).Inc()
}
