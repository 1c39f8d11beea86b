package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BackendMetrics records calls made to the external data/auth backend.
type BackendMetrics struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
}

// NewBackendMetrics registers the backend call metrics on the provided registerer.
func NewBackendMetrics(reg prometheus.Registerer) *BackendMetrics {
	if reg == nil {
		return &BackendMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_call_duration_seconds",
		Help:    "Duration of calls to the external backend in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backend_calls_total",
		Help: "Calls to the external backend by outcome.",
	}, []string{"operation", "table", "outcome"})
	reg.MustRegister(duration, calls)
	return &BackendMetrics{duration: duration, calls: calls}
}

// Observe records one finished call.
func (b *BackendMetrics) Observe(operation, table string, elapsed time.Duration, err error) {
	if b == nil || b.duration == nil {
		return
	}
	operation, table = normalizeLabel(operation), normalizeLabel(table)
	b.duration.WithLabelValues(operation, table).Observe(elapsed.Seconds())
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	b.calls.WithLabelValues(operation, table, outcome).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
