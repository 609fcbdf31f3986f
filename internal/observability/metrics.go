package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edactl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"app", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edactl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"app", "method", "path", "status"},
	)
	toolInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edactl",
			Subsystem: "tool",
			Name:      "invocations_total",
			Help:      "External tool invocations by outcome.",
		},
		[]string{"tool", "mode", "outcome"},
	)
	toolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edactl",
			Subsystem: "tool",
			Name:      "invocation_duration_seconds",
			Help:      "External tool invocation wall time in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"tool", "mode"},
	)
	sessionCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edactl",
			Subsystem: "session",
			Name:      "commands_total",
			Help:      "Interactive session commands by outcome.",
		},
		[]string{"tool", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, toolInvocations, toolDuration, sessionCommands)
	})
}

func RecordHTTPRequest(app, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(app, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(app, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordInvocation counts one external tool run. Mode is "batch" or
// "gui"; outcome is "ok", "failed", "timeout", "canceled", or
// "start_error".
func RecordInvocation(tool, mode, outcome string, duration time.Duration) {
	RegisterMetrics()
	toolInvocations.WithLabelValues(tool, mode, outcome).Inc()
	toolDuration.WithLabelValues(tool, mode).Observe(duration.Seconds())
}

// RecordSessionCommand counts one interactive command exchange.
func RecordSessionCommand(tool, outcome string) {
	RegisterMetrics()
	sessionCommands.WithLabelValues(tool, outcome).Inc()
}
