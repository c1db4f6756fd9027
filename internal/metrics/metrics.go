// Package metrics holds the Prometheus collectors of the deploy helpers.
//
// Collectors live in a private registry so a one-shot CLI run can dump them
// with WriteTextfile (node_exporter textfile format) instead of serving them.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every collector of this package.
var Registry = prometheus.NewRegistry()

var (
	// Wait metrics
	waitAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "overcloud",
			Subsystem: "wait",
			Name:      "attempts_total",
			Help:      "Total number of poll attempts by wait kind",
		},
		[]string{"kind"},
	)

	waitOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "overcloud",
			Subsystem: "wait",
			Name:      "outcomes_total",
			Help:      "Total number of finished waits by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	waitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "overcloud",
			Subsystem: "wait",
			Name:      "duration_seconds",
			Help:      "Duration of waits in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14), // 1s to ~2h
		},
		[]string{"kind"},
	)

	// OpenStack API metrics
	apiCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "overcloud",
			Subsystem: "openstack",
			Name:      "api_calls_total",
			Help:      "Total number of OpenStack API calls by service, method and result",
		},
		[]string{"service", "method", "result"},
	)

	apiLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "overcloud",
			Subsystem: "openstack",
			Name:      "api_latency_seconds",
			Help:      "Latency of OpenStack API calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"service"},
	)

	// Node metrics
	nodeTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "overcloud",
			Subsystem: "baremetal",
			Name:      "node_transitions_total",
			Help:      "Total number of provision state transitions by transition and result",
		},
		[]string{"transition", "result"},
	)

	// Image metrics
	imageUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "overcloud",
			Subsystem: "image",
			Name:      "uploads_total",
			Help:      "Total number of image uploads by result",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		waitAttemptsTotal,
		waitOutcomesTotal,
		waitDuration,
		apiCallsTotal,
		apiLatency,
		nodeTransitionsTotal,
		imageUploadsTotal,
	)
}

// RecordWaitAttempt counts one poll attempt.
func RecordWaitAttempt(kind string) {
	waitAttemptsTotal.WithLabelValues(kind).Inc()
}

// RecordWaitOutcome records how a wait ended and how long it took.
func RecordWaitOutcome(kind, outcome string, seconds float64) {
	waitOutcomesTotal.WithLabelValues(kind, outcome).Inc()
	waitDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordAPICall records one OpenStack API call.
func RecordAPICall(service, method, result string, seconds float64) {
	apiCallsTotal.WithLabelValues(service, method, result).Inc()
	apiLatency.WithLabelValues(service).Observe(seconds)
}

// RecordNodeTransition records the result of a provision state change.
func RecordNodeTransition(transition, result string) {
	nodeTransitionsTotal.WithLabelValues(transition, result).Inc()
}

// RecordImageUpload records an image upload. result is "uploaded",
// "skipped" or "failed".
func RecordImageUpload(result string) {
	imageUploadsTotal.WithLabelValues(result).Inc()
}

// WriteTextfile writes the registry to path atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
