package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Licensing API client metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobmanager_helper_api_requests_total",
			Help: "Total licensing API requests by request type and outcome",
		},
		[]string{"request", "outcome"}, // outcome: ok, transport_error, bad_status, bad_body
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobmanager_helper_api_request_duration_seconds",
			Help:    "Latency of licensing API requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"request"},
	)

	// Licence lifecycle metrics
	LicenceOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobmanager_helper_licence_operations_total",
			Help: "Licence operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	UpdatesAvailable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobmanager_helper_updates_available",
			Help: "Number of managed add-ons with an update available after the last check",
		},
	)
)

// RecordAPIRequest records one licensing API call.
func RecordAPIRequest(request, outcome string, seconds float64) {
	APIRequestsTotal.WithLabelValues(request, outcome).Inc()
	APIRequestDuration.WithLabelValues(request).Observe(seconds)
}

// RecordLicenceOperation records the result of an activate/deactivate/etc.
func RecordLicenceOperation(operation, result string) {
	LicenceOperationsTotal.WithLabelValues(operation, result).Inc()
}
