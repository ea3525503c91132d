package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "usps"

var (
	// Verifications counts verdicts by outcome: valid, invalid, unknown, error.
	verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "address",
			Name:      "verifications_total",
			Help:      "Total address verifications by outcome",
		},
		[]string{"outcome"},
	)

	standardizations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "address",
			Name:      "standardizations_total",
			Help:      "Total address standardizations by result",
		},
		[]string{"result"},
	)

	// =======================================================================
	// External API performance
	// =======================================================================
	uspsRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "webtools",
			Name:      "request_duration_seconds",
			Help:      "USPS Web Tools request latency",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"result"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Standardization cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Verification events published by result",
		},
		[]string{"result"},
	)
)

// RecordVerification counts one verification by outcome.
func RecordVerification(outcome string) {
	verifications.WithLabelValues(outcome).Inc()
}

// RecordStandardization counts one standardization by result.
func RecordStandardization(result string) {
	standardizations.WithLabelValues(result).Inc()
}

// ObserveUSPSRequest records the latency of one Web Tools call.
func ObserveUSPSRequest(result string, d time.Duration) {
	uspsRequestDuration.WithLabelValues(result).Observe(d.Seconds())
}

// RecordCacheLookup counts one cache lookup.
func RecordCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

// RecordEventPublished counts one event publish attempt.
func RecordEventPublished(result string) {
	eventsPublished.WithLabelValues(result).Inc()
}
