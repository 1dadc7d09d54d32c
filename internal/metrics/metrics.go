// Package metrics exposes Prometheus counters for the restaurant pipeline.
// Metrics are served on /metrics by the HTTP server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlacesRequests counts outbound place provider calls
	PlacesRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "places_requests_total",
			Help: "Total number of place provider requests",
		},
		[]string{"endpoint", "outcome"}, // outcome: ok, error, not_configured, breaker_open
	)

	// EnrichmentResults counts per-place enrichment outcomes
	EnrichmentResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_results_total",
			Help: "Total number of place detail enrichments by outcome",
		},
		[]string{"outcome"}, // ok, defaulted
	)

	// AggregationRuns counts aggregation runs by trigger and result
	AggregationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregation_runs_total",
			Help: "Total number of restaurant aggregation runs",
		},
		[]string{"trigger", "result"},
	)

	// AggregationDuration observes run durations
	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aggregation_duration_seconds",
			Help:    "Duration of restaurant aggregation runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	// UpsertedPlaces counts places written to the store
	UpsertedPlaces = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "places_upserted_total",
			Help: "Total number of places upserted into the store",
		},
	)

	// ActivityImports counts family activity imports by result
	ActivityImports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_imports_total",
			Help: "Total number of family activity imports",
		},
		[]string{"result"},
	)

	// WebSocketClients tracks connected refresh subscribers
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Current number of connected refresh websocket clients",
		},
	)
)

// RecordPlacesRequest records one provider call
func RecordPlacesRequest(endpoint, outcome string) {
	PlacesRequests.WithLabelValues(endpoint, outcome).Inc()
}

// RecordEnrichment records one enrichment outcome
func RecordEnrichment(defaulted bool) {
	if defaulted {
		EnrichmentResults.WithLabelValues("defaulted").Inc()
		return
	}
	EnrichmentResults.WithLabelValues("ok").Inc()
}

// RecordAggregationRun records a finished aggregation run
func RecordAggregationRun(trigger string, duration time.Duration, upserted int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	AggregationRuns.WithLabelValues(trigger, result).Inc()
	AggregationDuration.Observe(duration.Seconds())
	if upserted > 0 {
		UpsertedPlaces.Add(float64(upserted))
	}
}

// RecordActivityImport records a finished family activity import
func RecordActivityImport(err error) {
	if err != nil {
		ActivityImports.WithLabelValues("error").Inc()
		return
	}
	ActivityImports.WithLabelValues("ok").Inc()
}
