package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
// Using promauto automatically registers metrics with the default registry

var (
	// ==================== HTTP METRICS ====================

	// HTTPRequestDuration tracks the duration of HTTP requests
	// Histogram allows us to calculate percentiles (P50, P95, P99)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTPRequestsTotal counts total HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTPRequestsInFlight tracks currently processing requests
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// ==================== RATE LIMITING METRICS ====================

	// RateLimitedRequestsTotal counts rate-limited requests
	RateLimitedRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Total number of rate-limited requests",
		},
	)

	// RateLimitAllowedRequestsTotal counts allowed requests
	RateLimitAllowedRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limit_allowed_requests_total",
			Help: "Total number of requests allowed by rate limiter",
		},
	)

	// ==================== BUSINESS METRICS ====================

	// DomainsIngestedTotal counts domain names processed by ingestion
	DomainsIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "domains_ingested_total",
			Help: "Total number of domain names ingested",
		},
	)

	// KeywordsExtractedTotal counts keyword associations produced by ingestion
	KeywordsExtractedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keywords_extracted_total",
			Help: "Total number of keywords extracted from domain names",
		},
	)

	// IngestBatchesTotal counts ingestion batches by outcome
	IngestBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_batches_total",
			Help: "Total number of ingestion batches",
		},
		[]string{"outcome"}, // committed, rolled_back
	)

	// MonitorsCreatedTotal counts monitors created
	MonitorsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "monitors_created_total",
			Help: "Total number of domain monitors created",
		},
	)

	// WhoisLookupsTotal counts WHOIS lookups by outcome
	WhoisLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whois_lookups_total",
			Help: "Total number of WHOIS lookups",
		},
		[]string{"outcome"}, // success, error
	)

	// ==================== DATABASE METRICS ====================

	// DatabaseQueryDuration tracks database query latency
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// DatabaseErrorsTotal counts database errors
	DatabaseErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "database_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"operation"},
	)
)

// ObserveQuery records the latency of a database operation
// and counts it as an error when err is not nil
func ObserveQuery(operation string, d time.Duration, err error) {
	DatabaseQueryDuration.WithLabelValues(operation).Observe(d.Seconds())
	if err != nil {
		DatabaseErrorsTotal.WithLabelValues(operation).Inc()
	}
}

// RecordIngest records a committed ingestion batch
func RecordIngest(domains, keywords int) {
	IngestBatchesTotal.WithLabelValues("committed").Inc()
	DomainsIngestedTotal.Add(float64(domains))
	KeywordsExtractedTotal.Add(float64(keywords))
}

// RecordIngestRollback records a batch that was rolled back
func RecordIngestRollback() {
	IngestBatchesTotal.WithLabelValues("rolled_back").Inc()
}

// RecordMonitorCreated increments monitor creation counter
func RecordMonitorCreated() {
	MonitorsCreatedTotal.Inc()
}

// RecordWhoisLookup counts a WHOIS lookup by outcome
func RecordWhoisLookup(err error) {
	if err != nil {
		WhoisLookupsTotal.WithLabelValues("error").Inc()
		return
	}
	WhoisLookupsTotal.WithLabelValues("success").Inc()
}

// RecordRateLimited increments rate-limited requests counter
func RecordRateLimited() {
	RateLimitedRequestsTotal.Inc()
}

// RecordRateLimitAllowed increments allowed requests counter
func RecordRateLimitAllowed() {
	RateLimitAllowedRequestsTotal.Inc()
}
