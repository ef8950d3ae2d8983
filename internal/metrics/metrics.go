// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups counts enrichment cache reads by cache name and result (hit/miss)
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bitebook_cache_lookups_total",
			Help: "Enrichment cache lookups",
		},
		[]string{"cache", "result"},
	)

	// ProviderRequests counts place provider calls by operation and outcome
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bitebook_provider_requests_total",
			Help: "Place provider requests",
		},
		[]string{"operation", "outcome"},
	)

	// IdentityResolutions counts places whose provider id was resolved by name search
	IdentityResolutions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bitebook_identity_resolutions_total",
			Help: "Places resolved to a provider id by name search",
		},
	)

	// HTTPRequestDuration observes request latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bitebook_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)
)

// Outcome labels for ProviderRequests
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeError       = "error"
	OutcomeNoAPIKey    = "no_api_key"
	OutcomeRateLimited = "rate_limited"
)
