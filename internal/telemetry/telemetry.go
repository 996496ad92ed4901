// Package telemetry exposes Prometheus collectors for the keyword pipeline.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	keywordsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpwatch_keywords_processed_total",
			Help: "Total keywords processed by the worker, labeled by terminal status.",
		},
		[]string{"status"},
	)

	scrapeDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "serpwatch_scrape_duration_seconds",
			Help:    "Histogram of scrape latencies, labeled by outcome.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45},
		},
		[]string{"outcome"},
	)

	rateLimitDelaySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "serpwatch_rate_limit_delay_seconds",
			Help:    "Histogram of delay introduced by the job-start limiter.",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
		},
	)

	pushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpwatch_pushes_total",
			Help: "Total live-connection push attempts, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpwatch_http_requests_total",
			Help: "Total HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "serpwatch_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Push outcomes recorded by IncPush.
const (
	PushDelivered    = "delivered"
	PushNoConnection = "no_connection"
	PushFailed       = "failed"
)

// IncKeywordProcessed increments the processed counter for a terminal status.
func IncKeywordProcessed(status string) {
	keywordsProcessedTotal.WithLabelValues(status).Inc()
}

// ObserveScrapeDuration records one scrape latency sample.
func ObserveScrapeDuration(outcome string, d time.Duration) {
	scrapeDurationSeconds.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveRateLimitDelay records the wait imposed by the job-start limiter.
func ObserveRateLimitDelay(d time.Duration) {
	rateLimitDelaySeconds.Observe(d.Seconds())
}

// IncPush increments the push counter for an outcome.
func IncPush(outcome string) {
	pushesTotal.WithLabelValues(outcome).Inc()
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route, code string, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, code).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
