// Package metrics holds the application's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "book_catalog",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "book_catalog",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "book_catalog",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	ratingLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "book_catalog",
			Subsystem: "ratings",
			Name:      "lookups_total",
			Help:      "Rating service lookups by outcome.",
		},
		[]string{"outcome"},
	)

	ratingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "book_catalog",
			Subsystem: "ratings",
			Name:      "lookup_duration_seconds",
			Help:      "Duration of rating service calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)

	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "book_catalog",
			Subsystem: "ratings",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)

	reviewsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "book_catalog",
			Subsystem: "reviews",
			Name:      "created_total",
			Help:      "Reviews stored.",
		},
	)

	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "book_catalog",
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ratingLookups,
		ratingDuration,
		breakerState,
		reviewsCreated,
		loginAttempts,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted increments the in-flight gauge and returns the matching decrement.
func RequestStarted() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// RecordHTTPRequest records one finished request. route is the matched pattern, not the raw path.
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRatingLookup records a rating service call outcome: success, failure or rejected.
func RecordRatingLookup(outcome string, duration time.Duration) {
	ratingLookups.WithLabelValues(outcome).Inc()
	if duration > 0 {
		ratingDuration.Observe(duration.Seconds())
	}
}

// SetBreakerState publishes a circuit breaker state.
func SetBreakerState(name string, state float64) {
	breakerState.WithLabelValues(name).Set(state)
}

// RecordReviewCreated counts a stored review.
func RecordReviewCreated() {
	reviewsCreated.Inc()
}

// RecordLogin counts a login attempt; result is success or failure.
func RecordLogin(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}
