package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication flow outcomes by action (signup|login|verify|reset) and result.
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resumex_auth_attempts_total",
			Help: "Total number of authentication flow attempts",
		},
		[]string{"action", "result"},
	)

	// EmailDeliveries counts transactional email dispatches by template and result (delivered|skipped|failed).
	EmailDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resumex_email_deliveries_total",
			Help: "Total number of transactional email dispatch attempts",
		},
		[]string{"template", "result"},
	)

	// AnalyzerRequests counts webhook analysis calls by result (ok|empty|error).
	AnalyzerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resumex_analyzer_requests_total",
			Help: "Total number of resume analysis webhook calls",
		},
		[]string{"result"},
	)

	// AnalyzerLatency measures webhook round trips.
	AnalyzerLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resumex_analyzer_latency_seconds",
			Help:    "Resume analysis webhook latency",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 90},
		},
	)

	// HTTPInFlight tracks requests currently being served.
	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resumex_http_in_flight_requests",
			Help: "HTTP requests currently being served",
		},
	)

	// APILatency measures HTTP request latencies by method, route template and status class.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resumex_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// TokensPurged counts expired verification/reset tokens cleared by maintenance.
	TokensPurged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resumex_tokens_purged_total",
			Help: "Expired tokens cleared by maintenance jobs",
		},
		[]string{"kind"},
	)
)
