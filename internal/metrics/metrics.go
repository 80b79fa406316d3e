package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapstream_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapstream_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapstream_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapstream_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapstream_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapstream_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Upload pipeline metrics
var (
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapstream_pipeline_runs_total",
			Help: "Total number of upload pipeline runs by final status",
		},
		[]string{"status"},
	)

	PipelineStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapstream_pipeline_step_duration_seconds",
			Help:    "Duration of individual upload pipeline steps",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step"},
	)

	PipelineInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapstream_pipeline_in_flight",
			Help: "Number of uploads currently being processed",
		},
	)
)

// Persistence gateway metrics
var (
	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapstream_gateway_requests_total",
			Help: "Total number of persistence gateway operations by backend",
		},
		[]string{"operation", "backend"},
	)

	GatewayFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapstream_gateway_fallbacks_total",
			Help: "Total number of remote persistence failures recovered by the local cache",
		},
		[]string{"operation"},
	)
)

// Analysis provider metrics
var (
	AnalysisRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapstream_analysis_requests_total",
			Help: "Total number of analysis requests by provider and profile",
		},
		[]string{"provider", "profile"},
	)

	AnalysisFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapstream_analysis_fallbacks_total",
			Help: "Total number of remote analysis failures recovered by the mock provider",
		},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapstream_analysis_duration_seconds",
			Help:    "Analysis request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)
)

// Thumbnail metrics
var (
	ThumbnailsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapstream_thumbnails_generated_total",
			Help: "Total number of thumbnail extraction attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// Auth metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapstream_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)
)
