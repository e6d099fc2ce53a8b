// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// HTTP metrics
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	RateLimited     prometheus.Counter
	LiveConnections prometheus.Gauge

	// Pipeline metrics
	TransfersClassified prometheus.Counter
	TransfersDropped    *prometheus.CounterVec
	AggregationDuration *prometheus.HistogramVec

	// Storage metrics
	SourceQueryDuration *prometheus.HistogramVec
	SourceQueryErrors   *prometheus.CounterVec
	CacheRequests       *prometheus.CounterVec
	SnapshotsStored     *prometheus.CounterVec

	// Health metrics
	LastSuccessfulSnapshot prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered with the default registerer.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith creates a Metrics instance registered with reg.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "bridge_flow_lab"
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and status code",
		}, []string{"route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		}),
		LiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "live_connections",
			Help:      "Current number of live dashboard websocket clients",
		}),

		TransfersClassified: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transfers_classified_total",
			Help:      "Total number of transfers tagged with a direction",
		}),
		TransfersDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transfers_dropped_total",
			Help:      "Total number of transfers excluded from aggregation by reason",
		}, []string{"reason"}),
		AggregationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "aggregation_duration_seconds",
			Help:      "Aggregation pass duration in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"view"}),

		SourceQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "query_duration_seconds",
			Help:      "Transfer source query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"network", "operation"}),
		SourceQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "query_errors_total",
			Help:      "Total number of transfer source query errors",
		}, []string{"network", "operation"}),
		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "cache_requests_total",
			Help:      "Total number of response cache lookups by result",
		}, []string{"result"}),
		SnapshotsStored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "snapshots_stored_total",
			Help:      "Total number of series snapshot rows stored",
		}, []string{"network", "granularity"}),

		LastSuccessfulSnapshot: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_snapshot_timestamp",
			Help:      "Unix timestamp of last successful snapshot run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// Drop reasons.
const (
	DropUnknownToken = "unknown_token"
	DropNotFinalized = "not_finalized"
	DropNoTimestamp  = "no_timestamp"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// RecordRequest records one API request.
func RecordRequest(route string, status int, d time.Duration) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, http.StatusText(status)).Inc()
	DefaultMetrics.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordRateLimited increments the rate limited counter.
func RecordRateLimited() {
	DefaultMetrics.RateLimited.Inc()
}

// RecordClassified adds n classified transfers.
func RecordClassified(n int) {
	DefaultMetrics.TransfersClassified.Add(float64(n))
}

// RecordDropped adds n dropped transfers for a reason.
func RecordDropped(reason string, n int) {
	if n > 0 {
		DefaultMetrics.TransfersDropped.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordAggregation records one aggregation pass.
func RecordAggregation(view string, d time.Duration) {
	DefaultMetrics.AggregationDuration.WithLabelValues(view).Observe(d.Seconds())
}

// RecordSourceQuery records a transfer source query and its outcome.
func RecordSourceQuery(network, operation string, d time.Duration, err error) {
	DefaultMetrics.SourceQueryDuration.WithLabelValues(network, operation).Observe(d.Seconds())
	if err != nil {
		DefaultMetrics.SourceQueryErrors.WithLabelValues(network, operation).Inc()
	}
}

// RecordCache records a cache lookup result.
func RecordCache(result string) {
	DefaultMetrics.CacheRequests.WithLabelValues(result).Inc()
}

// RecordSnapshots records stored snapshot rows and marks the run successful.
func RecordSnapshots(network, granularity string, n int) {
	DefaultMetrics.SnapshotsStored.WithLabelValues(network, granularity).Add(float64(n))
	DefaultMetrics.LastSuccessfulSnapshot.SetToCurrentTime()
}

// LiveConnected adjusts the live client gauge by delta.
func LiveConnected(delta int) {
	DefaultMetrics.LiveConnections.Add(float64(delta))
}
