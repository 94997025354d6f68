// Package metrics defines the single in-process Prometheus registry
// exposing every series spec §4.E names (api/db/agent/worker).
package metrics

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Registry bundles every metric series the service and workers export.
// Route-label cardinality is bounded by only ever recording against the
// router's registered chi patterns, never raw request paths.
type Registry struct {
	reg *prometheus.Registry

	APIRequestTotal       *prometheus.CounterVec
	APIRequestErrorsTotal *prometheus.CounterVec
	APIRequestLatency     *prometheus.HistogramVec

	APIRateLimitedTotal     prometheus.Counter
	APIRateLimitedBodyTotal prometheus.Counter

	DBPoolCapacity  prometheus.Gauge
	DBPoolInUse     prometheus.Gauge
	DBPoolAvailable prometheus.Gauge
	DBPoolWaiting   prometheus.Gauge
	DBPoolWaitRatio prometheus.Gauge

	AgentCacheTotal            *prometheus.CounterVec
	AgentEvaluationsTotal      *prometheus.CounterVec
	AgentEvaluationLatency     prometheus.Histogram
	AgentCircuitBreakerState   prometheus.Gauge

	EmbeddingWorkerProcessedTotal prometheus.Counter
	EmbeddingWorkerFailedTotal    prometheus.Counter
	EmbeddingWorkerQueueDepth     prometheus.Gauge
	EmbeddingWorkerJobsPerMinute  prometheus.Gauge
	EmbeddingWorkerCharsPerSecond prometheus.Gauge
}

// New builds a Registry with every series pre-registered. Passing
// knownRoutes pre-registers each {route} label combination so later
// cardinality is bounded by the router, not by caller-supplied paths.
func New(knownRoutes []string) *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		APIRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_request_total",
			Help: "Total HTTP requests handled, by route.",
		}, []string{"route"}),
		APIRequestErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_request_errors_total",
			Help: "Total HTTP requests that resulted in an error response, by route.",
		}, []string{"route"}),
		APIRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_request_latency_seconds",
			Help:    "HTTP request latency in seconds, by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		APIRateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "api_rate_limited_total",
			Help: "Total requests rejected by the request-count rate limiter.",
		}),
		APIRateLimitedBodyTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "api_rate_limited_body_total",
			Help: "Total requests rejected by the body-byte rate limiter.",
		}),
		DBPoolCapacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_pool_capacity", Help: "Configured maximum pool size.",
		}),
		DBPoolInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_pool_in_use", Help: "Connections currently checked out.",
		}),
		DBPoolAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_pool_available", Help: "Idle connections available for reuse.",
		}),
		DBPoolWaiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_pool_waiting", Help: "Requests currently waiting for a connection.",
		}),
		DBPoolWaitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_pool_wait_ratio", Help: "Fraction of recent acquisitions that waited.",
		}),
		AgentCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_cache_total", Help: "Agent-evaluation cache lookups, by state.",
		}, []string{"state"}),
		AgentEvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_evaluations_total", Help: "Agent evaluations attempted, by outcome.",
		}, []string{"outcome"}),
		AgentEvaluationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "agent_evaluation_latency_seconds", Help: "Agent evaluation call latency.",
			Buckets: prometheus.DefBuckets,
		}),
		AgentCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agent_circuit_breaker_state",
			Help: "0=closed, 1=open, 2=half_open.",
		}),
		EmbeddingWorkerProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "embedding_worker_processed_total", Help: "Embedding jobs completed.",
		}),
		EmbeddingWorkerFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "embedding_worker_failed_total", Help: "Embedding jobs permanently failed.",
		}),
		EmbeddingWorkerQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "embedding_worker_queue_depth", Help: "Pending embedding jobs.",
		}),
		EmbeddingWorkerJobsPerMinute: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "embedding_worker_jobs_per_minute", Help: "Jobs/minute over a 60s sliding window.",
		}),
		EmbeddingWorkerCharsPerSecond: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "embedding_worker_chars_per_second", Help: "Chars/second over a 60s sliding window.",
		}),
	}

	reg.MustRegister(
		r.APIRequestTotal, r.APIRequestErrorsTotal, r.APIRequestLatency,
		r.APIRateLimitedTotal, r.APIRateLimitedBodyTotal,
		r.DBPoolCapacity, r.DBPoolInUse, r.DBPoolAvailable, r.DBPoolWaiting, r.DBPoolWaitRatio,
		r.AgentCacheTotal, r.AgentEvaluationsTotal, r.AgentEvaluationLatency, r.AgentCircuitBreakerState,
		r.EmbeddingWorkerProcessedTotal, r.EmbeddingWorkerFailedTotal, r.EmbeddingWorkerQueueDepth,
		r.EmbeddingWorkerJobsPerMinute, r.EmbeddingWorkerCharsPerSecond,
	)

	for _, route := range knownRoutes {
		r.APIRequestTotal.WithLabelValues(route)
		r.APIRequestErrorsTotal.WithLabelValues(route)
	}

	return r
}

// Handler returns the Prometheus text-exposition HTTP handler for this
// registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// WriteTextfile renders the current metric families in node_exporter's
// textfile-collector format and writes them to path, via a temp file
// plus rename so a concurrent textfile-collector scrape never observes
// a partial write.
func (r *Registry) WriteTextfile(path string) error {
	families, err := r.reg.Gather()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(os.TempDir(), "chessmate-metrics-*.prom")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := expfmt.NewEncoder(tmp, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
