// Package metrics exposes Prometheus instrumentation for backend queries.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loglens_backend_queries_total",
		Help: "Total backend queries by channel, query kind, and outcome",
	}, []string{"channel", "kind", "status"})

	backendQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loglens_backend_query_duration_seconds",
		Help:    "Backend query latency by channel and query kind",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel", "kind"})
)

// ObserveBackendQuery records one backend query outcome and its latency.
func ObserveBackendQuery(channel, kind string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	backendQueries.WithLabelValues(channel, kind, status).Inc()
	backendQueryDuration.WithLabelValues(channel, kind).Observe(elapsed.Seconds())
}
