// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	GeocodeCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geocode_cache_hits_total",
			Help: "Coordinate lookups served from the cache",
		},
	)

	GeocodeCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geocode_cache_misses_total",
			Help: "Coordinate lookups that reached the provider",
		},
	)

	GeocodeCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geocode_coalesced_total",
			Help: "Lookups that piggybacked on an in-flight provider call",
		},
	)

	GeocodeProviderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "geocode_provider_duration_seconds",
			Help: "Latency of external geocoding calls",
		},
	)
)
