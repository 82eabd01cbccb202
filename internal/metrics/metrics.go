package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Retrieval Metrics
	RetrievalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_retrievals_total",
		Help: "The total number of attendance retrievals by result source.",
	}, []string{"source"})
	RetrievalDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attendance_retrieval_duration_seconds",
		Help:    "Wall time of one attendance retrieval flow.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2.5, 10),
	}, []string{"flow"})
	DailyScanDays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_daily_scan_days_total",
		Help: "The total number of days scanned by the per-day fallback.",
	})

	// Upstream Metrics
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_upstream_requests_total",
		Help: "The total number of requests to the attendance API.",
	}, []string{"endpoint", "outcome"})
	UpstreamRowsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_upstream_rows_dropped_total",
		Help: "Attendance rows skipped because they could not be decoded.",
	}, []string{"endpoint"})

	// Cache Metrics
	CacheOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_cache_operations_total",
		Help: "The total number of attendance cache operations.",
	}, []string{"op", "outcome"})
)
