package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuation_requests_total",
			Help: "Total compute_costs requests by status.",
		},
		[]string{"status"},
	)

	computeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "valuation_compute_duration_seconds",
			Help:    "Time spent computing costs for a single request.",
			Buckets: prometheus.DefBuckets,
		},
	)
)
