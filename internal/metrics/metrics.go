// Package metrics holds Prometheus instruments that are used across the
// application.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Calls to the tabular and storage APIs by operation and status code.",
		}, []string{"op", "code"})

	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Latency of calls to the tabular and storage APIs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"})

	MoveOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_move_total",
			Help: "Idea to recipe moves by final stage reached.",
		}, []string{"outcome"})

	AttachOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_attach_total",
			Help: "Photo attach attempts by final stage reached.",
		}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		UpstreamRequests,
		UpstreamDuration,
		MoveOutcomes,
		AttachOutcomes,
	)
}
