// Package metrics holds the Prometheus collectors exposed at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "usersvc"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// DirectorySearches counts searches by query kind and outcome
	// (ok, empty, retried, error).
	DirectorySearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "directory",
			Name:      "searches_total",
			Help:      "Directory searches by query kind and result",
		},
		[]string{"kind", "result"},
	)

	DirectorySearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "directory",
			Name:      "search_duration_seconds",
			Help:      "Directory search duration in seconds, including a retry",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 15},
		},
		[]string{"kind"},
	)

	DirectoryReconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "directory",
			Name:      "reconnects_total",
			Help:      "Directory reconnect attempts by result",
		},
		[]string{"result"},
	)

	PolicyDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "policy",
			Name:      "denials_total",
			Help:      "Authorization denials by action and reason",
		},
		[]string{"action", "reason"},
	)

	UsersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "users",
			Name:      "created_total",
			Help:      "User records created lazily by find-or-create",
		},
	)
)

// ObserveDirectorySearch records one search.
func ObserveDirectorySearch(kind, result string, took time.Duration) {
	DirectorySearches.WithLabelValues(kind, result).Inc()
	DirectorySearchDuration.WithLabelValues(kind).Observe(took.Seconds())
}
