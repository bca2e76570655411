package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequests counts served requests.
	// Labels: route, method, status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "archgraph",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	// httpDuration measures handler latency.
	// Labels: route
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "archgraph",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"route"})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "archgraph",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
	})
)
