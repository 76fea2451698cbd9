package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts API requests by method and response status class.
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_client_requests_total",
			Help: "Total number of API requests by method and status class",
		},
		[]string{"method", "status_class"},
	)

	// unauthorizedTotal counts 401 responses that triggered the unauthorized signal.
	unauthorizedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_client_unauthorized_total",
			Help: "Total number of 401 responses that invalidated the session",
		},
	)

	// breakerState tracks the read circuit breaker state (0=closed, 1=half-open, 2=open).
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "api_client_circuit_breaker_state",
			Help: "Current state of the read circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)
