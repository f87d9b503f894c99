// Package metrics provides Prometheus metrics for the session shell.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// SessionOperations counts session manager operations by outcome.
	SessionOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "greentrace",
			Name:      "session_operations_total",
			Help:      "Total number of session operations",
		},
		[]string{"operation", "outcome"},
	)

	// APIRequestDuration measures auth API round trips.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "greentrace",
			Name:      "auth_api_request_duration_seconds",
			Help:      "Duration of auth API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// GuardDecisions counts route guard outcomes.
	GuardDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "greentrace",
			Name:      "guard_decisions_total",
			Help:      "Total number of route guard decisions",
		},
		[]string{"guard", "decision"},
	)

	// Authenticated is 1 while the process holds an authenticated session.
	Authenticated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "greentrace",
			Name:      "session_authenticated",
			Help:      "Session state (1 = authenticated, 0 = signed out)",
		},
	)
)

// ObserveOperation records one session operation.
func ObserveOperation(operation string, success bool) {
	outcome := OutcomeFailure
	if success {
		outcome = OutcomeSuccess
	}
	SessionOperations.WithLabelValues(operation, outcome).Inc()
}
