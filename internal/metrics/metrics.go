// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Activation outcomes.
const (
	OutcomeActivated   = "activated"
	OutcomeReactivated = "reactivated"
	OutcomeRefreshed   = "refreshed"
	OutcomeDenied      = "denied"
	OutcomeRejected    = "rejected"
)

var (
	ActivationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "keyward_activations_total",
		Help: "Activation attempts by outcome.",
	}, []string{"outcome"})

	ValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "keyward_validations_total",
		Help: "License validations by aggregate result.",
	}, []string{"result"})

	SeatDenialsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keyward_seat_denials_total",
		Help: "Activations denied because the seat limit was reached.",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "keyward_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
