package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "biteswipe_session_operations_total",
		Help: "Session coordinator operations by outcome.",
	}, []string{"operation", "result"})

	sessionOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "biteswipe_session_operation_duration_seconds",
		Help:    "Session coordinator operation latency, store round trips included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	sessionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "biteswipe_sessions_completed_total",
		Help: "Sessions moved to COMPLETED, by trigger.",
	}, []string{"trigger"})
)

// observe records one operation outcome; errp is read when the deferred call runs
func observe(operation string, start time.Time, errp *error) {
	result := "ok"
	if errp != nil && *errp != nil {
		result = KindOf(*errp).String()
	}
	sessionOperations.WithLabelValues(operation, result).Inc()
	sessionOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
