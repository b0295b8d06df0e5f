package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_operations_total",
		Help: "Total number of identity use-case invocations by operation and outcome",
	}, []string{"operation", "outcome"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "identity_operation_duration_seconds",
		Help:    "Latency of identity use cases in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_notifications_total",
		Help: "Total number of notification attempts by kind and outcome",
	}, []string{"kind", "outcome"})
)

const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// ObserveOperation records one finished use case. outcome is OutcomeOK or an
// error kind such as "not_found".
func ObserveOperation(operation, outcome string, d time.Duration) {
	operationsTotal.WithLabelValues(operation, outcome).Inc()
	operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func ObserveNotification(kind string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeFailed
	}
	notificationsTotal.WithLabelValues(kind, outcome).Inc()
}
