package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// DecisionTotal counts dispatch verdicts by service and outcome.
	DecisionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_decision_total",
			Help: "Total number of dispatch decisions",
		},
		[]string{"service", "outcome"},
	)

	// StoreFailureTotal counts persistence failures by operation.
	StoreFailureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_store_failure_total",
			Help: "Total number of record store failures",
		},
		[]string{"op"},
	)

	// ScheduledRunTotal counts scheduled service runs by outcome.
	ScheduledRunTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_scheduled_run_total",
			Help: "Total number of scheduled service runs",
		},
		[]string{"service", "outcome"},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(DecisionTotal)
	prometheus.MustRegister(StoreFailureTotal)
	prometheus.MustRegister(ScheduledRunTotal)
}
