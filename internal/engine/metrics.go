package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "dialpad"

// Metrics counts engine activity on a private registry.
type Metrics struct {
	CallsStarted     prometheus.Counter
	CallsFailed      prometheus.Counter
	Transfers        prometheus.Counter
	UpdateChecks     prometheus.Counter
	UpdatesAvailable prometheus.Counter
	LogUploads       *prometheus.CounterVec
	StateTransitions *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CallsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "engine",
			Name:      "calls_started_total",
			Help:      "Outgoing calls placed from the dialer",
		}),
		CallsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "engine",
			Name:      "calls_failed_total",
			Help:      "Calls rejected, unreachable or with an invalid address",
		}),
		Transfers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "engine",
			Name:      "transfers_total",
			Help:      "Blind transfers sent with REFER",
		}),
		UpdateChecks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "update",
			Name:      "checks_total",
			Help:      "Update descriptor requests",
		}),
		UpdatesAvailable: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "update",
			Name:      "available_total",
			Help:      "Checks that found a newer version",
		}),
		LogUploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "logs",
			Name:      "uploads_total",
			Help:      "Debug log uploads by outcome",
		}, []string{"status"}),
		StateTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "engine",
			Name:      "call_state_transitions_total",
			Help:      "Call state machine transitions",
		}, []string{"from_state", "to_state"}),
	}
}
