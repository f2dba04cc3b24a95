package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth-related Prometheus metrics. Standalone package so the coordinator and
// the dev identity server can share the registry without import cycles.

var (
	AuthOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sessionkit_auth_operations_total",
		Help: "Operaciones de autenticación por operación y resultado",
	}, []string{"op", "outcome"})

	StaleCompletions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sessionkit_stale_completions_total",
		Help: "Completions descartadas por generación vieja",
	})

	SessionAuthenticated = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sessionkit_session_authenticated",
		Help: "1 si la sesión actual está autenticada",
	})
)

// RegisterAuth registers the auth metrics on the given registry (or default if nil).
func RegisterAuth(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{AuthOperations, StaleCompletions, SessionAuthenticated} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// ObserveOp registra el resultado de una operación.
func ObserveOp(op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	AuthOperations.WithLabelValues(op, outcome).Inc()
}
