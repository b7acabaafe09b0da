package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ohowland/gridfault/internal/pkg/powerflow"
)

// Registry holds the solver and scenario metrics.
type Registry struct {
	// Solver Metrics
	SolverStagesTotal *prometheus.CounterVec
	SolverIterations  *prometheus.HistogramVec

	// Scenario Metrics
	ScenarioRunsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every metric initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initSolverMetrics()
	r.initScenarioMetrics()
	return r
}

func (r *Registry) initSolverMetrics() {
	r.SolverStagesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridfault_solver_stage_total",
			Help: "Power flow stage attempts by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	r.SolverIterations = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridfault_solver_iterations",
			Help:    "Iterations used by a power flow stage",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
		[]string{"method"},
	)
}

func (r *Registry) initScenarioMetrics() {
	r.ScenarioRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridfault_scenario_runs_total",
			Help: "Scenario runs by scenario and convergence",
		},
		[]string{"scenario", "converged"},
	)
}

// ObserveStage records one resolver stage attempt.
func (r *Registry) ObserveStage(method powerflow.Algorithm, converged bool, iterations int) {
	outcome := "diverged"
	if converged {
		outcome = "converged"
	}
	r.SolverStagesTotal.WithLabelValues(string(method), outcome).Inc()
	r.SolverIterations.WithLabelValues(string(method)).Observe(float64(iterations))
}

// RecordScenario records a finished scenario run.
func (r *Registry) RecordScenario(name string, converged bool) {
	r.ScenarioRunsTotal.WithLabelValues(name, strconv.FormatBool(converged)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
