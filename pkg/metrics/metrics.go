package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics encapsulates Prometheus instrumentation for the scheduling engine.
// The registry is private; the surrounding system decides how (and whether)
// to expose it.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	violationsTotal *prometheus.CounterVec
	swapsTotal      *prometheus.CounterVec
	coverageRate    prometheus.Gauge
}

// New registers the engine collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rota_solver_runs_total",
		Help: "Total schedule generation runs by algorithm and final status",
	}, []string{"algorithm", "status"})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rota_solver_run_duration_seconds",
		Help:    "Wall-clock duration of schedule generation runs",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"algorithm"})

	violationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rota_compliance_violations_total",
		Help: "Compliance violations reported by type and severity",
	}, []string{"type", "severity"})

	swapsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rota_swaps_total",
		Help: "Swap mutations by type and outcome",
	}, []string{"type", "outcome"})

	coverageRate := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rota_last_run_coverage_rate",
		Help: "Coverage rate of the most recent generation run",
	})

	registry.MustRegister(runsTotal, runDuration, violationsTotal, swapsTotal, coverageRate)

	return &Metrics{
		registry:        registry,
		runsTotal:       runsTotal,
		runDuration:     runDuration,
		violationsTotal: violationsTotal,
		swapsTotal:      swapsTotal,
		coverageRate:    coverageRate,
	}
}

// Registry hands the collector registry to the surrounding system.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRun records a finished generation run. Nil-safe.
func (m *Metrics) ObserveRun(algorithm, status string, elapsed time.Duration, coverageRate float64) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(algorithm, status).Inc()
	m.runDuration.WithLabelValues(algorithm).Observe(elapsed.Seconds())
	m.coverageRate.Set(coverageRate)
}

// ObserveViolation counts a reported compliance violation. Nil-safe.
func (m *Metrics) ObserveViolation(violationType, severity string) {
	if m == nil {
		return
	}
	m.violationsTotal.WithLabelValues(violationType, severity).Inc()
}

// ObserveSwap counts a swap mutation outcome. Nil-safe.
func (m *Metrics) ObserveSwap(swapType, outcome string) {
	if m == nil {
		return
	}
	m.swapsTotal.WithLabelValues(swapType, outcome).Inc()
}
