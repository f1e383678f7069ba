package tetherdiscovery

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/probe"
)

const metricsNamespace = "tetherdiscovery"

// Metrics counts checks and probe runs. A nil *Metrics records nothing.
// It implements probe.Observer.
type Metrics struct {
	runs        *prometheus.CounterVec
	attempts    *prometheus.CounterVec
	runDuration prometheus.Histogram
	checks      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "probe_runs_total",
			Help:      "Discovery probe runs by outcome.",
		}, []string{"outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "probe_attempts_total",
			Help:      "Individual candidate requests by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "probe_run_duration_seconds",
			Help:      "Wall time of discovery probe runs.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "checks_total",
			Help:      "Connection checks by check and resulting tag.",
		}, []string{"check", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.attempts, m.runDuration, m.checks)
	}
	return m
}

// AttemptDone implements probe.Observer.
func (m *Metrics) AttemptDone(_ probe.Target, result probe.AttemptResult) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(result.String()).Inc()
}

// RunDone implements probe.Observer.
func (m *Metrics) RunDone(out probe.Outcome) {
	if m == nil {
		return
	}
	outcome := "no_results"
	if out.Matched {
		outcome = "match"
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(out.Duration.Seconds())
}

func (m *Metrics) observeCheck(check string, tag Tag) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(check, string(tag)).Inc()
}
