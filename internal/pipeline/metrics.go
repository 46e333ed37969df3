package pipeline

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bgricker/specdrive/internal/llm"
	"github.com/bgricker/specdrive/internal/report"
)

const namespace = "specdrive"

// Metrics holds the Prometheus metrics recorded for each pipeline run.
type Metrics struct {
	// StageDuration measures each pipeline stage in seconds.
	StageDuration *prometheus.HistogramVec

	// GenerativeCalls counts generative-service calls by phase and outcome.
	GenerativeCalls *prometheus.CounterVec

	// Fallbacks counts deterministic fallbacks by phase.
	Fallbacks *prometheus.CounterVec

	// Runs counts pipeline runs by data status.
	Runs *prometheus.CounterVec

	// Scenarios holds the scenario counts of the last run.
	Scenarios *prometheus.GaugeVec

	// Score holds the satisfaction score of the last run.
	Score prometheus.Gauge

	// Ready is 1 when the last run passed the deployment gate.
	Ready prometheus.Gauge
}

// MustNewMetrics creates the metrics and registers them with reg. It panics
// if a metric is already registered.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of each pipeline stage",
				Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"stage"},
		),
		GenerativeCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generative_calls_total",
				Help:      "Generative-service calls by phase and outcome",
			},
			[]string{"phase", "outcome"},
		),
		Fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallbacks_total",
				Help:      "Deterministic fallbacks taken by phase",
			},
			[]string{"phase"},
		),
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Pipeline runs by runner data status",
			},
			[]string{"status"},
		),
		Scenarios: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "scenarios",
				Help:      "Scenario counts of the last run",
			},
			[]string{"status"},
		),
		Score: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "satisfaction_score",
			Help:      "Satisfaction score of the last run",
		}),
		Ready: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "deployment_ready",
			Help:      "1 when the last run passed the production threshold",
		}),
	}
}

// WriteTextfile writes every metric gathered from g to path in the text
// exposition format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

func (m *Metrics) observeStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) observeCall(phase string, err error) {
	if m == nil {
		return
	}
	m.GenerativeCalls.WithLabelValues(phase, outcome(err)).Inc()
}

func (m *Metrics) observeFallback(phase string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(phase).Inc()
}

func (m *Metrics) observeRun(ev report.Evaluation) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(string(ev.Status)).Inc()
	m.Scenarios.WithLabelValues("passed").Set(float64(ev.Summary.Passed))
	m.Scenarios.WithLabelValues("failed").Set(float64(ev.Summary.Failed))
	m.Scenarios.WithLabelValues("skipped").Set(float64(ev.Summary.Skipped))
	if ev.Score != nil {
		m.Score.Set(ev.Score.Value)
	}
	if ev.Verdict != nil && ev.Verdict.Ready() {
		m.Ready.Set(1)
	} else {
		m.Ready.Set(0)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, llm.ErrMalformed):
		return "malformed"
	default:
		return "unavailable"
	}
}
