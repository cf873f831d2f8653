// Package metrics counts translation outcomes for the CLI.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sparqlsql"

// Translation outcomes.
const (
	OutcomeNative   = "native"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// Outcome classifies the result of one Compile call.
func Outcome(native bool, err error) string {
	switch {
	case err != nil:
		return OutcomeError
	case !native:
		return OutcomeFallback
	}
	return OutcomeNative
}

// Metrics holds the collectors on a private registry so tests and
// concurrent CLI runs never share state.
type Metrics struct {
	Registry     *prometheus.Registry
	Translations *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	Rows         prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Translations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "translations_total",
				Help:      "Algebra trees compiled, by dialect and outcome.",
			},
			[]string{"dialect", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "translation_duration_seconds",
				Help:      "Time spent compiling one tree.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"dialect"},
		),
		Rows: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_rows_total",
				Help:      "Solutions returned by executed queries.",
			},
		),
	}
	m.Registry.MustRegister(m.Translations, m.Duration, m.Rows)
	return m
}

// ObserveTranslation records one Compile call.
func (m *Metrics) ObserveTranslation(dialect, outcome string, d time.Duration) {
	m.Translations.WithLabelValues(dialect, outcome).Inc()
	m.Duration.WithLabelValues(dialect).Observe(d.Seconds())
}

// ObserveRows adds n returned solutions.
func (m *Metrics) ObserveRows(n int) {
	m.Rows.Add(float64(n))
}

// WriteTextfile writes the registry in the text exposition format, for
// node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
