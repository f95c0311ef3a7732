package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	symbolsScanned *prometheus.CounterVec
	fetchErrors    *prometheus.CounterVec
	phaseDuration  *prometheus.HistogramVec
	modelsTrained  *prometheus.CounterVec
	opportunities  prometheus.Gauge
	lastRun        prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		symbolsScanned: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nightscan_symbols_scanned_total",
				Help: "Total number of symbols scanned, by data provider",
			},
			[]string{"provider"},
		),
		fetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nightscan_fetch_errors_total",
				Help: "Total number of history fetch errors, by data provider",
			},
			[]string{"provider"},
		),
		phaseDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nightscan_phase_duration_seconds",
				Help:    "Duration of pipeline phases in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 3, 10),
			},
			[]string{"phase"},
		),
		modelsTrained: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nightscan_models_trained_total",
				Help: "Total number of model training runs, by outcome",
			},
			[]string{"outcome"},
		),
		opportunities: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "nightscan_opportunities",
				Help: "Number of scored opportunities in the last run",
			},
		),
		lastRun: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "nightscan_last_run_timestamp_seconds",
				Help: "Unix timestamp of the last completed run",
			},
		),
	}
}

// RecordSymbolScanned counts one scanned symbol.
func (r *Recorder) RecordSymbolScanned(provider string) {
	r.symbolsScanned.WithLabelValues(provider).Inc()
}

// RecordFetchError counts one failed history fetch.
func (r *Recorder) RecordFetchError(provider string) {
	r.fetchErrors.WithLabelValues(provider).Inc()
}

// RecordPhaseDuration observes one phase execution.
func (r *Recorder) RecordPhaseDuration(phase string, seconds float64) {
	r.phaseDuration.WithLabelValues(phase).Observe(seconds)
}

// RecordModelTrained counts one training attempt by outcome.
func (r *Recorder) RecordModelTrained(outcome string) {
	r.modelsTrained.WithLabelValues(outcome).Inc()
}

// RecordOpportunities sets the scored-opportunity gauge.
func (r *Recorder) RecordOpportunities(count int) {
	r.opportunities.Set(float64(count))
}

// SetLastRun records when the last run completed.
func (r *Recorder) SetLastRun(t time.Time) {
	r.lastRun.Set(float64(t.Unix()))
}
