package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal     *prometheus.CounterVec
	rowsTotal     *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	qualityIssues *prometheus.CounterVec
	actionsTotal  *prometheus.CounterVec
	lastSignal    *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		runsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigforge_pipeline_runs_total",
				Help: "Pipeline runs per stage, symbol and result",
			},
			[]string{"stage", "symbol", "result"},
		),
		rowsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigforge_pipeline_rows_total",
				Help: "Rows produced per stage and symbol",
			},
			[]string{"stage", "symbol"},
		),
		duration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sigforge_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		qualityIssues: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigforge_quality_issue_cells_total",
				Help: "Degenerate cells flagged by the quality scanner",
			},
			[]string{"stage", "kind"},
		),
		actionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigforge_signal_actions_total",
				Help: "Signal rows produced per symbol and action",
			},
			[]string{"symbol", "action"},
		),
		lastSignal: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sigforge_last_combined_signal",
				Help: "Last combined signal value per symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigforge_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordRun records a finished pipeline run.
func (r *Recorder) RecordRun(stage, symbol, result string) {
	r.runsTotal.WithLabelValues(stage, symbol, result).Inc()
}

// RecordRows records the size of a produced table.
func (r *Recorder) RecordRows(stage, symbol string, rows int) {
	r.rowsTotal.WithLabelValues(stage, symbol).Add(float64(rows))
}

// RecordDuration records operation latency in seconds.
func (r *Recorder) RecordDuration(op string, seconds float64) {
	r.duration.WithLabelValues(op).Observe(seconds)
}

// RecordQualityIssue records degenerate cells found by a scan.
func (r *Recorder) RecordQualityIssue(stage, kind string, cells int) {
	r.qualityIssues.WithLabelValues(stage, kind).Add(float64(cells))
}

// RecordAction records one recommended action.
func (r *Recorder) RecordAction(symbol, action string) {
	r.actionsTotal.WithLabelValues(symbol, action).Inc()
}

// RecordCombinedSignal records the latest combined signal for a symbol.
func (r *Recorder) RecordCombinedSignal(symbol string, value float64) {
	r.lastSignal.WithLabelValues(symbol).Set(value)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
