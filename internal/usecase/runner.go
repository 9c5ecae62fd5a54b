package usecase

import (
	"context"
	"fmt"

	"SigForge/internal/domain/models"
)

// Pipeline task names accepted by the runner, the backfill planner and the
// generate-jobs consumer.
const (
	TaskFeatures = "features"
	TaskSignals  = "signals"
	TaskAll      = "all"
)

func IsValidTask(task string) bool {
	switch task {
	case TaskFeatures, TaskSignals, TaskAll:
		return true
	}
	return false
}

// RunSummary aggregates the outcome of one runner invocation across the
// stages it executed.
type RunSummary struct {
	Symbol      string              `json:"symbol"`
	Date        string              `json:"date"`
	FeatureRows int                 `json:"feature_rows"`
	SignalRows  int                 `json:"signal_rows"`
	Actions     models.ActionCounts `json:"actions"`
}

// PipelineRunner sequences the two pipeline stages for one (symbol, date)
// unit. The signal stage always consumes the effective date resolved by the
// feature stage, so a run with an empty date stays internally consistent.
type PipelineRunner struct {
	features *FeaturePipeline
	signals  *SignalPipeline
}

func NewPipelineRunner(features *FeaturePipeline, signals *SignalPipeline) *PipelineRunner {
	return &PipelineRunner{features: features, signals: signals}
}

// Run executes both stages.
func (r *PipelineRunner) Run(ctx context.Context, symbol, date string) (*RunSummary, error) {
	return r.RunTask(ctx, symbol, date, TaskAll)
}

func (r *PipelineRunner) RunTask(ctx context.Context, symbol, date, task string) (*RunSummary, error) {
	if !IsValidTask(task) {
		return nil, fmt.Errorf("unknown task %q", task)
	}
	summary := &RunSummary{Symbol: symbol, Date: date}

	if task == TaskFeatures || task == TaskAll {
		res, err := r.features.Generate(ctx, symbol, date)
		if err != nil {
			return nil, err
		}
		summary.Symbol = res.Symbol
		summary.Date = res.Date
		summary.FeatureRows = res.Rows
		date = res.Date
	}
	if task == TaskSignals || task == TaskAll {
		res, err := r.signals.Generate(ctx, symbol, date)
		if err != nil {
			return nil, err
		}
		summary.Symbol = res.Symbol
		summary.Date = res.Date
		summary.SignalRows = res.Rows
		summary.Actions = res.Actions
	}
	return summary, nil
}
