package usecase

import (
	"context"
	"fmt"

	applogger "SigForge/pkg/logger"
	pkgqueue "SigForge/pkg/queue"
)

// JobTypePipelineRun is the queue message type carrying one pipeline unit.
const JobTypePipelineRun = "pipeline.run"

// PipelineJobPayload is the queued form of one backfill unit.
type PipelineJobPayload struct {
	Symbol string `json:"symbol"`
	Date   string `json:"date"`
	Task   string `json:"task"`
}

// PipelineJob executes queued pipeline units on the queue's worker pool.
// Failed units go through the queue's retry and dead-letter handling.
type PipelineJob struct {
	runner *PipelineRunner
	l      *applogger.Logger
}

var _ pkgqueue.Job = (*PipelineJob)(nil)

func NewPipelineJob(runner *PipelineRunner, l *applogger.Logger) *PipelineJob {
	return &PipelineJob{runner: runner, l: l}
}

func (j *PipelineJob) Name() string { return "pipeline-run" }

func (j *PipelineJob) Type() string { return JobTypePipelineRun }

func (j *PipelineJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := pkgqueue.ParsePayload[PipelineJobPayload](payload)
	if err != nil {
		return fmt.Errorf("pipeline job payload: %w", err)
	}
	task := p.Task
	if task == "" {
		task = TaskAll
	}
	summary, err := j.runner.RunTask(ctx, p.Symbol, p.Date, task)
	if err != nil {
		return err
	}
	j.l.Info("pipeline job done",
		applogger.String("symbol", summary.Symbol),
		applogger.String("date", summary.Date),
		applogger.Int("feature_rows", summary.FeatureRows),
		applogger.Int("signal_rows", summary.SignalRows),
	)
	return nil
}
