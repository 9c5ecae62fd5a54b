package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "SigForge/pkg/logger"
)

func TestPipelineJobHandleTypedPayload(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env := newTestEnv(&fakeSource{bars: testBars("AAPL", start, 100, 101)})
	job := NewPipelineJob(env.runner, applogger.Nop())

	payload := PipelineJobPayload{Symbol: "AAPL", Date: "2024-01-01", Task: TaskAll}
	require.NoError(t, job.Handle(context.Background(), payload))

	_, err := env.signalStore.Load(context.Background(), "AAPL", "2024-01-01")
	assert.NoError(t, err)
}

func TestPipelineJobHandleMapPayload(t *testing.T) {
	// Payloads that crossed Redis come back as generic maps.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env := newTestEnv(&fakeSource{bars: testBars("AAPL", start, 100, 101)})
	job := NewPipelineJob(env.runner, applogger.Nop())

	payload := map[string]interface{}{
		"symbol": "AAPL",
		"date":   "2024-01-01",
	}
	require.NoError(t, job.Handle(context.Background(), payload))

	_, err := env.signalStore.Load(context.Background(), "AAPL", "2024-01-01")
	assert.NoError(t, err, "an empty task defaults to the full run")
}

func TestPipelineJobRejectsForeignPayload(t *testing.T) {
	env := newTestEnv(&fakeSource{})
	job := NewPipelineJob(env.runner, applogger.Nop())

	err := job.Handle(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline job payload")
}

func TestPipelineJobIdentity(t *testing.T) {
	job := NewPipelineJob(nil, applogger.Nop())
	assert.Equal(t, "pipeline-run", job.Name())
	assert.Equal(t, JobTypePipelineRun, job.Type())
}
