package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "SigForge/pkg/logger"
)

func TestBackfillRunInline(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env := newTestEnv(&fakeSource{bars: testBars("X", start, 100, 101)})
	b := NewBackfill(env.runner, nil, 2, applogger.Nop())

	done, err := b.Run(context.Background(), []string{"aapl", "tsla"}, "2024-01-01", "2024-01-03", TaskAll)
	require.NoError(t, err)
	assert.Equal(t, 6, done, "2 symbols x 3 days")

	// Every unit ran with its own explicit date.
	for _, date := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		_, err := env.signalStore.Load(context.Background(), "AAPL", date)
		assert.NoError(t, err, "AAPL %s", date)
		_, err = env.signalStore.Load(context.Background(), "TSLA", date)
		assert.NoError(t, err, "TSLA %s", date)
	}
}

func TestBackfillBadDates(t *testing.T) {
	env := newTestEnv(&fakeSource{})
	b := NewBackfill(env.runner, nil, 0, applogger.Nop())

	_, err := b.Run(context.Background(), []string{"AAPL"}, "yesterday", "2024-01-02", TaskAll)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backfill from:")

	_, err = b.Run(context.Background(), []string{"AAPL"}, "2024-01-01", "nope", TaskAll)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backfill to:")
}

func TestBackfillInvertedRange(t *testing.T) {
	env := newTestEnv(&fakeSource{})
	b := NewBackfill(env.runner, nil, 0, applogger.Nop())

	_, err := b.Run(context.Background(), []string{"AAPL"}, "2024-01-05", "2024-01-01", TaskAll)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inverted")
}

func TestBackfillNoSymbols(t *testing.T) {
	env := newTestEnv(&fakeSource{})
	b := NewBackfill(env.runner, nil, 0, applogger.Nop())

	_, err := b.Run(context.Background(), nil, "2024-01-01", "2024-01-02", TaskAll)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no symbols")

	_, err = b.Run(context.Background(), []string{"  ", ""}, "2024-01-01", "2024-01-02", TaskAll)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no symbols")
}

func TestBackfillUnknownTask(t *testing.T) {
	env := newTestEnv(&fakeSource{})
	b := NewBackfill(env.runner, nil, 0, applogger.Nop())

	_, err := b.Run(context.Background(), []string{"AAPL"}, "2024-01-01", "2024-01-02", "repaint")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown task")
}

func TestBackfillUnitFailuresReduceCount(t *testing.T) {
	env := newTestEnv(&fakeSource{barsErr: errors.New("collector is down")})
	b := NewBackfill(env.runner, nil, 2, applogger.Nop())

	done, err := b.Run(context.Background(), []string{"AAPL"}, "2024-01-01", "2024-01-02", TaskAll)
	require.NoError(t, err, "unit failures are not plan failures")
	assert.Equal(t, 0, done)
}

func TestBackfillCancelledContext(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env := newTestEnv(&fakeSource{bars: testBars("X", start, 100)})
	b := NewBackfill(env.runner, nil, 1, applogger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Run(ctx, []string{"AAPL"}, "2024-01-01", "2024-01-03", TaskAll)
	assert.ErrorIs(t, err, context.Canceled)
}
