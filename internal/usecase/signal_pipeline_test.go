package usecase

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SigForge/internal/domain/models"
	domrepo "SigForge/internal/domain/repository"
)

// signalFixture seeds the feature store with three rows engineered to land
// on BUY, HOLD and SELL under the default weights.
func signalFixture(t *testing.T, env *testEnv) {
	t.Helper()
	rows := []models.FeatureRow{
		{
			RSI14:         100,
			SentimentMean: 1,
			Sentiment: []models.SourceSentiment{
				{Source: "news", Score: 1},
				{Source: "reddit", Score: 1},
			},
		},
		{RSI14: 50},
		{
			RSI14:         0,
			SentimentMean: -1,
			Sentiment: []models.SourceSentiment{
				{Source: "news", Score: -1},
				{Source: "reddit", Score: -1},
			},
		},
	}
	require.NoError(t, env.featureStore.Save(context.Background(), "AAPL", "2024-01-01", rows))
}

func TestSignalPipelineGenerate(t *testing.T) {
	env := newTestEnv(&fakeSource{})
	signalFixture(t, env)

	res, err := env.signals.Generate(context.Background(), "aapl", "2024-01-01")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", res.Symbol)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, models.ActionCounts{Buy: 1, Sell: 1, Hold: 1}, res.Actions)

	saved, err := env.signalStore.Load(context.Background(), "AAPL", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, saved, 3)
	assert.Equal(t, models.ActionBuy, saved[0].Action)
	assert.Equal(t, models.ActionSell, saved[2].Action)

	assert.Equal(t, 1, env.metrics.actionCount("AAPL/BUY"))
	assert.Equal(t, 1, env.metrics.actionCount("AAPL/HOLD"))
	assert.Equal(t, 1, env.metrics.actionCount("AAPL/SELL"))
	assert.Equal(t, 1, env.metrics.runCount("signals/AAPL/ok"))

	last, ok := env.metrics.lastCombined()
	require.True(t, ok)
	assert.InDelta(t, -1.0, last, 1e-12)
}

func TestSignalPipelineSymbolRequired(t *testing.T) {
	env := newTestEnv(&fakeSource{})

	_, err := env.signals.Generate(context.Background(), "", "2024-01-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol required")
}

func TestSignalPipelineDateRequired(t *testing.T) {
	env := newTestEnv(&fakeSource{})

	_, err := env.signals.Generate(context.Background(), "AAPL", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date required")
}

func TestSignalPipelineMissingFeatures(t *testing.T) {
	env := newTestEnv(&fakeSource{})

	_, err := env.signals.Generate(context.Background(), "AAPL", "2024-01-01")
	require.Error(t, err)
	assert.ErrorIs(t, err, domrepo.ErrNotFound, "the store's not-found marker survives wrapping")
	assert.Equal(t, 1, env.metrics.errorCount("load_features"))
	assert.Equal(t, 1, env.metrics.runCount("signals/AAPL/error"))
}

func TestSignalPipelineSkipsNonFiniteCombinedMetric(t *testing.T) {
	env := newTestEnv(&fakeSource{})
	rows := []models.FeatureRow{{RSI14: math.NaN()}}
	require.NoError(t, env.featureStore.Save(context.Background(), "AAPL", "2024-01-01", rows))

	res, err := env.signals.Generate(context.Background(), "AAPL", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, models.ActionCounts{Hold: 1}, res.Actions)

	_, ok := env.metrics.lastCombined()
	assert.False(t, ok, "a NaN combined signal is not exported")
}
