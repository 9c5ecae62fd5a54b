package repository

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SigForge/internal/domain/models"
	domrepo "SigForge/internal/domain/repository"
)

func testBar(ts time.Time, symbol string, close float64) models.MarketBar {
	return models.MarketBar{
		Timestamp: ts,
		Symbol:    symbol,
		Open:      close - 1,
		High:      close + 2,
		Low:       close - 2,
		Close:     close,
		Volume:    1000,
	}
}

// ----------------------------------------------------------------
// Feature store
// ----------------------------------------------------------------

func TestFeatureStoreRoundTrip(t *testing.T) {
	store := NewParquetFeatureStore(t.TempDir())
	ctx := context.Background()

	z := 1.5
	vwap := 100.25
	row := models.FeatureRow{
		MarketBar: testBar(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "AAPL", 100),
		SMA20:     100,
		RSI14:     55.5,
		RSIZScore: &z,
		Sentiment: []models.SourceSentiment{
			{Source: "news", Score: 0.25},
			{Source: "reddit", Score: -0.5},
		},
		SentimentMean: -0.125,
		Volatility:    math.NaN(),
		DayOfWeek:     0,
		IsMarketOpen:  false,
	}
	row.VWAP = &vwap

	require.NoError(t, store.Save(ctx, "AAPL", "2024-01-01", []models.FeatureRow{row}))

	got, err := store.Load(ctx, "AAPL", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, got, 1)

	r := got[0]
	assert.Equal(t, "AAPL", r.Symbol)
	assert.True(t, r.Timestamp.Equal(row.Timestamp), "timestamp instant survives")
	assert.Equal(t, 55.5, r.RSI14)
	require.NotNil(t, r.RSIZScore)
	assert.Equal(t, 1.5, *r.RSIZScore)
	require.NotNil(t, r.VWAP)
	assert.Equal(t, 100.25, *r.VWAP)
	assert.Equal(t, row.Sentiment, r.Sentiment)
	assert.Equal(t, -0.125, r.SentimentMean)
	assert.True(t, math.IsNaN(r.Volatility), "NaN cells survive persistence")
}

func TestFeatureStoreMissing(t *testing.T) {
	store := NewParquetFeatureStore(t.TempDir())

	_, err := store.Load(context.Background(), "AAPL", "2024-01-01")
	require.Error(t, err)
	assert.ErrorIs(t, err, domrepo.ErrNotFound)
}

func TestFeatureStoreOverwrites(t *testing.T) {
	store := NewParquetFeatureStore(t.TempDir())
	ctx := context.Background()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	three := []models.FeatureRow{
		{MarketBar: testBar(ts, "AAPL", 100)},
		{MarketBar: testBar(ts.AddDate(0, 0, 1), "AAPL", 101)},
		{MarketBar: testBar(ts.AddDate(0, 0, 2), "AAPL", 102)},
	}
	require.NoError(t, store.Save(ctx, "AAPL", "2024-01-01", three))

	one := []models.FeatureRow{{MarketBar: testBar(ts, "AAPL", 99)}}
	require.NoError(t, store.Save(ctx, "AAPL", "2024-01-01", one))

	got, err := store.Load(ctx, "AAPL", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 99.0, got[0].Close)
}

// ----------------------------------------------------------------
// Signal store
// ----------------------------------------------------------------

func TestSignalStoreRoundTrip(t *testing.T) {
	store := NewParquetSignalStore(t.TempDir())
	ctx := context.Background()

	rows := []models.SignalRow{
		{
			FeatureRow: models.FeatureRow{
				MarketBar: testBar(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "TSLA", 200),
			},
			TechnicalSignal: 0.8,
			CombinedSignal:  0.62,
			Action:          models.ActionBuy,
		},
		{
			FeatureRow: models.FeatureRow{
				MarketBar: testBar(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "TSLA", 190),
			},
			TechnicalSignal: -0.9,
			CombinedSignal:  -0.7,
			Action:          models.ActionSell,
		},
	}
	require.NoError(t, store.Save(ctx, "TSLA", "2024-01-01", rows))

	got, err := store.Load(ctx, "TSLA", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.ActionBuy, got[0].Action)
	assert.Equal(t, models.ActionSell, got[1].Action)
	assert.Equal(t, 0.62, got[0].CombinedSignal)
}

func TestSignalStoreMissing(t *testing.T) {
	store := NewParquetSignalStore(t.TempDir())

	_, err := store.Load(context.Background(), "TSLA", "2024-01-01")
	assert.ErrorIs(t, err, domrepo.ErrNotFound)
}

// ----------------------------------------------------------------
// Market source
// ----------------------------------------------------------------

func writeBarFixture(t *testing.T, dataDir, symbol, date string, bars []models.MarketBar) {
	t.Helper()
	path := filepath.Join(dataDir, "raw", "market", symbol+"_"+date+".parquet")
	require.NoError(t, writeTable(path, bars))
}

func writeEventFixture(t *testing.T, dataDir, date string, events []models.AltEvent) {
	t.Helper()
	path := filepath.Join(dataDir, "raw", "alternative", "events_"+date+".parquet")
	require.NoError(t, writeTable(path, events))
}

func TestLoadBarsSortsByTimestamp(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeBarFixture(t, dir, "AAPL", "2024-01-01", []models.MarketBar{
		testBar(ts.Add(2*time.Hour), "AAPL", 102),
		testBar(ts, "AAPL", 100),
		testBar(ts.Add(time.Hour), "AAPL", 101),
	})
	src := NewParquetMarketSource(dir)

	bars, err := src.LoadBars(context.Background(), "AAPL", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, 100.0, bars[0].Close)
	assert.Equal(t, 101.0, bars[1].Close)
	assert.Equal(t, 102.0, bars[2].Close)
}

func TestLoadBarsMergesAllDates(t *testing.T) {
	dir := t.TempDir()
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	writeBarFixture(t, dir, "AAPL", "2024-01-02", []models.MarketBar{testBar(d2, "AAPL", 110)})
	writeBarFixture(t, dir, "AAPL", "2024-01-01", []models.MarketBar{testBar(d1, "AAPL", 100)})
	writeBarFixture(t, dir, "TSLA", "2024-01-01", []models.MarketBar{testBar(d1, "TSLA", 200)})
	src := NewParquetMarketSource(dir)

	bars, err := src.LoadBars(context.Background(), "AAPL", "")
	require.NoError(t, err)
	require.Len(t, bars, 2, "only the requested symbol's files are merged")
	assert.Equal(t, 100.0, bars[0].Close)
	assert.Equal(t, 110.0, bars[1].Close)
}

func TestLoadBarsMissing(t *testing.T) {
	src := NewParquetMarketSource(t.TempDir())

	_, err := src.LoadBars(context.Background(), "AAPL", "2024-01-01")
	assert.ErrorIs(t, err, domrepo.ErrNotFound)

	_, err = src.LoadBars(context.Background(), "AAPL", "")
	assert.ErrorIs(t, err, domrepo.ErrNotFound)
}

func TestLoadBarsRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bad := testBar(ts, "AAPL", 100)
	bad.Close = -5
	writeBarFixture(t, dir, "AAPL", "2024-01-01", []models.MarketBar{bad})

	src := NewParquetMarketSource(dir)
	_, err := src.LoadBars(context.Background(), "AAPL", "2024-01-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-positive price")
}

func TestLoadBarsRejectsZeroTimestamp(t *testing.T) {
	dir := t.TempDir()
	bad := testBar(time.Time{}, "AAPL", 100)
	writeBarFixture(t, dir, "AAPL", "2024-01-01", []models.MarketBar{bad})

	src := NewParquetMarketSource(dir)
	_, err := src.LoadBars(context.Background(), "AAPL", "2024-01-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero timestamp")
}

func TestLoadEventsMissingIsEmpty(t *testing.T) {
	src := NewParquetMarketSource(t.TempDir())

	events, err := src.LoadEvents(context.Background(), "AAPL", "2024-01-01")
	require.NoError(t, err)
	assert.Nil(t, events)
}

func TestLoadEventsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	writeEventFixture(t, dir, "2024-01-01", []models.AltEvent{
		{Timestamp: ts.Add(time.Hour), Source: "news", SentimentScore: -0.2, Entities: []string{"AAPL"}},
		{Timestamp: ts, Source: "reddit", SentimentScore: 0.7, Entities: []string{"AAPL", "TSLA"}, Text: "buy buy buy"},
	})
	src := NewParquetMarketSource(dir)

	events, err := src.LoadEvents(context.Background(), "AAPL", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "reddit", events[0].Source, "events come back sorted by timestamp")
	assert.Equal(t, []string{"AAPL", "TSLA"}, events[0].Entities)
	assert.Equal(t, 0.7, events[0].SentimentScore)
	assert.Equal(t, "buy buy buy", events[0].Text)
}

func TestLoadEventsMergesAllDates(t *testing.T) {
	dir := t.TempDir()
	d1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	writeEventFixture(t, dir, "2024-01-02", []models.AltEvent{
		{Timestamp: d2, Source: "news", SentimentScore: 0.1, Entities: []string{"AAPL"}},
	})
	writeEventFixture(t, dir, "2024-01-01", []models.AltEvent{
		{Timestamp: d1, Source: "news", SentimentScore: 0.2, Entities: []string{"AAPL"}},
	})
	src := NewParquetMarketSource(dir)

	events, err := src.LoadEvents(context.Background(), "AAPL", "")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 0.2, events[0].SentimentScore)
	assert.Equal(t, 0.1, events[1].SentimentScore)
}

func TestWriteTableCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "c.parquet")

	require.NoError(t, writeTable(path, []models.MarketBar{
		testBar(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "AAPL", 100),
	}))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
