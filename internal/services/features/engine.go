package features

import (
	"fmt"
	"math"

	"SigForge/internal/domain/models"
	"SigForge/internal/domain/repository"
	applogger "SigForge/pkg/logger"
	"SigForge/pkg/util"
)

// eps guards divisions that must survive flat series and zero spreads.
const eps = 1e-9

// Params controls every window and span of the derivation. All windows
// shrink at the series start, so short inputs still yield a full-length
// table instead of a truncated one.
type Params struct {
	SMAWindow        int
	EMASpan          int
	RSIWindow        int
	MACDFast         int
	MACDSlow         int
	MACDSignalSpan   int
	BollingerWindow  int
	VolatilityWindow int
	ZScoreWindow     int

	// RSIZScore additionally standardizes the RSI column over ZScoreWindow;
	// the signal engine prefers it over the raw RSI rescale when present.
	RSIZScore bool

	SentimentGranularity repository.Granularity
	SentimentShortWindow int
	SentimentLongWindow  int
}

// DefaultParams returns the stock setup: 20-bar price windows, 14-bar RSI,
// 12/26/9 MACD, daily sentiment buckets.
func DefaultParams() Params {
	return Params{
		SMAWindow:            20,
		EMASpan:              12,
		RSIWindow:            14,
		MACDFast:             12,
		MACDSlow:             26,
		MACDSignalSpan:       9,
		BollingerWindow:      20,
		VolatilityWindow:     20,
		ZScoreWindow:         20,
		SentimentGranularity: repository.GranDaily,
		SentimentShortWindow: 1,
		SentimentLongWindow:  5,
	}
}

// Engine derives feature tables. It keeps no per-run state; Generate builds
// fresh accumulators each call, so one engine serves concurrent runs.
type Engine struct {
	params Params
	l      *applogger.Logger
}

func NewEngine(params Params, l *applogger.Logger) *Engine {
	return &Engine{params: params, l: l}
}

// Generate derives one FeatureRow per input bar, in input order. Events not
// mentioning the symbol are dropped before aggregation. When date is empty
// the effective date is the calendar date of the earliest bar; it is
// returned so callers key persistence and downstream runs consistently.
func (e *Engine) Generate(bars []models.MarketBar, events []models.AltEvent, symbol, date string) ([]models.FeatureRow, string, error) {
	if len(bars) == 0 {
		return nil, "", fmt.Errorf("generate features %s: no market bars", symbol)
	}
	effective := date
	if effective == "" {
		min := bars[0].Timestamp
		for _, b := range bars[1:] {
			if b.Timestamp.Before(min) {
				min = b.Timestamp
			}
		}
		effective = util.FormatDate(min)
	}

	cells, sources := AggregateSentiment(events, symbol, e.params.SentimentGranularity)

	smaW := NewWindow(e.params.SMAWindow)
	bbW := NewWindow(e.params.BollingerWindow)
	volW := NewWindow(e.params.VolatilityWindow)
	zW := NewWindow(e.params.ZScoreWindow)
	gainW := NewWindow(e.params.RSIWindow)
	lossW := NewWindow(e.params.RSIWindow)
	ema := NewEMA(e.params.EMASpan)
	fast := NewEMA(e.params.MACDFast)
	slow := NewEMA(e.params.MACDSlow)
	macdSig := NewEMA(e.params.MACDSignalSpan)
	var rsiZW *Window
	if e.params.RSIZScore {
		rsiZW = NewWindow(e.params.ZScoreWindow)
	}
	sentMAW := NewWindow(e.params.SentimentShortWindow)
	sentVolW := NewWindow(e.params.SentimentLongWindow)

	rows := make([]models.FeatureRow, len(bars))
	prevClose := 0.0
	for i := range bars {
		b := bars[i]
		c := b.Close

		smaW.Push(c)
		bbW.Push(c)
		volW.Push(c)
		zW.Push(c)
		if i == 0 {
			// The first bar has no delta; it still occupies one slot of
			// both RSI windows as a zero, like a diffed series with its
			// head replaced.
			gainW.Push(0)
			lossW.Push(0)
		} else {
			d := c - prevClose
			gainW.Push(math.Max(d, 0))
			lossW.Push(math.Max(-d, 0))
		}
		prevClose = c

		row := models.FeatureRow{MarketBar: b}
		row.SMA20 = smaW.Mean()
		row.EMA12 = ema.Update(c)
		rs := gainW.Mean() / (lossW.Mean() + eps)
		row.RSI14 = 100 - 100/(1+rs)
		row.MACD = fast.Update(c) - slow.Update(c)
		row.MACDSignal = macdSig.Update(row.MACD)

		bbMean := bbW.Mean()
		bbStd := bbW.Std()
		row.BBUpper = bbMean + 2*bbStd
		row.BBLower = bbMean - 2*bbStd
		row.BBPosition = (c - row.BBLower) / (row.BBUpper - row.BBLower + eps)

		row.Volatility = volW.Std()
		row.CloseZScore = (c - zW.Mean()) / (zW.Std() + eps)
		if rsiZW != nil {
			rsiZW.Push(row.RSI14)
			z := (row.RSI14 - rsiZW.Mean()) / (rsiZW.Std() + eps)
			row.RSIZScore = &z
		}

		// Join sentiment on the exact bucket instant. Bars that do not sit
		// on a bucket boundary (hourly bars against daily buckets) match
		// nothing and fill neutral; that mismatch behavior is part of the
		// contract, not a bug to smooth over.
		row.Sentiment = make([]models.SourceSentiment, len(sources))
		if cell, ok := cells[b.Timestamp.UnixNano()]; ok {
			for j, src := range sources {
				row.Sentiment[j] = models.SourceSentiment{Source: src, Score: cell.Scores[src]}
			}
			row.SentimentMean = cell.Mean
		} else {
			for j, src := range sources {
				row.Sentiment[j] = models.SourceSentiment{Source: src}
			}
		}
		sentMAW.Push(row.SentimentMean)
		sentVolW.Push(row.SentimentMean)
		row.SentimentMA1D = sentMAW.Mean()
		row.SentimentVolatility = sentVolW.Std()

		row.Hour = int32(b.Timestamp.UTC().Hour())
		row.DayOfWeek = DayOfWeek(b.Timestamp)
		row.IsWeekend = IsWeekend(b.Timestamp)
		row.IsMarketOpen = IsMarketOpen(b.Timestamp)

		rows[i] = row
	}

	if e.l != nil {
		e.l.Debug("features generated",
			applogger.String("symbol", symbol),
			applogger.String("date", effective),
			applogger.Int("rows", len(rows)),
			applogger.Int("sources", len(sources)),
		)
	}
	return rows, effective, nil
}
