package models

import (
	"encoding/json"
	"math"
	"time"
)

// SourceSentiment is one per-source sentiment cell of a feature row. The
// slice on FeatureRow holds every source observed for the symbol/period,
// sorted by source name, with zero-filled cells kept so all rows share the
// same source set and identical inputs serialize identically.
type SourceSentiment struct {
	Source string  `parquet:"source" json:"source"`
	Score  float64 `parquet:"score" json:"score"`
}

// FeatureRow is one derived row per input MarketBar: the original bar plus
// technical indicators, sentiment aggregates, and time features. NaN is a
// legal value where the math produces one (sample std over a single point);
// the quality scanner reports it, nothing repairs it.
type FeatureRow struct {
	MarketBar

	SMA20       float64  `parquet:"sma_20" json:"sma_20"`
	EMA12       float64  `parquet:"ema_12" json:"ema_12"`
	RSI14       float64  `parquet:"rsi_14" json:"rsi_14"`
	MACD        float64  `parquet:"macd" json:"macd"`
	MACDSignal  float64  `parquet:"macd_signal" json:"macd_signal"`
	BBUpper     float64  `parquet:"bb_upper" json:"bb_upper"`
	BBLower     float64  `parquet:"bb_lower" json:"bb_lower"`
	BBPosition  float64  `parquet:"bb_position" json:"bb_position"`
	Volatility  float64  `parquet:"volatility" json:"volatility"`
	CloseZScore float64  `parquet:"close_zscore" json:"close_zscore"`
	RSIZScore   *float64 `parquet:"rsi_14_zscore,optional" json:"rsi_14_zscore,omitempty"`

	Sentiment           []SourceSentiment `parquet:"sentiment,list" json:"sentiment"`
	SentimentMean       float64           `parquet:"sentiment_mean" json:"sentiment_mean"`
	SentimentMA1D       float64           `parquet:"sentiment_ma_1d" json:"sentiment_ma_1d"`
	SentimentVolatility float64           `parquet:"sentiment_volatility" json:"sentiment_volatility"`

	Hour         int32 `parquet:"hour" json:"hour"`
	DayOfWeek    int32 `parquet:"day_of_week" json:"day_of_week"` // 0=Monday .. 6=Sunday
	IsWeekend    bool  `parquet:"is_weekend" json:"is_weekend"`
	IsMarketOpen bool  `parquet:"is_market_open" json:"is_market_open"`
}

type sourceSentimentJSON struct {
	Source string   `json:"source"`
	Score  *float64 `json:"score"`
}

func (s SourceSentiment) MarshalJSON() ([]byte, error) {
	return json.Marshal(sourceSentimentJSON{Source: s.Source, Score: finiteOrNull(s.Score)})
}

// SentimentFor returns the sentiment score for a source and whether the
// source was observed at all. Sources absent from the row contribute
// neutrally to signal combination.
func (r *FeatureRow) SentimentFor(source string) (float64, bool) {
	for _, s := range r.Sentiment {
		if s.Source == source {
			return s.Score, true
		}
	}
	return 0, false
}

// NumericColumn is a named numeric cell, the unit the quality scanner works on.
type NumericColumn struct {
	Name  string
	Value float64
}

// NumericColumns lists every numeric cell of the row under its persisted
// column name.
func (r *FeatureRow) NumericColumns() []NumericColumn {
	cols := []NumericColumn{
		{"open", r.Open},
		{"high", r.High},
		{"low", r.Low},
		{"close", r.Close},
		{"volume", float64(r.Volume)},
		{"sma_20", r.SMA20},
		{"ema_12", r.EMA12},
		{"rsi_14", r.RSI14},
		{"macd", r.MACD},
		{"macd_signal", r.MACDSignal},
		{"bb_upper", r.BBUpper},
		{"bb_lower", r.BBLower},
		{"bb_position", r.BBPosition},
		{"volatility", r.Volatility},
		{"close_zscore", r.CloseZScore},
		{"sentiment_mean", r.SentimentMean},
		{"sentiment_ma_1d", r.SentimentMA1D},
		{"sentiment_volatility", r.SentimentVolatility},
	}
	if r.VWAP != nil {
		cols = append(cols, NumericColumn{"vwap", *r.VWAP})
	}
	if r.RSIZScore != nil {
		cols = append(cols, NumericColumn{"rsi_14_zscore", *r.RSIZScore})
	}
	for _, s := range r.Sentiment {
		cols = append(cols, NumericColumn{"sentiment_" + s.Source, s.Score})
	}
	return cols
}

// featureRowJSON mirrors FeatureRow with nullable floats so NaN/Inf cells
// encode as null instead of failing encoding/json.
type featureRowJSON struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
	VWAP      *float64  `json:"vwap,omitempty"`
	Source    string    `json:"source,omitempty"`

	SMA20       *float64 `json:"sma_20"`
	EMA12       *float64 `json:"ema_12"`
	RSI14       *float64 `json:"rsi_14"`
	MACD        *float64 `json:"macd"`
	MACDSignal  *float64 `json:"macd_signal"`
	BBUpper     *float64 `json:"bb_upper"`
	BBLower     *float64 `json:"bb_lower"`
	BBPosition  *float64 `json:"bb_position"`
	Volatility  *float64 `json:"volatility"`
	CloseZScore *float64 `json:"close_zscore"`
	RSIZScore   *float64 `json:"rsi_14_zscore,omitempty"`

	Sentiment           []SourceSentiment `json:"sentiment"`
	SentimentMean       *float64          `json:"sentiment_mean"`
	SentimentMA1D       *float64          `json:"sentiment_ma_1d"`
	SentimentVolatility *float64          `json:"sentiment_volatility"`

	Hour         int32 `json:"hour"`
	DayOfWeek    int32 `json:"day_of_week"`
	IsWeekend    bool  `json:"is_weekend"`
	IsMarketOpen bool  `json:"is_market_open"`
}

func (r FeatureRow) featureJSON() featureRowJSON {
	return featureRowJSON{
		Timestamp:           r.Timestamp,
		Symbol:              r.Symbol,
		Open:                r.Open,
		High:                r.High,
		Low:                 r.Low,
		Close:               r.Close,
		Volume:              r.Volume,
		VWAP:                r.VWAP,
		Source:              r.Source,
		SMA20:               finiteOrNull(r.SMA20),
		EMA12:               finiteOrNull(r.EMA12),
		RSI14:               finiteOrNull(r.RSI14),
		MACD:                finiteOrNull(r.MACD),
		MACDSignal:          finiteOrNull(r.MACDSignal),
		BBUpper:             finiteOrNull(r.BBUpper),
		BBLower:             finiteOrNull(r.BBLower),
		BBPosition:          finiteOrNull(r.BBPosition),
		Volatility:          finiteOrNull(r.Volatility),
		CloseZScore:         finiteOrNull(r.CloseZScore),
		RSIZScore:           finitePtrOrNull(r.RSIZScore),
		Sentiment:           r.Sentiment,
		SentimentMean:       finiteOrNull(r.SentimentMean),
		SentimentMA1D:       finiteOrNull(r.SentimentMA1D),
		SentimentVolatility: finiteOrNull(r.SentimentVolatility),
		Hour:                r.Hour,
		DayOfWeek:           r.DayOfWeek,
		IsWeekend:           r.IsWeekend,
		IsMarketOpen:        r.IsMarketOpen,
	}
}

func (r FeatureRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.featureJSON())
}

func finiteOrNull(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func finitePtrOrNull(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return finiteOrNull(*v)
}
