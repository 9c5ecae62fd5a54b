package models

import (
	"encoding/json"
	"time"
)

// Action is the discrete trading recommendation derived from a combined signal.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// SignalRow is one terminal pipeline row: the feature row it was derived
// from plus per-component signal contributions, the weighted combination,
// and the thresholded action.
type SignalRow struct {
	FeatureRow

	TechnicalSignal       float64 `parquet:"technical_signal" json:"technical_signal"`
	SentimentMeanSignal   float64 `parquet:"sentiment_mean_signal" json:"sentiment_mean_signal"`
	SentimentRedditSignal float64 `parquet:"sentiment_reddit_signal" json:"sentiment_reddit_signal"`
	SentimentNewsSignal   float64 `parquet:"sentiment_news_signal" json:"sentiment_news_signal"`
	CombinedSignal        float64 `parquet:"combined_signal" json:"combined_signal"`
	Action                Action  `parquet:"signal_action" json:"signal_action"`
}

// NumericColumns lists every numeric cell of the row under its persisted
// column name, feature columns included.
func (r *SignalRow) NumericColumns() []NumericColumn {
	cols := r.FeatureRow.NumericColumns()
	return append(cols,
		NumericColumn{"technical_signal", r.TechnicalSignal},
		NumericColumn{"sentiment_mean_signal", r.SentimentMeanSignal},
		NumericColumn{"sentiment_reddit_signal", r.SentimentRedditSignal},
		NumericColumn{"sentiment_news_signal", r.SentimentNewsSignal},
		NumericColumn{"combined_signal", r.CombinedSignal},
	)
}

type signalRowJSON struct {
	featureRowJSON

	TechnicalSignal       *float64 `json:"technical_signal"`
	SentimentMeanSignal   *float64 `json:"sentiment_mean_signal"`
	SentimentRedditSignal *float64 `json:"sentiment_reddit_signal"`
	SentimentNewsSignal   *float64 `json:"sentiment_news_signal"`
	CombinedSignal        *float64 `json:"combined_signal"`
	Action                Action   `json:"signal_action"`
}

func (r SignalRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(signalRowJSON{
		featureRowJSON:        r.featureJSON(),
		TechnicalSignal:       finiteOrNull(r.TechnicalSignal),
		SentimentMeanSignal:   finiteOrNull(r.SentimentMeanSignal),
		SentimentRedditSignal: finiteOrNull(r.SentimentRedditSignal),
		SentimentNewsSignal:   finiteOrNull(r.SentimentNewsSignal),
		CombinedSignal:        finiteOrNull(r.CombinedSignal),
		Action:                r.Action,
	})
}

// ActionCounts tallies recommendations across one signal table.
type ActionCounts struct {
	Buy  int `json:"BUY"`
	Sell int `json:"SELL"`
	Hold int `json:"HOLD"`
}

func (c *ActionCounts) Add(a Action) {
	switch a {
	case ActionBuy:
		c.Buy++
	case ActionSell:
		c.Sell++
	default:
		c.Hold++
	}
}

// CountActions tallies the actions of a signal table.
func CountActions(rows []SignalRow) ActionCounts {
	var c ActionCounts
	for i := range rows {
		c.Add(rows[i].Action)
	}
	return c
}

// RunEvent is published after a signal run completes. It carries run
// metadata only; row data lives in the persisted table.
type RunEvent struct {
	Symbol      string       `json:"symbol"`
	Date        string       `json:"date"`
	Rows        int          `json:"rows"`
	Actions     ActionCounts `json:"actions"`
	GeneratedAt time.Time    `json:"generated_at"`
}
