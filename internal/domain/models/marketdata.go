package models

import "time"

// MarketBar is one OHLCV record for a symbol over a fixed interval.
// Bars are validated once at the ingestion boundary and immutable afterwards;
// rolling-window features assume the sequence is sorted by timestamp.
type MarketBar struct {
	Timestamp time.Time `parquet:"timestamp,timestamp" json:"timestamp"`
	Symbol    string    `parquet:"symbol" json:"symbol"`
	Open      float64   `parquet:"open" json:"open"`
	High      float64   `parquet:"high" json:"high"`
	Low       float64   `parquet:"low" json:"low"`
	Close     float64   `parquet:"close" json:"close"`
	Volume    int64     `parquet:"volume" json:"volume"`
	VWAP      *float64  `parquet:"vwap,optional" json:"vwap,omitempty"`
	Source    string    `parquet:"source,optional" json:"source,omitempty"`
}

// AltEvent is one alternative-data record: a post or article carrying a
// sentiment score and the set of ticker symbols it mentions. An event
// contributes to every symbol it mentions independently.
type AltEvent struct {
	Timestamp      time.Time `parquet:"timestamp,timestamp" json:"timestamp"`
	Source         string    `parquet:"source" json:"source"`
	SentimentScore float64   `parquet:"sentiment_score" json:"sentiment_score"`
	Entities       []string  `parquet:"entities,list" json:"entities"`
	Text           string    `parquet:"text,optional" json:"text,omitempty"`
}

// Mentions reports whether the event's entity set contains the symbol.
// Matching is exact: entities and symbols share one canonical casing.
func (e *AltEvent) Mentions(symbol string) bool {
	for _, ent := range e.Entities {
		if ent == symbol {
			return true
		}
	}
	return false
}
