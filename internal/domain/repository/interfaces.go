package repository

import (
	"context"

	"SigForge/internal/domain/models"
)

// MarketDataSource loads the raw inputs for one generation unit. Implementations
// validate bars once at this boundary and return them sorted by timestamp;
// transforms downstream never re-check. An empty date loads everything known
// for the symbol. Event loading is permissive: a day with no event data yields
// an empty slice, not an error, because absent sentiment is neutral-filled
// later. Entity filtering belongs to the feature engine; sources that can push
// a symbol predicate down (ClickHouse) still return a superset.
type MarketDataSource interface {
	LoadBars(ctx context.Context, symbol, date string) ([]models.MarketBar, error)
	LoadEvents(ctx context.Context, symbol, date string) ([]models.AltEvent, error)
}

// Metrics records pipeline observability events.
type Metrics interface {
	RecordRun(stage, symbol, result string)
	RecordRows(stage, symbol string, rows int)
	RecordDuration(op string, seconds float64)
	RecordQualityIssue(stage, kind string, cells int)
	RecordAction(symbol, action string)
	RecordCombinedSignal(symbol string, value float64)
	RecordError(kind string)
}
