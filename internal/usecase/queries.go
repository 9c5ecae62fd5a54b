package usecase

import (
	"context"
	"fmt"
	"math"

	"SigForge/internal/domain/models"
	domrepo "SigForge/internal/domain/repository"
	"SigForge/pkg/cache"
	"SigForge/pkg/util"
)

// Table read limits. Reads return the head of the table in timestamp order;
// a zero or negative limit falls back to the default, anything above the max
// is capped.
const (
	DefaultTableLimit = 10000
	MaxTableLimit     = 50000
)

// Cache scopes for table reads. Pipelines invalidate by scope after every
// save, readers key their entries inside it.
func FeatureCacheScope(symbol, date string) string {
	return cache.GenerateKeyWithParams("features", symbol, date)
}

func SignalCacheScope(symbol, date string) string {
	return cache.GenerateKeyWithParams("signals", symbol, date)
}

// TableQueries serves read access to persisted feature and signal tables.
type TableQueries struct {
	features domrepo.FeatureStore
	signals  domrepo.SignalStore
}

func NewTableQueries(features domrepo.FeatureStore, signals domrepo.SignalStore) *TableQueries {
	return &TableQueries{features: features, signals: signals}
}

func (q *TableQueries) Features(ctx context.Context, symbol, date string, limit int) ([]models.FeatureRow, error) {
	symbol = util.NormalizeSymbol(symbol)
	rows, err := q.features.Load(ctx, symbol, date)
	if err != nil {
		return nil, fmt.Errorf("read features %s %s: %w", symbol, date, err)
	}
	return rows[:capLimit(limit, len(rows))], nil
}

func (q *TableQueries) Signals(ctx context.Context, symbol, date string, limit int) ([]models.SignalRow, error) {
	symbol = util.NormalizeSymbol(symbol)
	rows, err := q.signals.Load(ctx, symbol, date)
	if err != nil {
		return nil, fmt.Errorf("read signals %s %s: %w", symbol, date, err)
	}
	return rows[:capLimit(limit, len(rows))], nil
}

// SignalSummary condenses a signal table for dashboard consumption. The
// combined-signal aggregates skip non-finite cells; they are null when the
// table has no finite combined value at all.
type SignalSummary struct {
	Symbol             string              `json:"symbol"`
	Date               string              `json:"date"`
	Rows               int                 `json:"rows"`
	Actions            models.ActionCounts `json:"actions"`
	LastAction         models.Action       `json:"last_action,omitempty"`
	LastCombinedSignal *float64            `json:"last_combined_signal"`
	MeanCombinedSignal *float64            `json:"mean_combined_signal"`
}

func (q *TableQueries) SignalSummary(ctx context.Context, symbol, date string) (*SignalSummary, error) {
	symbol = util.NormalizeSymbol(symbol)
	rows, err := q.signals.Load(ctx, symbol, date)
	if err != nil {
		return nil, fmt.Errorf("signal summary %s %s: %w", symbol, date, err)
	}

	s := &SignalSummary{
		Symbol:  symbol,
		Date:    date,
		Rows:    len(rows),
		Actions: models.CountActions(rows),
	}
	if len(rows) > 0 {
		s.LastAction = rows[len(rows)-1].Action
	}

	sum, n := 0.0, 0
	for i := range rows {
		v := rows[i].CombinedSignal
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
		s.LastCombinedSignal = &rows[i].CombinedSignal
	}
	if n > 0 {
		mean := sum / float64(n)
		s.MeanCombinedSignal = &mean
	}
	return s, nil
}

func capLimit(limit, rows int) int {
	if limit <= 0 {
		limit = DefaultTableLimit
	}
	if limit > MaxTableLimit {
		limit = MaxTableLimit
	}
	if limit > rows {
		return rows
	}
	return limit
}
