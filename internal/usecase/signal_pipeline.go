package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"SigForge/internal/domain/models"
	domrepo "SigForge/internal/domain/repository"
	domsvc "SigForge/internal/domain/service"
	"SigForge/pkg/cache"
	applogger "SigForge/pkg/logger"
	"SigForge/pkg/util"
)

// SignalPipeline turns a stored feature table into a signal table. It is the
// second stage of the run: features for the (symbol, date) key must already
// exist, otherwise the run fails with the store's not-found error.
type SignalPipeline struct {
	features  domrepo.FeatureStore
	store     domrepo.SignalStore
	engine    domsvc.SignalEngine
	scanner   domsvc.QualityScanner
	cache     cache.Service
	publisher *RunEventPublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger
}

func NewSignalPipeline(
	features domrepo.FeatureStore,
	store domrepo.SignalStore,
	engine domsvc.SignalEngine,
	scanner domsvc.QualityScanner,
	c cache.Service,
	publisher *RunEventPublisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *SignalPipeline {
	return &SignalPipeline{
		features:  features,
		store:     store,
		engine:    engine,
		scanner:   scanner,
		cache:     c,
		publisher: publisher,
		metrics:   metrics,
		l:         l,
	}
}

// SignalRunResult summarizes one finished signal run.
type SignalRunResult struct {
	Symbol  string               `json:"symbol"`
	Date    string               `json:"date"`
	Rows    int                  `json:"rows"`
	Actions models.ActionCounts  `json:"actions"`
	Quality models.QualityReport `json:"quality"`
}

func (p *SignalPipeline) Generate(ctx context.Context, symbol, date string) (*SignalRunResult, error) {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if date == "" {
		return nil, fmt.Errorf("date required")
	}
	start := time.Now()

	features, err := p.features.Load(ctx, symbol, date)
	if err != nil {
		p.fail(symbol, "load_features")
		return nil, fmt.Errorf("signal pipeline %s %s: %w", symbol, date, err)
	}

	rows := p.engine.Combine(features)
	report := p.scanner.ScanSignals(ctx, symbol, date, rows)

	if err := p.store.Save(ctx, symbol, date, rows); err != nil {
		p.fail(symbol, "save_signals")
		return nil, fmt.Errorf("signal pipeline %s %s: %w", symbol, date, err)
	}
	if p.cache != nil {
		if err := p.cache.DeleteByPattern(ctx, cache.BuildPattern(SignalCacheScope(symbol, date))); err != nil {
			p.l.Warn("signal cache invalidation failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}

	actions := models.CountActions(rows)
	for i := range rows {
		p.metrics.RecordAction(symbol, string(rows[i].Action))
	}
	if n := len(rows); n > 0 {
		if last := rows[n-1].CombinedSignal; !math.IsNaN(last) && !math.IsInf(last, 0) {
			p.metrics.RecordCombinedSignal(symbol, last)
		}
	}

	elapsed := time.Since(start)
	p.metrics.RecordRun("signals", symbol, "ok")
	p.metrics.RecordRows("signals", symbol, len(rows))
	p.metrics.RecordDuration("signal_pipeline", elapsed.Seconds())

	result := &SignalRunResult{Symbol: symbol, Date: date, Rows: len(rows), Actions: actions, Quality: report}
	p.publisher.Publish(ctx, models.RunEvent{
		Symbol:      symbol,
		Date:        date,
		Rows:        len(rows),
		Actions:     actions,
		GeneratedAt: time.Now().UTC(),
	})

	p.l.Info("signal run complete",
		applogger.String("symbol", symbol),
		applogger.String("date", date),
		applogger.Int("rows", len(rows)),
		applogger.Any("actions", actions),
		applogger.Duration("duration", elapsed),
	)
	return result, nil
}

func (p *SignalPipeline) fail(symbol, kind string) {
	p.metrics.RecordRun("signals", symbol, "error")
	p.metrics.RecordError(kind)
}
