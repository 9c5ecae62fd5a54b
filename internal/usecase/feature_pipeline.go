package usecase

import (
	"context"
	"fmt"
	"time"

	"SigForge/internal/domain/models"
	domrepo "SigForge/internal/domain/repository"
	domsvc "SigForge/internal/domain/service"
	"SigForge/pkg/cache"
	applogger "SigForge/pkg/logger"
	"SigForge/pkg/util"
)

// FeaturePipeline runs one feature generation unit end to end: load raw
// inputs, derive, quality-scan, persist, invalidate cached reads. Units are
// independent; concurrent runs of different (symbol, date) keys never share
// state, and concurrent runs of the same key are last-writer-wins.
type FeaturePipeline struct {
	source  domrepo.MarketDataSource
	store   domrepo.FeatureStore
	engine  domsvc.FeatureEngine
	scanner domsvc.QualityScanner
	cache   cache.Service
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewFeaturePipeline(
	source domrepo.MarketDataSource,
	store domrepo.FeatureStore,
	engine domsvc.FeatureEngine,
	scanner domsvc.QualityScanner,
	c cache.Service,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *FeaturePipeline {
	return &FeaturePipeline{
		source:  source,
		store:   store,
		engine:  engine,
		scanner: scanner,
		cache:   c,
		metrics: metrics,
		l:       l,
	}
}

// FeatureRunResult summarizes one finished feature run. Date is the
// effective date, which may differ from the requested one when the request
// left it empty.
type FeatureRunResult struct {
	Symbol  string               `json:"symbol"`
	Date    string               `json:"date"`
	Rows    int                  `json:"rows"`
	Quality models.QualityReport `json:"quality"`
}

func (p *FeaturePipeline) Generate(ctx context.Context, symbol, date string) (*FeatureRunResult, error) {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	start := time.Now()

	bars, err := p.source.LoadBars(ctx, symbol, date)
	if err != nil {
		p.fail(symbol, "load_bars")
		return nil, fmt.Errorf("feature pipeline %s: %w", symbol, err)
	}
	events, err := p.source.LoadEvents(ctx, symbol, date)
	if err != nil {
		p.fail(symbol, "load_events")
		return nil, fmt.Errorf("feature pipeline %s: %w", symbol, err)
	}

	rows, effective, err := p.engine.Generate(bars, events, symbol, date)
	if err != nil {
		p.fail(symbol, "derive_features")
		return nil, fmt.Errorf("feature pipeline %s: %w", symbol, err)
	}
	report := p.scanner.ScanFeatures(ctx, symbol, effective, rows)

	if err := p.store.Save(ctx, symbol, effective, rows); err != nil {
		p.fail(symbol, "save_features")
		return nil, fmt.Errorf("feature pipeline %s: %w", symbol, err)
	}
	if p.cache != nil {
		if err := p.cache.DeleteByPattern(ctx, cache.BuildPattern(FeatureCacheScope(symbol, effective))); err != nil {
			p.l.Warn("feature cache invalidation failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}

	elapsed := time.Since(start)
	p.metrics.RecordRun("features", symbol, "ok")
	p.metrics.RecordRows("features", symbol, len(rows))
	p.metrics.RecordDuration("feature_pipeline", elapsed.Seconds())

	p.l.Info("feature run complete",
		applogger.String("symbol", symbol),
		applogger.String("date", effective),
		applogger.Int("bars", len(bars)),
		applogger.Int("events", len(events)),
		applogger.Int("rows", len(rows)),
		applogger.Bool("clean", report.Clean()),
		applogger.Duration("duration", elapsed),
	)
	return &FeatureRunResult{Symbol: symbol, Date: effective, Rows: len(rows), Quality: report}, nil
}

func (p *FeaturePipeline) fail(symbol, kind string) {
	p.metrics.RecordRun("features", symbol, "error")
	p.metrics.RecordError(kind)
}
