// Package quality inspects finished tables for missing (NaN) and non-finite
// (±Inf) cells. Findings are advisory: they are logged, counted, and written
// to an audit trail, but never repaired and never block persistence.
package quality

import (
	"context"
	"math"

	"SigForge/internal/domain/models"
	"SigForge/internal/domain/repository"
	applogger "SigForge/pkg/logger"
)

const (
	StageFeatures = "features"
	StageSignals  = "signals"
)

// Scanner walks every numeric cell of a table and tallies the degenerate
// ones per column. The audit log is optional; a nil audit just disables the
// trail.
type Scanner struct {
	l       *applogger.Logger
	metrics repository.Metrics
	audit   *AuditLog
}

func NewScanner(l *applogger.Logger, metrics repository.Metrics, audit *AuditLog) *Scanner {
	return &Scanner{l: l, metrics: metrics, audit: audit}
}

func (s *Scanner) ScanFeatures(ctx context.Context, symbol, date string, rows []models.FeatureRow) models.QualityReport {
	rep := models.QualityReport{Rows: len(rows)}
	for i := range rows {
		observe(&rep, rows[i].NumericColumns())
	}
	s.report(ctx, StageFeatures, symbol, date, rep)
	return rep
}

func (s *Scanner) ScanSignals(ctx context.Context, symbol, date string, rows []models.SignalRow) models.QualityReport {
	rep := models.QualityReport{Rows: len(rows)}
	for i := range rows {
		observe(&rep, rows[i].NumericColumns())
	}
	s.report(ctx, StageSignals, symbol, date, rep)
	return rep
}

func observe(rep *models.QualityReport, cols []models.NumericColumn) {
	for _, c := range cols {
		switch {
		case math.IsNaN(c.Value):
			if rep.Missing == nil {
				rep.Missing = make(map[string]int)
			}
			rep.Missing[c.Name]++
		case math.IsInf(c.Value, 0):
			if rep.NonFinite == nil {
				rep.NonFinite = make(map[string]int)
			}
			rep.NonFinite[c.Name]++
		}
	}
}

func (s *Scanner) report(ctx context.Context, stage, symbol, date string, rep models.QualityReport) {
	if rep.Clean() {
		return
	}
	if missing := rep.MissingCells(); missing > 0 {
		if s.metrics != nil {
			s.metrics.RecordQualityIssue(stage, "missing", missing)
		}
		if s.l != nil {
			s.l.Warn("table has missing cells",
				applogger.String("stage", stage),
				applogger.String("symbol", symbol),
				applogger.String("date", date),
				applogger.Int("cells", missing),
				applogger.Any("columns", rep.Missing),
			)
		}
	}
	if inf := rep.NonFiniteCells(); inf > 0 {
		if s.metrics != nil {
			s.metrics.RecordQualityIssue(stage, "non_finite", inf)
		}
		if s.l != nil {
			s.l.Warn("table has non-finite cells",
				applogger.String("stage", stage),
				applogger.String("symbol", symbol),
				applogger.String("date", date),
				applogger.Int("cells", inf),
				applogger.Any("columns", rep.NonFinite),
			)
		}
	}
	if s.audit != nil {
		if err := s.audit.Append(ctx, stage, symbol, date, rep); err != nil && s.l != nil {
			s.l.Error("quality audit append failed", applogger.Error(err))
		}
	}
}
