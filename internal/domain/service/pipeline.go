package service

import (
	"context"

	"SigForge/internal/domain/models"
)

// FeatureEngine derives one feature table from raw inputs. It is a pure
// transform: bars are consumed in the order given and events that do not
// mention the symbol are ignored. The returned date is the effective
// generation date, derived from the earliest bar when the caller passed none.
type FeatureEngine interface {
	Generate(bars []models.MarketBar, events []models.AltEvent, symbol, date string) ([]models.FeatureRow, string, error)
}

// SignalEngine turns a feature table into a signal table of equal length.
// It never fails: rows with degenerate inputs still produce a row, the
// combined score just carries the degeneracy through to a HOLD.
type SignalEngine interface {
	Combine(rows []models.FeatureRow) []models.SignalRow
}

// QualityScanner inspects a finished table for missing or non-finite cells.
// Findings are advisory: they are reported, never acted on.
type QualityScanner interface {
	ScanFeatures(ctx context.Context, symbol, date string, rows []models.FeatureRow) models.QualityReport
	ScanSignals(ctx context.Context, symbol, date string, rows []models.SignalRow) models.QualityReport
}
