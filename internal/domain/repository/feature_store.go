package repository

import (
	"context"
	"errors"

	"SigForge/internal/domain/models"
)

// ErrNotFound marks a missing persisted table. Loading a table that was never
// generated is the one hard failure of the read path; callers detect it with
// errors.Is and map it to their own surface (HTTP 404, CLI exit).
var ErrNotFound = errors.New("not found")

// FeatureStore persists derived feature tables keyed by (symbol, date).
// Save is a truncating overwrite: regenerating a unit replaces the whole
// table, never appends. Writing the same rows twice must produce identical
// artifacts.
type FeatureStore interface {
	Save(ctx context.Context, symbol, date string, rows []models.FeatureRow) error
	Load(ctx context.Context, symbol, date string) ([]models.FeatureRow, error)
}

// SignalStore persists signal tables with the same keying and overwrite
// semantics as FeatureStore.
type SignalStore interface {
	Save(ctx context.Context, symbol, date string, rows []models.SignalRow) error
	Load(ctx context.Context, symbol, date string) ([]models.SignalRow, error)
}
