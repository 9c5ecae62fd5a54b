package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"SigForge/internal/domain/models"
	applogger "SigForge/pkg/logger"
)

// ParquetSignalStore persists signal tables as one parquet file per
// (symbol, date) under <data>/processed/signals.
type ParquetSignalStore struct {
	dir string
	l   *applogger.Logger
}

func NewParquetSignalStore(dataDir string) *ParquetSignalStore {
	return &ParquetSignalStore{dir: filepath.Join(dataDir, "processed", "signals")}
}

// SetLogger injects a structured logger.
func (s *ParquetSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *ParquetSignalStore) path(symbol, date string) string {
	return filepath.Join(s.dir, fmt.Sprintf("signals_%s_%s.parquet", symbol, date))
}

func (s *ParquetSignalStore) Save(ctx context.Context, symbol, date string, rows []models.SignalRow) error {
	start := time.Now()
	if err := writeTable(s.path(symbol, date), rows); err != nil {
		return fmt.Errorf("save signals %s %s: %w", symbol, date, err)
	}
	if s.l != nil {
		s.l.Info("signals saved",
			applogger.String("symbol", symbol),
			applogger.String("date", date),
			applogger.Int("rows", len(rows)),
			applogger.Duration("duration", time.Since(start)),
		)
	}
	return nil
}

func (s *ParquetSignalStore) Load(ctx context.Context, symbol, date string) ([]models.SignalRow, error) {
	rows, err := readTable[models.SignalRow](s.path(symbol, date))
	if err != nil {
		return nil, fmt.Errorf("load signals %s %s: %w", symbol, date, err)
	}
	return rows, nil
}
