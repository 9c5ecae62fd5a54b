package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"SigForge/internal/domain/models"
	applogger "SigForge/pkg/logger"
)

// ParquetFeatureStore persists feature tables as one parquet file per
// (symbol, date) under <data>/processed/features.
type ParquetFeatureStore struct {
	dir string
	l   *applogger.Logger
}

func NewParquetFeatureStore(dataDir string) *ParquetFeatureStore {
	return &ParquetFeatureStore{dir: filepath.Join(dataDir, "processed", "features")}
}

// SetLogger injects a structured logger.
func (s *ParquetFeatureStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *ParquetFeatureStore) path(symbol, date string) string {
	return filepath.Join(s.dir, fmt.Sprintf("features_%s_%s.parquet", symbol, date))
}

func (s *ParquetFeatureStore) Save(ctx context.Context, symbol, date string, rows []models.FeatureRow) error {
	start := time.Now()
	if err := writeTable(s.path(symbol, date), rows); err != nil {
		return fmt.Errorf("save features %s %s: %w", symbol, date, err)
	}
	if s.l != nil {
		s.l.Info("features saved",
			applogger.String("symbol", symbol),
			applogger.String("date", date),
			applogger.Int("rows", len(rows)),
			applogger.Duration("duration", time.Since(start)),
		)
	}
	return nil
}

func (s *ParquetFeatureStore) Load(ctx context.Context, symbol, date string) ([]models.FeatureRow, error) {
	rows, err := readTable[models.FeatureRow](s.path(symbol, date))
	if err != nil {
		return nil, fmt.Errorf("load features %s %s: %w", symbol, date, err)
	}
	return rows, nil
}
