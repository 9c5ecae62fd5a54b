package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"SigForge/internal/domain/models"
	domrepo "SigForge/internal/domain/repository"
	applogger "SigForge/pkg/logger"
)

// ParquetMarketSource reads collector output from the raw data layout:
// market bars as <data>/raw/market/<symbol>_<date>.parquet and alternative
// events as <data>/raw/alternative/events_<date>.parquet. The date is a file
// key, not a row filter: a file holds whatever span its collector wrote.
type ParquetMarketSource struct {
	marketDir string
	eventsDir string
	l         *applogger.Logger
}

func NewParquetMarketSource(dataDir string) *ParquetMarketSource {
	return &ParquetMarketSource{
		marketDir: filepath.Join(dataDir, "raw", "market"),
		eventsDir: filepath.Join(dataDir, "raw", "alternative"),
	}
}

// SetLogger injects a structured logger.
func (s *ParquetMarketSource) SetLogger(l *applogger.Logger) { s.l = l }

// LoadBars reads one dated file, or every file for the symbol when date is
// empty. Missing bars are a hard ErrNotFound: without them there is nothing
// to derive. Bars come back validated and sorted by timestamp.
func (s *ParquetMarketSource) LoadBars(ctx context.Context, symbol, date string) ([]models.MarketBar, error) {
	start := time.Now()
	var paths []string
	if date != "" {
		paths = []string{filepath.Join(s.marketDir, fmt.Sprintf("%s_%s.parquet", symbol, date))}
	} else {
		matches, err := filepath.Glob(filepath.Join(s.marketDir, symbol+"_*.parquet"))
		if err != nil {
			return nil, fmt.Errorf("glob bars %s: %w", symbol, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("bars %s: %w", symbol, domrepo.ErrNotFound)
		}
		sort.Strings(matches)
		paths = matches
	}

	var bars []models.MarketBar
	for _, p := range paths {
		part, err := readTable[models.MarketBar](p)
		if err != nil {
			return nil, fmt.Errorf("load bars %s: %w", symbol, err)
		}
		bars = append(bars, part...)
	}
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	if err := validateBars(bars); err != nil {
		return nil, fmt.Errorf("load bars %s: %w", symbol, err)
	}
	warnInconsistentOHLC(s.l, symbol, bars)

	if s.l != nil {
		s.l.Debug("bars loaded",
			applogger.String("symbol", symbol),
			applogger.String("date", date),
			applogger.Int("files", len(paths)),
			applogger.Int("rows", len(bars)),
			applogger.Duration("duration", time.Since(start)),
		)
	}
	return bars, nil
}

// LoadEvents reads the dated events file, or every events file when date is
// empty. A missing file yields no events rather than an error: days without
// collector output are legal and downstream fills sentiment neutrally. The
// symbol is accepted for sources that can push the entity filter down; files
// cannot, so the engine filters.
func (s *ParquetMarketSource) LoadEvents(ctx context.Context, symbol, date string) ([]models.AltEvent, error) {
	var paths []string
	if date != "" {
		path := filepath.Join(s.eventsDir, fmt.Sprintf("events_%s.parquet", date))
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil
			}
			return nil, fmt.Errorf("stat events %s: %w", date, err)
		}
		paths = []string{path}
	} else {
		matches, err := filepath.Glob(filepath.Join(s.eventsDir, "events_*.parquet"))
		if err != nil {
			return nil, fmt.Errorf("glob events: %w", err)
		}
		sort.Strings(matches)
		paths = matches
	}

	var events []models.AltEvent
	for _, p := range paths {
		part, err := readTable[models.AltEvent](p)
		if err != nil {
			return nil, fmt.Errorf("load events: %w", err)
		}
		events = append(events, part...)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}
