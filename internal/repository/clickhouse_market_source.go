package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SigForge/internal/domain/models"
	domrepo "SigForge/internal/domain/repository"
	pkgch "SigForge/pkg/clickhouse"
	applogger "SigForge/pkg/logger"
	"SigForge/pkg/util"
)

// CHMarketSource implements MarketDataSource backed by ClickHouse. Unlike the
// file source, the date keys rows here, not files: it narrows the query to
// the calendar day [date, date+1). The entity filter is pushed down with
// has(entities, symbol); the engine still filters, so the pushdown is purely
// a data-volume optimization.
type CHMarketSource struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHMarketSource(ch *pkgch.Client, database string) *CHMarketSource {
	if database == "" {
		database = "sigforge"
	}
	return &CHMarketSource{db: ch.DB(), database: database}
}

// SetLogger injects a structured logger.
func (s *CHMarketSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHMarketSource) LoadBars(ctx context.Context, symbol, date string) ([]models.MarketBar, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT ts, symbol, open, high, low, close, volume, vwap, source
        FROM %s.market_bars
        WHERE symbol = ?%s
        ORDER BY ts ASC
    `, s.database, dayFilterSQL(date))
	args := []any{symbol}
	if date != "" {
		from, to, err := dayRange(date)
		if err != nil {
			return nil, fmt.Errorf("load bars %s: %w", symbol, err)
		}
		args = append(args, from, to)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse load_bars query error",
				applogger.String("symbol", symbol),
				applogger.String("date", date),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("load bars %s: %w", symbol, err)
	}
	defer rows.Close()

	out := make([]models.MarketBar, 0, 1024)
	for rows.Next() {
		var b models.MarketBar
		var vwap sql.NullFloat64
		if err := rows.Scan(&b.Timestamp, &b.Symbol, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &vwap, &b.Source); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse load_bars scan error",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		if vwap.Valid {
			v := vwap.Float64
			b.VWAP = &v
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("bars %s %s: %w", symbol, date, domrepo.ErrNotFound)
	}
	if err := validateBars(out); err != nil {
		return nil, fmt.Errorf("load bars %s: %w", symbol, err)
	}
	warnInconsistentOHLC(s.l, symbol, out)

	if s.l != nil {
		s.l.Debug("clickhouse load_bars ok",
			applogger.String("symbol", symbol),
			applogger.String("date", date),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHMarketSource) LoadEvents(ctx context.Context, symbol, date string) ([]models.AltEvent, error) {
	q := fmt.Sprintf(`
        SELECT ts, source, sentiment_score, entities, text
        FROM %s.alt_events
        WHERE has(entities, ?)%s
        ORDER BY ts ASC
    `, s.database, dayFilterSQL(date))
	args := []any{symbol}
	if date != "" {
		from, to, err := dayRange(date)
		if err != nil {
			return nil, fmt.Errorf("load events: %w", err)
		}
		args = append(args, from, to)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse load_events query error",
				applogger.String("symbol", symbol),
				applogger.String("date", date),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var out []models.AltEvent
	for rows.Next() {
		var e models.AltEvent
		if err := rows.Scan(&e.Timestamp, &e.Source, &e.SentimentScore, &e.Entities, &e.Text); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func dayFilterSQL(date string) string {
	if date == "" {
		return ""
	}
	return " AND ts >= ? AND ts < ?"
}

func dayRange(date string) (time.Time, time.Time, error) {
	from, err := util.ParseDate(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, from.AddDate(0, 0, 1), nil
}
