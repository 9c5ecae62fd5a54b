package repository

import (
	"fmt"

	"SigForge/internal/domain/models"
	applogger "SigForge/pkg/logger"
	"SigForge/pkg/util"
)

// validateBars enforces the ingestion contract once, at the source boundary:
// prices strictly positive, volume non-negative, timestamp set. A violation
// rejects the whole load; bad raw data must not flow silently into
// derivation.
func validateBars(bars []models.MarketBar) error {
	for i := range bars {
		b := &bars[i]
		if b.Timestamp.IsZero() {
			return fmt.Errorf("bar %d: zero timestamp", i)
		}
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("bar %d at %s: non-positive price", i, util.FormatDate(b.Timestamp))
		}
		if b.Volume < 0 {
			return fmt.Errorf("bar %d at %s: negative volume", i, util.FormatDate(b.Timestamp))
		}
	}
	return nil
}

// warnInconsistentOHLC flags bars whose high/low do not bound open and
// close. Historic feeds ship a few of these around splits and auctions, so
// they pass through with a warning instead of failing the load.
func warnInconsistentOHLC(l *applogger.Logger, symbol string, bars []models.MarketBar) {
	if l == nil {
		return
	}
	bad := 0
	for i := range bars {
		b := &bars[i]
		if b.High < b.Low || b.High < b.Open || b.High < b.Close || b.Low > b.Open || b.Low > b.Close {
			bad++
		}
	}
	if bad > 0 {
		l.Warn("bars with inconsistent OHLC bounds",
			applogger.String("symbol", symbol),
			applogger.Int("bars", bad),
		)
	}
}
