package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"SigForge/internal/domain/models"
	"SigForge/pkg/util"
)

// AuditLog appends one JSON line per flagged scan to a per-day file under
// dir. Files are opened per append so log rotation or deletion never strands
// a handle.
type AuditLog struct {
	dir string
	mu  sync.Mutex

	now func() time.Time // test hook
}

func NewAuditLog(dir string) *AuditLog {
	return &AuditLog{dir: dir, now: time.Now}
}

type auditRecord struct {
	Timestamp time.Time      `json:"timestamp"`
	Stage     string         `json:"stage"`
	Symbol    string         `json:"symbol"`
	Date      string         `json:"date"`
	Rows      int            `json:"rows"`
	Missing   map[string]int `json:"missing,omitempty"`
	NonFinite map[string]int `json:"non_finite,omitempty"`
}

// Append writes one record. The ctx is accepted for interface symmetry with
// the stores; file appends are not cancellable.
func (a *AuditLog) Append(_ context.Context, stage, symbol, date string, rep models.QualityReport) error {
	now := a.now().UTC()
	rec := auditRecord{
		Timestamp: now,
		Stage:     stage,
		Symbol:    symbol,
		Date:      date,
		Rows:      rep.Rows,
		Missing:   rep.Missing,
		NonFinite: rep.NonFinite,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	line = append(line, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}
	path := filepath.Join(a.dir, fmt.Sprintf("quality_%s.jsonl", util.FormatDate(now)))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}
