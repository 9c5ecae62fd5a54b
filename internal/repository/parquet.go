package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	domrepo "SigForge/internal/domain/repository"
)

// readTable loads a whole parquet file into typed rows, mapping a missing
// file onto domrepo.ErrNotFound so callers can tell "never generated" apart
// from a corrupt or unreadable artifact.
func readTable[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), domrepo.ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// writeTable truncates and rewrites the file. The writer is deterministic
// for identical rows, so regenerating an unchanged unit leaves a
// byte-identical artifact on disk.
func writeTable[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", filepath.Dir(path), err)
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
