package storage

import (
	"fmt"
	"log/slog"
)

// BackendType selects the persistence backend.
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid.
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// Options holds backend-specific settings for Open.
type Options struct {
	// File backend
	DataDir string

	// SQLite backend
	SQLiteDBPath string
}

// Open creates the configured Store.
func Open(backend BackendType, opts Options, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch backend {
	case SQLiteBackend:
		store, err := NewSQLiteStore(opts.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		logger.Info("Initialized sqlite store", "db_path", opts.SQLiteDBPath)
		return store, nil
	case FileBackend:
		dir := opts.DataDir
		if dir == "" {
			dir = "data"
		}
		store, err := NewFileStore(dir)
		if err != nil {
			return nil, fmt.Errorf("initialize file store: %w", err)
		}
		logger.Info("Initialized file store", "data_dir", dir)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", backend)
	}
}
