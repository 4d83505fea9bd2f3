package blob

import (
	"fmt"
	"log/slog"
)

// BackendType selects the blob store implementation.
type BackendType string

const (
	FileBackend   BackendType = "file"
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Config holds the backend-specific settings for Open.
type Config struct {
	Type BackendType

	// File backend
	DataDirectory string

	// SQLite backend
	SQLiteDBPath string
}

// Open creates the configured blob store and an optional cleanup function.
func Open(cfg Config, logger *slog.Logger) (Store, CleanupFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Type.IsValid() {
		return nil, nil, fmt.Errorf("invalid blob backend type: %s", cfg.Type)
	}

	switch cfg.Type {
	case SQLiteBackend:
		store, err := NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize sqlite blob store: %w", err)
		}
		logger.Info("Initialized sqlite blob store", "db_path", cfg.SQLiteDBPath)
		return store, store.Close, nil

	case MemoryBackend:
		logger.Info("Initialized memory blob store")
		return NewMemoryStore(), nil, nil

	default:
		dir := cfg.DataDirectory
		if dir == "" {
			dir = "data"
		}
		store, err := NewFileStore(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize file blob store: %w", err)
		}
		logger.Info("Initialized file blob store", "data_directory", dir)
		return store, nil, nil
	}
}
