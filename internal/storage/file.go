package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"despesas/internal/core"
	applog "despesas/internal/log"
)

// FileStore keeps each collection in a JSON file inside a data directory.
// It is the default backend and needs no external services.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) read(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (s *FileStore) write(key string, data []byte) error {
	// Write via a temp file so a crash mid-save never leaves a truncated
	// document behind.
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context) ([]core.Expense, []core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expData, err := s.read(KeyExpenses)
	if err != nil {
		return nil, nil, err
	}
	expenses := decodeCollection[core.Expense](ctx, KeyExpenses, expData)

	catData, err := s.read(KeyCategories)
	if err != nil {
		return nil, nil, err
	}
	if catData == nil {
		// First run: seed and persist the defaults.
		categories := DefaultCategories()
		if err := s.saveLocked(ctx, KeyCategories, categories); err != nil {
			return nil, nil, fmt.Errorf("seed default categories: %w", err)
		}
		slog.InfoContext(ctx, "Seeded default categories",
			applog.FieldComponent, applog.ComponentStorage,
			"count", len(categories))
		return expenses, categories, nil
	}
	categories := decodeCollection[core.Category](ctx, KeyCategories, catData)
	return expenses, categories, nil
}

func (s *FileStore) saveLocked(ctx context.Context, key string, v any) error {
	data, err := encodeCollection(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.write(key, data); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Collection saved",
		applog.FieldComponent, applog.ComponentStorage,
		"key", key,
		"backend", "file")
	return nil
}

func (s *FileStore) SaveExpenses(ctx context.Context, expenses []core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if expenses == nil {
		expenses = []core.Expense{}
	}
	return s.saveLocked(ctx, KeyExpenses, expenses)
}

func (s *FileStore) SaveCategories(ctx context.Context, categories []core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if categories == nil {
		categories = []core.Category{}
	}
	return s.saveLocked(ctx, KeyCategories, categories)
}

func (s *FileStore) Close() error {
	return nil
}
