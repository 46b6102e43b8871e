package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"despesas/internal/core"
	applog "despesas/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the collections in a single key-value table. The
// document-per-key layout matches the file backend; SQLite adds durable
// writes and a place for future schema migrations.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM documents WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]core.Expense, []core.Category, error) {
	expData, err := s.get(ctx, KeyExpenses)
	if err != nil {
		return nil, nil, err
	}
	expenses := decodeCollection[core.Expense](ctx, KeyExpenses, expData)

	catData, err := s.get(ctx, KeyCategories)
	if err != nil {
		return nil, nil, err
	}
	if catData == nil {
		categories := DefaultCategories()
		if err := s.SaveCategories(ctx, categories); err != nil {
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

func (s *SQLiteStore) SaveExpenses(ctx context.Context, expenses []core.Expense) error {
	if expenses == nil {
		expenses = []core.Expense{}
	}
	data, err := encodeCollection(expenses)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyExpenses, err)
	}
	if err := s.set(ctx, KeyExpenses, data); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Collection saved",
		applog.FieldComponent, applog.ComponentStorage,
		"key", KeyExpenses,
		"backend", "sqlite",
		"count", len(expenses))
	return nil
}

func (s *SQLiteStore) SaveCategories(ctx context.Context, categories []core.Category) error {
	if categories == nil {
		categories = []core.Category{}
	}
	data, err := encodeCollection(categories)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyCategories, err)
	}
	if err := s.set(ctx, KeyCategories, data); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Collection saved",
		applog.FieldComponent, applog.ComponentStorage,
		"key", KeyCategories,
		"backend", "sqlite",
		"count", len(categories))
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
