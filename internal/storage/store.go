// Package storage persists the expense and category collections.
//
// Both collections are stored as JSON documents under two logical keys,
// "expenses" and "categories", and every save overwrites the full
// collection. Two backends implement the same contract: a plain-file store
// and a SQLite-backed key-value store.
package storage

import (
	"context"
	"encoding/json"
	"log/slog"

	"despesas/internal/core"
	applog "despesas/internal/log"
)

const (
	KeyExpenses   = "expenses"
	KeyCategories = "categories"
)

// Store is the persistence contract for the two collections.
type Store interface {
	// Load reads both collections. On first run, when no category data
	// exists, the default categories are seeded and persisted.
	Load(ctx context.Context) ([]core.Expense, []core.Category, error)
	SaveExpenses(ctx context.Context, expenses []core.Expense) error
	SaveCategories(ctx context.Context, categories []core.Category) error
	Close() error
}

// DefaultCategories returns the five categories seeded on first run.
func DefaultCategories() []core.Category {
	return []core.Category{
		{ID: "1", Name: "Food"},
		{ID: "2", Name: "Transport"},
		{ID: "3", Name: "Housing"},
		{ID: "4", Name: "Leisure"},
		{ID: "5", Name: "Other"},
	}
}

func encodeCollection(v any) ([]byte, error) {
	return json.Marshal(v)
}

// decodeCollection unmarshals a stored document. Corrupt data is reported as
// a warning and the collection starts empty; a bad blob must never prevent
// startup.
func decodeCollection[T any](ctx context.Context, key string, data []byte) []T {
	if len(data) == 0 {
		return nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		slog.WarnContext(ctx, "Corrupt stored data, starting from empty collection",
			applog.FieldComponent, applog.ComponentStorage,
			"key", key,
			applog.FieldError, err)
		return nil
	}
	return out
}
