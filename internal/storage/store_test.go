package storage

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"despesas/internal/core"
)

func sampleExpenses() []core.Expense {
	return []core.Expense{
		{ID: "e1", Description: "Lunch", Amount: core.Money{Cents: 2550}, Date: core.NewDate(2024, 3, 15), CategoryID: "1"},
		{ID: "e2", Description: "Bus", Amount: core.Money{Cents: 475}, Date: core.NewDate(2024, 3, 16), CategoryID: "2"},
	}
}

// openStores builds one instance of every backend against a temp dir.
func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	fileStore, err := NewFileStore(filepath.Join(dir, "file"))
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	sqliteStore, err := NewSQLiteStore(filepath.Join(dir, "sqlite", "despesas.db"))
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	t.Cleanup(func() {
		fileStore.Close()
		sqliteStore.Close()
	})
	return map[string]Store{"file": fileStore, "sqlite": sqliteStore}
}

func TestStoreSeedsDefaultCategoriesOnFirstLoad(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			expenses, categories, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(expenses) != 0 {
				t.Fatalf("expenses = %v, want empty", expenses)
			}
			if !reflect.DeepEqual(categories, DefaultCategories()) {
				t.Fatalf("categories = %+v, want defaults", categories)
			}

			// Seeding persisted: a second load must not reseed over edits.
			if err := store.SaveCategories(ctx, categories[:2]); err != nil {
				t.Fatalf("save categories: %v", err)
			}
			_, categories, err = store.Load(ctx)
			if err != nil {
				t.Fatalf("reload: %v", err)
			}
			if len(categories) != 2 {
				t.Fatalf("categories after edit = %+v, want 2", categories)
			}
		})
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := sampleExpenses()
			if err := store.SaveExpenses(ctx, want); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, _, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("round trip = %+v, want %+v", got, want)
			}
		})
	}
}

func TestStoreOverwritesFullCollection(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := store.SaveExpenses(ctx, sampleExpenses()); err != nil {
				t.Fatalf("save: %v", err)
			}
			if err := store.SaveExpenses(ctx, nil); err != nil {
				t.Fatalf("save empty: %v", err)
			}
			got, _, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(got) != 0 {
				t.Fatalf("expenses = %+v, want empty after overwrite", got)
			}
		})
	}
}

func TestFileStoreCorruptDataStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "expenses.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "categories.json"), []byte("also broken"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	expenses, categories, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load must not fail on corrupt data: %v", err)
	}
	if len(expenses) != 0 || len(categories) != 0 {
		t.Fatalf("expenses=%v categories=%v, want empty", expenses, categories)
	}
}

func TestOpenFactory(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(FileBackend, Options{DataDir: filepath.Join(dir, "d")}, nil)
	if err != nil {
		t.Fatalf("open file backend: %v", err)
	}
	store.Close()

	store, err = Open(SQLiteBackend, Options{SQLiteDBPath: filepath.Join(dir, "db", "x.db")}, nil)
	if err != nil {
		t.Fatalf("open sqlite backend: %v", err)
	}
	store.Close()

	if _, err := Open(BackendType("redis"), Options{}, nil); err == nil {
		t.Fatalf("expected error for unsupported backend")
	}
}
