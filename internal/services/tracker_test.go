package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"despesas/internal/core"
	applog "despesas/internal/log"
	"despesas/internal/storage"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	tr := NewTracker(store)
	tr.now = func() time.Time {
		return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	}
	seq := 0
	tr.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestUpsertExpenseCreate(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	e, err := tr.UpsertExpense(ctx, ExpenseInput{
		Description: "Lunch",
		Amount:      "25.50",
		Date:        "2024-03-15",
		CategoryID:  "1",
	}, "")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if e.ID == "" || e.Amount.Cents != 2550 {
		t.Fatalf("expense = %+v", e)
	}

	ov, err := tr.Overview(ctx, core.PeriodAnnual, tr.now(), nil)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.Summary.Total.Cents != 2550 || ov.Summary.Count != 1 || ov.Summary.Average.Cents != 2550 {
		t.Fatalf("summary = %+v, want total=25.50 count=1 average=25.50", ov.Summary)
	}
}

func TestUpsertExpenseValidationRejectsWithoutMutation(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   ExpenseInput
		want error
	}{
		{"empty description", ExpenseInput{Description: " ", Amount: "1", Date: "2024-03-01", CategoryID: "1"}, core.ErrEmptyDescription},
		{"bad amount", ExpenseInput{Description: "a", Amount: "x", Date: "2024-03-01", CategoryID: "1"}, core.ErrInvalidAmount},
		{"missing date", ExpenseInput{Description: "a", Amount: "1", Date: "", CategoryID: "1"}, core.ErrMissingDate},
		{"future date", ExpenseInput{Description: "a", Amount: "1", Date: "2024-03-16", CategoryID: "1"}, core.ErrFutureDate},
		{"missing category", ExpenseInput{Description: "a", Amount: "1", Date: "2024-03-01", CategoryID: ""}, core.ErrMissingCategory},
		{"unknown category", ExpenseInput{Description: "a", Amount: "1", Date: "2024-03-01", CategoryID: "99"}, core.ErrUnknownCategory},
	}
	for _, tc := range cases {
		if _, err := tr.UpsertExpense(ctx, tc.in, ""); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}

	expenses, err := tr.Expenses(ctx)
	if err != nil {
		t.Fatalf("expenses: %v", err)
	}
	if len(expenses) != 0 {
		t.Fatalf("rejected inputs mutated state: %+v", expenses)
	}
}

func TestUpsertExpenseEditPreservesID(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	created, err := tr.UpsertExpense(ctx, ExpenseInput{Description: "Lunch", Amount: "10", Date: "2024-03-10", CategoryID: "1"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	edited, err := tr.UpsertExpense(ctx, ExpenseInput{Description: "Dinner", Amount: "20", Date: "2024-03-11", CategoryID: "2"}, created.ID)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.ID != created.ID {
		t.Fatalf("id changed on edit: %s -> %s", created.ID, edited.ID)
	}

	expenses, _ := tr.Expenses(ctx)
	if len(expenses) != 1 || expenses[0].Description != "Dinner" || expenses[0].Amount.Cents != 2000 {
		t.Fatalf("expenses = %+v", expenses)
	}
}

func TestUpsertExpenseEditUnknownID(t *testing.T) {
	tr := newTestTracker(t)
	if _, err := tr.UpsertExpense(context.Background(), ExpenseInput{Description: "a", Amount: "1", Date: "2024-03-01", CategoryID: "1"}, "nope"); err == nil {
		t.Fatalf("expected error for unknown editing id")
	}
}

func TestUpsertExpenseIDsAreUnique(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		e, err := tr.UpsertExpense(ctx, ExpenseInput{Description: "x", Amount: "1", Date: "2024-03-01", CategoryID: "1"}, "")
		if err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
		if seen[e.ID] {
			t.Fatalf("duplicate id %s", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestCreateCategory(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	c, err := tr.CreateCategory(ctx, "  Travel  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Name != "Travel" {
		t.Fatalf("name = %q, want trimmed", c.Name)
	}

	if _, err := tr.CreateCategory(ctx, ""); !errors.Is(err, core.ErrEmptyCategoryName) {
		t.Fatalf("empty name: err = %v", err)
	}
	// Case-insensitive uniqueness: "food" collides with seeded "Food".
	if _, err := tr.CreateCategory(ctx, "food"); !errors.Is(err, core.ErrDuplicateCategory) {
		t.Fatalf("duplicate name: err = %v", err)
	}

	categories, _ := tr.Categories(ctx)
	if len(categories) != 6 {
		t.Fatalf("categories = %+v, want 5 defaults + Travel", categories)
	}
}

func TestDeleteCategoryInUseFailsAndLeavesStateUnchanged(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	if _, err := tr.UpsertExpense(ctx, ExpenseInput{Description: "Lunch", Amount: "10", Date: "2024-03-10", CategoryID: "1"}, ""); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	if err := tr.DeleteCategory(ctx, "1"); !errors.Is(err, core.ErrCategoryInUse) {
		t.Fatalf("err = %v, want ErrCategoryInUse", err)
	}

	categories, _ := tr.Categories(ctx)
	expenses, _ := tr.Expenses(ctx)
	if len(categories) != 5 || len(expenses) != 1 {
		t.Fatalf("collections changed: %d categories, %d expenses", len(categories), len(expenses))
	}

	inUse, err := tr.CategoryInUse(ctx, "1")
	if err != nil || !inUse {
		t.Fatalf("CategoryInUse = %v, %v", inUse, err)
	}
}

func TestDeleteCategoryUnreferenced(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	if err := tr.DeleteCategory(ctx, "5"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	categories, _ := tr.Categories(ctx)
	if len(categories) != 4 {
		t.Fatalf("categories = %+v", categories)
	}
	if err := tr.DeleteCategory(ctx, "5"); err == nil {
		t.Fatalf("expected error for missing category")
	}
}

func TestDeleteExpense(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	e, err := tr.UpsertExpense(ctx, ExpenseInput{Description: "Lunch", Amount: "10", Date: "2024-03-10", CategoryID: "1"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tr.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	expenses, _ := tr.Expenses(ctx)
	if len(expenses) != 0 {
		t.Fatalf("expenses = %+v", expenses)
	}
	if err := tr.DeleteExpense(ctx, e.ID); err == nil {
		t.Fatalf("expected error for missing expense")
	}
}

func TestOverviewPerCategoryScenario(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	// Two transport expenses totaling 100.00 and one food expense of 50.00.
	inputs := []ExpenseInput{
		{Description: "bus", Amount: "60", Date: "2024-03-01", CategoryID: "2"},
		{Description: "train", Amount: "40", Date: "2024-03-02", CategoryID: "2"},
		{Description: "lunch", Amount: "50", Date: "2024-03-03", CategoryID: "1"},
	}
	for _, in := range inputs {
		if _, err := tr.UpsertExpense(ctx, in, ""); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	ov, err := tr.Overview(ctx, core.PeriodMonthly, tr.now(), nil)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(ov.ByCategory) != 2 {
		t.Fatalf("breakdown = %+v", ov.ByCategory)
	}
	if ov.ByCategory[0].Name != "Food" || ov.ByCategory[0].Subtotal.Cents != 5000 {
		t.Fatalf("breakdown[0] = %+v, want Food 50.00", ov.ByCategory[0])
	}
	if ov.ByCategory[1].Name != "Transport" || ov.ByCategory[1].Subtotal.Cents != 10000 {
		t.Fatalf("breakdown[1] = %+v, want Transport 100.00", ov.ByCategory[1])
	}
	if ov.Series.Labels[0] != "Food" || ov.Series.Values[1] != 100.00 {
		t.Fatalf("series = %+v", ov.Series)
	}
	// List view is newest first.
	if ov.Expenses[0].Description != "lunch" {
		t.Fatalf("list order = %+v", ov.Expenses)
	}
}

func TestMutationLogsUseSharedFieldNames(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{
		Component: applog.ComponentApp,
		Handler:   slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
	ctx := applog.NewContext(context.Background(), logger)

	tr := newTestTracker(t)
	if _, err := tr.UpsertExpense(ctx, ExpenseInput{Description: "Lunch", Amount: "10", Date: "2024-03-10", CategoryID: "1"}, ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	line := buf.String()
	for _, want := range []string{
		applog.FieldComponent + "=" + applog.ComponentTracker,
		applog.FieldExpenseID + "=",
		applog.FieldAmountCents + "=1000",
		applog.FieldCategoryID + "=1",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("log output %q missing %q", line, want)
		}
	}
}

func TestTrackerPersistsAcrossInstances(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store, err := storage.NewFileStore(dir)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	tr := NewTracker(store)
	tr.now = func() time.Time { return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	if _, err := tr.UpsertExpense(ctx, ExpenseInput{Description: "Lunch", Amount: "25.50", Date: "2024-03-15", CategoryID: "1"}, ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	tr.Close()

	store2, err := storage.NewFileStore(dir)
	if err != nil {
		t.Fatalf("store2: %v", err)
	}
	tr2 := NewTracker(store2)
	defer tr2.Close()
	expenses, err := tr2.Expenses(ctx)
	if err != nil {
		t.Fatalf("expenses: %v", err)
	}
	if len(expenses) != 1 || expenses[0].Amount.Cents != 2550 {
		t.Fatalf("reloaded expenses = %+v", expenses)
	}
}
