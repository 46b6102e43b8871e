// Package services provides business logic and orchestration.
//
// The Tracker owns the in-memory expense and category collections, writes
// every mutation through the Store, and serves the read path (filter,
// aggregate, chart series). All mutation goes through its mutex so the
// collections have a single logical owner.
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"despesas/internal/core"
	applog "despesas/internal/log"
	"despesas/internal/storage"
)

func trackerLog(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentTracker)
}

// ExpenseInput carries the raw field strings supplied by the form surface.
type ExpenseInput struct {
	Description string
	Amount      string
	Date        string
	CategoryID  string
}

// Overview is the dashboard read model: aggregate figures, per-category
// breakdown, the chart series, and the filtered expense list newest first.
type Overview struct {
	Summary    core.Summary
	ByCategory []core.CategoryAmount
	Series     core.Series
	Expenses   []core.Expense
}

type Tracker struct {
	mu    sync.Mutex
	store storage.Store

	expenses   []core.Expense
	categories []core.Category
	loaded     bool

	// Overridden in tests for deterministic time and ids.
	now   func() time.Time
	newID func() string
}

func NewTracker(store storage.Store) *Tracker {
	return &Tracker{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// ensureLoaded populates the collections from the store on first use.
func (t *Tracker) ensureLoaded(ctx context.Context) error {
	if t.loaded {
		return nil
	}
	expenses, categories, err := t.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load collections: %w", err)
	}
	t.expenses = expenses
	t.categories = categories
	t.loaded = true
	return nil
}

// Expenses returns a copy of the expense collection in stored order.
func (t *Tracker) Expenses(ctx context.Context) ([]core.Expense, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return append([]core.Expense(nil), t.expenses...), nil
}

// Categories returns a copy of the category collection in insertion order.
func (t *Tracker) Categories(ctx context.Context) ([]core.Category, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return append([]core.Category(nil), t.categories...), nil
}

// UpsertExpense validates the raw input and creates a new expense, or
// replaces the one identified by editingID, preserving its id. Nothing is
// mutated when validation fails.
func (t *Tracker) UpsertExpense(ctx context.Context, in ExpenseInput, editingID string) (core.Expense, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureLoaded(ctx); err != nil {
		return core.Expense{}, err
	}

	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Expense{}, err
	}

	expense := core.Expense{
		ID:          editingID,
		Description: strings.TrimSpace(in.Description),
		Amount:      core.Money{Cents: cents},
		Date:        date,
		CategoryID:  strings.TrimSpace(in.CategoryID),
	}
	if err := expense.ValidateAt(t.now()); err != nil {
		return core.Expense{}, err
	}
	if !t.categoryExists(expense.CategoryID) {
		return core.Expense{}, core.ErrUnknownCategory
	}

	if editingID == "" {
		expense.ID = t.newID()
		t.expenses = append(t.expenses, expense)
	} else {
		idx := t.expenseIndex(editingID)
		if idx < 0 {
			return core.Expense{}, fmt.Errorf("expense %s: not found", editingID)
		}
		t.expenses[idx] = expense
	}

	if err := t.store.SaveExpenses(ctx, t.expenses); err != nil {
		return core.Expense{}, fmt.Errorf("save expenses: %w", err)
	}
	trackerLog(ctx).InfoContext(ctx, "Expense saved",
		applog.FieldExpenseID, expense.ID,
		"description", expense.Description,
		applog.FieldAmountCents, expense.Amount.Cents,
		applog.FieldCategoryID, expense.CategoryID,
		"edited", editingID != "")
	return expense, nil
}

// CreateCategory trims the name and appends a new category. Empty names and
// case-insensitive duplicates are rejected without mutation.
func (t *Tracker) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureLoaded(ctx); err != nil {
		return core.Category{}, err
	}

	category := core.Category{ID: t.newID(), Name: strings.TrimSpace(name)}
	if err := category.Validate(); err != nil {
		return core.Category{}, err
	}
	for _, c := range t.categories {
		if strings.EqualFold(c.Name, category.Name) {
			return core.Category{}, core.ErrDuplicateCategory
		}
	}

	t.categories = append(t.categories, category)
	if err := t.store.SaveCategories(ctx, t.categories); err != nil {
		return core.Category{}, fmt.Errorf("save categories: %w", err)
	}
	trackerLog(ctx).InfoContext(ctx, "Category created",
		applog.FieldCategoryID, category.ID,
		"name", category.Name)
	return category, nil
}

// DeleteExpense removes an expense unconditionally. Confirmation is the
// caller's concern (see Confirmer).
func (t *Tracker) DeleteExpense(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureLoaded(ctx); err != nil {
		return err
	}

	idx := t.expenseIndex(id)
	if idx < 0 {
		return fmt.Errorf("expense %s: not found", id)
	}
	t.expenses = append(t.expenses[:idx], t.expenses[idx+1:]...)
	if err := t.store.SaveExpenses(ctx, t.expenses); err != nil {
		return fmt.Errorf("save expenses: %w", err)
	}
	trackerLog(ctx).InfoContext(ctx, "Expense deleted", applog.FieldExpenseID, id)
	return nil
}

// DeleteCategory removes a category. A category referenced by any expense is
// rejected with ErrCategoryInUse; the integrity check takes precedence over
// any confirmation flow.
func (t *Tracker) DeleteCategory(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureLoaded(ctx); err != nil {
		return err
	}

	for _, e := range t.expenses {
		if e.CategoryID == id {
			return core.ErrCategoryInUse
		}
	}

	idx := -1
	for i, c := range t.categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("category %s: not found", id)
	}
	t.categories = append(t.categories[:idx], t.categories[idx+1:]...)
	if err := t.store.SaveCategories(ctx, t.categories); err != nil {
		return fmt.Errorf("save categories: %w", err)
	}
	trackerLog(ctx).InfoContext(ctx, "Category deleted", applog.FieldCategoryID, id)
	return nil
}

// CategoryInUse reports whether any expense references the category. Used to
// refuse a delete before a confirmation is even offered.
func (t *Tracker) CategoryInUse(ctx context.Context, id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureLoaded(ctx); err != nil {
		return false, err
	}
	for _, e := range t.expenses {
		if e.CategoryID == id {
			return true, nil
		}
	}
	return false, nil
}

// Overview runs the read path for the given filter: period filter, then
// aggregation, per-category breakdown and chart series.
func (t *Tracker) Overview(ctx context.Context, mode core.PeriodMode, now time.Time, custom *core.CustomRange) (Overview, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureLoaded(ctx); err != nil {
		return Overview{}, err
	}

	filtered := core.FilterByPeriod(t.expenses, mode, now, custom)
	byCategory := core.PerCategory(filtered, t.categories)
	ov := Overview{
		Summary:    core.Aggregate(filtered),
		ByCategory: byCategory,
		Series:     core.ToSeries(byCategory),
		Expenses:   core.SortedByDateDesc(filtered),
	}
	trackerLog(ctx).DebugContext(ctx, "Overview computed",
		applog.FieldPeriodMode, string(mode),
		"count", ov.Summary.Count,
		"total_cents", ov.Summary.Total.Cents,
		"categories", len(ov.ByCategory))
	return ov, nil
}

func (t *Tracker) expenseIndex(id string) int {
	for i, e := range t.expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (t *Tracker) categoryExists(id string) bool {
	for _, c := range t.categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Close releases the underlying store.
func (t *Tracker) Close() error {
	if t.store != nil {
		if err := t.store.Close(); err != nil {
			return fmt.Errorf("close store: %w", err)
		}
	}
	return nil
}
