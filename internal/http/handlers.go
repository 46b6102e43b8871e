package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"despesas/internal/core"
	applog "despesas/internal/log"
	"despesas/internal/services"
)

// indexView feeds the page shell: the form, the category manager and the
// filter controls.
type indexView struct {
	Categories []core.Category
	Today      string
	Period     string
}

// overviewView is the render model for the dashboard partial.
type overviewView struct {
	Period   string
	Count    int
	Total    string
	Average  string
	Bars     []barView
	Expenses []expenseRow
}

type barView struct {
	Label   string
	Amount  string
	Percent int
}

type expenseRow struct {
	ID          string
	Date        string
	Description string
	Category    string
	Amount      string
}

// confirmView is the render model for the confirmation prompt partial.
type confirmView struct {
	Message string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		MethodNotAllowedError(http.MethodGet).Write(w)
		return
	}

	categories, err := s.tracker.Categories(r.Context())
	if err != nil {
		s.logError(r, "load categories", err)
		InternalServerError("Could not load categories.").Write(w)
		return
	}

	view := indexView{
		Categories: categories,
		Today:      core.DateOf(time.Now()).String(),
		Period:     string(core.PeriodMonthly),
	}
	s.render(w, r, "index.html", view)
}

func (s *Server) handleUpsertExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid form data.").Write(w)
		return
	}

	input := services.ExpenseInput{
		Description: sanitizeInput(r.FormValue("description")),
		Amount:      sanitizeInput(r.FormValue("amount")),
		Date:        sanitizeInput(r.FormValue("date")),
		CategoryID:  sanitizeInput(r.FormValue("category_id")),
	}
	editingID := sanitizeInput(r.FormValue("id"))

	expense, err := s.tracker.UpsertExpense(r.Context(), input, editingID)
	if err != nil {
		s.writeMutationError(w, r, "upsert expense", err)
		return
	}

	s.overviewCache.Clear()
	message := fmt.Sprintf("Expense %q added.", expense.Description)
	if editingID != "" {
		message = fmt.Sprintf("Expense %q updated.", expense.Description)
	}
	SuccessResponse(message).
		TriggerOverviewRefresh().
		TriggerFormReset().
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid form data.").Write(w)
		return
	}
	id := sanitizeInput(r.FormValue("id"))
	if id == "" {
		BadRequestError("Missing expense id.").Write(w)
		return
	}

	// The action runs later, from the confirmation request, after this
	// handler has returned and its context has been canceled. Keep the
	// request-scoped values but detach from the cancellation.
	ctx := context.WithoutCancel(r.Context())
	pending := s.confirmer.Request("Delete this expense?", func() error {
		if err := s.tracker.DeleteExpense(ctx, id); err != nil {
			return err
		}
		s.overviewCache.Clear()
		return nil
	})
	s.render(w, r, "confirm.html", confirmView{Message: pending.Message})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid form data.").Write(w)
		return
	}

	category, err := s.tracker.CreateCategory(r.Context(), sanitizeInput(r.FormValue("name")))
	if err != nil {
		s.writeMutationError(w, r, "create category", err)
		return
	}

	SuccessResponse(fmt.Sprintf("Category %q created.", category.Name)).
		TriggerOverviewRefresh().
		Trigger("categories:changed", struct{}{}).
		Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid form data.").Write(w)
		return
	}
	id := sanitizeInput(r.FormValue("id"))
	if id == "" {
		BadRequestError("Missing category id.").Write(w)
		return
	}

	// Detached from cancellation: the delete runs from the confirmation
	// request, after this one is done.
	ctx := context.WithoutCancel(r.Context())

	// The integrity check runs before a confirmation is even offered.
	inUse, err := s.tracker.CategoryInUse(ctx, id)
	if err != nil {
		s.logError(r, "category in-use check", err)
		InternalServerError("Could not check category usage.").Write(w)
		return
	}
	if inUse {
		ConflictError("Category is in use by existing expenses and cannot be deleted.").Write(w)
		return
	}

	pending := s.confirmer.Request("Delete this category?", func() error {
		if err := s.tracker.DeleteCategory(ctx, id); err != nil {
			return err
		}
		s.overviewCache.Clear()
		return nil
	})
	s.render(w, r, "confirm.html", confirmView{Message: pending.Message})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid form data.").Write(w)
		return
	}
	accepted := sanitizeInput(r.FormValue("accepted")) == "yes"

	err := s.confirmer.Resolve(accepted)
	switch {
	case errors.Is(err, services.ErrNoPendingConfirmation):
		BadRequestError("Nothing to confirm.").Write(w)
	case err != nil:
		s.writeMutationError(w, r, "confirm", err)
	case accepted:
		SuccessResponse("Done.").
			TriggerOverviewRefresh().
			Trigger("categories:changed", struct{}{}).
			Write(w)
	default:
		NewResponse().BodyHTML(`<div class="muted">Cancelled.</div>`).Write(w)
	}
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError(http.MethodGet).Write(w)
		return
	}

	params := ParsePeriodParams(r.URL.Query())
	now := time.Now()

	key := params.CacheKey(now)
	ov, ok := s.overviewCache.Get(key)
	if !ok {
		var err error
		ov, err = s.tracker.Overview(r.Context(), params.Mode, now, params.Custom)
		if err != nil {
			s.logError(r, "compute overview", err)
			InternalServerError("Could not compute the overview.").Write(w)
			return
		}
		s.overviewCache.Set(key, ov)
	}

	categories, err := s.tracker.Categories(r.Context())
	if err != nil {
		s.logError(r, "load categories", err)
		InternalServerError("Could not load categories.").Write(w)
		return
	}

	s.render(w, r, "overview.html", buildOverviewView(params, ov, categories))
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError(http.MethodGet).Write(w)
		return
	}

	params := ParsePeriodParams(r.URL.Query())
	now := time.Now()

	key := params.CacheKey(now)
	ov, ok := s.overviewCache.Get(key)
	if !ok {
		var err error
		ov, err = s.tracker.Overview(r.Context(), params.Mode, now, params.Custom)
		if err != nil {
			s.logError(r, "compute series", err)
			http.Error(w, "could not compute series", http.StatusInternalServerError)
			return
		}
		s.overviewCache.Set(key, ov)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ov.Series); err != nil {
		s.logError(r, "encode series", err)
	}
}

// buildOverviewView turns the read model into render-ready strings.
func buildOverviewView(params PeriodParams, ov services.Overview, categories []core.Category) overviewView {
	view := overviewView{
		Period:  string(params.Mode),
		Count:   ov.Summary.Count,
		Total:   ov.Summary.Total.Format(),
		Average: ov.Summary.Average.Format(),
	}

	var max int64
	for _, ca := range ov.ByCategory {
		if ca.Subtotal.Cents > max {
			max = ca.Subtotal.Cents
		}
	}
	for _, ca := range ov.ByCategory {
		percent := 0
		if max > 0 {
			percent = int(ca.Subtotal.Cents * 100 / max)
		}
		view.Bars = append(view.Bars, barView{
			Label:   ca.Name,
			Amount:  ca.Subtotal.Format(),
			Percent: percent,
		})
	}

	names := core.NamesByID(categories)
	for _, e := range ov.Expenses {
		view.Expenses = append(view.Expenses, expenseRow{
			ID:          e.ID,
			Date:        e.Date.String(),
			Description: e.Description,
			Category:    core.LabelFor(names, e.CategoryID),
			Amount:      e.Amount.Format(),
		})
	}
	return view
}

// writeMutationError maps domain errors to client responses. Validation and
// integrity failures are the caller's fault; everything else is ours.
func (s *Server) writeMutationError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrMissingDate),
		errors.Is(err, core.ErrFutureDate),
		errors.Is(err, core.ErrMissingCategory),
		errors.Is(err, core.ErrUnknownCategory),
		errors.Is(err, core.ErrEmptyCategoryName):
		UnprocessableEntityError(err.Error()).Write(w)
	case errors.Is(err, core.ErrDuplicateCategory),
		errors.Is(err, core.ErrCategoryInUse):
		ConflictError(err.Error()).Write(w)
	default:
		s.logError(r, op, err)
		InternalServerError("Something went wrong. Please try again.").Write(w)
	}
}

// render executes a template into a buffer first so a failure never emits a
// half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		InternalServerError("Templates unavailable.").Write(w)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logError(r, "render "+name, err)
		InternalServerError("Could not render the page.").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) logError(r *http.Request, op string, err error) {
	logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentHTTP)
	logger.ErrorContext(r.Context(), "Handler failed",
		applog.FieldPath, r.URL.Path,
		applog.FieldError, err,
		"operation", op)
}
