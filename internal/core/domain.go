package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

type (
	// Date is a calendar day with no time-of-day component. The wrapped
	// time.Time is always midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is a single dated monetary outflow linked to one category.
	Expense struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
		Date        Date   `json:"date"`
		CategoryID  string `json:"categoryId"`
	}

	// Category is a user-defined label used to group expenses.
	// Names are unique, case-insensitively.
	Category struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyDescription  = errors.New("empty description")
	ErrMissingDate       = errors.New("missing date")
	ErrFutureDate        = errors.New("expense date is in the future")
	ErrMissingCategory   = errors.New("missing category")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrEmptyCategoryName = errors.New("empty category name")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrCategoryInUse     = errors.New("category is in use")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrMissingDate
	}
	// Normalize through time.Date so parsed and constructed dates compare equal.
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Money serializes as a bare integer cent count.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Cents)
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &m.Cents)
}

// Validate checks the intrinsic invariants of an expense. The future-date
// rule depends on a clock and lives in ValidateAt.
func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		return ErrMissingCategory
	}
	return nil
}

// ValidateAt validates the expense against a reference instant: expenses
// dated strictly after now's calendar day are rejected. The comparison is
// day-granular in the caller's zone, so an expense dated today passes even
// when today's UTC midnight has not been reached yet.
func (e Expense) ValidateAt(now time.Time) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.Date.After(DateOf(now).Time) {
		return ErrFutureDate
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	return nil
}
