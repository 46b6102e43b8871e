// Package core provides the period filtering engine.
//
// This file implements the Strategy Pattern for period range computation.
// Each filter mode (monthly, quarterly, semiannual, annual) has its own
// start-of-period function; custom ranges come from explicit bounds.
package core

import "time"

type PeriodMode string

const (
	PeriodMonthly    PeriodMode = "monthly"
	PeriodQuarterly  PeriodMode = "quarterly"
	PeriodSemiannual PeriodMode = "semiannual"
	PeriodAnnual     PeriodMode = "annual"
	PeriodCustom     PeriodMode = "custom"
)

// CustomRange holds explicit bounds for the custom filter mode.
// A zero Date means the bound is absent.
type CustomRange struct {
	Start Date
	End   Date
}

// Range is an inclusive [Start, End] time span.
type Range struct {
	Start time.Time
	End   time.Time
}

// periodStarts maps calendar modes to their start-of-period computation.
// Custom is handled separately since it does not derive from "now".
var periodStarts = map[PeriodMode]func(now time.Time) time.Time{
	PeriodMonthly: func(now time.Time) time.Time {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	},
	PeriodQuarterly: func(now time.Time) time.Time {
		// First month of the 3-month block containing now.
		q := (int(now.Month()) - 1) / 3
		return time.Date(now.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, now.Location())
	},
	PeriodSemiannual: func(now time.Time) time.Time {
		month := time.January
		if now.Month() >= time.July {
			month = time.July
		}
		return time.Date(now.Year(), month, 1, 0, 0, 0, 0, now.Location())
	},
	PeriodAnnual: func(now time.Time) time.Time {
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	},
}

// PeriodRange computes the inclusive date range for a filter mode.
//
// For the calendar modes the range runs from the start of the period to now.
// For custom mode the bounds are the caller-supplied dates, start at 00:00:00
// and end at 23:59:59 of its day. The second return value is false when the
// filter should be a no-op: custom with either bound absent, or an
// unrecognized mode. That is a deliberate escape hatch, not an error.
func PeriodRange(mode PeriodMode, now time.Time, custom *CustomRange) (Range, bool) {
	if mode == PeriodCustom {
		if custom == nil || custom.Start.IsZero() || custom.End.IsZero() {
			return Range{}, false
		}
		end := custom.End.Time
		return Range{
			Start: custom.Start.Time,
			End:   time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, end.Location()),
		}, true
	}
	start, ok := periodStarts[mode]
	if !ok {
		return Range{}, false
	}
	return Range{Start: start(now), End: now}, true
}

// FilterByPeriod selects the expenses whose date falls within the range
// computed for the given mode.
//
// Dates are compared as calendar days, not instants: an expense dated on the
// end bound's calendar day is included even though the bound may carry a
// time-of-day component. The asymmetry makes single-day custom ranges work
// when start == end. When the range is a no-op the full input set is
// returned unchanged.
func FilterByPeriod(expenses []Expense, mode PeriodMode, now time.Time, custom *CustomRange) []Expense {
	r, ok := PeriodRange(mode, now, custom)
	if !ok {
		return expenses
	}
	start := DateOf(r.Start)
	end := DateOf(r.End)
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		d := DateOf(e.Date.Time)
		if d.Before(start.Time) || d.After(end.Time) {
			continue
		}
		out = append(out, e)
	}
	return out
}
