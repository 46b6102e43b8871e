package http

import (
	"net/url"
	"strings"
	"time"

	"despesas/internal/core"
)

// PeriodParams is the filter selection supplied by the dashboard controls.
type PeriodParams struct {
	Mode   core.PeriodMode
	Custom *core.CustomRange
}

// ParsePeriodParams reads period/from/to from query or form values.
// Absent custom bounds stay zero, which makes the filter a no-op downstream.
func ParsePeriodParams(values url.Values) PeriodParams {
	mode := core.PeriodMode(strings.TrimSpace(values.Get("period")))
	if mode == "" {
		mode = core.PeriodMonthly
	}
	p := PeriodParams{Mode: mode}
	if mode != core.PeriodCustom {
		return p
	}

	custom := &core.CustomRange{}
	if v := strings.TrimSpace(values.Get("from")); v != "" {
		if d, err := core.ParseDate(v); err == nil {
			custom.Start = d
		}
	}
	if v := strings.TrimSpace(values.Get("to")); v != "" {
		if d, err := core.ParseDate(v); err == nil {
			custom.End = d
		}
	}
	p.Custom = custom
	return p
}

// CacheKey is a stable identifier for the filter selection.
func (p PeriodParams) CacheKey(now time.Time) string {
	key := string(p.Mode) + "|" + core.DateOf(now).String()
	if p.Custom != nil {
		key += "|" + p.Custom.Start.String() + "|" + p.Custom.End.String()
	}
	return key
}

// sanitizeInput trims whitespace and strips control characters except tab,
// newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
