package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseDecimalToCents parses a positive decimal amount into whole cents.
// Both "12.34" and "12,34" are accepted. Only the first two fractional
// digits count; a third digit above five rounds the cent up ("12.345"
// gives 1234, "12.346" gives 1235). Signs, malformed input and amounts of
// zero or less are rejected with ErrInvalidAmount.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, ErrInvalidAmount
	}

	whole, frac, _ := strings.Cut(s, ".")
	if strings.Contains(frac, ".") {
		return 0, ErrInvalidAmount
	}
	if whole == "" {
		whole = "0"
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, ErrInvalidAmount
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > math.MaxInt64/100 {
		return 0, ErrInvalidAmount
	}

	cents := units * 100
	if len(frac) > 0 {
		cents += int64(frac[0]-'0') * 10
	}
	if len(frac) > 1 {
		cents += int64(frac[1] - '0')
	}
	if len(frac) > 2 && frac[2] > '5' {
		cents++
	}

	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Units returns the display-unit value for presentation. Calculations stay
// on Cents; the float is for chart values only.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// Format renders the amount with two decimal places, "25.50" style.
func (m Money) Format() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
