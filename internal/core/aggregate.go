package core

import "sort"

// UncategorizedLabel is the fallback name for expenses whose category
// reference no longer resolves. The integrity rule on category deletion
// means this should not normally happen, but renderers tolerate it.
const UncategorizedLabel = "Uncategorized"

// Summary holds the aggregate figures over a set of expenses.
type Summary struct {
	Total   Money
	Count   int
	Average Money
}

// CategoryAmount is a per-category subtotal.
type CategoryAmount struct {
	Name     string
	Subtotal Money
}

// Aggregate computes total, count and average over a set of expenses.
// The average of an empty set is zero, never a division by zero.
func Aggregate(expenses []Expense) Summary {
	s := Summary{Count: len(expenses)}
	for _, e := range expenses {
		s.Total.Cents += e.Amount.Cents
	}
	if s.Count > 0 {
		// Half-up rounding to whole cents.
		s.Average.Cents = (s.Total.Cents + int64(s.Count)/2) / int64(s.Count)
	}
	return s
}

// PerCategory sums expense amounts per category, drops categories whose
// subtotal is exactly zero, and sorts ascending by subtotal. Ascending order
// reads better for horizontal-bar rendering, largest value nearest the axis.
// Expenses with a dangling category reference land in an Uncategorized
// bucket rather than disappearing.
func PerCategory(expenses []Expense, categories []Category) []CategoryAmount {
	sums := make(map[string]int64, len(categories))
	known := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		known[c.ID] = struct{}{}
	}

	var dangling int64
	for _, e := range expenses {
		if _, ok := known[e.CategoryID]; ok {
			sums[e.CategoryID] += e.Amount.Cents
		} else {
			dangling += e.Amount.Cents
		}
	}

	out := make([]CategoryAmount, 0, len(categories)+1)
	for _, c := range categories {
		if sums[c.ID] == 0 {
			continue
		}
		out = append(out, CategoryAmount{Name: c.Name, Subtotal: Money{Cents: sums[c.ID]}})
	}
	if dangling != 0 {
		out = append(out, CategoryAmount{Name: UncategorizedLabel, Subtotal: Money{Cents: dangling}})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Subtotal.Cents < out[j].Subtotal.Cents
	})
	return out
}
