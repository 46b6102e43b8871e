package core

import "sort"

// SortedByDateDesc returns a copy of the expenses ordered newest first.
// Display order is always derived, never persisted; expenses on the same
// day keep their stored order.
func SortedByDateDesc(expenses []Expense) []Expense {
	out := make([]Expense, len(expenses))
	copy(out, expenses)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}

// NamesByID builds a category id -> name lookup for renderers. Missing ids
// resolve to UncategorizedLabel via LabelFor.
func NamesByID(categories []Category) map[string]string {
	m := make(map[string]string, len(categories))
	for _, c := range categories {
		m[c.ID] = c.Name
	}
	return m
}

// LabelFor returns the display label for a category id.
func LabelFor(names map[string]string, categoryID string) string {
	if name, ok := names[categoryID]; ok {
		return name
	}
	return UncategorizedLabel
}
