package core

// Series is the chart-ready projection of a per-category breakdown:
// positional labels and values in display units. The boundary exists so the
// aggregator never depends on a charting library's shape.
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// ToSeries projects a per-category list into a Series, preserving order.
func ToSeries(rows []CategoryAmount) Series {
	s := Series{
		Labels: make([]string, 0, len(rows)),
		Values: make([]float64, 0, len(rows)),
	}
	for _, r := range rows {
		s.Labels = append(s.Labels, r.Name)
		s.Values = append(s.Values, r.Subtotal.Units())
	}
	return s
}
