package domain

import "fmt"

// Series is one labeled y-sequence of a chart. Values are index-aligned
// with the owning chart's x-axis.
type Series struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// ChartData is the shape handed to the chart layer: one ordered x-sequence
// plus one or more y-series of identical length.
type ChartData struct {
	Title  string   `json:"title,omitempty"`
	XLabel string   `json:"x_label,omitempty"`
	YLabel string   `json:"y_label,omitempty"`
	X      []string `json:"x"`
	Series []Series `json:"series"`
}

// NewChartData builds a ChartData and enforces the alignment invariant:
// every series must have exactly len(x) values.
func NewChartData(title string, x []string, series ...Series) (*ChartData, error) {
	for _, s := range series {
		if len(s.Values) != len(x) {
			return nil, fmt.Errorf("series %q has %d values for %d x-axis entries", s.Label, len(s.Values), len(x))
		}
	}
	return &ChartData{Title: title, X: x, Series: series}, nil
}

// TrendPoint is one (year, value) observation of a sparse trend line.
type TrendPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// TrendSeries is a labeled trend line whose points carry their own years.
// Unlike ChartData it tolerates gaps: each series keeps only the years it
// has observations for.
type TrendSeries struct {
	Label  string       `json:"label"`
	Points []TrendPoint `json:"points"`
}

// AddSeries appends a y-series, rejecting any that breaks alignment.
func (c *ChartData) AddSeries(s Series) error {
	if len(s.Values) != len(c.X) {
		return fmt.Errorf("series %q has %d values for %d x-axis entries", s.Label, len(s.Values), len(c.X))
	}
	c.Series = append(c.Series, s)
	return nil
}
