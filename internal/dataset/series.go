package dataset

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInsufficientData means a requested time series has fewer non-missing
// points than the render threshold. It is a normal branch, not a failure:
// callers surface a "no data" message instead of a chart.
var ErrInsufficientData = errors.New("insufficient data points for series")

// MinSeriesPoints is the minimum number of non-missing points a
// single-pollutant time series needs before it is worth charting.
const MinSeriesPoints = 3

// CoercePolicy decides what an unparseable cell becomes during year-series
// extraction. The source dashboards coerced to zero, which can silently
// flatten a trend; the registry default is to treat such cells as missing.
type CoercePolicy int

const (
	// CoerceMissing drops unparseable cells from the series.
	CoerceMissing CoercePolicy = iota
	// CoerceZero keeps the source behavior: unparseable cells become 0.
	CoerceZero
)

// Point is one (year, value) observation of a time series.
type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// YearSeries extracts the per-year values of one row. Only the columns
// named for years in [first, last] are read; leading metadata columns are
// never part of the series. Cells are coerced per the policy.
func YearSeries(t *Table, row int, first, last int, policy CoercePolicy) []Point {
	points := make([]Point, 0, last-first+1)
	for year := first; year <= last; year++ {
		i, ok := t.Col(strconv.Itoa(year))
		if !ok {
			continue
		}
		cell := strings.TrimSpace(t.Rows[row][i])
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			if policy == CoerceZero {
				points = append(points, Point{Year: year, Value: 0})
			}
			continue
		}
		points = append(points, Point{Year: year, Value: v})
	}
	return points
}

// PairSeries builds a series from a long-format table: one point per row,
// x from an integer column and y from a value column. Rows whose value is
// missing or unparseable are skipped. Fewer than MinSeriesPoints
// observations yields ErrInsufficientData.
func PairSeries(t *Table, xCol, yCol string) ([]Point, error) {
	xi, ok := t.Col(xCol)
	if !ok {
		return nil, ErrInsufficientData
	}
	yi, ok := t.Col(yCol)
	if !ok {
		return nil, ErrInsufficientData
	}

	points := make([]Point, 0, t.Len())
	for _, row := range t.Rows {
		y := strings.TrimSpace(row[yi])
		if IsMissing(y) {
			continue
		}
		yv, err := strconv.ParseFloat(y, 64)
		if err != nil {
			continue
		}
		xv, err := strconv.Atoi(strings.TrimSpace(row[xi]))
		if err != nil {
			continue
		}
		points = append(points, Point{Year: xv, Value: yv})
	}

	if len(points) < MinSeriesPoints {
		return nil, ErrInsufficientData
	}
	return points, nil
}
