package dataset

import (
	"sort"
	"strconv"
	"strings"
)

// Sum totals a numeric column, ignoring missing and unparseable cells.
func Sum(t *Table, col string) float64 {
	i, ok := t.Col(col)
	if !ok {
		return 0
	}
	var total float64
	for _, row := range t.Rows {
		cell := strings.TrimSpace(row[i])
		if IsMissing(cell) {
			continue
		}
		if v, err := strconv.ParseFloat(cell, 64); err == nil {
			total += v
		}
	}
	return total
}

// CountNonMissing counts the rows whose column holds a value.
func CountNonMissing(t *Table, col string) int {
	i, ok := t.Col(col)
	if !ok {
		return 0
	}
	n := 0
	for _, row := range t.Rows {
		if !IsMissing(strings.TrimSpace(row[i])) {
			n++
		}
	}
	return n
}

// TopN returns a new table holding the n rows with the largest amounts in
// descending order. The sort is stable, so equal amounts keep their
// original row order. The input table is not modified.
func TopN(t *Table, col string, n int) *Table {
	out := t.emptyLike()
	i, ok := t.Col(col)
	if !ok || n <= 0 {
		return out
	}

	type ranked struct {
		row    []string
		amount float64
	}
	rows := make([]ranked, 0, t.Len())
	for _, row := range t.Rows {
		cell := strings.TrimSpace(row[i])
		if IsMissing(cell) {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			continue
		}
		rows = append(rows, ranked{row: row, amount: v})
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].amount > rows[b].amount
	})

	if n > len(rows) {
		n = len(rows)
	}
	for _, r := range rows[:n] {
		out.Rows = append(out.Rows, append([]string(nil), r.row...))
	}
	return out
}
