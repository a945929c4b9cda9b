package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrLeadingMissingKey means a forward-filled column starts with a missing
// value, so there is nothing to propagate into it.
var ErrLeadingMissingKey = errors.New("group key missing in first row")

// MalformedCurrencyError reports a currency cell that is still non-numeric
// after the dollar sign and thousands separators are stripped.
type MalformedCurrencyError struct {
	Column string
	Row    int
	Value  string
}

func (e *MalformedCurrencyError) Error() string {
	return fmt.Sprintf("malformed currency value %q in column %q, row %d", e.Value, e.Column, e.Row)
}

// CurrencyColumn names a column holding formatted currency strings and the
// factor its parsed amounts are multiplied by (1000 when the source states
// amounts in thousands of dollars).
type CurrencyColumn struct {
	Name  string  `validate:"required"`
	Scale float64 `validate:"gt=0"`
}

// CleanSpec describes the normalization a dataset needs. The registry
// carries one per dataset so all dashboard variants share a single
// pipeline instead of duplicating per-tab cleanup.
type CleanSpec struct {
	// ForwardFill columns are group keys where only the first row of
	// each group is labeled in the source.
	ForwardFill []string
	// Currency columns are parsed to numbers and scaled.
	Currency []CurrencyColumn
	// Placeholder is a literal cell value meaning "no reading" ("." in
	// the county files). Empty means no substitution.
	Placeholder string
	// Required lists classification columns; rows missing any of them
	// are dropped before further processing.
	Required []string
}

// Clean returns a normalized copy of a loaded table per its CleanSpec.
// The input table is left untouched.
func Clean(t *Table, spec CleanSpec) (*Table, error) {
	out := t.Clone()

	if spec.Placeholder != "" {
		substitutePlaceholder(out, spec.Placeholder)
	}
	if err := forwardFill(out, spec.ForwardFill); err != nil {
		return nil, err
	}
	dropMissingRequired(out, spec.Required)
	if err := parseCurrency(out, spec.Currency); err != nil {
		return nil, err
	}
	return out, nil
}

// substitutePlaceholder maps the placeholder token to the missing marker
// in every cell.
func substitutePlaceholder(t *Table, placeholder string) {
	for _, row := range t.Rows {
		for i, cell := range row {
			if strings.TrimSpace(cell) == placeholder {
				row[i] = Missing
			}
		}
	}
}

// forwardFill propagates the nearest preceding non-missing value down each
// group-key column. A missing value in the first row is an error: there is
// no group to inherit from.
func forwardFill(t *Table, columns []string) error {
	for _, col := range columns {
		i, ok := t.Col(col)
		if !ok {
			return fmt.Errorf("forward-fill column %q not in table", col)
		}
		last := Missing
		for r, row := range t.Rows {
			if IsMissing(strings.TrimSpace(row[i])) {
				if r == 0 || IsMissing(last) {
					return fmt.Errorf("column %q: %w", col, ErrLeadingMissingKey)
				}
				row[i] = last
				continue
			}
			last = row[i]
		}
	}
	return nil
}

// dropMissingRequired removes rows lacking any required classification
// column.
func dropMissingRequired(t *Table, required []string) {
	if len(required) == 0 {
		return
	}
	idx := make([]int, 0, len(required))
	for _, col := range required {
		if i, ok := t.Col(col); ok {
			idx = append(idx, i)
		}
	}

	kept := t.Rows[:0]
	for _, row := range t.Rows {
		keep := true
		for _, i := range idx {
			if IsMissing(strings.TrimSpace(row[i])) {
				keep = false
				break
			}
		}
		if keep {
			kept = append(kept, row)
		}
	}
	t.Rows = kept
}

// parseCurrency normalizes currency columns in place: "$1,234.50" with
// scale 1000 becomes "1234500". A non-numeric residue is an error, never a
// silent zero. Missing cells stay missing.
func parseCurrency(t *Table, columns []CurrencyColumn) error {
	for _, cc := range columns {
		i, ok := t.Col(cc.Name)
		if !ok {
			return fmt.Errorf("currency column %q not in table", cc.Name)
		}
		for r, row := range t.Rows {
			cell := strings.TrimSpace(row[i])
			if IsMissing(cell) {
				continue
			}
			v, err := ParseCurrency(cell, cc.Scale)
			if err != nil {
				return &MalformedCurrencyError{Column: cc.Name, Row: r, Value: row[i]}
			}
			row[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return nil
}

// ParseCurrency strips a leading dollar sign and comma separators, parses
// the remainder as a decimal number, and applies the unit scale.
func ParseCurrency(s string, scale float64) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse currency %q: %w", s, err)
	}
	return v * scale, nil
}
