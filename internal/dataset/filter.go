package dataset

import (
	"sort"
	"strings"
)

// FilterEqual returns the rows whose key column equals value exactly.
func FilterEqual(t *Table, col, value string) *Table {
	out := t.emptyLike()
	i, ok := t.Col(col)
	if !ok {
		return out
	}
	for _, row := range t.Rows {
		if strings.TrimSpace(row[i]) == value {
			out.Rows = append(out.Rows, append([]string(nil), row...))
		}
	}
	return out
}

// FilterListContains returns the rows whose multi-value column, split on
// the delimiter, contains value as one exact element. Splitting first
// keeps "Ohio" from matching "New Ohio State".
func FilterListContains(t *Table, col, value, delim string) *Table {
	out := t.emptyLike()
	i, ok := t.Col(col)
	if !ok {
		return out
	}
	for _, row := range t.Rows {
		for _, elem := range strings.Split(row[i], delim) {
			if strings.TrimSpace(elem) == value {
				out.Rows = append(out.Rows, append([]string(nil), row...))
				break
			}
		}
	}
	return out
}

// Unique returns the sorted distinct non-missing values of a column.
// Selector option lists are built from it, so a selection can never
// reference a value absent from the cleaned data.
func Unique(t *Table, col string) []string {
	i, ok := t.Col(col)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	for _, row := range t.Rows {
		v := strings.TrimSpace(row[i])
		if IsMissing(v) {
			continue
		}
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// UniqueElements is Unique over a multi-value column: every cell is split
// on the delimiter and the distinct elements are collected.
func UniqueElements(t *Table, col, delim string) []string {
	i, ok := t.Col(col)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	for _, row := range t.Rows {
		for _, elem := range strings.Split(row[i], delim) {
			v := strings.TrimSpace(elem)
			if IsMissing(v) {
				continue
			}
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
