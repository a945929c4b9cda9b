package dataset

import "fmt"

// Missing is the canonical missing-value marker for table cells.
const Missing = ""

// IsMissing reports whether a cell holds the missing-value marker.
func IsMissing(cell string) bool {
	return cell == Missing
}

// Table is an ordered set of named columns over string cells. Cells keep
// their source text until a consumer coerces them; the empty string marks
// a missing value.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable creates an empty table with the given column names.
func NewTable(columns []string) *Table {
	t := &Table{Columns: columns}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c] = i
	}
}

// Col returns the position of a named column.
func (t *Table) Col(name string) (int, bool) {
	if t.index == nil {
		t.reindex()
	}
	i, ok := t.index[name]
	return i, ok
}

// AppendRow adds a row, padding short rows with the missing marker so
// every row has one cell per column.
func (t *Table) AppendRow(row []string) error {
	if len(row) > len(t.Columns) {
		return fmt.Errorf("row has %d cells for %d columns", len(row), len(t.Columns))
	}
	for len(row) < len(t.Columns) {
		row = append(row, Missing)
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// AddColumn appends a column filled with the given value on every
// existing row.
func (t *Table) AddColumn(name, fill string) {
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], fill)
	}
	t.reindex()
}

// Cell returns the value at (row, column name), or the missing marker if
// the column does not exist.
func (t *Table) Cell(row int, col string) string {
	i, ok := t.Col(col)
	if !ok {
		return Missing
	}
	return t.Rows[row][i]
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := NewTable(append([]string(nil), t.Columns...))
	out.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}

// emptyLike returns a new table sharing the receiver's column layout but
// holding no rows. Filters build their result on top of it.
func (t *Table) emptyLike() *Table {
	return NewTable(append([]string(nil), t.Columns...))
}
