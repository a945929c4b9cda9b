package exporter

import (
	"bytes"
	"encoding/csv"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"aqdash/internal/config"
	"aqdash/internal/dataset"
)

func budgetTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl := dataset.NewTable([]string{"Fiscal Year", "Enacted Budget", "Workforce"})
	require.NoError(t, tbl.AppendRow([]string{"FY 2021", "9237153000", "14026"}))
	require.NoError(t, tbl.AppendRow([]string{"FY 2022", "9561483000", ""}))
	return tbl
}

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	dir := t.TempDir()
	return &config.Paths{
		ExecutableDir: dir,
		DataDir:       dir,
		DatasetsDir:   dir,
		ExportsDir:    dir,
		LogsDir:       dir,
	}
}

func TestWriteCSV(t *testing.T) {
	e := New(nil, slog.Default())

	var buf bytes.Buffer
	require.NoError(t, e.WriteCSV(&buf, budgetTable(t)))

	// BOM prefix for Excel
	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}))

	records, err := csv.NewReader(bytes.NewReader(raw[3:])).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, []string{"Fiscal Year", "Enacted Budget", "Workforce"}, records[0])
	assert.Equal(t, []string{"FY 2021", "9237153000", "14026"}, records[1])
	// Missing cells round-trip as empty
	assert.Equal(t, "", records[2][2])
}

func TestSaveCSV(t *testing.T) {
	e := New(testPaths(t), slog.Default())

	path, err := e.SaveCSV("budget_test.csv", budgetTable(t))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "FY 2021")
}

func TestWriteXLSX(t *testing.T) {
	e := New(nil, slog.Default())

	var buf bytes.Buffer
	require.NoError(t, e.WriteXLSX(&buf, budgetTable(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Data")
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Fiscal Year", "Enacted Budget", "Workforce"}, rows[0])
	assert.Equal(t, "FY 2021", rows[1][0])

	// Numeric cells are stored as numbers
	typ, err := f.GetCellType("Data", "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)
}

func TestSaveXLSX(t *testing.T) {
	e := New(testPaths(t), slog.Default())

	path, err := e.SaveXLSX("budget_test.xlsx", budgetTable(t))
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Data")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestFileName(t *testing.T) {
	name := FileName("budget", "csv")
	assert.True(t, strings.HasPrefix(name, "budget_"))
	assert.True(t, strings.HasSuffix(name, ".csv"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", ContentType("csv"))
	assert.Contains(t, ContentType("xlsx"), "spreadsheetml")
}
