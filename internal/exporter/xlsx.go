package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"aqdash/internal/dataset"
)

// sheetName is the single worksheet of every XLSX export.
const sheetName = "Data"

// WriteXLSX streams a table as an XLSX workbook with one sheet. Cells that
// parse as numbers are written as numbers so spreadsheet formulas work on
// the export.
func (e *Exporter) WriteXLSX(w io.Writer, t *dataset.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	header := make([]interface{}, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = typedCell(cell)
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if err := f.SetSheetRow(sheetName, axis, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes a table into the exports directory and returns the full
// path of the created file.
func (e *Exporter) SaveXLSX(name string, t *dataset.Table) (string, error) {
	fullPath := e.paths.GetExportPath(name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("create exports directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	if err := e.WriteXLSX(file, t); err != nil {
		return "", err
	}

	e.logger.Info("XLSX export written",
		slog.String("path", fullPath),
		slog.Int("rows", t.Len()))
	return fullPath, nil
}

// typedCell converts a numeric-looking cell to a float so the spreadsheet
// gets a real number. Missing cells become empty strings.
func typedCell(cell string) interface{} {
	if dataset.IsMissing(cell) {
		return ""
	}
	if v, err := strconv.ParseFloat(cell, 64); err == nil {
		return v
	}
	return cell
}
