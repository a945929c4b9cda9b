package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"aqdash/internal/config"
	"aqdash/internal/dataset"
)

// utf8BOM makes Excel detect the encoding of a CSV download.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Exporter writes tables as CSV or XLSX, streaming or into the exports
// directory.
type Exporter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// New creates an exporter. Paths may be nil when only the streaming
// methods are used.
func New(paths *config.Paths, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		paths:  paths,
		logger: logger.With(slog.String("component", "exporter")),
	}
}

// WriteCSV streams a table as BOM-prefixed CSV.
func (e *Exporter) WriteCSV(w io.Writer, t *dataset.Table) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes a table into the exports directory and returns the full
// path of the created file.
func (e *Exporter) SaveCSV(name string, t *dataset.Table) (string, error) {
	fullPath := e.paths.GetExportPath(name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("create exports directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	if err := e.WriteCSV(file, t); err != nil {
		return "", err
	}

	e.logger.Info("CSV export written",
		slog.String("path", fullPath),
		slog.Int("rows", t.Len()))
	return fullPath, nil
}

// FileName builds a timestamped download name for a dataset export.
func FileName(datasetName, format string) string {
	return fmt.Sprintf("%s_%s.%s", datasetName, time.Now().Format("20060102_150405"), format)
}

// ContentType returns the MIME type for an export format.
func ContentType(format string) string {
	if format == "xlsx" {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}
