// Package exporter turns in-memory tables into CSV and XLSX downloads.
//
// CSV output is UTF-8 with a BOM prefix so Excel opens it correctly. XLSX
// output goes through excelize. Both writers stream to an io.Writer, which
// lets the HTTP layer send downloads without a temp file; Save variants
// write into the configured exports directory.
package exporter
