package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrDatasetUnavailable means no source file could be found for a dataset.
// For a year-range dataset it is returned only when zero files exist
// across the whole range; partial coverage is not an error.
var ErrDatasetUnavailable = errors.New("dataset unavailable")

// YearColumn is the column stamped onto every row of a year-range load.
const YearColumn = "Year"

// Loader reads CSV sources, local or remote, into tables.
type Loader struct {
	client *http.Client
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to slog.Default.
func NewLoader(client *http.Client, logger *slog.Logger) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{client: client, logger: logger}
}

// Load reads one CSV from a local path or an http(s) URL. The first
// record becomes the column names; every cell stays a string.
func (l *Loader) Load(ctx context.Context, source string) (*Table, error) {
	r, err := l.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	t, err := readCSV(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}

	l.logger.DebugContext(ctx, "dataset loaded",
		slog.String("source", source),
		slog.Int("rows", t.Len()),
		slog.Int("columns", len(t.Columns)))
	return t, nil
}

// LoadYearRange loads dir/prefix<year>.csv for every year in [first, last]
// ascending, stamps the year onto each row, and concatenates the results
// preserving per-file row order. Years whose file is absent are skipped
// silently; zero files across the range yields ErrDatasetUnavailable.
func (l *Loader) LoadYearRange(ctx context.Context, dir, prefix string, first, last int) (*Table, error) {
	var combined *Table
	found := 0

	for year := first; year <= last; year++ {
		path := filepath.Join(dir, fmt.Sprintf("%s%d.csv", prefix, year))
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("open %s: %w", path, err)
		}

		t, err := readCSV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		t.AddColumn(YearColumn, strconv.Itoa(year))
		found++

		if combined == nil {
			combined = t
			continue
		}
		for _, row := range t.Rows {
			if err := combined.AppendRow(row); err != nil {
				return nil, fmt.Errorf("concat %s: %w", path, err)
			}
		}
	}

	if found == 0 {
		return nil, fmt.Errorf("%s%d-%d: %w", prefix, first, last, ErrDatasetUnavailable)
	}

	l.logger.DebugContext(ctx, "year range loaded",
		slog.String("prefix", prefix),
		slog.Int("files", found),
		slog.Int("rows", combined.Len()))
	return combined, nil
}

// open returns a reader for a local path or a remote URL.
func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("build request for %s: %w", source, err)
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", source, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			if resp.StatusCode == http.StatusNotFound {
				return nil, fmt.Errorf("fetch %s: %w", source, ErrDatasetUnavailable)
			}
			return nil, fmt.Errorf("fetch %s: unexpected status %d", source, resp.StatusCode)
		}
		return resp.Body, nil
	}

	f, err := os.Open(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open %s: %w", source, ErrDatasetUnavailable)
		}
		return nil, fmt.Errorf("open %s: %w", source, err)
	}
	return f, nil
}

// readCSV parses a CSV stream into a table. Rows shorter than the header
// are padded with the missing marker; longer rows are rejected.
func readCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV source")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := NewTable(header)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if err := t.AppendRow(record); err != nil {
			return nil, err
		}
	}
	return t, nil
}
