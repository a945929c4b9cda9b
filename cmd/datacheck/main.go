// Command datacheck loads and cleans every registered dataset and prints a
// verification summary. It exits non-zero when any dataset fails, which
// makes it usable as a pre-deploy gate for refreshed source files.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"aqdash/internal/config"
	"aqdash/internal/dataset"
	"aqdash/internal/services"
)

func main() {
	dir := flag.String("dir", "", "directory containing dataset csv files (defaults to data/datasets relative to executable)")
	baseURL := flag.String("base-url", "", "fetch datasets over HTTP from this base URL instead of the local directory")
	timeout := flag.Duration("timeout", config.DefaultLoadTimeout, "overall load timeout")
	flag.Parse()

	if *dir == "" && *baseURL == "" {
		paths, err := config.GetPaths()
		if err != nil {
			slog.Error("Failed to initialize paths", "error", err)
			os.Exit(1)
		}
		*dir = paths.DatasetsDir
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ok, err := runCheck(ctx, *dir, *baseURL, logger, os.Stdout)
	if err != nil {
		slog.Error("Dataset check failed", "error", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

// runCheck loads every registered dataset and writes a per-dataset summary
// line to out. It reports false when at least one dataset failed.
func runCheck(ctx context.Context, dir, baseURL string, logger *slog.Logger, out io.Writer) (bool, error) {
	client := &http.Client{Timeout: config.DefaultHTTPTimeout}
	loader := dataset.NewLoader(client, logger)

	store, err := services.NewStore(
		loader,
		dataset.DefaultRegistry(),
		services.StoreConfig{DatasetsDir: dir, BaseURL: baseURL},
		nil,
		logger,
	)
	if err != nil {
		return false, fmt.Errorf("create store: %w", err)
	}

	start := time.Now()
	if err := store.Load(ctx); err != nil {
		return false, fmt.Errorf("load datasets: %w", err)
	}

	status := store.Status()
	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATASET\tSTATUS\tROWS\tERROR")
	ok := true
	for _, name := range names {
		ds := status[name]
		if ds.Loaded {
			fmt.Fprintf(w, "%s\tok\t%d\t\n", name, ds.Rows)
		} else {
			ok = false
			fmt.Fprintf(w, "%s\tFAILED\t0\t%s\n", name, ds.Error)
		}
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d/%d datasets loaded in %s\n",
		countLoaded(status), len(status), time.Since(start).Round(time.Millisecond))

	return ok, nil
}

func countLoaded(status map[string]services.DatasetStatus) int {
	n := 0
	for _, ds := range status {
		if ds.Loaded {
			n++
		}
	}
	return n
}
