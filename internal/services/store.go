package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"aqdash/internal/dataset"
	"aqdash/internal/infrastructure"
)

// ErrUnknownDataset means a caller named a dataset the registry does not
// contain. Surfaced over HTTP as 404.
var ErrUnknownDataset = errors.New("unknown dataset")

// ErrUnknownSelection means a selection key (CBSA, county, state, region)
// matched no rows. UIs built from the option endpoints never trigger it;
// arbitrary callers get a 404.
var ErrUnknownSelection = errors.New("unknown selection key")

// StoreConfig tells the store where dataset sources live. When BaseURL is
// set, registry file names resolve against it; otherwise they resolve
// against DatasetsDir on disk. Year-ranged datasets are always local.
type StoreConfig struct {
	DatasetsDir string
	BaseURL     string
}

// DatasetStatus is the per-dataset load outcome reported by health checks.
type DatasetStatus struct {
	Loaded bool   `json:"loaded"`
	Rows   int    `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// snapshot is one complete load result. The store swaps whole snapshots so
// readers never see a partially reloaded state.
type snapshot struct {
	tables   map[string]*dataset.Table
	failures map[string]error
	loadedAt time.Time
}

// Store loads the registered datasets and holds the cleaned tables in
// memory. All reads go through the current snapshot under a read lock.
type Store struct {
	loader   *dataset.Loader
	registry []dataset.Entry
	cfg      StoreConfig
	metrics  *infrastructure.DashboardMetrics
	logger   *slog.Logger

	mu      sync.RWMutex
	current *snapshot
}

// NewStore validates the registry and builds a store. No data is loaded
// until Load is called.
func NewStore(loader *dataset.Loader, registry []dataset.Entry, cfg StoreConfig, metrics *infrastructure.DashboardMetrics, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, e := range registry {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("invalid registry: %w", err)
		}
	}
	return &Store{
		loader:   loader,
		registry: registry,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "store")),
	}, nil
}

// Load runs load+clean for every registered dataset in parallel and swaps
// the snapshot in one step. A dataset that fails to load is recorded in the
// snapshot and keeps only its own endpoints down; Load itself fails only
// when the context is cancelled.
func (s *Store) Load(ctx context.Context) error {
	start := time.Now()

	next := &snapshot{
		tables:   make(map[string]*dataset.Table, len(s.registry)),
		failures: make(map[string]error),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, entry := range s.registry {
		entry := entry
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			loadStart := time.Now()
			table, err := s.loadOne(gctx, entry)
			infrastructure.RecordDatasetLoad(gctx, s.metrics, entry.Name, tableLen(table), time.Since(loadStart), err)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.ErrorContext(gctx, "dataset load failed",
					slog.String("dataset", entry.Name),
					slog.String("error", err.Error()),
				)
				next.failures[entry.Name] = err
				return nil
			}

			s.logger.InfoContext(gctx, "dataset loaded",
				slog.String("dataset", entry.Name),
				slog.Int("rows", table.Len()),
				slog.Duration("duration", time.Since(loadStart)),
			)
			next.tables[entry.Name] = table
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("loading datasets: %w", err)
	}

	next.loadedAt = time.Now()

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "snapshot swapped",
		slog.Int("datasets", len(next.tables)),
		slog.Int("failures", len(next.failures)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// Reload re-runs the full load. The old snapshot keeps serving until the
// new one is complete.
func (s *Store) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// loadOne loads and cleans a single dataset per its registry entry.
func (s *Store) loadOne(ctx context.Context, entry dataset.Entry) (*dataset.Table, error) {
	var (
		table *dataset.Table
		err   error
	)
	if entry.YearPrefix != "" {
		table, err = s.loader.LoadYearRange(ctx, s.cfg.DatasetsDir, entry.YearPrefix, entry.FirstYear, entry.LastYear)
	} else {
		table, err = s.loader.Load(ctx, s.resolveSource(entry.Source))
	}
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", entry.Name, err)
	}

	cleaned, err := dataset.Clean(table, entry.Spec)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", entry.Name, err)
	}
	return cleaned, nil
}

// resolveSource turns a registry source into a loadable path or URL.
func (s *Store) resolveSource(source string) string {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return source
	}
	if s.cfg.BaseURL != "" {
		return strings.TrimSuffix(s.cfg.BaseURL, "/") + "/" + source
	}
	return filepath.Join(s.cfg.DatasetsDir, source)
}

// Get returns the cleaned table for a dataset. An unknown name yields
// ErrUnknownDataset; a dataset whose load failed yields that load error.
func (s *Store) Get(name string) (*dataset.Table, error) {
	entry, ok := s.entry(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, name)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, fmt.Errorf("dataset %s: %w", entry.Name, dataset.ErrDatasetUnavailable)
	}
	if err, failed := s.current.failures[name]; failed {
		return nil, err
	}
	table, ok := s.current.tables[name]
	if !ok {
		return nil, fmt.Errorf("dataset %s: %w", entry.Name, dataset.ErrDatasetUnavailable)
	}
	return table, nil
}

// Entry returns the registry entry for a dataset name.
func (s *Store) Entry(name string) (dataset.Entry, error) {
	entry, ok := s.entry(name)
	if !ok {
		return dataset.Entry{}, fmt.Errorf("%w: %s", ErrUnknownDataset, name)
	}
	return entry, nil
}

func (s *Store) entry(name string) (dataset.Entry, bool) {
	for _, e := range s.registry {
		if e.Name == name {
			return e, true
		}
	}
	return dataset.Entry{}, false
}

// Status reports the load outcome of every registered dataset.
func (s *Store) Status() map[string]DatasetStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := make(map[string]DatasetStatus, len(s.registry))
	for _, e := range s.registry {
		if s.current == nil {
			status[e.Name] = DatasetStatus{Error: "not loaded"}
			continue
		}
		if err, failed := s.current.failures[e.Name]; failed {
			status[e.Name] = DatasetStatus{Error: err.Error()}
			continue
		}
		if table, ok := s.current.tables[e.Name]; ok {
			status[e.Name] = DatasetStatus{Loaded: true, Rows: table.Len()}
			continue
		}
		status[e.Name] = DatasetStatus{Error: "not loaded"}
	}
	return status
}

// Ready reports whether every registered dataset loaded successfully.
func (s *Store) Ready() bool {
	for _, st := range s.Status() {
		if !st.Loaded {
			return false
		}
	}
	return true
}

// LoadedAt returns the time of the last successful snapshot swap.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return time.Time{}
	}
	return s.current.loadedAt
}

func tableLen(t *dataset.Table) int {
	if t == nil {
		return 0
	}
	return t.Len()
}
