// Package dataset loads price tables from CSV and Parquet files into the
// canonical schema and caches them by source descriptor.
package dataset

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"stock-dashboard/internal/cache"
	"stock-dashboard/internal/interfaces"
	"stock-dashboard/internal/logger"
	"stock-dashboard/internal/metrics"
	"stock-dashboard/internal/types"
)

// Loader loads datasets and remembers them per descriptor until the entry
// is invalidated. The cached table is shared: callers must not modify it.
type Loader struct {
	cache   *cache.Cache[string, *types.Dataset]
	sources map[string]interfaces.BulkSource
}

var _ interfaces.DatasetLoader = (*Loader)(nil)

// Option configures a Loader.
type Option func(*Loader)

// WithSource registers a bulk source under its name.
func WithSource(src interfaces.BulkSource) Option {
	return func(l *Loader) {
		l.sources[src.Name()] = src
	}
}

func New(opts ...Option) *Loader {
	l := &Loader{
		cache:   cache.New[string, *types.Dataset](),
		sources: make(map[string]interfaces.BulkSource),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key returns the cache key of a descriptor.
func Key(d types.Descriptor) string {
	return cache.MakeKey(d.String())
}

// Load returns the dataset for d, acquiring and parsing it only when no
// cached entry exists. It fails with *LoadError when no file is accepted.
func (l *Loader) Load(ctx context.Context, d types.Descriptor) (*types.Dataset, error) {
	d = d.Canonical()

	ds, hit, err := l.cache.GetOrLoad(Key(d), func() (*types.Dataset, error) {
		return l.load(ctx, d)
	})
	if err != nil {
		metrics.LoadError()
		return nil, err
	}
	if hit {
		metrics.CacheHit()
		logger.Debug(ctx, "Dataset served from cache", "descriptor", d.String())
	} else {
		metrics.CacheMiss()
	}
	return ds, nil
}

// Invalidate drops the cached entry for d.
func (l *Loader) Invalidate(d types.Descriptor) bool {
	return l.cache.Delete(Key(d.Canonical()))
}

// ClearCache drops every cached dataset.
func (l *Loader) ClearCache() {
	l.cache.Clear()
}

func (l *Loader) load(ctx context.Context, d types.Descriptor) (*types.Dataset, error) {
	start := time.Now()

	paths, err := l.candidates(ctx, d)
	if err != nil {
		return nil, &LoadError{Descriptor: d, Err: err}
	}

	ds := &types.Dataset{Descriptor: d, Files: []string{}, Skipped: []types.SkippedFile{}}
	records := []types.Record{}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, dropped, err := parseFile(p, tickerFor(p, d))
		if err != nil {
			ds.Skipped = append(ds.Skipped, types.SkippedFile{Path: p, Reason: err.Error()})
			logger.FileSkipped(ctx, p, err.Error())
			continue
		}
		if dropped > 0 {
			logger.Warn(ctx, "Rows without ticker dropped", "path", p, "dropped", dropped)
		}

		ds.Files = append(ds.Files, p)
		ds.DroppedRows += dropped
		records = append(records, rows...)
	}
	metrics.FilesSkipped(len(ds.Skipped))

	if len(ds.Files) == 0 {
		return nil, &LoadError{Descriptor: d, Skipped: ds.Skipped}
	}

	ds.Table = types.NewTable(records)
	metrics.RowsLoaded(len(records))
	metrics.RecordLoadDuration(time.Since(start))

	logger.Info(ctx, "Dataset loaded",
		"path", d.Path,
		"files", len(ds.Files),
		"skipped", len(ds.Skipped),
		"rows", len(records),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ds, nil
}

func parseFile(path, ticker string) ([]types.Record, int, error) {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return parseParquet(path, ticker)
	}
	return parseCSV(path, ticker)
}
