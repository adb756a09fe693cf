package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stock-dashboard/internal/bulk"
	"stock-dashboard/internal/types"
)

// defaultExtensions are scanned when the descriptor has no pattern.
var defaultExtensions = []string{".csv", ".parquet"}

// candidates resolves the descriptor to the list of files to parse, running
// the bulk source first when one is named.
func (l *Loader) candidates(ctx context.Context, d types.Descriptor) ([]string, error) {
	if d.Source != "" {
		src, ok := l.sources[d.Source]
		if !ok {
			return nil, fmt.Errorf("%w %q", errUnknownSource, d.Source)
		}
		if err := os.MkdirAll(d.Path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create download dir %s: %w", d.Path, err)
		}
		paths, err := src.Fetch(ctx, d.Path)
		if err != nil {
			return nil, fmt.Errorf("bulk source %s: %w", d.Source, err)
		}
		return capFiles(filterByPattern(paths, d.Pattern), d.MaxFiles), nil
	}

	info, err := os.Stat(d.Path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{d.Path}, nil
	}

	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(d.Path, e.Name()))
	}
	return capFiles(filterByPattern(paths, d.Pattern), d.MaxFiles), nil
}

func filterByPattern(paths []string, pattern string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if matches(filepath.Base(p), pattern) {
			out = append(out, p)
		}
	}
	return out
}

func matches(name, pattern string) bool {
	if pattern == "" {
		ext := strings.ToLower(filepath.Ext(name))
		for _, want := range defaultExtensions {
			if ext == want {
				return true
			}
		}
		return false
	}
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}

func capFiles(paths []string, max int) []string {
	if max > 0 && len(paths) > max {
		return paths[:max]
	}
	return paths
}

// tickerFor returns the ticker used for a file without a ticker column.
func tickerFor(path string, d types.Descriptor) string {
	if d.DefaultTicker != "" {
		return d.DefaultTicker
	}
	return bulk.Symbol(path)
}
