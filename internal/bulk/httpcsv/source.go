// Package httpcsv downloads CSV price files over HTTP.
package httpcsv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"stock-dashboard/internal/bulk"
	"stock-dashboard/internal/cache"
	"stock-dashboard/internal/logger"
	"stock-dashboard/internal/metrics"
)

const sourceName = "http"

// Target is one file to download. Name becomes the file name and, for
// files without a ticker column, the ticker.
type Target struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Source downloads every target into the load directory. Bodies are kept in
// an on-disk cache so repeated fetches within the TTL skip the network.
type Source struct {
	client  *Client
	cache   *cache.FileCache
	targets []Target
	retry   *RetryConfig
}

var _ bulk.Source = (*Source)(nil)

// New creates an HTTP source. fc may be nil to disable the download cache.
func New(client *Client, fc *cache.FileCache, targets []Target, retry *RetryConfig) *Source {
	if client == nil {
		client = NewClient()
	}
	return &Source{
		client:  client,
		cache:   fc,
		targets: targets,
		retry:   retry,
	}
}

func (s *Source) Name() string { return sourceName }

// Fetch downloads the targets. A failed target is logged and left out; the
// call fails only when nothing could be downloaded.
func (s *Source) Fetch(ctx context.Context, dir string) ([]string, error) {
	paths := make([]string, 0, len(s.targets))
	var lastErr error

	for _, t := range s.targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := s.download(ctx, t.URL)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", t.URL, err)
			logger.ErrorWithErr(ctx, "Download failed", err, "name", t.Name, "url", t.URL)
			continue
		}

		path := filepath.Join(dir, bulk.FileName(t.Name))
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}

	metrics.BulkFiles(sourceName, len(paths))
	if len(paths) == 0 && lastErr != nil {
		return nil, lastErr
	}

	logger.Info(ctx, "HTTP download completed", "targets", len(s.targets), "files", len(paths))
	return paths, nil
}

func (s *Source) download(ctx context.Context, url string) ([]byte, error) {
	fetch := func() ([]byte, error) {
		return s.client.GetWithRetry(ctx, url, s.retry)
	}
	if s.cache == nil {
		return fetch()
	}
	return s.cache.GetOrFetch(url, fetch)
}
