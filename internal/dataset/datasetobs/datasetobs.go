package datasetobs

import (
	"context"
	"errors"

	"stock-dashboard/internal/dataset"
	"stock-dashboard/internal/interfaces"
	"stock-dashboard/internal/logger"
	"stock-dashboard/internal/trace"
	"stock-dashboard/internal/types"
)

// observableLoader wraps a DatasetLoader with observability (logging & tracing)
type observableLoader struct {
	loader interfaces.DatasetLoader
}

var _ interfaces.DatasetLoader = (*observableLoader)(nil)

func Wrap(loader interfaces.DatasetLoader) interfaces.DatasetLoader {
	return &observableLoader{
		loader: loader,
	}
}

func (ol *observableLoader) Load(ctx context.Context, d types.Descriptor) (*types.Dataset, error) {
	op := logger.StartOperation(ctx, "dataset.Load", "path", d.Path, "source", d.Source)
	ctx = op.GetContext()

	ds, err := ol.loader.Load(ctx, d)
	if err != nil {
		var le *dataset.LoadError
		if errors.As(err, &le) && logger.IsDebugEnabled() {
			for _, s := range le.Skipped {
				logger.DebugSkip(ctx, 1, "Skipped file", "path", s.Path, "reason", s.Reason)
			}
		}
		op.EndWithError(err, "descriptor", d.String())
		return nil, err
	}

	if len(ds.Skipped) > 0 || ds.DroppedRows > 0 {
		logger.WarnSkip(ctx, 1, "Dataset loaded with rejected input",
			"path", d.Path,
			"skipped_files", len(ds.Skipped),
			"dropped_rows", ds.DroppedRows,
			"duration_ms", op.Elapsed().Milliseconds(),
		)
	}

	op.End("rows", ds.Table.Len(), "files", len(ds.Files), "skipped", len(ds.Skipped))
	return ds, nil
}

func (ol *observableLoader) Invalidate(d types.Descriptor) bool {
	ctx, span := trace.StartSpan(context.Background(), "dataset.Invalidate")
	defer span.End()

	dropped := ol.loader.Invalidate(d)
	logger.InfoSkip(ctx, 1, "Dataset cache entry invalidated", "descriptor", d.String(), "was_cached", dropped)
	return dropped
}

func (ol *observableLoader) ClearCache() {
	ctx, span := trace.StartSpan(context.Background(), "dataset.ClearCache")
	defer span.End()

	ol.loader.ClearCache()
	logger.InfoSkip(ctx, 1, "Dataset cache cleared")
}
