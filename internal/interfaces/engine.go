package interfaces

import (
	"context"

	"stock-dashboard/internal/types"
)

// Engine filters and aggregates a loaded table. Implementations must not
// block or mutate the table; ctx only carries trace and log correlation.
type Engine interface {
	Filter(ctx context.Context, t *types.Table, spec types.FilterSpec) *types.View
	Pivot(ctx context.Context, v *types.View) *types.Matrix
	Metrics(ctx context.Context, v *types.View) []types.Metric
	Query(ctx context.Context, t *types.Table, spec types.FilterSpec) *types.Result
}
