package engine

import (
	"context"

	"stock-dashboard/internal/interfaces"
	"stock-dashboard/internal/types"
)

// Engine is the stateless filter-aggregate engine. The table and filter
// spec are passed on every call; nothing is retained between calls.
type Engine struct{}

var _ interfaces.Engine = (*Engine)(nil)

func New() interfaces.Engine {
	return &Engine{}
}

func (e *Engine) Filter(_ context.Context, t *types.Table, spec types.FilterSpec) *types.View {
	return Filter(t, spec)
}

func (e *Engine) Pivot(_ context.Context, v *types.View) *types.Matrix {
	return Pivot(v)
}

func (e *Engine) Metrics(_ context.Context, v *types.View) []types.Metric {
	return Metrics(v)
}

func (e *Engine) Query(_ context.Context, t *types.Table, spec types.FilterSpec) *types.Result {
	return Query(t, spec)
}

// Query filters t and derives the chart matrix and metrics from the view.
func Query(t *types.Table, spec types.FilterSpec) *types.Result {
	view := Filter(t, spec)
	return &types.Result{
		View:    view,
		Matrix:  Pivot(view),
		Metrics: Metrics(view),
	}
}
