package engineobs

import (
	"context"
	"time"

	"stock-dashboard/internal/interfaces"
	"stock-dashboard/internal/logger"
	"stock-dashboard/internal/metrics"
	"stock-dashboard/internal/trace"
	"stock-dashboard/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Filter(ctx context.Context, t *types.Table, spec types.FilterSpec) *types.View {
	ctx, span := trace.StartSpan(ctx, "engine.Filter")
	defer span.End()

	view := oe.engine.Filter(ctx, t, spec)

	logger.DebugSkip(ctx, 1, "View filtered",
		"tickers", len(view.Tickers),
		"start", spec.Start.String(),
		"end", spec.End.String(),
		"rows", len(view.Records),
	)
	return view
}

func (oe *observableEngine) Pivot(ctx context.Context, v *types.View) *types.Matrix {
	ctx, span := trace.StartSpan(ctx, "engine.Pivot")
	defer span.End()

	m := oe.engine.Pivot(ctx, v)

	logger.DebugSkip(ctx, 1, "View pivoted",
		"dates", len(m.Dates),
		"columns", len(m.Tickers),
	)
	return m
}

func (oe *observableEngine) Metrics(ctx context.Context, v *types.View) []types.Metric {
	ctx, span := trace.StartSpan(ctx, "engine.Metrics")
	defer span.End()

	ms := oe.engine.Metrics(ctx, v)
	for _, m := range ms {
		if !m.Available {
			logger.InfoSkip(ctx, 1, "Metric unavailable",
				"ticker", m.Ticker,
				"reason", m.Reason,
			)
		}
	}
	return ms
}

func (oe *observableEngine) Query(ctx context.Context, t *types.Table, spec types.FilterSpec) *types.Result {
	ctx, span := trace.StartSpan(ctx, "engine.Query")
	defer span.End()

	start := time.Now()
	result := oe.engine.Query(ctx, t, spec)
	elapsed := time.Since(start)
	metrics.RecordQueryDuration(elapsed)

	if result.Empty() {
		logger.InfoSkip(ctx, 1, "No data found for the selected criteria",
			"tickers", spec.Tickers,
			"start", spec.Start.String(),
			"end", spec.End.String(),
		)
		return result
	}

	logger.InfoSkip(ctx, 1, "Query completed",
		"rows", len(result.View.Records),
		"tickers", len(result.View.Tickers),
		"dates", len(result.Matrix.Dates),
		"duration_ms", elapsed.Milliseconds(),
	)
	return result
}
