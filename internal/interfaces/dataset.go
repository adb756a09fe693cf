package interfaces

import (
	"context"

	"stock-dashboard/internal/types"
)

type DatasetLoader interface {
	Load(ctx context.Context, d types.Descriptor) (*types.Dataset, error)
	Invalidate(d types.Descriptor) bool
	ClearCache()
}
