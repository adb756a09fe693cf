package interfaces

import "context"

// BulkSource acquires candidate files into dir and returns their paths.
type BulkSource interface {
	Name() string
	Fetch(ctx context.Context, dir string) ([]string, error)
}
