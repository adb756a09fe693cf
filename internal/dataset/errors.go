package dataset

import (
	"errors"
	"fmt"

	"stock-dashboard/internal/types"
)

// ErrNoValidData means no candidate file could be ingested.
var ErrNoValidData = errors.New("no valid data found")

var (
	errEmptyFile     = errors.New("file is empty")
	errMissingDate   = errors.New("no recognizable date column")
	errMissingClose  = errors.New("no recognizable close column")
	errUnknownSource = errors.New("unknown bulk source")
)

// LoadError is returned by Load when no file was accepted. It always
// matches ErrNoValidData with errors.Is, and also the underlying cause when
// the source itself could not be read.
type LoadError struct {
	Descriptor types.Descriptor
	Skipped    []types.SkippedFile
	Err        error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Descriptor.Path, ErrNoValidData, e.Err)
	}
	return fmt.Sprintf("load %s: %s (%d files skipped)", e.Descriptor.Path, ErrNoValidData, len(e.Skipped))
}

func (e *LoadError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrNoValidData, e.Err}
	}
	return []error{ErrNoValidData}
}
