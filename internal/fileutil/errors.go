package fileutil

import "fmt"

// ResolutionError reports that the target root or pattern could not be enumerated.
type ResolutionError struct {
	Root string // Directory root or glob pattern being resolved
	Err  error  // Underlying filesystem or pattern error
}

// Error implements the error interface for ResolutionError.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve targets in %s: %v", e.Root, e.Err)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}
