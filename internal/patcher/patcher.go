package patcher

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrison/nmpatch/internal/filelock"
)

// ErrUnpatched is returned by the check command when targets still lack the marker.
var ErrUnpatched = errors.New("files without the type-check marker found")

// FileError describes a read or write failure on a single target.
type FileError struct {
	Path string // Target file
	Op   string // "read" or "write"
	Err  error  // Underlying error
}

// Error implements the error interface for FileError.
func (e *FileError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *FileError) Unwrap() error {
	return e.Err
}

// HasMarker reports whether content begins with marker. The check is a
// literal byte prefix match.
func HasMarker(content []byte, marker string) bool {
	return bytes.HasPrefix(content, []byte(marker))
}

// CheckFile reports whether path still needs the marker. Nothing is written.
func CheckFile(path, marker string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, &FileError{Path: path, Op: "read", Err: err}
	}
	return !HasMarker(content, marker), nil
}

// PatchFile prepends marker to path unless the file already starts with it.
// It returns true when the file was rewritten. The original file mode is kept
// and symlinked targets are rewritten at their destination.
func PatchFile(path, marker string) (bool, error) {
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false, &FileError{Path: path, Op: "read", Err: err}
	}

	info, err := os.Stat(realPath)
	if err != nil {
		return false, &FileError{Path: path, Op: "read", Err: err}
	}

	content, err := os.ReadFile(realPath)
	if err != nil {
		return false, &FileError{Path: path, Op: "read", Err: err}
	}

	if HasMarker(content, marker) {
		return false, nil
	}

	patched := make([]byte, 0, len(marker)+len(content))
	patched = append(patched, marker...)
	patched = append(patched, content...)

	if err := filelock.AtomicWrite(realPath, patched, info.Mode()); err != nil {
		return false, &FileError{Path: path, Op: "write", Err: err}
	}

	return true, nil
}
