package fileutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
)

// Resolution modes selectable from configuration.
const (
	ModeWalk = "walk"
	ModeGlob = "glob"
)

// Resolver enumerates candidate files for a patch run.
type Resolver interface {
	// Resolve returns absolute file paths in a stable, sorted order.
	Resolve(ctx context.Context) ([]string, error)
	// Base returns the directory the resolver operates under.
	Base() string
}

// NewResolver builds the resolver for mode.
// For ModeWalk, path is the root directory and ext the file name suffix.
// For ModeGlob, path is a doublestar pattern and ext is unused.
func NewResolver(mode, path, ext string, ignore []string) (Resolver, error) {
	switch mode {
	case ModeWalk, "":
		return NewWalkResolver(path, ext, ignore), nil
	case ModeGlob:
		return NewGlobResolver(path, ignore), nil
	default:
		return nil, fmt.Errorf("unknown resolution mode %q (expected %q or %q)", mode, ModeWalk, ModeGlob)
	}
}

// finalize converts paths to absolute form, then sorts and de-duplicates them.
func finalize(paths []string) ([]string, error) {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", p, err)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	sort.Strings(out)
	return out, nil
}
