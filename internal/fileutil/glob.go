package fileutil

import (
	"context"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// GlobResolver expands a doublestar pattern against the filesystem.
type GlobResolver struct {
	// Pattern is a doublestar pattern such as "node_modules/**/*.ts"
	Pattern string

	ignore *ignoreMatcher
}

// NewGlobResolver creates a GlobResolver that drops matches hit by any ignore pattern.
func NewGlobResolver(pattern string, ignore []string) *GlobResolver {
	return &GlobResolver{
		Pattern: pattern,
		ignore:  newIgnoreMatcher(ignore),
	}
}

// Base returns the static directory prefix of the pattern, "." when there is none.
func (g *GlobResolver) Base() string {
	base, _ := doublestar.SplitPattern(filepath.ToSlash(g.Pattern))
	if base == "" {
		return "."
	}
	return filepath.FromSlash(base)
}

// Resolve expands the pattern, keeping regular files only.
// A pattern that matches nothing yields an empty result.
func (g *GlobResolver) Resolve(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !doublestar.ValidatePathPattern(g.Pattern) {
		return nil, &ResolutionError{Root: g.Pattern, Err: doublestar.ErrBadPattern}
	}

	matches, err := doublestar.FilepathGlob(g.Pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, &ResolutionError{Root: g.Pattern, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base := g.Base()
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		rel, relErr := filepath.Rel(base, m)
		if relErr != nil {
			rel = ""
		}
		if g.ignore.Match(rel, m) {
			continue
		}
		files = append(files, m)
	}

	return finalize(files)
}
