package fileutil

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ignoreMatcher tests paths against doublestar exclusion patterns.
// Patterns that fail to parse never match.
type ignoreMatcher struct {
	patterns []string
}

func newIgnoreMatcher(patterns []string) *ignoreMatcher {
	normalized := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		normalized = append(normalized, filepath.ToSlash(p))
	}
	return &ignoreMatcher{patterns: normalized}
}

// Match reports whether any candidate form of a path is excluded.
// Callers pass the base-relative path and the path as it was produced.
func (m *ignoreMatcher) Match(candidates ...string) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		c = filepath.ToSlash(c)
		for _, pattern := range m.patterns {
			if ok, err := doublestar.Match(pattern, c); err == nil && ok {
				return true
			}
		}
	}
	return false
}
