package fileutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// WalkResolver recursively scans a root directory for files with a given suffix.
type WalkResolver struct {
	// Root is the directory to scan (e.g. "./node_modules/")
	Root string
	// Extension is the literal, case-sensitive file name suffix (e.g. ".ts")
	Extension string

	ignore *ignoreMatcher
}

// NewWalkResolver creates a WalkResolver. Ignore patterns are matched against
// the root-relative path and the joined path of every entry.
func NewWalkResolver(root, ext string, ignore []string) *WalkResolver {
	return &WalkResolver{
		Root:      root,
		Extension: ext,
		ignore:    newIgnoreMatcher(ignore),
	}
}

// Base returns the cleaned root directory.
func (w *WalkResolver) Base() string {
	return filepath.Clean(w.Root)
}

// Resolve walks the root and returns matching files.
// Hidden entries (leading ".") are skipped together with their descendants.
// Symlinked directories are followed; each real directory is visited once,
// which also breaks link cycles. Files keep the path they were reached by.
// Any directory read failure aborts the walk with a *ResolutionError.
func (w *WalkResolver) Resolve(ctx context.Context) ([]string, error) {
	root := w.Base()

	info, err := os.Stat(root)
	if err != nil {
		return nil, &ResolutionError{Root: w.Root, Err: err}
	}
	if !info.IsDir() {
		return nil, &ResolutionError{Root: w.Root, Err: fmt.Errorf("path is not a directory")}
	}

	realRoot, err := realDir(root)
	if err != nil {
		return nil, &ResolutionError{Root: w.Root, Err: err}
	}

	tw := &treeWalk{
		ctx:     ctx,
		w:       w,
		root:    root,
		visited: make(map[string]bool),
	}
	if err := tw.walk(root, realRoot); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ResolutionError{Root: w.Root, Err: err}
	}

	return finalize(tw.files)
}

// treeWalk holds the state of one Resolve call.
type treeWalk struct {
	ctx     context.Context
	w       *WalkResolver
	root    string
	visited map[string]bool
	files   []string
}

// walk scans the real directory base, reporting entries under dir.
func (tw *treeWalk) walk(dir, base string) error {
	return filepath.WalkDir(base, func(realPath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := tw.ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if realPath == base {
			tw.visited[realPath] = true
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		sub, _ := filepath.Rel(base, realPath)
		path := filepath.Join(dir, sub)
		rel, _ := filepath.Rel(tw.root, path)

		if d.Type()&fs.ModeSymlink != 0 {
			if target, ok := symlinkedDir(realPath); ok {
				if tw.visited[target] || tw.w.ignore.Match(rel, path) {
					return nil
				}
				return tw.walk(path, target)
			}
		}

		if d.IsDir() {
			if tw.visited[realPath] || tw.w.ignore.Match(rel, path) {
				return filepath.SkipDir
			}
			tw.visited[realPath] = true
			return nil
		}

		if !strings.HasSuffix(d.Name(), tw.w.Extension) {
			return nil
		}
		if tw.w.ignore.Match(rel, path) {
			return nil
		}

		tw.files = append(tw.files, path)
		return nil
	})
}

// symlinkedDir returns the real path of a link that resolves to a directory.
// Dangling links and links to files report false.
func symlinkedDir(link string) (string, bool) {
	target, err := realDir(link)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return target, true
}

// realDir returns the absolute, link-free form of path.
func realDir(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}
