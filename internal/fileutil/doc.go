// Package fileutil resolves the set of files a patch run operates on.
//
// Two strategies implement the Resolver interface:
//
//   - WalkResolver recursively walks a root directory, skipping every entry
//     whose name starts with "." (and everything below it), and yields files
//     whose name ends with the configured extension.
//   - GlobResolver expands a doublestar pattern such as
//     "node_modules/**/*.ts" against the filesystem.
//
// Both strategies drop paths matched by an ignore pattern and return
// absolute, sorted, de-duplicated paths so repeated runs against an
// unchanged tree see the same order.
//
// # Usage
//
//	r, err := fileutil.NewResolver(fileutil.ModeWalk, "./node_modules/", ".ts", nil)
//	if err != nil {
//	    return err
//	}
//	files, err := r.Resolve(ctx)
//
// A root or pattern that matches nothing is not an error: Resolve returns an
// empty slice. A root that cannot be read is reported as *ResolutionError and
// aborts the run; there is no partial result.
package fileutil
