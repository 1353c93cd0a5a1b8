// Package display renders user-facing terminal messages for patch runs.
//
// The main entry point is RefreshWarning, shown when a run patched files
// that were previously unmarked: the TypeScript language server caches
// diagnostics, so the problems view only clears after a restart.
//
//	if result.Patched > 0 {
//	    display.RefreshWarning(result.Patched, nil).Display(os.Stderr)
//	}
//
// Colors come from fatih/color and are dropped automatically when the output
// is not a terminal or NO_COLOR is set.
package display
