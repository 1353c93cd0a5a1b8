// Package patcher prepends a type-check suppression marker to dependency sources.
//
// PatchFile handles one file: it reads the content and, unless it already
// begins with the marker, atomically rewrites it as marker + content. The
// marker prefix is the only record of a previous run, so running twice is
// harmless and the second run reports zero patched files.
//
// Run resolves the targets described by a config.Config and patches them,
// one file at a time by default. With Workers > 1 files are processed
// concurrently; the patched count and the files it covers do not change.
//
// Error policy: by default the first failing file aborts the run and files
// written before it keep their marker. With ContinueOnError every failure is
// collected in Result.Failed and Run returns a nil error.
package patcher
