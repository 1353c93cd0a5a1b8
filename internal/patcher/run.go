package patcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/nmpatch/internal/config"
	"github.com/harrison/nmpatch/internal/filelock"
	"github.com/harrison/nmpatch/internal/logger"
)

// Result summarizes a run.
type Result struct {
	// RunID identifies the run in log output
	RunID string
	// Target is the walk root or glob pattern that was resolved
	Target string
	// Scanned is the number of resolved target files
	Scanned int
	// Patched is the number of files modified by this run
	// (for Check: the number of files that would be modified)
	Patched int
	// Files lists the patched files, sorted
	Files []string
	// Failed collects per-file errors when ContinueOnError is set
	Failed []*FileError
	// Duration is the wall time of the run
	Duration time.Duration
}

type runIDKey struct{}

// WithRunID returns a context carrying the ID that Run reports for its run.
// Callers use it to tag their own output (such as a log file header) with
// the same ID.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// runIDFromContext returns the run ID stored in ctx, or a fresh one.
func runIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// action processes one target and reports whether it counts toward Patched.
type action func(path, marker string) (bool, error)

// Run patches every target described by cfg. log may be nil.
func Run(ctx context.Context, cfg *config.Config, log logger.Logger) (*Result, error) {
	return newRunner(cfg, log, false).run(ctx)
}

// Check resolves the targets and counts those still missing the marker.
// It never writes and never takes the run lock.
func Check(ctx context.Context, cfg *config.Config, log logger.Logger) (*Result, error) {
	return newRunner(cfg, log, true).run(ctx)
}

type runner struct {
	cfg    *config.Config
	log    logger.Logger
	dryRun bool
	apply  action
}

func newRunner(cfg *config.Config, log logger.Logger, dryRun bool) *runner {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	r := &runner{cfg: cfg, log: log, dryRun: dryRun, apply: PatchFile}
	if dryRun {
		r.apply = CheckFile
	}
	return r
}

func (r *runner) run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID:  runIDFromContext(ctx),
		Target: r.cfg.Target(),
		Files:  []string{},
	}
	defer func() { result.Duration = time.Since(start) }()

	if err := r.cfg.Validate(); err != nil {
		return result, fmt.Errorf("invalid configuration: %w", err)
	}

	resolver, err := r.cfg.NewResolver()
	if err != nil {
		return result, err
	}

	r.log.LogDebug(fmt.Sprintf("Run %s: mode=%s target=%s workers=%d", result.RunID, r.cfg.Mode, result.Target, r.cfg.Workers))

	if r.cfg.Lock && !r.dryRun {
		release, err := r.acquireLock(ctx, resolver.Base())
		if err != nil {
			return result, err
		}
		defer release()
	}

	if !r.cfg.Quiet {
		if r.dryRun {
			r.log.LogInfo(fmt.Sprintf("🔍 Checking TypeScript markers in %s...", result.Target))
		} else {
			r.log.LogInfo(fmt.Sprintf("⛔ Disabling TypeScript issues in %s...", result.Target))
		}
	}

	files, err := resolver.Resolve(ctx)
	if err != nil {
		return result, err
	}
	files = withoutLockFile(files, resolver.Base())
	result.Scanned = len(files)
	r.log.LogDebug(fmt.Sprintf("Resolved %d target file(s)", len(files)))

	if r.cfg.Workers > 1 {
		err = r.processParallel(ctx, files, result)
	} else {
		err = r.processSequential(ctx, files, result)
	}

	sort.Strings(result.Files)
	result.Patched = len(result.Files)
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].Path < result.Failed[j].Path })

	if err != nil {
		return result, err
	}

	for _, fe := range result.Failed {
		r.log.LogError(fe.Error())
	}

	if result.Patched > 0 {
		if r.dryRun {
			r.log.LogWarn(fmt.Sprintf("⚠️ %d file(s) do not have the type-check marker yet", result.Patched))
		} else {
			r.log.LogWarn(fmt.Sprintf("⚠️ Found %d file(s) that were not ignored before this patch run", result.Patched))
		}
	}

	if !r.cfg.Quiet {
		if r.dryRun {
			r.log.LogInfo(fmt.Sprintf("✅ Checked %d file(s) in %s", result.Scanned, result.Target))
		} else {
			r.log.LogInfo(fmt.Sprintf("✅ Disabled TypeScript issues in %s", result.Target))
		}
	}

	return result, nil
}

// acquireLock takes the run lock in base. A missing base is left for the
// resolver to report.
func (r *runner) acquireLock(ctx context.Context, base string) (func(), error) {
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		return func() {}, nil
	}

	lock := filelock.NewRunLock(base)
	r.log.LogTrace(fmt.Sprintf("Acquiring run lock %s", lock.Path()))
	if err := lock.Acquire(ctx); err != nil {
		return nil, err
	}

	return func() {
		if err := lock.Release(); err != nil {
			r.log.LogWarn(err.Error())
		}
	}, nil
}

// withoutLockFile drops the run lock from the targets. Glob patterns such as
// "dir/**" match dotfiles, and the lock may have been created by this run.
func withoutLockFile(files []string, base string) []string {
	abs, err := filepath.Abs(base)
	if err != nil {
		return files
	}
	lockPath := filelock.NewRunLock(abs).Path()

	out := files[:0]
	for _, f := range files {
		if f != lockPath {
			out = append(out, f)
		}
	}
	return out
}

// handle applies the action to one file and records the outcome.
// It returns a non-nil error only when the run must abort.
func (r *runner) handle(path string, result *Result, mu *sync.Mutex) error {
	changed, err := r.apply(path, r.cfg.Marker)
	if err != nil {
		var fe *FileError
		if !errors.As(err, &fe) {
			fe = &FileError{Path: path, Op: "read", Err: err}
		}
		if !r.cfg.ContinueOnError {
			return fe
		}
		mu.Lock()
		result.Failed = append(result.Failed, fe)
		mu.Unlock()
		return nil
	}

	if changed {
		if r.dryRun {
			r.log.LogDebug(fmt.Sprintf("Needs marker: %s", path))
		} else {
			r.log.LogDebug(fmt.Sprintf("Patched %s", path))
		}
		mu.Lock()
		result.Files = append(result.Files, path)
		mu.Unlock()
	} else {
		r.log.LogTrace(fmt.Sprintf("Already marked: %s", path))
	}
	return nil
}

// processSequential handles files one after another in resolution order.
func (r *runner) processSequential(ctx context.Context, files []string, result *Result) error {
	var mu sync.Mutex
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.handle(path, result, &mu); err != nil {
			return err
		}
	}
	return nil
}

// processParallel handles files with at most cfg.Workers in flight.
// The first fatal error cancels the files not yet started.
func (r *runner) processParallel(ctx context.Context, files []string, result *Result) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	semaphore := make(chan struct{}, r.cfg.Workers)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		errOnce  sync.Once
		firstErr error
	)

	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for _, path := range files {
		// Check context before acquiring a slot to avoid blocking on a cancelled run
		select {
		case <-ctx.Done():
			goto launchComplete
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				return
			}
			if err := r.handle(path, result, &mu); err != nil {
				fail(err)
			}
		}(path)
	}

launchComplete:
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	// Cancellation by the caller, not by a failed file
	return ctx.Err()
}
