// Package filelock provides the advisory run lock and the write-new-then-rename
// primitive used when patching files in place.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockFileName is the lock file created in the resolution base directory.
// The leading "." keeps it out of directory walks.
const LockFileName = ".nmpatch.lock"

// DefaultRetryDelay is how often Acquire polls a lock held by another process.
const DefaultRetryDelay = 100 * time.Millisecond

// ErrLocked is returned by TryAcquire when another run holds the lock.
var ErrLocked = errors.New("another patch run holds the lock")

// RunLock serializes patch runs over the same directory across processes.
type RunLock struct {
	flock *flock.Flock
	path  string
}

// NewRunLock creates a lock for the given base directory.
func NewRunLock(baseDir string) *RunLock {
	path := filepath.Join(baseDir, LockFileName)
	return &RunLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Path returns the lock file path.
func (l *RunLock) Path() string {
	return l.path
}

// Acquire blocks until the lock is held or ctx is done.
func (l *RunLock) Acquire(ctx context.Context) error {
	locked, err := l.flock.TryLockContext(ctx, DefaultRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, ErrLocked)
	}
	return nil
}

// TryAcquire takes the lock without blocking. It returns ErrLocked when the
// lock is held elsewhere.
func (l *RunLock) TryAcquire() error {
	locked, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to try lock on %s: %w", l.path, err)
	}
	if !locked {
		return ErrLocked
	}
	return nil
}

// Release drops the lock. The lock file stays on disk.
func (l *RunLock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// AtomicWrite replaces path with data using a temp file and rename, so readers
// see either the old or the new content. perm is applied to the new file;
// callers patching an existing file pass its current mode.
//
// If the operation fails at any point, the original file remains unchanged.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	// Temp file must live on the same filesystem for rename to be atomic
	tempFile, err := os.CreateTemp(dir, ".nmpatch-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tempPath, perm.Perm()); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	// Renamed; nothing left to clean up
	tempFile = nil

	return nil
}
