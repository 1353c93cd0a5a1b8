package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileLogger appends plain-text log lines for a run to a single file.
// Each run starts with a header carrying its run ID.
type FileLogger struct {
	path     string
	file     *os.File
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger opens (or creates) path for appending and writes the run header.
// The parent directory is created if needed.
func NewFileLogger(path, logLevel, runID string) (*FileLogger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	fl := &FileLogger{
		path:     path,
		file:     file,
		logLevel: normalizeLogLevel(logLevel),
	}

	fl.write(fmt.Sprintf("=== nmpatch run %s ===\n", runID))
	fl.write(fmt.Sprintf("Started at: %s\n", time.Now().Format(time.RFC3339)))

	return fl, nil
}

// Path returns the log file path.
func (fl *FileLogger) Path() string {
	return fl.path
}

func (fl *FileLogger) LogTrace(message string) { fl.logWithLevel("TRACE", message) }
func (fl *FileLogger) LogDebug(message string) { fl.logWithLevel("DEBUG", message) }
func (fl *FileLogger) LogInfo(message string)  { fl.logWithLevel("INFO", message) }
func (fl *FileLogger) LogWarn(message string)  { fl.logWithLevel("WARN", message) }
func (fl *FileLogger) LogError(message string) { fl.logWithLevel("ERROR", message) }

func (fl *FileLogger) logWithLevel(level, message string) {
	if !shouldLog(fl.logLevel, level) {
		return
	}
	fl.write(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// Close writes the footer and closes the file. Safe to call more than once.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.file == nil {
		return nil
	}
	fmt.Fprintf(fl.file, "Finished at: %s\n\n", time.Now().Format(time.RFC3339))
	err := fl.file.Close()
	fl.file = nil
	return err
}

func (fl *FileLogger) write(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.file == nil {
		return
	}
	fl.file.WriteString(message)
}
