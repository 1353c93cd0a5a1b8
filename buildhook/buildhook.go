// Package buildhook exposes the node_modules patch as a named setup hook for
// Go build tooling.
//
// A host collects hooks in a Registry and calls RunSetup once during its setup
// phase, before it processes any sources:
//
//	reg := buildhook.NewRegistry()
//	if err := reg.Register(buildhook.New(buildhook.Options{Quiet: true}, nil)); err != nil {
//	    return err
//	}
//	if err := reg.RunSetup(ctx); err != nil {
//	    return err
//	}
//
// Setup returns only after every file has been processed, so later build
// steps always see patched sources.
package buildhook

import (
	"context"
	"fmt"
	"os"

	"github.com/harrison/nmpatch/internal/config"
	"github.com/harrison/nmpatch/internal/display"
	"github.com/harrison/nmpatch/internal/fileutil"
	"github.com/harrison/nmpatch/internal/logger"
	"github.com/harrison/nmpatch/internal/patcher"
)

// PatchHookName is the name the patch hook registers under.
const PatchHookName = "node-modules-vscode-problems-patch"

// Hook is a named callback invoked during a build tool's setup phase.
type Hook struct {
	Name  string
	Setup func(ctx context.Context) error
}

// Options configures the patch hook. Zero values select the defaults:
// walk ./node_modules/ for ".ts" files and prepend "// @ts-nocheck\n".
type Options struct {
	// Path is the walk root, or the pattern when Glob is set
	Path string
	// Glob selects pattern expansion instead of directory recursion
	Glob bool
	// Ignore lists doublestar patterns to exclude
	Ignore []string
	// Marker overrides the prepended text
	Marker string
	// Quiet suppresses the start and end lines
	Quiet bool
	// Extension overrides the ".ts" suffix matched in walk mode
	Extension string
	// Workers sets how many files are processed concurrently (default 1)
	Workers int
	// ContinueOnError reports failing files instead of aborting the run
	ContinueOnError bool
	// LogLevel filters the default console logger (default "info")
	LogLevel string
	// NoLock skips the run lock
	NoLock bool
}

func (o Options) config() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Path = o.Path
	if o.Glob {
		cfg.Mode = fileutil.ModeGlob
	}
	cfg.Ignore = o.Ignore
	if o.Marker != "" {
		cfg.Marker = o.Marker
	}
	cfg.Quiet = o.Quiet
	if o.Extension != "" {
		cfg.Extension = o.Extension
	}
	if o.Workers > 0 {
		cfg.Workers = o.Workers
	}
	cfg.ContinueOnError = o.ContinueOnError
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	cfg.Lock = !o.NoLock
	return cfg
}

// New returns the patch hook. Log output goes to log, or to stdout when nil.
func New(opts Options, log logger.Logger) Hook {
	return NewWithConfig(opts.config(), log)
}

// NewWithConfig returns the patch hook for a fully built configuration.
// config is internal to this module, so callers outside it use New.
func NewWithConfig(cfg *config.Config, log logger.Logger) Hook {
	if log == nil {
		log = logger.NewConsoleLogger(os.Stdout, cfg.LogLevel)
	}
	return Hook{
		Name: PatchHookName,
		Setup: func(ctx context.Context) error {
			result, err := patcher.Run(ctx, cfg, log)
			if err != nil {
				return err
			}
			if result.Patched > 0 {
				log.LogWarn(display.RestartHint)
			}
			return nil
		},
	}
}

// Registry holds hooks by unique name and runs them in registration order.
// The zero value is an empty registry ready to use.
type Registry struct {
	hooks []Hook
	names map[string]bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]bool)}
}

// Register adds a hook. Names must be non-empty and unique.
func (r *Registry) Register(h Hook) error {
	if h.Name == "" {
		return fmt.Errorf("hook name cannot be empty")
	}
	if h.Setup == nil {
		return fmt.Errorf("hook %q has no setup callback", h.Name)
	}
	if r.names == nil {
		r.names = make(map[string]bool)
	}
	if r.names[h.Name] {
		return fmt.Errorf("hook %q already registered", h.Name)
	}
	r.names[h.Name] = true
	r.hooks = append(r.hooks, h)
	return nil
}

// Hooks returns the registered hooks in order.
func (r *Registry) Hooks() []Hook {
	out := make([]Hook, len(r.hooks))
	copy(out, r.hooks)
	return out
}

// RunSetup invokes every hook's Setup in order, stopping at the first error.
func (r *Registry) RunSetup(ctx context.Context) error {
	for _, h := range r.hooks {
		if err := h.Setup(ctx); err != nil {
			return fmt.Errorf("hook %s: %w", h.Name, err)
		}
	}
	return nil
}
