package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/nmpatch/internal/config"
	"github.com/harrison/nmpatch/internal/logger"
	"github.com/spf13/cobra"
)

// addRunFlags registers the options shared by every command that resolves targets.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("config", "", "Path to config file (default: ./"+config.FileName+")")
	f.String("path", "", "Directory to walk, or glob pattern with --mode glob (default: ./node_modules/)")
	f.String("mode", "", "Target resolution: walk or glob")
	f.String("ext", "", "File suffix patched in walk mode (default: .ts)")
	f.StringArray("ignore", nil, "Glob pattern to exclude (repeatable)")
	f.String("marker", "", `Line prepended to files; \n and \t escapes are expanded and a trailing newline is added (default: "// @ts-nocheck")`)
	f.BoolP("quiet", "q", false, "Suppress start and end messages")
	f.Int("workers", 0, "Number of files processed concurrently (default: 1)")
	f.Bool("continue-on-error", false, "Report failing files at the end instead of aborting")
	f.String("log-level", "", "Log verbosity: trace, debug, info, warn, error")
	f.String("log-file", "", "Also append log lines to this file")
	f.Bool("no-lock", false, "Do not take the run lock")
}

// loadRunConfig builds the run configuration: defaults, then the config file,
// then flags, then the optional positional path.
func loadRunConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		if _, statErr := os.Stat(configPath); statErr != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, statErr)
		}
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	var overrides config.FlagOverrides

	stringFlag := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}

	overrides.Path = stringFlag("path")
	overrides.Mode = stringFlag("mode")
	overrides.Extension = stringFlag("ext")
	if marker := stringFlag("marker"); marker != nil {
		m := markerLine(*marker)
		overrides.Marker = &m
	}
	overrides.LogLevel = stringFlag("log-level")
	overrides.LogFile = stringFlag("log-file")

	if flags.Changed("ignore") {
		overrides.Ignore, _ = flags.GetStringArray("ignore")
	}
	if flags.Changed("quiet") {
		quiet, _ := flags.GetBool("quiet")
		overrides.Quiet = &quiet
	}
	if flags.Changed("workers") {
		workers, _ := flags.GetInt("workers")
		overrides.Workers = &workers
	}
	if flags.Changed("continue-on-error") {
		cont, _ := flags.GetBool("continue-on-error")
		overrides.ContinueOnError = &cont
	}
	if flags.Changed("no-lock") {
		noLock, _ := flags.GetBool("no-lock")
		lock := !noLock
		overrides.Lock = &lock
	}

	if len(args) > 0 {
		if overrides.Path != nil {
			return nil, fmt.Errorf("cannot use both a path argument and --path")
		}
		overrides.Path = &args[0]
	}

	cfg.MergeWithFlags(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var markerEscapes = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\r`, "\r", `\t`, "\t")

// markerLine expands \n, \r, \t and \\ in a --marker value and makes sure
// the result ends in a line break.
func markerLine(value string) string {
	if value == "" {
		return value
	}
	m := markerEscapes.Replace(value)
	if !strings.HasSuffix(m, "\n") {
		m += "\n"
	}
	return m
}

// newRunLogger returns the console logger, fanned out to a file logger when
// log_file is set. The returned func closes the file.
func newRunLogger(out io.Writer, cfg *config.Config, runID string) (logger.Logger, func(), error) {
	console := logger.NewConsoleLogger(out, cfg.LogLevel)
	if cfg.LogFile == "" {
		return console, func() {}, nil
	}

	fileLog, err := logger.NewFileLogger(cfg.LogFile, cfg.LogLevel, runID)
	if err != nil {
		return nil, nil, err
	}
	return logger.NewMultiLogger(console, fileLog), func() { fileLog.Close() }, nil
}

// relativeToCwd shortens absolute paths for display.
func relativeToCwd(paths []string) []string {
	wd, err := os.Getwd()
	if err != nil {
		return paths
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		rel, err := filepath.Rel(wd, p)
		if err != nil {
			out[i] = p
		} else {
			out[i] = rel
		}
	}
	return out
}
