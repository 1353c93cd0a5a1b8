package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/nmpatch/internal/fileutil"
	"github.com/harrison/nmpatch/internal/logger"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultWalkRoot is the directory scanned in walk mode.
	DefaultWalkRoot = "./node_modules/"
	// DefaultGlobPattern is the pattern expanded in glob mode.
	DefaultGlobPattern = "node_modules/**/*.ts"
	// DefaultExtension is the file suffix patched in walk mode.
	DefaultExtension = ".ts"
	// DefaultMarker is prepended to every unpatched file.
	DefaultMarker = "// @ts-nocheck\n"
	// FileName is the config file looked up in the working directory.
	FileName = ".nmpatch.yaml"
)

// Config represents the options of a patch run.
// It is built once (defaults, file, flags) and not modified afterwards.
type Config struct {
	// Path is the walk root or glob pattern. Empty selects the mode default.
	Path string `yaml:"path"`

	// Mode selects target resolution: "walk" or "glob"
	Mode string `yaml:"mode"`

	// Extension is the file name suffix matched in walk mode
	Extension string `yaml:"extension"`

	// Ignore lists doublestar patterns excluded from the target set
	Ignore []string `yaml:"ignore"`

	// Marker is the literal text prepended to unpatched files
	Marker string `yaml:"marker"`

	// Quiet suppresses the start and end lines
	Quiet bool `yaml:"quiet"`

	// Workers is the number of files processed at once (1 = sequential)
	Workers int `yaml:"workers"`

	// ContinueOnError collects per-file failures instead of aborting the run
	ContinueOnError bool `yaml:"continue_on_error"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogFile receives a copy of the run's log lines when set
	LogFile string `yaml:"log_file"`

	// Lock takes an exclusive advisory lock on the target base for the run
	Lock bool `yaml:"lock"`
}

// DefaultConfig returns a Config with the stock defaults
func DefaultConfig() *Config {
	return &Config{
		Path:            "",
		Mode:            fileutil.ModeWalk,
		Extension:       DefaultExtension,
		Ignore:          nil,
		Marker:          DefaultMarker,
		Quiet:           false,
		Workers:         1,
		ContinueOnError: false,
		LogLevel:        "info",
		LogFile:         "",
		Lock:            true,
	}
}

// Target returns the configured path, or the default for the current mode.
func (c *Config) Target() string {
	if c.Path != "" {
		return c.Path
	}
	if c.Mode == fileutil.ModeGlob {
		return DefaultGlobPattern
	}
	return DefaultWalkRoot
}

// NewResolver builds the target resolver described by the configuration.
func (c *Config) NewResolver() (fileutil.Resolver, error) {
	return fileutil.NewResolver(c.Mode, c.Target(), c.Extension, c.Ignore)
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Pointer fields distinguish "absent" from an explicit zero value
	type yamlConfig struct {
		Path            *string  `yaml:"path"`
		Mode            *string  `yaml:"mode"`
		Extension       *string  `yaml:"extension"`
		Ignore          []string `yaml:"ignore"`
		Marker          *string  `yaml:"marker"`
		Quiet           *bool    `yaml:"quiet"`
		Workers         *int     `yaml:"workers"`
		ContinueOnError *bool    `yaml:"continue_on_error"`
		LogLevel        *string  `yaml:"log_level"`
		LogFile         *string  `yaml:"log_file"`
		Lock            *bool    `yaml:"lock"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.Path != nil {
		cfg.Path = *yamlCfg.Path
	}
	if yamlCfg.Mode != nil {
		cfg.Mode = strings.ToLower(strings.TrimSpace(*yamlCfg.Mode))
	}
	if yamlCfg.Extension != nil {
		cfg.Extension = *yamlCfg.Extension
	}
	if yamlCfg.Ignore != nil {
		cfg.Ignore = yamlCfg.Ignore
	}
	if yamlCfg.Marker != nil {
		cfg.Marker = *yamlCfg.Marker
	}
	if yamlCfg.Quiet != nil {
		cfg.Quiet = *yamlCfg.Quiet
	}
	if yamlCfg.Workers != nil {
		cfg.Workers = *yamlCfg.Workers
	}
	if yamlCfg.ContinueOnError != nil {
		cfg.ContinueOnError = *yamlCfg.ContinueOnError
	}
	if yamlCfg.LogLevel != nil {
		cfg.LogLevel = *yamlCfg.LogLevel
	}
	if yamlCfg.LogFile != nil {
		cfg.LogFile = *yamlCfg.LogFile
	}
	if yamlCfg.Lock != nil {
		cfg.Lock = *yamlCfg.Lock
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .nmpatch.yaml in the specified directory.
// If the file doesn't exist, returns default configuration without error.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, FileName))
}

// FlagOverrides carries CLI flag values. Nil fields were not set on the
// command line and leave the configuration untouched.
type FlagOverrides struct {
	Path            *string
	Mode            *string
	Extension       *string
	Ignore          []string
	Marker          *string
	Quiet           *bool
	Workers         *int
	ContinueOnError *bool
	LogLevel        *string
	LogFile         *string
	Lock            *bool
}

// MergeWithFlags merges CLI flags into the configuration.
// This allows CLI flags to take precedence over config file settings.
// Ignore patterns from flags are appended to those from the file.
func (c *Config) MergeWithFlags(f FlagOverrides) {
	if f.Path != nil {
		c.Path = *f.Path
	}
	if f.Mode != nil {
		c.Mode = strings.ToLower(strings.TrimSpace(*f.Mode))
	}
	if f.Extension != nil {
		c.Extension = *f.Extension
	}
	if len(f.Ignore) > 0 {
		c.Ignore = append(append([]string(nil), c.Ignore...), f.Ignore...)
	}
	if f.Marker != nil {
		c.Marker = *f.Marker
	}
	if f.Quiet != nil {
		c.Quiet = *f.Quiet
	}
	if f.Workers != nil {
		c.Workers = *f.Workers
	}
	if f.ContinueOnError != nil {
		c.ContinueOnError = *f.ContinueOnError
	}
	if f.LogLevel != nil {
		c.LogLevel = *f.LogLevel
	}
	if f.LogFile != nil {
		c.LogFile = *f.LogFile
	}
	if f.Lock != nil {
		c.Lock = *f.Lock
	}
}

// Validate validates the configuration values.
// Ignore patterns are not checked: a malformed pattern simply matches nothing.
func (c *Config) Validate() error {
	if c.Mode != fileutil.ModeWalk && c.Mode != fileutil.ModeGlob {
		return fmt.Errorf("invalid mode %q, must be one of: %s, %s", c.Mode, fileutil.ModeWalk, fileutil.ModeGlob)
	}

	if c.Mode == fileutil.ModeWalk && c.Extension == "" {
		return fmt.Errorf("extension cannot be empty in %s mode", fileutil.ModeWalk)
	}

	if c.Marker == "" {
		return fmt.Errorf("marker cannot be empty")
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}

	if !logger.IsValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: %s", c.LogLevel, strings.Join(logger.ValidLevels, ", "))
	}

	return nil
}
