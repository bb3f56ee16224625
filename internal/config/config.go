package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/prettymuchbryce/testwire/internal/pathutil"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = ".testwire.yaml"

// Config represents the top-level configuration.
type Config struct {
	SourceRoot string        `yaml:"source_root"`
	Cache      CacheConfig   `yaml:"cache"`
	Search     SearchConfig  `yaml:"search"`
	Report     ReportConfig  `yaml:"report"`
	Logging    LoggingConfig `yaml:"logging"`
}

// CacheConfig configures the location cache.
type CacheConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
	// ReadOnly keeps new entries in memory for this run only.
	ReadOnly bool `yaml:"read_only"`
}

// SearchConfig configures the fallback source search.
type SearchConfig struct {
	Include []string      `yaml:"include"`
	Exclude []string      `yaml:"exclude"`
	Timeout time.Duration `yaml:"timeout"`
}

// ReportConfig configures what is written to stdout.
type ReportConfig struct {
	Structured          bool     `yaml:"structured"`
	PrintFailureSummary bool     `yaml:"print_failure_summary"`
	ColorFrames         bool     `yaml:"color_frames"`
	TraceFilters        []string `yaml:"trace_filters"`
	TimeFormat          string   `yaml:"time_format"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		SourceRoot: "/app",
		Cache: CacheConfig{
			Path:    "/cache/bundle/minitest_cache_file",
			Enabled: true,
		},
		Search: SearchConfig{
			Include: []string{"**/*.go"},
			Exclude: []string{"vendor", ".git", "node_modules", "testdata"},
			Timeout: 10 * time.Second,
		},
		Report: ReportConfig{
			Structured:   true,
			ColorFrames:  true,
			TraceFilters: []string{"/cache/", "/src/testing/", "/src/runtime/"},
			TimeFormat:   "%Y-%m-%d %H:%M:%S",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load reads and parses a configuration file using the real filesystem.
func Load(path string) (*Config, error) {
	return LoadWithFs(path, afero.NewOsFs())
}

// LoadWithFs reads and parses a configuration file using the provided filesystem.
// Keys missing from the file keep their default values.
func LoadWithFs(path string, afs afero.Fs) (*Config, error) {
	expanded := pathutil.ExpandTilde(path)

	data, err := afero.ReadFile(afs, expanded)
	if err != nil {
		return nil, err
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", expanded, err)
	}
	config.Cache.Path = pathutil.Expand(config.Cache.Path)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", expanded, err)
	}
	return config, nil
}

// LoadFirst loads the first of paths that exists. With none present it
// returns the defaults.
func LoadFirst(afs afero.Fs, paths ...string) (*Config, error) {
	for _, path := range paths {
		cfg, err := LoadWithFs(path, afs)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return Default(), nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.SourceRoot == "" {
		return errors.New("source_root must not be empty")
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		return errors.New("cache.path must be set when the cache is enabled")
	}
	for _, p := range append(append([]string{}, c.Search.Include...), c.Search.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	if c.Search.Timeout < 0 {
		return errors.New("search.timeout must not be negative")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level %q", c.Logging.Level)
	}
	return nil
}

// AbsSourceRoot returns the source root as an absolute path.
func (c *Config) AbsSourceRoot() (string, error) {
	return filepath.Abs(pathutil.Expand(c.SourceRoot))
}
