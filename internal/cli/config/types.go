// Package config provides configuration management for the rulecraft CLI.
//
// Values are layered with koanf: built-in defaults, then rulecraft.yaml,
// then RULECRAFT_* environment variables, then explicitly set flags.
package config

import (
	"time"

	"github.com/leapstack-labs/rulecraft/pkg/adapt"
	"github.com/leapstack-labs/rulecraft/pkg/signature"
)

// CacheConfig controls the signature cache.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	Path    string        `koanf:"path"`
	MaxAge  time.Duration `koanf:"max_age"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// Config holds all CLI configuration options.
type Config struct {
	ProjectDir      string            `koanf:"project_dir"`
	RulesDir        string            `koanf:"rules_dir"`
	OutputDir       string            `koanf:"output_dir"`
	Platforms       []string          `koanf:"platforms"`
	PlatformFiles   []string          `koanf:"platform_files"`
	CustomPlatforms []adapt.Platform  `koanf:"custom_platforms"`
	IgnoreDirs      []string          `koanf:"ignore_dirs"`
	MaxFileSize     int64             `koanf:"max_file_size"`
	MaxFiles        int               `koanf:"max_files"`
	SampleSize      int               `koanf:"sample_size"`
	MinConfidence   float64           `koanf:"min_confidence"`
	ModulePath      string            `koanf:"module_path"`
	Aliases         map[string]string `koanf:"aliases"`
	Stack           signature.Stack   `koanf:"stack"`
	StrictRules     bool              `koanf:"strict_rules"`
	Cache           CacheConfig       `koanf:"cache"`
	Watch           WatchConfig       `koanf:"watch"`
	OutputFormat    string            `koanf:"output"`
	Verbose         bool              `koanf:"verbose"`
	DryRun          bool              `koanf:"dry_run"`
}

// CachePath returns the cache database path, or "" when caching is off.
func (c *Config) CachePath() string {
	if !c.Cache.Enabled {
		return ""
	}
	return c.Cache.Path
}

// Default configuration values.
const (
	DefaultRulesDir      = "rules"
	DefaultOutputDir     = "."
	DefaultCacheFile     = ".rulecraft/cache.db"
	DefaultCacheMaxAge   = 30 * 24 * time.Hour
	DefaultWatchDebounce = 300 * time.Millisecond
	DefaultOutput        = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// OutputFormats lists the accepted values of the output key.
var OutputFormats = []string{"auto", "text", "markdown", "json"}
