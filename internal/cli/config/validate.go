package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(OutputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (expected one of: %s)", c.OutputFormat, strings.Join(OutputFormats, ", "))
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be between 0 and 1, got %g", c.MinConfidence)
	}
	if c.MaxFiles < 0 || c.SampleSize < 0 || c.MaxFileSize < 0 {
		return fmt.Errorf("max_files, sample_size and max_file_size must not be negative")
	}
	if c.Cache.MaxAge < 0 {
		return fmt.Errorf("cache.max_age must not be negative")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	for i, p := range c.CustomPlatforms {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("custom_platforms[%d]: %w", i, err)
		}
	}
	return nil
}

// ValidateDirectories checks if required directories exist.
func (c *Config) ValidateDirectories() error {
	if info, err := os.Stat(c.ProjectDir); err != nil || !info.IsDir() {
		return fmt.Errorf("project directory does not exist: %s\nHint: use --project-dir to point at the project to analyse", c.ProjectDir)
	}
	return nil
}

// ValidateRulesDir checks that the rule library exists.
func (c *Config) ValidateRulesDir() error {
	if _, err := os.Stat(c.RulesDir); os.IsNotExist(err) {
		return fmt.Errorf("rules directory does not exist: %s\nHint: Create the directory or use --rules-dir to specify a different path", c.RulesDir)
	}
	return nil
}
