package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/rulecraft/pkg/adapt"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rulecraft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("project-dir", "", "")
	flags.String("rules-dir", "", "")
	flags.StringSlice("platforms", nil, "")
	flags.Bool("no-cache", false, "")
	flags.Duration("debounce", 0, "")
	flags.Int("sample-size", 0, "")
	flags.String("output", "", "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, cwd, cfg.ProjectDir)
	assert.Equal(t, filepath.Join(cwd, DefaultRulesDir), cfg.RulesDir)
	assert.Equal(t, cwd, cfg.OutputDir)
	assert.Equal(t, filepath.Join(cwd, DefaultCacheFile), cfg.CachePath())
	assert.Equal(t, DefaultCacheMaxAge, cfg.Cache.MaxAge)
	assert.Equal(t, DefaultWatchDebounce, cfg.Watch.Debounce)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Empty(t, cfg.Platforms)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())

	ResetConfig()
	assert.Nil(t, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, `rules_dir: library
platforms: [claude, cursor]
max_files: 50
min_confidence: 0.4
module_path: example.com/app
aliases:
  "@/": src/
stack:
  frameworks: [Temporal]
ignore_dirs: generated, tmp
cache:
  path: /var/cache/rulecraft.db
  max_age: 48h
watch:
  debounce: 1s
custom_platforms:
  - id: acme
    name: Acme Assistant
    envelope: guidelines
    limits:
      per_file: 4000
      max_count: 12
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, dir, cfg.ProjectDir)
	assert.Equal(t, filepath.Join(dir, "library"), cfg.RulesDir)
	assert.Equal(t, []string{"claude", "cursor"}, cfg.Platforms)
	assert.Equal(t, 50, cfg.MaxFiles)
	assert.InDelta(t, 0.4, cfg.MinConfidence, 1e-9)
	assert.Equal(t, "example.com/app", cfg.ModulePath)
	assert.Equal(t, map[string]string{"@/": "src/"}, cfg.Aliases)
	assert.Equal(t, []string{"Temporal"}, cfg.Stack.Frameworks)
	assert.Equal(t, []string{"generated", "tmp"}, cfg.IgnoreDirs)
	assert.Equal(t, "/var/cache/rulecraft.db", cfg.Cache.Path)
	assert.Equal(t, 48*time.Hour, cfg.Cache.MaxAge)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)

	require.Len(t, cfg.CustomPlatforms, 1)
	assert.Equal(t, adapt.Platform{
		ID:       "acme",
		Name:     "Acme Assistant",
		Envelope: adapt.EnvelopeGuidelines,
		Limits:   adapt.Limits{PerFile: 4000, MaxCount: 12},
	}, cfg.CustomPlatforms[0])
}

func TestLoadConfig_FindsFileUpward(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "rules_dir: shared/rules\n")
	nested := filepath.Join(filepath.Dir(path), "services", "api")
	require.NoError(t, os.MkdirAll(nested, 0750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	root, err := filepath.EvalSymlinks(filepath.Dir(path))
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(cfg.ProjectDir)
	require.NoError(t, err)
	assert.Equal(t, root, got)
	rel, err := filepath.Rel(cfg.ProjectDir, cfg.RulesDir)
	require.NoError(t, err)
	assert.Equal(t, "shared/rules", filepath.ToSlash(rel))
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "rules_dir: from_file\nsample_size: 10\n")
	t.Setenv("RULECRAFT_RULES_DIR", "from_env")
	t.Setenv("RULECRAFT_SAMPLE_SIZE", "20")

	flags := testFlags()
	require.NoError(t, flags.Set("rules-dir", "from_flag"))
	require.NoError(t, flags.Set("sample-size", "30"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	want, err := filepath.Abs("from_flag")
	require.NoError(t, err)
	assert.Equal(t, want, cfg.RulesDir, "flag paths resolve against the working directory")
	assert.Equal(t, 30, cfg.SampleSize)
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "rules_dir: from_file\nplatforms: [junie]\n")
	t.Setenv("RULECRAFT_RULES_DIR", "from_env")
	t.Setenv("RULECRAFT_PLATFORMS", "claude, windsurf")
	t.Setenv("RULECRAFT_CACHE__MAX_AGE", "2h")

	// Unset flags never override.
	cfg, err := LoadConfig(path, testFlags())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "from_env"), cfg.RulesDir)
	assert.Equal(t, []string{"claude", "windsurf"}, cfg.Platforms)
	assert.Equal(t, 2*time.Hour, cfg.Cache.MaxAge)
}

func TestLoadConfig_FlagMappings(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "platforms: [junie]\n")

	flags := testFlags()
	require.NoError(t, flags.Set("no-cache", "true"))
	require.NoError(t, flags.Set("debounce", "50ms"))
	require.NoError(t, flags.Set("platforms", "cursor,claude"))
	require.NoError(t, flags.Set("output", "json"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Empty(t, cfg.CachePath())
	assert.Equal(t, 50*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, []string{"cursor", "claude"}, cfg.Platforms)
	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestLoadConfig_ProjectDirFlag(t *testing.T) {
	ResetConfig()
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "rulecraft.yml"), []byte("output_dir: out\n"), 0600))

	flags := testFlags()
	require.NoError(t, flags.Set("project-dir", project))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, project, cfg.ProjectDir)
	assert.Equal(t, filepath.Join(project, "out"), cfg.OutputDir)
	assert.Equal(t, filepath.Join(project, "rulecraft.yml"), GetConfigFileUsed())
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"bad yaml", "rules_dir: [unclosed\n", "error reading config file"},
		{"bad duration", "cache:\n  max_age: forever\n", "unable to decode config"},
		{"bad output", "output: html\n", "invalid output format"},
		{"bad confidence", "min_confidence: 2\n", "min_confidence"},
		{"bad platform", "custom_platforms:\n  - id: x\n    envelope: fax\n", "custom_platforms[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_ValidateDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{ProjectDir: dir, RulesDir: filepath.Join(dir, "rules")}
	assert.NoError(t, cfg.ValidateDirectories())
	assert.ErrorContains(t, cfg.ValidateRulesDir(), "rules directory does not exist")

	cfg.ProjectDir = filepath.Join(dir, "missing")
	assert.ErrorContains(t, cfg.ValidateDirectories(), "project directory does not exist")
}

func TestLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	var buf bytes.Buffer
	logger := NewLogger(&buf, false)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))

	buf.Reset()
	NewLogger(&buf, true).Debug("debug line")
	assert.Contains(t, buf.String(), "debug line")
}
