package commands

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/rulecraft/internal/cli/config"
	"github.com/leapstack-labs/rulecraft/internal/cli/output"
	"github.com/leapstack-labs/rulecraft/internal/engine"
	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := cmdCtx.Cfg.ValidateDirectories(); err != nil {
		return nil, nil, err
	}

	eng, err := engine.New(engineConfig(cmdCtx.Cfg, cmdCtx.Cfg.ProjectDir, cmdCtx.Logger))
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Engine = eng

	cleanup := func() {
		_ = eng.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that only read configuration.
func NewCommandContextWithoutEngine(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}, nil
}

// getConfig returns the configuration loaded by the root command, loading
// it from the working directory when the command runs on its own.
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", cmd.Flags())
}

// engineConfig maps CLI configuration onto an engine rooted at projectDir.
func engineConfig(cfg *config.Config, projectDir string, logger *slog.Logger) engine.Config {
	return engine.Config{
		ProjectDir:    projectDir,
		RulesDir:      cfg.RulesDir,
		IgnoreDirs:    cfg.IgnoreDirs,
		MaxFileSize:   cfg.MaxFileSize,
		MaxFiles:      cfg.MaxFiles,
		SampleSize:    cfg.SampleSize,
		MinConfidence: cfg.MinConfidence,
		ModulePath:    cfg.ModulePath,
		Aliases:       cfg.Aliases,
		Stack:         cfg.Stack,
		CachePath:     cfg.CachePath(),
		Platforms:     cfg.CustomPlatforms,
		PlatformFiles: cfg.PlatformFiles,
		StrictRules:   cfg.StrictRules,
		Logger:        logger,
	}
}

// reportDiagnostics prints a per-kind summary of non-fatal diagnostics to
// stderr, listing each one when verbose.
func reportDiagnostics(c *CommandContext, diags []core.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	counts := core.CountByKind(diags)
	kinds := []core.DiagnosticKind{
		core.DiagSkippedFile, core.DiagSkippedRule, core.DiagDroppedRule,
		core.DiagTruncation, core.DiagUnresolvedPattern,
	}
	for _, kind := range kinds {
		if n := counts[kind]; n > 0 {
			c.Renderer.Warning(fmt.Sprintf("%d %s diagnostic(s)", n, kind))
		}
	}
	if c.Cfg.Verbose {
		for _, d := range diags {
			c.Renderer.Warning("  " + d.String())
		}
	}
}
