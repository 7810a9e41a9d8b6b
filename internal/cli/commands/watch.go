package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"

	"github.com/leapstack-labs/rulecraft/internal/scanner"
	"github.com/leapstack-labs/rulecraft/internal/watch"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var generate bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-analyse the project when files change",
		Long: `Watch the project directory and re-run the analysis after each burst of
changes (see watch.debounce). For every batch the changed files and the
modules that transitively import them are reported.

With --generate the platform files are regenerated after every change.
Press Ctrl+C to stop.`,
		Example: `  # Report affected modules as you edit
  rulecraft watch

  # Keep generated rule files up to date
  rulecraft watch --generate --platforms cursor`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, generate)
		},
	}

	cmd.Flags().BoolVar(&generate, "generate", false, "Regenerate platform files after each change")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, generate bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	last, err := cmdCtx.Engine.Analyze(ctx)
	if err != nil {
		return err
	}
	if generate {
		if err := regenerate(ctx, cmdCtx); err != nil {
			return err
		}
	}

	r.Printf("Watching %s\n", cmdCtx.Cfg.ProjectDir)

	w := watch.New(watch.Options{
		Root:       cmdCtx.Cfg.ProjectDir,
		IgnoreDirs: append(append([]string{}, scanner.DefaultIgnoreDirs...), cmdCtx.Cfg.IgnoreDirs...),
		Debounce:   cmdCtx.Cfg.Watch.Debounce,
		Logger:     cmdCtx.Logger,
	})

	return w.Run(ctx, func(ctx context.Context, paths []string) error {
		r.Printf("\n%d file(s) changed: %s\n", len(paths), strings.Join(paths, ", "))
		if importers := minus(last.Graph.Affected(paths), paths); len(importers) > 0 {
			r.Printf("  affects %d importing module(s): %s\n", len(importers), strings.Join(importers, ", "))
		}

		next, err := cmdCtx.Engine.Analyze(ctx)
		if err != nil {
			// A half-written file should not end the watch.
			r.Warning(fmt.Sprintf("analysis failed: %v", err))
			return nil
		}
		if reflect.DeepEqual(last.Signature, next.Signature) {
			r.Muted("signature unchanged")
		} else {
			r.Success("signature changed")
		}
		last = next

		if generate {
			if err := regenerate(ctx, cmdCtx); err != nil {
				r.Warning(fmt.Sprintf("generation failed: %v", err))
			}
		}
		return nil
	})
}

func regenerate(ctx context.Context, c *CommandContext) error {
	_, _, report, err := generateAndWrite(ctx, c)
	if err != nil {
		return err
	}
	c.Renderer.Success(fmt.Sprintf("%d written, %d unchanged", report.Written, report.Unchanged))
	return nil
}

func minus(all, drop []string) []string {
	skip := make(map[string]bool, len(drop))
	for _, d := range drop {
		skip[d] = true
	}
	var out []string
	for _, a := range all {
		if !skip[a] {
			out = append(out, a)
		}
	}
	return out
}
