package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/rulecraft/internal/cache"
	"github.com/leapstack-labs/rulecraft/internal/cli/output"
	"github.com/spf13/cobra"
)

// errCacheDisabled is returned by cache subcommands when caching is off.
var errCacheDisabled = errors.New("signature cache is disabled (cache.enabled=false or --no-cache)")

// NewCacheCommand creates the cache command and its subcommands.
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the signature cache",
		Long: `The signature cache is a SQLite database holding one signature per
project fingerprint. Use these subcommands to list, prune or clear it.`,
		Example: `  # List cached signatures
  rulecraft cache list

  # Drop entries older than a week
  rulecraft cache prune --max-age 168h

  # Remove everything
  rulecraft cache clear`,
	}

	cmd.AddCommand(newCacheListCommand())
	cmd.AddCommand(newCachePruneCommand())
	cmd.AddCommand(newCacheClearCommand())
	return cmd
}

// withStore opens the cache and runs fn with it.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, c *CommandContext, s *cache.Store) error) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	store, err := cmdCtx.Engine.Cache(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errCacheDisabled
	}
	return fn(ctx, cmdCtx, store)
}

func newCacheListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached signatures",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, c *CommandContext, s *cache.Store) error {
				entries, err := s.List(ctx)
				if err != nil {
					return err
				}
				r := c.Renderer
				if r.EffectiveMode() == output.ModeJSON {
					if entries == nil {
						entries = []cache.Entry{}
					}
					return r.JSON(entries)
				}

				r.Header(1, "Cached signatures")
				r.KeyValue("Database", s.Path())
				if len(entries) == 0 {
					r.Muted("cache is empty")
					return nil
				}
				rows := make([][]string, len(entries))
				for i, e := range entries {
					rows[i] = []string{e.Fingerprint[:12], e.Root, e.RunID, e.CreatedAt.Local().Format(time.DateTime)}
				}
				r.Table([]string{"Fingerprint", "Root", "Run", "Created"}, rows)
				return nil
			})
		},
	}
}

func newCachePruneCommand() *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove cached signatures older than cache.max_age",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, c *CommandContext, s *cache.Store) error {
				age := c.Cfg.Cache.MaxAge
				if cmd.Flags().Changed("max-age") {
					age = maxAge
				}
				if age <= 0 {
					return fmt.Errorf("max age must be positive, got %s", age)
				}
				n, err := s.Prune(ctx, age)
				if err != nil {
					return err
				}
				return reportCount(c, "pruned", n)
			})
		},
	}
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Override cache.max_age")
	return cmd
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached signature",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, c *CommandContext, s *cache.Store) error {
				n, err := s.Clear(ctx)
				if err != nil {
					return err
				}
				return reportCount(c, "cleared", n)
			})
		},
	}
}

func reportCount(c *CommandContext, action string, n int64) error {
	r := c.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]int64{action: n})
	}
	r.Success(fmt.Sprintf("%s %d cache entries", action, n))
	return nil
}
