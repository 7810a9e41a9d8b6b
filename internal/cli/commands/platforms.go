package commands

import (
	"strconv"

	"github.com/leapstack-labs/rulecraft/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewPlatformsCommand creates the platforms command.
func NewPlatformsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "platforms",
		Short: "List target platforms",
		Long: `List the built-in platforms plus any custom descriptors from
custom_platforms and platform_files, with their envelope, scope and limits.`,
		Example: `  # List platforms
  rulecraft platforms

  # As JSON
  rulecraft platforms -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlatforms(cmd)
		},
	}
	return cmd
}

func runPlatforms(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	all := cmdCtx.Engine.Registry().All()
	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(all)
	}

	r.Header(1, "Platforms")
	rows := make([][]string, len(all))
	for i, p := range all {
		rows[i] = []string{
			p.ID,
			p.DisplayName(),
			string(p.Envelope),
			string(p.Scope),
			limitString(p.Limits.PerFile),
			limitString(p.Limits.PerGuideline),
			limitString(p.Limits.TotalWorkspace),
			limitString(p.Limits.MaxCount),
		}
	}
	r.Table([]string{"ID", "Name", "Envelope", "Scope", "Per file", "Per guideline", "Workspace", "Max count"}, rows)
	return nil
}

func limitString(n int) string {
	if n <= 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

