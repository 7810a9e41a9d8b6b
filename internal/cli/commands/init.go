package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/rulecraft/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize rulecraft in a project",
		Long: `Initialize rulecraft with a default configuration and a starter rule library.

This creates:
  - rulecraft.yaml configuration file
  - rules/ directory with example rules`,
		Example: `  # Initialize in current directory
  rulecraft init

  # Initialize another project
  rulecraft init ../service

  # Overwrite existing files
  rulecraft init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeAuto)
			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, "rulecraft.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("rulecraft.yaml already exists. Use --force to overwrite")
	}

	files, err := copyTemplate("starter", dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}
	for _, f := range files {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("rulecraft initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Add your own rules to rules/")
	r.Println("  2. Run 'rulecraft signature' to see what was detected")
	r.Println("  3. Run 'rulecraft generate --dry-run' to preview the platform files")
	return nil
}
