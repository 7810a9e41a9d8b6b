package commands

import (
	"github.com/leapstack-labs/rulecraft/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewSignatureCommand creates the signature command.
func NewSignatureCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signature",
		Short: "Show the project signature",
		Long: `Show the compact project signature used to select rules.

The signature is cached in the SQLite cache keyed by a fingerprint of the
project's files and the analysis options. Use --no-cache to bypass it.`,
		Example: `  # Show the signature
  rulecraft signature

  # Recompute without the cache and print JSON
  rulecraft signature --no-cache --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSignature(cmd)
		},
	}
	return cmd
}

func runSignature(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := cmdCtx.Engine.Signature(cmd.Context())
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res)
	}

	r.Header(1, "Project signature")
	renderSignature(r, res.Signature)
	r.Println("")
	r.KeyValue("Fingerprint", res.Fingerprint[:12])
	if res.Cached {
		r.Muted("from cache (run " + res.RunID + ")")
	} else if res.RunID != "" {
		r.Muted("cached as run " + res.RunID)
	}
	reportDiagnostics(cmdCtx, res.Diagnostics)
	return nil
}
