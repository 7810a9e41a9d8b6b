package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/rulecraft/internal/cli/output"
	"github.com/leapstack-labs/rulecraft/internal/engine"
	"github.com/leapstack-labs/rulecraft/internal/writer"
	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/spf13/cobra"
)

// generateOutput is the JSON shape of the generate command.
type generateOutput struct {
	*engine.Generation
	Report *writer.Report `json:"report"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate platform rule files for the project",
		Long: `Analyse the project, select the rules that fit its signature and adapt
them to each target platform. Platforms are processed concurrently.

Files are written under the output directory; files whose content has not
changed are left untouched. With --dry-run nothing is written and the
generated files are printed instead.

Without --platforms every registered platform is generated.`,
		Example: `  # Generate for every platform
  rulecraft generate

  # Generate Cursor and Claude files only
  rulecraft generate --platforms cursor,claude

  # Preview without writing
  rulecraft generate --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd)
		},
	}
	return cmd
}

func runGenerate(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := cmdCtx.Cfg
	if err := cfg.ValidateRulesDir(); err != nil {
		return err
	}

	gen, artifacts, report, err := generateAndWrite(cmd.Context(), cmdCtx)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(generateOutput{Generation: gen, Report: report})
	}

	r.Header(1, "Generated rules")
	r.KeyValue("Selected", strconv.Itoa(len(gen.Selected)))
	if len(gen.Rejected) > 0 {
		r.KeyValue("Not applicable", strings.Join(gen.Rejected, ", "))
	}
	r.Println("")

	rows := make([][]string, 0, len(gen.Platforms))
	for _, p := range gen.Platforms {
		s := p.Result.Summary
		limit := "-"
		if s.CharacterLimit > 0 {
			limit = strconv.Itoa(s.CharacterLimit)
		}
		within := "yes"
		if !s.WithinLimit {
			within = "no"
		}
		rows = append(rows, []string{
			p.Platform.DisplayName(),
			strconv.Itoa(s.TotalFiles),
			strconv.Itoa(s.TotalCharacters),
			limit,
			within,
			strconv.Itoa(len(s.Dropped)),
		})
	}
	r.Table([]string{"Platform", "Files", "Characters", "Limit", "Within", "Dropped"}, rows)
	r.Println("")

	if cfg.DryRun {
		printArtifacts(r, artifacts)
		r.Muted(fmt.Sprintf("dry run: %d file(s) would be written", report.Planned))
	} else {
		for _, f := range report.Files {
			if f.Status == writer.StatusWritten {
				r.Printf("  %s\n", r.Styles().Path.Render(f.Target))
			}
		}
		r.Success(fmt.Sprintf("%d written, %d unchanged", report.Written, report.Unchanged))
	}

	reportDiagnostics(cmdCtx, gen.Diagnostics)
	return nil
}

// generateAndWrite runs the generation pipeline and persists the artifacts
// of every platform.
func generateAndWrite(ctx context.Context, c *CommandContext) (*engine.Generation, []core.PlatformArtifact, *writer.Report, error) {
	gen, err := c.Engine.Generate(ctx, c.Cfg.Platforms)
	if err != nil {
		return nil, nil, nil, err
	}

	var artifacts []core.PlatformArtifact
	for _, p := range gen.Platforms {
		artifacts = append(artifacts, p.Result.Files...)
	}

	w := writer.New(writer.Options{OutputDir: c.Cfg.OutputDir, DryRun: c.Cfg.DryRun, Logger: c.Logger})
	report, err := w.Write(ctx, artifacts)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to write artifacts: %w", err)
	}
	return gen, artifacts, report, nil
}

func printArtifacts(r *output.Renderer, artifacts []core.PlatformArtifact) {
	for _, a := range artifacts {
		if r.EffectiveMode() == output.ModeText {
			r.Println(r.Styles().Path.Render(a.Path))
		} else {
			r.Printf("### `%s`\n\n", a.Path)
		}
		r.Println(output.FormatCodeBlock("markdown", a.Content))
		r.Println("")
	}
}
