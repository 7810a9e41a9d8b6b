package commands

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/rulecraft/internal/cli/output"
	"github.com/leapstack-labs/rulecraft/pkg/patterns"
	"github.com/spf13/cobra"
)

// NewPatternsCommand creates the patterns command.
func NewPatternsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Show detected naming, architecture and code patterns",
		Long: `Show what the pattern detector found: the dominant naming convention per
category, scored architecture candidates, code idioms in the sampled files
and consistency metrics.`,
		Example: `  # Show patterns
  rulecraft patterns

  # Inspect more files for code idioms
  RULECRAFT_SAMPLE_SIZE=200 rulecraft patterns`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPatterns(cmd)
		},
	}
	return cmd
}

func runPatterns(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	a, err := cmdCtx.Engine.Analyze(cmd.Context())
	if err != nil {
		return err
	}
	p := a.Patterns
	r := cmdCtx.Renderer

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(p)
	}

	r.Header(1, "Patterns")

	r.Header(2, "naming")
	var rows [][]string
	for _, cat := range patterns.Categories {
		prof, ok := p.Naming[cat]
		if !ok || prof.Total == 0 {
			continue
		}
		rows = append(rows, []string{
			string(cat),
			orNone(string(prof.Dominant)),
			output.FormatPercent(prof.Confidence),
			strconv.Itoa(prof.Total),
		})
	}
	if len(rows) == 0 {
		r.Muted("no classifiable names")
	} else {
		r.Table([]string{"Category", "Convention", "Confidence", "Names"}, rows)
	}
	r.Println("")

	r.Header(2, "architecture")
	if primary, ok := p.Primary(); ok {
		rows = rows[:0]
		for _, s := range p.Architecture {
			rows = append(rows, []string{s.Name, output.FormatPercent(s.Confidence), strings.Join(s.Evidence, "; ")})
		}
		r.Table([]string{"Pattern", "Confidence", "Evidence"}, rows)
		r.Muted("primary: " + primary.Name)
	} else {
		r.Muted("no architecture above the confidence threshold")
	}
	r.Println("")

	r.Header(2, "code patterns")
	if len(p.CodePatterns) == 0 {
		r.Muted("none found in the sampled files")
	} else {
		rows = rows[:0]
		for _, c := range p.CodePatterns {
			rows = append(rows, []string{c.Name, strconv.Itoa(c.Files), strconv.Itoa(c.Occurrences), output.FormatPercent(c.Prevalence)})
		}
		r.Table([]string{"Pattern", "Files", "Occurrences", "Prevalence"}, rows)
	}
	r.Println("")

	c := p.Consistency
	r.Header(2, "consistency")
	r.KeyValue("Naming", output.FormatPercent(c.NamingConsistency))
	r.KeyValue("File naming", output.FormatPercent(c.FileNaming))
	r.KeyValue("Directory naming", output.FormatPercent(c.DirectoryNaming))
	r.KeyValue("Max directory depth", strconv.Itoa(c.MaxDirectoryDepth))
	r.KeyValue("Files per directory", strconv.FormatFloat(c.AverageFilesPerDirectory, 'f', 1, 64))
	r.KeyValue("Sampled files", strconv.Itoa(c.SampledFiles))

	reportDiagnostics(cmdCtx, a.Diagnostics)
	return nil
}
