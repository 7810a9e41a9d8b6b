package commands

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/rulecraft/internal/cli/output"
	"github.com/leapstack-labs/rulecraft/internal/engine"
	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/leapstack-labs/rulecraft/pkg/signature"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [dir...]",
		Short: "Analyse one or more projects",
		Long: `Run the full analysis pipeline: scan, dependency graph, pattern
detection and signature composition.

Several directories are analysed concurrently; each gets its own report.
Without arguments the configured project directory is analysed.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format (agent-friendly)`,
		Example: `  # Analyse the current project
  rulecraft analyze

  # Analyse two services side by side
  rulecraft analyze services/api services/worker

  # Output as JSON
  rulecraft analyze --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args)
		},
	}
	return cmd
}

// rootAnalysis is the analysis of one root directory.
type rootAnalysis struct {
	Root     string           `json:"root"`
	Analysis *engine.Analysis `json:"analysis"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return err
	}

	roots := args
	if len(roots) == 0 {
		roots = []string{cmdCtx.Cfg.ProjectDir}
	}

	results := make([]rootAnalysis, len(roots))
	eg, ctx := errgroup.WithContext(cmd.Context())
	for i, root := range roots {
		eg.Go(func() error {
			abs, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("invalid directory %s: %w", root, err)
			}
			ecfg := engineConfig(cmdCtx.Cfg, abs, cmdCtx.Logger)
			ecfg.CachePath = ""
			eng, err := engine.New(ecfg)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			a, err := eng.Analyze(ctx)
			if err != nil {
				return err
			}
			results[i] = rootAnalysis{Root: abs, Analysis: a}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		if len(results) == 1 {
			return r.JSON(results[0].Analysis)
		}
		return r.JSON(results)
	}

	for i, res := range results {
		if i > 0 {
			r.Println("")
		}
		r.Header(1, "Analysis")
		r.KeyValue("Root", res.Root)
		renderSignature(r, res.Analysis.Signature)
		renderArchitecture(r, res.Analysis)
	}

	var diags []core.Diagnostic
	for _, res := range results {
		diags = append(diags, res.Analysis.Diagnostics...)
	}
	reportDiagnostics(cmdCtx, diags)
	return nil
}

// renderSignature writes a signature as key/value lines.
func renderSignature(r *output.Renderer, sig signature.Signature) {
	r.KeyValue("Languages", joinOrNone(sig.Languages))
	r.KeyValue("Frameworks", joinOrNone(sig.Frameworks))
	r.KeyValue("Libraries", joinOrNone(sig.Libraries))
	r.KeyValue("Architecture", orNone(sig.Patterns.Architecture))
	r.KeyValue("Naming", joinOrNone(namingPairs(sig.Patterns.Naming)))
	r.KeyValue("Code patterns", joinOrNone(sig.Patterns.Code))
	r.KeyValue("Size", fmt.Sprintf("%s (%d files)", sig.ProjectSize, sig.FileCount))
	r.KeyValue("Complexity", fmt.Sprintf("%s (%s)", sig.Complexity, strconv.FormatFloat(sig.ComplexityScore, 'f', 1, 64)))
	r.KeyValue("Graph", fmt.Sprintf("%d modules, %d edges, %d cycles, depth %d",
		sig.Graph.Nodes, sig.Graph.Edges, sig.Graph.Cycles, sig.Graph.MaxDepth))
	if len(sig.Graph.CoreModules) > 0 {
		r.KeyValue("Core modules", strings.Join(sig.Graph.CoreModules, ", "))
	}
}

// renderArchitecture lists every architecture above the threshold.
func renderArchitecture(r *output.Renderer, a *engine.Analysis) {
	if a.Patterns == nil || len(a.Patterns.Architecture) == 0 {
		return
	}
	r.Println("")
	r.Header(2, "Architecture candidates")
	rows := make([][]string, 0, len(a.Patterns.Architecture))
	for _, s := range a.Patterns.Architecture {
		rows = append(rows, []string{s.Name, output.FormatPercent(s.Confidence), strings.Join(s.Evidence, "; ")})
	}
	r.Table([]string{"Pattern", "Confidence", "Evidence"}, rows)
}

func namingPairs(naming map[string]string) []string {
	keys := make([]string, 0, len(naming))
	for k := range naming {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + naming[k]
	}
	return pairs
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
