package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/rulecraft/internal/cli/output"
	"github.com/leapstack-labs/rulecraft/pkg/depgraph"
	"github.com/spf13/cobra"
)

// graphOutput is the JSON shape of the graph command.
type graphOutput struct {
	Stats      depgraph.Stats             `json:"stats"`
	Layers     []depgraph.Layer           `json:"layers"`
	Cycles     [][]string                 `json:"cycles"`
	Centrality []depgraph.CentralityEntry `json:"centrality"`
	External   []depgraph.PackageUse      `json:"external_packages"`
	Affected   []string                   `json:"affected,omitempty"`
	Deps       []string                   `json:"dependencies,omitempty"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	var (
		top      int
		affected []string
		deps     string
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the module dependency graph",
		Long: `Display the module dependency graph of the project.

Modules are grouped into layers by longest dependency chain. Import cycles
are listed separately, followed by the most central modules and the most
used external packages.

With --affected, only the given files and every module that transitively
imports them are printed. With --deps, everything one file transitively
imports is printed.`,
		Example: `  # Show the graph
  rulecraft graph

  # Show the ten most central modules
  rulecraft graph --top 10

  # What needs re-checking when the store changes?
  rulecraft graph --affected internal/store/store.go

  # What does the entrypoint pull in?
  rulecraft graph --deps cmd/shop/main.go`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGraph(cmd, top, affected, deps)
		},
	}

	cmd.Flags().IntVar(&top, "top", 5, "Number of central modules and external packages to show")
	cmd.Flags().StringSliceVar(&affected, "affected", nil, "Show modules affected by changes to these paths")
	cmd.Flags().StringVar(&deps, "deps", "", "Show everything this path transitively imports")
	return cmd
}

func runGraph(cmd *cobra.Command, top int, affected []string, deps string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	a, err := cmdCtx.Engine.Analyze(cmd.Context())
	if err != nil {
		return err
	}
	g := a.Graph
	r := cmdCtx.Renderer

	if len(affected) > 0 {
		hit := g.Affected(affected)
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON(graphOutput{Stats: g.Stats, Affected: hit})
		}
		r.Header(1, "Affected modules")
		if len(hit) == 0 {
			r.Muted("none of the given paths are modules of this project")
			return nil
		}
		r.List(hit)
		return nil
	}

	if deps != "" {
		reached := g.Dependencies(deps)
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON(graphOutput{Stats: g.Stats, Deps: reached})
		}
		r.Header(1, "Dependencies")
		if len(reached) == 0 {
			r.Muted(deps + " imports no project modules")
			return nil
		}
		r.List(reached)
		return nil
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(graphOutput{
			Stats:      g.Stats,
			Layers:     g.Layers,
			Cycles:     g.Cycles,
			Centrality: headCentrality(g.Centrality, top),
			External:   headPackages(g.ExternalPackages, top),
		})
	}

	r.Header(1, "Dependency graph")
	for _, l := range g.Layers {
		r.Header(2, fmt.Sprintf("layer %d", l.Depth))
		r.List(l.Nodes)
		r.Println("")
	}

	if len(g.Cycles) > 0 {
		r.Header(2, "cycles")
		for i, c := range g.Cycles {
			r.Printf("- %s (depth %d)\n", strings.Join(c, " <-> "), g.CycleDepths[i])
		}
		r.Println("")
	}

	if central := headCentrality(g.Centrality, top); len(central) > 0 {
		r.Header(2, "core modules")
		rows := make([][]string, len(central))
		for i, c := range central {
			rows[i] = []string{c.Path, strconv.Itoa(c.InDegree), strconv.Itoa(c.OutDegree), strconv.Itoa(c.Score)}
		}
		r.Table([]string{"Module", "In", "Out", "Score"}, rows)
		r.Println("")
	}

	if ext := headPackages(g.ExternalPackages, top); len(ext) > 0 {
		r.Header(2, "external packages")
		rows := make([][]string, len(ext))
		for i, p := range ext {
			rows[i] = []string{p.Name, strconv.Itoa(p.Count)}
		}
		r.Table([]string{"Package", "References"}, rows)
		r.Println("")
	}

	r.Muted(fmt.Sprintf("Total: %d modules, %d dependencies, %d cycles, %d files parsed",
		g.Stats.Nodes, g.Stats.Edges, g.Stats.Cycles, g.Stats.FilesParsed))
	reportDiagnostics(cmdCtx, a.Diagnostics)
	return nil
}

func headCentrality(c []depgraph.CentralityEntry, n int) []depgraph.CentralityEntry {
	if n >= 0 && len(c) > n {
		return c[:n]
	}
	return c
}

func headPackages(p []depgraph.PackageUse, n int) []depgraph.PackageUse {
	if n >= 0 && len(p) > n {
		return p[:n]
	}
	return p
}
