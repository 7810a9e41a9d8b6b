// Package depgraph builds the module dependency graph of a scanned project.
//
// Each file's raw import references are resolved to in-project files.
// Resolved references become weighted edges (importer -> imported); everything
// else is recorded as external metadata. On top of the graph the builder
// derives centrality, cycles (strongly connected components), cycle-breaking
// edges and a longest-path layering of the acyclic nodes.
package depgraph

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/rulecraft/internal/dag"
	"github.com/leapstack-labs/rulecraft/pkg/core"
)

// DefaultMaxFilesToParse bounds the number of files whose imports are resolved.
const DefaultMaxFilesToParse = 500

const stage = "depgraph"

// Options configures a Build call.
type Options struct {
	// MaxFilesToParse caps parsed files; 0 means DefaultMaxFilesToParse.
	MaxFilesToParse int
	// Verbose logs every resolved edge at debug level.
	Verbose bool
	// Aliases maps import prefixes to project paths, e.g. "@/" -> "src/".
	Aliases map[string]string
	// ModulePath is the Go module path used to resolve package imports.
	ModulePath string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Edge is a resolved dependency: From imports To, Weight times.
type Edge = dag.Edge

// CentralityEntry ranks a node by its combined distinct degree.
type CentralityEntry struct {
	Path      string `json:"path"`
	InDegree  int    `json:"in_degree"`
	OutDegree int    `json:"out_degree"`
	Score     int    `json:"score"`
}

// Layer groups acyclic nodes that share a longest-path depth.
type Layer struct {
	Depth int      `json:"depth"`
	Nodes []string `json:"nodes"`
}

// PackageUse counts references to one external package.
type PackageUse struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats summarizes a graph.
type Stats struct {
	Nodes        int `json:"nodes"`
	Edges        int `json:"edges"`
	Cycles       int `json:"cycles"`
	MaxDepth     int `json:"max_depth"`
	FilesParsed  int `json:"files_parsed"`
	FilesSkipped int `json:"files_skipped"`
	ExternalRefs int `json:"external_refs"`
}

// Graph is the module graph with its derived metrics.
// It is a fresh snapshot per Build call.
type Graph struct {
	Nodes       []string            `json:"nodes"`
	Edges       []Edge              `json:"edges"`
	Adjacency   map[string][]string `json:"adjacency"`
	Inverse     map[string][]string `json:"inverse"`
	Centrality  []CentralityEntry   `json:"centrality"`
	Cycles      [][]string          `json:"cycles"`
	CycleDepths []int               `json:"cycle_depths"`
	// BrokenEdges lists the edges that would have to be cut to make the graph
	// acyclic. It is informational only: Layers come from the condensation,
	// where cycle members share the depth of their earliest member.
	BrokenEdges []Edge              `json:"broken_edges"`
	Layers      []Layer             `json:"layers"`
	Depth       map[string]int      `json:"depth"`

	ExternalImports  map[string][]string `json:"external_imports"`
	ExternalPackages []PackageUse        `json:"external_packages"`

	Stats       Stats             `json:"stats"`
	Diagnostics []core.Diagnostic `json:"diagnostics,omitempty"`

	dag *dag.Graph
}

// Build constructs the dependency graph for model.
// Only a nil or invalid model is an error; bad files become diagnostics.
func Build(model *core.ProjectModel, opts Options) (*Graph, error) {
	if model == nil {
		return nil, &core.MalformedInputError{Stage: stage, Input: "ProjectModel", Reason: "model is nil"}
	}
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("building dependency graph: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxFiles := opts.MaxFilesToParse
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFilesToParse
	}

	files := model.SortedFiles()
	res := newResolver(files, opts.Aliases, opts.ModulePath)

	out := &Graph{
		Adjacency:       make(map[string][]string),
		Inverse:         make(map[string][]string),
		Depth:           make(map[string]int),
		ExternalImports: make(map[string][]string),
	}

	type pair struct{ from, to string }
	weights := make(map[pair]int)
	packages := make(map[string]int)

	for i, f := range files {
		if i >= maxFiles {
			out.Stats.FilesSkipped++
			out.Diagnostics = append(out.Diagnostics, core.Diagnostic{
				Kind:     core.DiagSkippedFile,
				Severity: core.SeverityInfo,
				Stage:    stage,
				Subject:  f.Path,
				Message:  fmt.Sprintf("beyond max files to parse (%d)", maxFiles),
			})
			continue
		}
		if f.ReadError != "" {
			logger.Warn("skipping unreadable file", "path", f.Path, "error", f.ReadError)
			out.Stats.FilesSkipped++
			out.Diagnostics = append(out.Diagnostics, core.Diagnostic{
				Kind:     core.DiagSkippedFile,
				Severity: core.SeverityWarning,
				Stage:    stage,
				Subject:  f.Path,
				Message:  f.ReadError,
			})
			continue
		}
		out.Stats.FilesParsed++

		for _, ref := range f.Symbols.Imports {
			if ref == "" {
				continue
			}
			target, ok := res.resolve(f, ref)
			if !ok {
				out.ExternalImports[f.Path] = append(out.ExternalImports[f.Path], ref)
				out.Stats.ExternalRefs++
				if name := packageRoot(f, ref); name != "" {
					packages[name]++
				}
				continue
			}
			if target == f.Path {
				continue
			}
			if opts.Verbose {
				logger.Debug("resolved import", "from", f.Path, "ref", ref, "to", target)
			}
			weights[pair{f.Path, target}]++
		}
	}

	g := dag.NewGraph()
	for p := range weights {
		g.AddNode(p.from, nil)
		g.AddNode(p.to, nil)
	}
	for p, w := range weights {
		for range w {
			if err := g.AddEdge(p.from, p.to); err != nil {
				return nil, fmt.Errorf("adding edge %s -> %s: %w", p.from, p.to, err)
			}
		}
	}
	out.dag = g

	out.Nodes = g.NodeIDs()
	out.Edges = g.Edges()
	for _, id := range out.Nodes {
		if children := g.GetChildren(id); len(children) > 0 {
			out.Adjacency[id] = append([]string{}, children...)
		}
		if parents := g.GetParents(id); len(parents) > 0 {
			out.Inverse[id] = append([]string{}, parents...)
		}
	}

	out.Centrality = centrality(g)
	scores := make(map[string]int, len(out.Centrality))
	for _, c := range out.Centrality {
		scores[c.Path] = c.Score
	}

	out.Cycles = g.Cycles()
	out.Depth = g.Depths()
	out.BrokenEdges = g.Clone().BreakCycles(func(id string) int { return scores[id] })
	out.Layers, out.CycleDepths = layer(out.Nodes, out.Cycles, out.Depth)

	for ref := range out.ExternalImports {
		sort.Strings(out.ExternalImports[ref])
	}
	out.ExternalPackages = sortedPackages(packages)

	out.Stats.Nodes = len(out.Nodes)
	out.Stats.Edges = g.EdgeCount()
	out.Stats.Cycles = len(out.Cycles)
	for _, d := range out.Depth {
		out.Stats.MaxDepth = max(out.Stats.MaxDepth, d)
	}

	logger.Debug("dependency graph built",
		"nodes", out.Stats.Nodes,
		"edges", out.Stats.Edges,
		"cycles", out.Stats.Cycles,
		"skipped", out.Stats.FilesSkipped)

	return out, nil
}

func centrality(g *dag.Graph) []CentralityEntry {
	entries := make([]CentralityEntry, 0, g.NodeCount())
	for _, id := range g.NodeIDs() {
		in, outDeg := g.InDegree(id), g.OutDegree(id)
		entries = append(entries, CentralityEntry{Path: id, InDegree: in, OutDegree: outDeg, Score: in + outDeg})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Path < entries[j].Path
	})
	return entries
}

// layer partitions the acyclic nodes by depth and reports each cycle's depth.
func layer(nodes []string, cycles [][]string, depth map[string]int) ([]Layer, []int) {
	inCycle := make(map[string]bool)
	cycleDepths := make([]int, len(cycles))
	for i, c := range cycles {
		d := depth[c[0]]
		for _, id := range c {
			inCycle[id] = true
			d = min(d, depth[id])
		}
		cycleDepths[i] = d
	}

	byDepth := make(map[int][]string)
	for _, id := range nodes {
		if inCycle[id] {
			continue
		}
		byDepth[depth[id]] = append(byDepth[depth[id]], id)
	}

	depths := make([]int, 0, len(byDepth))
	for d := range byDepth {
		depths = append(depths, d)
	}
	sort.Ints(depths)

	layers := make([]Layer, 0, len(depths))
	for _, d := range depths {
		layers = append(layers, Layer{Depth: d, Nodes: byDepth[d]})
	}
	return layers, cycleDepths
}

func sortedPackages(counts map[string]int) []PackageUse {
	out := make([]PackageUse, 0, len(counts))
	for name, n := range counts {
		out = append(out, PackageUse{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// CoreModules returns up to n paths with the highest centrality.
func (g *Graph) CoreModules(n int) []string {
	var out []string
	for _, c := range g.Centrality {
		if len(out) == n {
			break
		}
		out = append(out, c.Path)
	}
	return out
}

// InCycle reports whether path belongs to a cycle.
func (g *Graph) InCycle(path string) bool {
	for _, c := range g.Cycles {
		i := sort.SearchStrings(c, path)
		if i < len(c) && c[i] == path {
			return true
		}
	}
	return false
}

// Affected returns the given paths plus every node that transitively imports them.
func (g *Graph) Affected(paths []string) []string {
	return g.graph().GetAffectedNodes(paths)
}

// Dependencies returns everything path transitively imports.
func (g *Graph) Dependencies(path string) []string {
	return g.graph().GetUpstreamNodes(path)
}

// graph returns the underlying dag, rebuilding it for decoded graphs.
func (g *Graph) graph() *dag.Graph {
	if g.dag != nil {
		return g.dag
	}
	d := dag.NewGraph()
	for _, id := range g.Nodes {
		d.AddNode(id, nil)
	}
	for _, e := range g.Edges {
		for range max(e.Weight, 1) {
			_ = d.AddEdge(e.From, e.To)
		}
	}
	g.dag = d
	return d
}
