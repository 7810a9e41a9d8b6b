package patterns

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/leapstack-labs/rulecraft/pkg/depgraph"
)

// ArchitecturalPatternScore is the confidence that a project follows a pattern.
type ArchitecturalPatternScore struct {
	Name       string   `json:"name"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence"`
}

// Signal is one observable hint for an architectural pattern.
// Match returns the evidence found, empty when the signal is absent.
type Signal struct {
	Description string
	Match       func(f *Facts) []string
}

// PatternDef is a named architectural pattern and its signals.
type PatternDef struct {
	Name        string
	Description string
	Signals     []Signal
}

// manifestFiles mark a directory as an independently built unit.
var manifestFiles = map[string]bool{
	"package.json":     true,
	"go.mod":           true,
	"cargo.toml":       true,
	"pyproject.toml":   true,
	"requirements.txt": true,
	"setup.py":         true,
	"pom.xml":          true,
	"build.gradle":     true,
	"build.gradle.kts": true,
	"composer.json":    true,
	"gemfile":          true,
	"dockerfile":       true,
}

// Facts is the precomputed structural view signals match against.
type Facts struct {
	// Dirs maps a lowercased directory name to the paths using it.
	Dirs map[string][]string
	// Files maps a lowercased file name to the paths using it.
	Files map[string][]string
	// TopLevel lists depth-0 directory paths, sorted.
	TopLevel []string
	// ManifestDirs lists directories (not the root) holding a manifest file, sorted.
	ManifestDirs []string
	// Model is the analysed model.
	Model *core.ProjectModel
	// Graph is the optional dependency graph.
	Graph *depgraph.Graph
}

// NewFacts indexes a model for signal matching.
func NewFacts(model *core.ProjectModel, graph *depgraph.Graph) *Facts {
	f := &Facts{
		Dirs:  make(map[string][]string),
		Files: make(map[string][]string),
		Model: model,
		Graph: graph,
	}
	if model == nil {
		return f
	}

	for _, d := range model.SortedDirectories() {
		name := strings.ToLower(d.Name)
		f.Dirs[name] = append(f.Dirs[name], d.Path)
		if d.Depth == 0 {
			f.TopLevel = append(f.TopLevel, d.Path)
		}
	}

	manifests := make(map[string]bool)
	for _, file := range model.SortedFiles() {
		name := strings.ToLower(file.Name)
		f.Files[name] = append(f.Files[name], file.Path)
		if manifestFiles[name] && file.Dir() != "" {
			manifests[file.Dir()] = true
		}
	}
	for d := range manifests {
		f.ManifestDirs = append(f.ManifestDirs, d)
	}
	sort.Strings(f.ManifestDirs)
	return f
}

// DirSignal matches when a directory with any of the given names exists.
func DirSignal(names ...string) Signal {
	return Signal{
		Description: "directory " + strings.Join(names, "|"),
		Match: func(f *Facts) []string {
			var ev []string
			for _, n := range names {
				for _, p := range f.Dirs[strings.ToLower(n)] {
					ev = append(ev, "directory "+p+"/")
				}
			}
			return capEvidence(ev)
		},
	}
}

// FileSignal matches when a file with any of the given names exists.
func FileSignal(names ...string) Signal {
	return Signal{
		Description: "file " + strings.Join(names, "|"),
		Match: func(f *Facts) []string {
			var ev []string
			for _, n := range names {
				for _, p := range f.Files[strings.ToLower(n)] {
					ev = append(ev, "file "+p)
				}
			}
			return capEvidence(ev)
		},
	}
}

// FileSuffixSignal matches when at least min files have a stem ending in suffix.
func FileSuffixSignal(suffix string, minCount int) Signal {
	suffix = strings.ToLower(suffix)
	return Signal{
		Description: fmt.Sprintf("at least %d files named *%s", minCount, suffix),
		Match: func(f *Facts) []string {
			var hits []string
			for name, paths := range f.Files {
				stem := strings.TrimSuffix(name, path.Ext(name))
				if strings.HasSuffix(strings.ReplaceAll(stem, "_", ""), suffix) ||
					strings.HasSuffix(strings.ReplaceAll(stem, "-", ""), suffix) {
					hits = append(hits, paths...)
				}
			}
			if len(hits) < minCount {
				return nil
			}
			sort.Strings(hits)
			return capEvidence(prefixAll("file ", hits))
		},
	}
}

// ExtensionSignal matches when at least min files carry one of the extensions
// and a PascalCase stem, the usual shape of UI component files.
func ExtensionSignal(minCount int, exts ...string) Signal {
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		want[e] = true
	}
	return Signal{
		Description: fmt.Sprintf("at least %d PascalCase %s files", minCount, strings.Join(exts, "|")),
		Match: func(f *Facts) []string {
			if f.Model == nil {
				return nil
			}
			var hits []string
			for _, file := range f.Model.SortedFiles() {
				if want[file.Extension] && Classify(file.Stem()) == PascalCase {
					hits = append(hits, file.Path)
				}
			}
			if len(hits) < minCount {
				return nil
			}
			return capEvidence(prefixAll("component ", hits))
		},
	}
}

// ManifestSignal matches when at least min directories hold their own
// manifest. With topLevelOnly, only depth-0 directories count.
func ManifestSignal(minCount int, topLevelOnly bool) Signal {
	desc := fmt.Sprintf("at least %d directories with their own manifest", minCount)
	if topLevelOnly {
		desc = fmt.Sprintf("at least %d top-level directories with their own manifest", minCount)
	}
	return Signal{
		Description: desc,
		Match: func(f *Facts) []string {
			var hits []string
			for _, d := range f.ManifestDirs {
				if topLevelOnly && strings.Contains(d, "/") {
					continue
				}
				hits = append(hits, d)
			}
			if len(hits) < minCount {
				return nil
			}
			return []string{fmt.Sprintf("%d units with manifests: %s", len(hits), strings.Join(capList(hits), ", "))}
		},
	}
}

// LayerSignal matches when the dependency graph has at least min layers.
// It never matches without a graph.
func LayerSignal(minLayers int) Signal {
	return Signal{
		Description: fmt.Sprintf("dependency graph with at least %d layers", minLayers),
		Match: func(f *Facts) []string {
			if f.Graph == nil || len(f.Graph.Layers) < minLayers {
				return nil
			}
			return []string{fmt.Sprintf("dependency graph has %d layers", len(f.Graph.Layers))}
		},
	}
}

// DefaultPatterns returns the built-in catalog in declaration order.
func DefaultPatterns() []PatternDef {
	return []PatternDef{
		{
			Name:        "MVC",
			Description: "Model-View-Controller separation",
			Signals: []Signal{
				DirSignal("models", "model"),
				DirSignal("views", "view", "templates"),
				DirSignal("controllers", "controller"),
			},
		},
		{
			Name:        "MVVM",
			Description: "Model-View-ViewModel separation",
			Signals: []Signal{
				DirSignal("models", "model"),
				DirSignal("views", "view"),
				DirSignal("viewmodels", "view-models", "view_models", "viewmodel"),
				FileSuffixSignal("viewmodel", 1),
			},
		},
		{
			Name:        "Layered",
			Description: "Presentation, business and data layers",
			Signals: []Signal{
				DirSignal("presentation", "ui", "web", "handlers"),
				DirSignal("business", "services", "service", "logic"),
				DirSignal("data", "dal", "persistence", "repositories", "repository"),
				LayerSignal(3),
			},
		},
		{
			Name:        "Clean Architecture",
			Description: "Entities, use cases, interface adapters and frameworks",
			Signals: []Signal{
				DirSignal("entities", "entity", "domain"),
				DirSignal("usecases", "use-cases", "use_cases", "application"),
				DirSignal("interfaces", "adapters", "interface-adapters", "delivery"),
				DirSignal("infrastructure", "infra", "frameworks"),
			},
		},
		{
			Name:        "Hexagonal",
			Description: "Ports and adapters around a domain core",
			Signals: []Signal{
				DirSignal("ports", "port"),
				DirSignal("adapters", "adapter"),
				DirSignal("domain", "core"),
			},
		},
		{
			Name:        "Microservices",
			Description: "Independently built services",
			Signals: []Signal{
				ManifestSignal(2, true),
				DirSignal("services"),
				FileSignal("docker-compose.yml", "docker-compose.yaml", "compose.yml", "compose.yaml"),
			},
		},
		{
			Name:        "Monorepo",
			Description: "Multiple packages managed in one repository",
			Signals: []Signal{
				DirSignal("packages", "apps", "libs"),
				FileSignal("lerna.json", "pnpm-workspace.yaml", "nx.json", "turbo.json", "go.work", "rush.json"),
				ManifestSignal(2, false),
			},
		},
		{
			Name:        "Component-Based",
			Description: "UI composed from reusable components",
			Signals: []Signal{
				DirSignal("components"),
				ExtensionSignal(3, ".tsx", ".jsx", ".vue", ".svelte"),
				DirSignal("hooks", "composables"),
			},
		},
		{
			Name:        "Feature-Sliced",
			Description: "Feature-Sliced Design layers",
			Signals: []Signal{
				DirSignal("features"),
				DirSignal("entities"),
				DirSignal("shared"),
				DirSignal("widgets"),
				DirSignal("pages"),
			},
		},
		{
			Name:        "Redux/Flux",
			Description: "Centralized store with reducers and actions",
			Signals: []Signal{
				DirSignal("store", "stores", "redux"),
				DirSignal("reducers", "slices"),
				DirSignal("actions"),
				FileSuffixSignal("slice", 1),
			},
		},
		{
			Name:        "Serverless",
			Description: "Function-as-a-service deployment",
			Signals: []Signal{
				FileSignal("serverless.yml", "serverless.yaml", "template.yaml", "samconfig.toml"),
				DirSignal("functions", "lambdas", "lambda"),
				FileSignal("netlify.toml", "vercel.json", "wrangler.toml"),
			},
		},
		{
			Name:        "Go Standard Layout",
			Description: "cmd, internal and pkg directories around a Go module",
			Signals: []Signal{
				FileSignal("go.mod"),
				DirSignal("cmd"),
				DirSignal("internal"),
				DirSignal("pkg"),
			},
		},
	}
}

// ScoreArchitecture scores every pattern against facts and returns those
// reaching minConfidence, sorted by confidence then declaration order.
func ScoreArchitecture(facts *Facts, defs []PatternDef, minConfidence float64) []ArchitecturalPatternScore {
	type scored struct {
		ArchitecturalPatternScore
		order int
	}
	var results []scored
	for i, def := range defs {
		if len(def.Signals) == 0 {
			continue
		}
		matched := 0
		evidence := []string{}
		for _, sig := range def.Signals {
			if ev := sig.Match(facts); len(ev) > 0 {
				matched++
				evidence = append(evidence, ev...)
			}
		}
		conf := clamp01(float64(matched) / float64(len(def.Signals)))
		if matched == 0 || conf < minConfidence {
			continue
		}
		results = append(results, scored{
			ArchitecturalPatternScore: ArchitecturalPatternScore{Name: def.Name, Confidence: conf, Evidence: evidence},
			order:                     i,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].order < results[j].order
	})

	out := make([]ArchitecturalPatternScore, 0, len(results))
	for _, r := range results {
		out = append(out, r.ArchitecturalPatternScore)
	}
	return out
}

const maxEvidence = 5

func capEvidence(ev []string) []string {
	if len(ev) > maxEvidence {
		return ev[:maxEvidence]
	}
	return ev
}

func capList(items []string) []string {
	if len(items) > maxEvidence {
		return append(append([]string{}, items[:maxEvidence]...), "...")
	}
	return items
}

func prefixAll(prefix string, items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = prefix + s
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
