// Package signature composes the compact project summary used to select and
// rank rules: technology stack, naming and architecture facts, and a size and
// complexity classification.
package signature

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/leapstack-labs/rulecraft/pkg/depgraph"
	"github.com/leapstack-labs/rulecraft/pkg/patterns"
)

// Size buckets a project by file count.
type Size string

// Project sizes.
const (
	SizeSmall      Size = "small"
	SizeMedium     Size = "medium"
	SizeLarge      Size = "large"
	SizeEnterprise Size = "enterprise"
)

// Complexity buckets the weighted stack score.
type Complexity string

// Complexity levels.
const (
	ComplexitySimple        Complexity = "simple"
	ComplexityModerate      Complexity = "moderate"
	ComplexityComplex       Complexity = "complex"
	ComplexityHighlyComplex Complexity = "highly-complex"
)

const coreModuleCount = 5

// PatternSummary condenses the detector output.
type PatternSummary struct {
	// Naming maps a category to its dominant convention.
	Naming       map[string]string `json:"naming"`
	Architecture string            `json:"architecture,omitempty"`
	Code         []string          `json:"code"`
}

// GraphSummary condenses the dependency graph.
type GraphSummary struct {
	Nodes       int      `json:"nodes"`
	Edges       int      `json:"edges"`
	Cycles      int      `json:"cycles"`
	MaxDepth    int      `json:"max_depth"`
	CoreModules []string `json:"core_modules"`
}

// Signature is the compact project summary.
type Signature struct {
	Languages       []string       `json:"languages"`
	Frameworks      []string       `json:"frameworks"`
	Libraries       []string       `json:"libraries"`
	Patterns        PatternSummary `json:"patterns"`
	ProjectSize     Size           `json:"project_size"`
	Complexity      Complexity     `json:"complexity"`
	ComplexityScore float64        `json:"complexity_score"`
	FileCount       int            `json:"file_count"`
	Graph           GraphSummary   `json:"graph"`
}

// Input is everything Compose combines. Any field may be nil or empty.
type Input struct {
	Model    *core.ProjectModel
	Graph    *depgraph.Graph
	Patterns *patterns.Result
	Stack    Stack
}

// Compose builds a signature. It is pure and never fails.
func Compose(in Input) Signature {
	sig := Signature{
		Languages:  union(in.Stack.Languages, nil),
		Frameworks: union(in.Stack.Frameworks, nil),
		Libraries:  union(in.Stack.Libraries, nil),
		Patterns: PatternSummary{
			Naming: make(map[string]string),
			Code:   []string{},
		},
		Graph: GraphSummary{CoreModules: []string{}},
	}

	if in.Model != nil {
		sig.FileCount = len(in.Model.Files)
	}
	sig.ProjectSize = SizeFor(sig.FileCount)
	sig.ComplexityScore = Score(len(sig.Languages), len(sig.Frameworks), len(sig.Libraries))
	sig.Complexity = ComplexityFor(sig.ComplexityScore)

	if p := in.Patterns; p != nil {
		for _, cat := range patterns.Categories {
			if prof, ok := p.Naming[cat]; ok && prof.Dominant != "" {
				sig.Patterns.Naming[string(cat)] = string(prof.Dominant)
			}
		}
		if primary, ok := p.Primary(); ok {
			sig.Patterns.Architecture = primary.Name
		}
		for _, cp := range p.CodePatterns {
			sig.Patterns.Code = append(sig.Patterns.Code, cp.Name)
		}
	}

	if g := in.Graph; g != nil {
		sig.Graph = GraphSummary{
			Nodes:       g.Stats.Nodes,
			Edges:       g.Stats.Edges,
			Cycles:      g.Stats.Cycles,
			MaxDepth:    g.Stats.MaxDepth,
			CoreModules: append([]string{}, g.CoreModules(coreModuleCount)...),
		}
	}
	return sig
}

// SizeFor buckets a file count.
func SizeFor(files int) Size {
	switch {
	case files < 50:
		return SizeSmall
	case files < 200:
		return SizeMedium
	case files < 1000:
		return SizeLarge
	default:
		return SizeEnterprise
	}
}

// Score weights a stack: languages x2, frameworks x3, libraries x0.5 capped at 20.
func Score(languages, frameworks, libraries int) float64 {
	return float64(languages)*2 + float64(frameworks)*3 + math.Min(float64(libraries)*0.5, 20)
}

// ComplexityFor buckets a complexity score.
func ComplexityFor(score float64) Complexity {
	switch {
	case score < 10:
		return ComplexitySimple
	case score < 25:
		return ComplexityModerate
	case score < 50:
		return ComplexityComplex
	default:
		return ComplexityHighlyComplex
	}
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9#+]`)

func normalize(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(s), "")
}

// Uses reports whether the project uses a technology, matching languages,
// frameworks and libraries loosely ("nextjs" matches "Next.js").
func (s *Signature) Uses(tech string) bool {
	want := normalize(tech)
	if want == "" {
		return false
	}
	for _, list := range [][]string{s.Frameworks, s.Languages, s.Libraries} {
		for _, v := range list {
			if normalize(v) == want {
				return true
			}
		}
	}
	return false
}

// Accepts reports whether a rule applies to the project. Rules bound to a
// framework the project does not use are rejected.
func (s *Signature) Accepts(rule core.Rule) bool {
	fw := strings.TrimSpace(rule.Frontmatter.Framework)
	if fw == "" || s == nil {
		return true
	}
	return s.Uses(fw)
}

// Filter keeps the rules the project accepts, preserving order.
func (s *Signature) Filter(rules []core.Rule) (kept, rejected []core.Rule) {
	for _, r := range rules {
		if s.Accepts(r) {
			kept = append(kept, r)
		} else {
			rejected = append(rejected, r)
		}
	}
	return kept, rejected
}

// ContextLines renders the signature as short "Key: value" lines.
func (s *Signature) ContextLines() []string {
	if s == nil {
		return nil
	}
	var lines []string
	add := func(key string, values []string) {
		if len(values) > 0 {
			lines = append(lines, fmt.Sprintf("%s: %s", key, strings.Join(values, ", ")))
		}
	}
	add("Languages", s.Languages)
	add("Frameworks", s.Frameworks)
	if s.Patterns.Architecture != "" {
		lines = append(lines, "Architecture: "+s.Patterns.Architecture)
	}
	var naming []string
	for _, cat := range patterns.Categories {
		if conv, ok := s.Patterns.Naming[string(cat)]; ok {
			naming = append(naming, fmt.Sprintf("%s %s", cat, conv))
		}
	}
	add("Naming", naming)
	lines = append(lines, fmt.Sprintf("Size: %s (%d files), complexity %s", s.ProjectSize, s.FileCount, s.Complexity))
	return lines
}
