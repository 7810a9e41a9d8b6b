package patterns

import (
	"path"
	"regexp"
	"strings"

	"github.com/leapstack-labs/rulecraft/pkg/core"
)

// CodePattern reports how widely an idiom appears in the sampled files.
type CodePattern struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Files       int      `json:"files"`
	Occurrences int      `json:"occurrences"`
	Prevalence  float64  `json:"prevalence"`
	Examples    []string `json:"examples,omitempty"`
}

// CodePatternDef detects one idiom in a single file.
// Match returns the matching names; a file-level idiom returns the file path.
type CodePatternDef struct {
	Name        string
	Description string
	Match       func(f core.File) []string
}

var (
	hookRe        = regexp.MustCompile(`^use[A-Z0-9]`)
	constructorRe = regexp.MustCompile(`^New([A-Z0-9]|$)`)
	ifacePrefixRe = regexp.MustCompile(`^I[A-Z][a-z]`)
)

// diModules are import prefixes of dependency injection frameworks.
var diModules = []string{
	"inversify",
	"tsyringe",
	"@nestjs/common",
	"@angular/core",
	"typedi",
	"go.uber.org/fx",
	"go.uber.org/dig",
	"github.com/google/wire",
	"github.com/samber/do",
	"dependency_injector",
	"injector",
	"com.google.inject",
	"org.springframework",
}

// DefaultCodePatterns returns the built-in idiom catalog in reporting order.
func DefaultCodePatterns() []CodePatternDef {
	return []CodePatternDef{
		{
			Name:        "hooks",
			Description: "Functions following the use* hook convention",
			Match: namesOf(func(d core.DeclaredName) bool {
				return isFunction(d.Kind) && hookRe.MatchString(d.Name)
			}),
		},
		{
			Name:        "decorators",
			Description: "Decorators or annotations applied to declarations",
			Match: namesOf(func(d core.DeclaredName) bool {
				return d.Kind == core.KindDecorator
			}),
		},
		{
			Name:        "constructors",
			Description: "New* constructor functions",
			Match: namesOf(func(d core.DeclaredName) bool {
				return d.Kind == core.KindFunction && constructorRe.MatchString(d.Name)
			}),
		},
		{
			Name:        "interface-prefix",
			Description: "Interfaces named with an I prefix",
			Match: namesOf(func(d core.DeclaredName) bool {
				return d.Kind == core.KindInterface && ifacePrefixRe.MatchString(d.Name)
			}),
		},
		{
			Name:        "error-types",
			Description: "Custom error or exception types",
			Match: namesOf(func(d core.DeclaredName) bool {
				return isClassLike(d.Kind) &&
					(strings.HasSuffix(d.Name, "Error") || strings.HasSuffix(d.Name, "Exception"))
			}),
		},
		{
			Name:        "tests",
			Description: "Test files colocated with sources",
			Match: func(f core.File) []string {
				if IsTestFile(f) {
					return []string{f.Path}
				}
				return nil
			},
		},
		{
			Name:        "async",
			Description: "Functions suffixed with Async",
			Match: namesOf(func(d core.DeclaredName) bool {
				return isFunction(d.Kind) && strings.HasSuffix(d.Name, "Async") && len(d.Name) > len("Async")
			}),
		},
		{
			Name:        "dependency-injection",
			Description: "Imports of a dependency injection framework",
			Match: func(f core.File) []string {
				var hits []string
				for _, ref := range f.Symbols.Imports {
					for _, m := range diModules {
						if ref == m || strings.HasPrefix(ref, m+"/") || strings.HasPrefix(ref, m+".") {
							hits = append(hits, ref)
							break
						}
					}
				}
				return hits
			},
		},
	}
}

// IsTestFile reports whether f looks like a test file by name or location.
func IsTestFile(f core.File) bool {
	name := strings.ToLower(f.Name)
	stem := strings.TrimSuffix(name, path.Ext(name))
	switch {
	case strings.HasSuffix(stem, "_test"), strings.HasSuffix(stem, ".test"), strings.HasSuffix(stem, ".spec"):
		return true
	case strings.HasPrefix(name, "test_") && strings.HasSuffix(name, ".py"):
		return true
	case strings.HasSuffix(stem, "test") && (f.Extension == ".java" || f.Extension == ".kt" || f.Extension == ".cs"):
		return true
	}
	for _, seg := range strings.Split(f.Dir(), "/") {
		if seg == "__tests__" {
			return true
		}
	}
	return false
}

func namesOf(pred func(core.DeclaredName) bool) func(core.File) []string {
	return func(f core.File) []string {
		var out []string
		for _, d := range f.Symbols.DeclaredNames {
			if pred(d) {
				out = append(out, d.Name)
			}
		}
		return out
	}
}

func isFunction(k core.SymbolKind) bool {
	return k == core.KindFunction || k == core.KindMethod || k == core.KindVariable
}

func isClassLike(k core.SymbolKind) bool {
	switch k {
	case core.KindClass, core.KindType, core.KindStruct, core.KindInterface:
		return true
	}
	return false
}

// DetectCodePatterns runs defs over the sampled files. Only idioms with at
// least one occurrence are returned, in catalog order.
func DetectCodePatterns(sample []core.File, defs []CodePatternDef) []CodePattern {
	out := []CodePattern{}
	for _, def := range defs {
		p := CodePattern{Name: def.Name, Description: def.Description}
		seen := make(map[string]bool)
		for _, f := range sample {
			hits := def.Match(f)
			if len(hits) == 0 {
				continue
			}
			p.Files++
			p.Occurrences += len(hits)
			for _, h := range hits {
				if !seen[h] && len(p.Examples) < maxExamples {
					seen[h] = true
					p.Examples = append(p.Examples, h)
				}
			}
		}
		if p.Occurrences == 0 {
			continue
		}
		if len(sample) > 0 {
			p.Prevalence = clamp01(float64(p.Files) / float64(len(sample)))
		}
		out = append(out, p)
	}
	return out
}
