package patterns

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/leapstack-labs/rulecraft/pkg/core"
)

// Convention is a naming convention bucket.
type Convention string

// Naming conventions, in tie-break order.
const (
	CamelCase          Convention = "camelCase"
	PascalCase         Convention = "PascalCase"
	SnakeCase          Convention = "snake_case"
	KebabCase          Convention = "kebab-case"
	ScreamingSnakeCase Convention = "SCREAMING_SNAKE_CASE"
)

// Conventions lists every bucket in declaration order. Dominance ties are
// broken by this order.
var Conventions = []Convention{CamelCase, PascalCase, SnakeCase, KebabCase, ScreamingSnakeCase}

// Category is an identifier category.
type Category string

// Identifier categories.
const (
	CategoryVariables   Category = "variables"
	CategoryFunctions   Category = "functions"
	CategoryClasses     Category = "classes"
	CategoryConstants   Category = "constants"
	CategoryFiles       Category = "files"
	CategoryDirectories Category = "directories"
)

// Categories lists every category in reporting order.
var Categories = []Category{
	CategoryVariables,
	CategoryFunctions,
	CategoryClasses,
	CategoryConstants,
	CategoryFiles,
	CategoryDirectories,
}

const maxExamples = 3

// CategoryProfile is the naming consensus for one category.
type CategoryProfile struct {
	Counts       map[Convention]int      `json:"counts"`
	Dominant     Convention              `json:"dominant,omitempty"`
	Confidence   float64                 `json:"confidence"`
	Total        int                     `json:"total"`
	Unclassified int                     `json:"unclassified"`
	Examples     map[Convention][]string `json:"examples,omitempty"`
}

// NamingProfile maps each category to its consensus.
type NamingProfile map[Category]CategoryProfile

var (
	snakeRe     = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)+$`)
	kebabRe     = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)+$`)
	camelRe     = regexp.MustCompile(`^[a-z][a-z0-9]*([A-Z][a-z0-9]*)+$`)
	pascalRe    = regexp.MustCompile(`^[A-Z][a-z0-9]+([A-Z][a-z0-9]*)*$`)
	screamingRe = regexp.MustCompile(`^[A-Z][A-Z0-9]*(_[A-Z0-9]+)+$`)
	allCapsRe   = regexp.MustCompile(`^[A-Z][A-Z0-9]+$`)
)

// Classify returns the convention of name, or "" when it fits none.
// Leading underscores and dollar signs are ignored.
func Classify(name string) Convention {
	name = strings.TrimLeft(name, "_$")
	switch {
	case name == "":
		return ""
	case snakeRe.MatchString(name):
		return SnakeCase
	case kebabRe.MatchString(name):
		return KebabCase
	case camelRe.MatchString(name):
		return CamelCase
	case pascalRe.MatchString(name):
		return PascalCase
	case screamingRe.MatchString(name), allCapsRe.MatchString(name):
		return ScreamingSnakeCase
	}
	return ""
}

// kindCategory maps a symbol kind to its identifier category.
func kindCategory(kind core.SymbolKind) (Category, bool) {
	switch kind {
	case core.KindVariable:
		return CategoryVariables, true
	case core.KindFunction, core.KindMethod:
		return CategoryFunctions, true
	case core.KindClass, core.KindType, core.KindInterface, core.KindStruct, core.KindEnum:
		return CategoryClasses, true
	case core.KindConstant:
		return CategoryConstants, true
	}
	return "", false
}

// fileBaseName strips extensions, leading dots and test suffixes from a file name.
func fileBaseName(name string) string {
	name = strings.TrimLeft(name, ".")
	name = strings.TrimSuffix(name, path.Ext(name))
	for _, suffix := range []string{".test", ".spec", "_test", ".stories", ".d"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return name
}

type namingCounter struct {
	counts       map[Category]map[Convention]int
	examples     map[Category]map[Convention]map[string]bool
	unclassified map[Category]int
}

func newNamingCounter() *namingCounter {
	return &namingCounter{
		counts:       make(map[Category]map[Convention]int),
		examples:     make(map[Category]map[Convention]map[string]bool),
		unclassified: make(map[Category]int),
	}
}

func (c *namingCounter) add(cat Category, name string) {
	conv := Classify(name)
	if conv == "" {
		c.unclassified[cat]++
		return
	}
	if c.counts[cat] == nil {
		c.counts[cat] = make(map[Convention]int)
		c.examples[cat] = make(map[Convention]map[string]bool)
	}
	c.counts[cat][conv]++
	if c.examples[cat][conv] == nil {
		c.examples[cat][conv] = make(map[string]bool)
	}
	c.examples[cat][conv][name] = true
}

func (c *namingCounter) profile() NamingProfile {
	out := make(NamingProfile, len(Categories))
	for _, cat := range Categories {
		p := CategoryProfile{
			Counts:       make(map[Convention]int),
			Unclassified: c.unclassified[cat],
		}
		best := 0
		for _, conv := range Conventions {
			n := c.counts[cat][conv]
			p.Counts[conv] = n
			p.Total += n
			if n > best {
				best = n
				p.Dominant = conv
			}
			if names := c.examples[cat][conv]; len(names) > 0 {
				if p.Examples == nil {
					p.Examples = make(map[Convention][]string)
				}
				p.Examples[conv] = firstSorted(names, maxExamples)
			}
		}
		if p.Total > 0 {
			p.Confidence = float64(best) / float64(p.Total)
		}
		out[cat] = p
	}
	return out
}

// DetectNaming builds the naming profile over every declared name, file and
// directory of the model.
func DetectNaming(model *core.ProjectModel) NamingProfile {
	c := newNamingCounter()
	if model == nil {
		return c.profile()
	}
	for _, f := range model.Files {
		for _, d := range f.Symbols.DeclaredNames {
			if cat, ok := kindCategory(d.Kind); ok {
				c.add(cat, d.Name)
			}
		}
		if base := fileBaseName(f.Name); base != "" {
			c.add(CategoryFiles, base)
		}
	}
	for _, d := range model.Directories {
		c.add(CategoryDirectories, d.Name)
	}
	return c.profile()
}

func firstSorted(set map[string]bool, n int) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}
