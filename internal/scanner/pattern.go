package scanner

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/rulecraft/pkg/core"
)

// declPattern captures a declared name in group 1.
type declPattern struct {
	re   *regexp.Regexp
	kind core.SymbolKind
}

// PatternExtractor extracts symbols with line-oriented regular expressions.
// It is deliberately shallow: it sees top-level statements, not scopes.
type PatternExtractor struct {
	exts    []string
	imports []*regexp.Regexp
	decls   []declPattern
	// rewrite post-processes import references; nil keeps them as matched.
	rewrite func(ref string, match []string) []string
}

// Extensions implements Extractor.
func (e *PatternExtractor) Extensions() []string { return e.exts }

// Extract implements Extractor.
func (e *PatternExtractor) Extract(_ string, src []byte) (core.ExtractedSymbols, error) {
	text := string(src)
	var out core.ExtractedSymbols

	seen := make(map[string]bool)
	for _, re := range e.imports {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			refs := []string{m[1]}
			if e.rewrite != nil {
				refs = e.rewrite(m[1], m)
			}
			for _, ref := range refs {
				if ref != "" && !seen[ref] {
					seen[ref] = true
					out.Imports = append(out.Imports, ref)
				}
			}
		}
	}

	declared := make(map[core.DeclaredName]bool)
	for _, line := range strings.Split(text, "\n") {
		for _, d := range e.decls {
			m := d.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			dn := core.DeclaredName{Name: m[1], Kind: kindFor(d.kind, m[1])}
			if !declared[dn] {
				declared[dn] = true
				out.DeclaredNames = append(out.DeclaredNames, dn)
			}
			break
		}
	}
	return out, nil
}

// kindFor promotes SCREAMING_CASE variables to constants.
func kindFor(kind core.SymbolKind, name string) core.SymbolKind {
	if kind == core.KindVariable && screaming.MatchString(name) {
		return core.KindConstant
	}
	return kind
}

var screaming = regexp.MustCompile(`^[A-Z][A-Z0-9]*(_[A-Z0-9]+)+$|^[A-Z]{2,}[0-9]*$`)

// NewScriptExtractor handles JavaScript and TypeScript sources.
func NewScriptExtractor() *PatternExtractor {
	return &PatternExtractor{
		exts: []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".mts", ".cts", ".vue", ".svelte"},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*import\s+(?:type\s+)?(?:[\w*{}\s,$]+?\s+from\s+)?["']([^"']+)["']`),
			regexp.MustCompile(`(?m)^\s*export\s+(?:type\s+)?(?:\*|\{[^}]*\})(?:\s+as\s+\w+)?\s+from\s+["']([^"']+)["']`),
			regexp.MustCompile(`\brequire\(\s*["']([^"']+)["']\s*\)`),
			regexp.MustCompile(`\bimport\(\s*["']([^"']+)["']\s*\)`),
		},
		decls: []declPattern{
			{regexp.MustCompile(`^\s*@([A-Za-z_$][\w$]*)`), core.KindDecorator},
			{regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\*?\s+([A-Za-z_$][\w$]*)`), core.KindFunction},
			{regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`), core.KindClass},
			{regexp.MustCompile(`^\s*(?:export\s+)?interface\s+([A-Za-z_$][\w$]*)`), core.KindInterface},
			{regexp.MustCompile(`^\s*(?:export\s+)?type\s+([A-Za-z_$][\w$]*)\s*(?:<[^=]*>)?\s*=`), core.KindType},
			{regexp.MustCompile(`^\s*(?:export\s+)?(?:const\s+)?enum\s+([A-Za-z_$][\w$]*)`), core.KindEnum},
			{regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=]+)?=\s*(?:async\s*)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*(?::[^=]+)?=>`), core.KindFunction},
			{regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)`), core.KindVariable},
		},
	}
}

// NewPythonExtractor handles Python sources.
func NewPythonExtractor() *PatternExtractor {
	return &PatternExtractor{
		exts: []string{".py", ".pyi"},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^[ \t]*from[ \t]+(\.+[\w.]*|[\w.]+)[ \t]+import[ \t]+(\([^)]*\)|[\w \t,*]+)`),
			regexp.MustCompile(`(?m)^[ \t]*import[ \t]+([\w.]+(?:[ \t]*,[ \t]*[\w.]+)*)`),
		},
		rewrite: func(ref string, m []string) []string {
			// "from . import a, b" names modules of the current package
			if strings.Trim(ref, ".") == "" && len(m) > 2 {
				var out []string
				for _, name := range strings.Split(strings.Trim(m[2], "()"), ",") {
					if fields := strings.Fields(name); len(fields) > 0 && fields[0] != "*" {
						out = append(out, ref+fields[0])
					}
				}
				return out
			}
			var out []string
			for _, part := range strings.Split(ref, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			return out
		},
		decls: []declPattern{
			{regexp.MustCompile(`^\s*@([A-Za-z_][\w.]*)`), core.KindDecorator},
			{regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)`), core.KindFunction},
			{regexp.MustCompile(`^class\s+([A-Za-z_]\w*)`), core.KindClass},
			{regexp.MustCompile(`^([A-Za-z_]\w*)\s*(?::[^=]+)?=[^=]`), core.KindVariable},
		},
	}
}

// NewRustExtractor handles Rust sources. "mod x;" becomes the relative
// reference "./x" so the graph can resolve x.rs or x/mod.rs.
func NewRustExtractor() *PatternExtractor {
	return &PatternExtractor{
		exts: []string{".rs"},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?mod\s+([a-z_][a-z0-9_]*)\s*;`),
			regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?use\s+([A-Za-z_][\w:]*)`),
		},
		rewrite: func(ref string, m []string) []string {
			if strings.Contains(m[0], "mod ") && !strings.Contains(ref, "::") {
				return []string{"./" + ref}
			}
			return []string{strings.TrimSuffix(ref, "::")}
		},
		decls: []declPattern{
			{regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+([A-Za-z_]\w*)`), core.KindFunction},
			{regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?struct\s+([A-Za-z_]\w*)`), core.KindStruct},
			{regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?enum\s+([A-Za-z_]\w*)`), core.KindEnum},
			{regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?trait\s+([A-Za-z_]\w*)`), core.KindInterface},
			{regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?type\s+([A-Za-z_]\w*)`), core.KindType},
			{regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:const|static)\s+([A-Za-z_]\w*)`), core.KindConstant},
		},
	}
}
