package depgraph

import (
	"path"
	"sort"
	"strings"

	"github.com/leapstack-labs/rulecraft/pkg/core"
)

// probeExtensions are tried, after the importer's own extension, when a
// candidate path has no exact match.
var probeExtensions = []string{
	".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".vue", ".svelte",
	".py", ".go", ".rs", ".rb", ".java", ".kt", ".php", ".cs",
}

// indexFiles make a directory importable as a module.
var indexFiles = []string{
	"index.ts", "index.tsx", "index.js", "index.jsx", "index.mjs", "index.vue",
	"__init__.py", "mod.rs",
}

type alias struct {
	prefix string
	target string
}

type resolver struct {
	files      map[string]bool
	goPackages map[string]string // package dir -> first non-test .go file
	aliases    []alias
	modulePath string
}

func newResolver(files []core.File, aliases map[string]string, modulePath string) *resolver {
	r := &resolver{
		files:      make(map[string]bool, len(files)),
		goPackages: make(map[string]string),
		modulePath: strings.TrimSuffix(modulePath, "/"),
	}
	// files arrive sorted, so the first .go file seen per dir is the lexical first
	for _, f := range files {
		r.files[f.Path] = true
		if f.Extension == ".go" && !strings.HasSuffix(f.Name, "_test.go") {
			if _, ok := r.goPackages[f.Dir()]; !ok {
				r.goPackages[f.Dir()] = f.Path
			}
		}
	}

	for prefix, target := range aliases {
		if prefix == "" {
			continue
		}
		r.aliases = append(r.aliases, alias{prefix: prefix, target: target})
	}
	// longest prefix wins; ties cannot happen for distinct map keys
	sort.Slice(r.aliases, func(i, j int) bool {
		if len(r.aliases[i].prefix) != len(r.aliases[j].prefix) {
			return len(r.aliases[i].prefix) > len(r.aliases[j].prefix)
		}
		return r.aliases[i].prefix < r.aliases[j].prefix
	})
	return r
}

// resolve maps a raw import reference to an in-project file path.
func (r *resolver) resolve(from core.File, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)

	switch {
	case isRelative(ref):
		return r.probe(path.Join(from.Dir(), ref), from.Extension)

	case from.Extension == ".py" && strings.HasPrefix(ref, "."):
		return r.resolvePythonRelative(from, ref)
	}

	for _, a := range r.aliases {
		if strings.HasPrefix(ref, a.prefix) {
			candidate := path.Join(a.target, strings.TrimPrefix(ref, a.prefix))
			if target, ok := r.probe(candidate, from.Extension); ok {
				return target, true
			}
		}
	}

	if r.modulePath != "" && (ref == r.modulePath || strings.HasPrefix(ref, r.modulePath+"/")) {
		dir := strings.TrimPrefix(strings.TrimPrefix(ref, r.modulePath), "/")
		target, ok := r.goPackages[dir]
		return target, ok
	}

	if from.Extension == ".py" && !strings.Contains(ref, "/") {
		return r.probe(strings.ReplaceAll(ref, ".", "/"), from.Extension)
	}

	return "", false
}

func (r *resolver) resolvePythonRelative(from core.File, ref string) (string, bool) {
	dots := len(ref) - len(strings.TrimLeft(ref, "."))
	base := from.Dir()
	for i := 1; i < dots; i++ {
		if base == "" {
			return "", false
		}
		base = parentDir(base)
	}
	rest := strings.ReplaceAll(ref[dots:], ".", "/")
	return r.probe(path.Join(base, rest), from.Extension)
}

// probe tries the exact path, then known extensions, then index files.
func (r *resolver) probe(candidate, srcExt string) (string, bool) {
	candidate = path.Clean(candidate)
	if candidate == ".." || strings.HasPrefix(candidate, "../") {
		return "", false
	}
	if candidate == "." {
		candidate = ""
	}

	if candidate != "" && r.files[candidate] {
		return candidate, true
	}

	if candidate != "" {
		if srcExt != "" && r.files[candidate+srcExt] {
			return candidate + srcExt, true
		}
		for _, ext := range probeExtensions {
			if r.files[candidate+ext] {
				return candidate + ext, true
			}
		}
	}

	for _, idx := range indexFiles {
		p := idx
		if candidate != "" {
			p = candidate + "/" + idx
		}
		if r.files[p] {
			return p, true
		}
	}
	return "", false
}

func isRelative(ref string) bool {
	return ref == "." || ref == ".." || strings.HasPrefix(ref, "./") || strings.HasPrefix(ref, "../")
}

func parentDir(dir string) string {
	d := path.Dir(dir)
	if d == "." {
		return ""
	}
	return d
}

// packageRoot names the external package a bare reference belongs to.
// Relative paths, absolute paths and platform builtins yield "".
func packageRoot(from core.File, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, ".") || strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "node:") {
		return ""
	}

	switch {
	case strings.HasPrefix(ref, "@"):
		parts := strings.SplitN(ref, "/", 3)
		if len(parts) >= 2 {
			return parts[0] + "/" + parts[1]
		}
		return ref

	case from.Extension == ".go":
		parts := strings.Split(ref, "/")
		// standard library paths have no host
		if !strings.Contains(parts[0], ".") {
			return ""
		}
		if len(parts) >= 3 {
			return strings.Join(parts[:3], "/")
		}
		return ref

	case from.Extension == ".py":
		return strings.SplitN(ref, ".", 2)[0]

	case from.Extension == ".rs":
		root := strings.SplitN(ref, "::", 2)[0]
		switch root {
		case "crate", "self", "super", "std", "core", "alloc":
			return ""
		}
		return root
	}

	return strings.SplitN(ref, "/", 2)[0]
}
