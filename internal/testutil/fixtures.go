package testutil

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"testing"

	"github.com/leapstack-labs/rulecraft/pkg/core"
)

// File builds a model file with the given import references.
func File(p string, imports ...string) core.File {
	return core.NewFile(p, core.ExtractedSymbols{Imports: imports})
}

// FileWithNames builds a model file declaring names of a single kind.
func FileWithNames(p string, kind core.SymbolKind, names ...string) core.File {
	decls := make([]core.DeclaredName, 0, len(names))
	for _, n := range names {
		decls = append(decls, core.DeclaredName{Name: n, Kind: kind})
	}
	return core.NewFile(p, core.ExtractedSymbols{DeclaredNames: decls})
}

// Model builds a project model from files, deriving every ancestor
// directory from the file paths plus any extra directories given.
func Model(files []core.File, extraDirs ...string) *core.ProjectModel {
	dirs := make(map[string]bool)
	addDir := func(d string) {
		for d != "." && d != "" && !dirs[d] {
			dirs[d] = true
			d = path.Dir(d)
		}
	}
	for _, f := range files {
		addDir(path.Dir(f.Path))
	}
	for _, d := range extraDirs {
		addDir(d)
	}

	paths := make([]string, 0, len(dirs))
	for d := range dirs {
		paths = append(paths, d)
	}
	sort.Strings(paths)

	m := &core.ProjectModel{Root: ".", Files: files}
	for _, d := range paths {
		m.Directories = append(m.Directories, core.NewDirectory(d))
	}
	return m
}

// WriteTree writes files (slash-separated relative path -> content) under a
// fresh temp dir and returns its path.
func WriteTree(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}
