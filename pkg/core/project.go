package core

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// SymbolKind classifies a declared identifier.
type SymbolKind string

// Symbol kinds reported by extractors.
const (
	KindVariable  SymbolKind = "variable"
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindClass     SymbolKind = "class"
	KindType      SymbolKind = "type"
	KindInterface SymbolKind = "interface"
	KindStruct    SymbolKind = "struct"
	KindEnum      SymbolKind = "enum"
	KindConstant  SymbolKind = "constant"
	KindDecorator SymbolKind = "decorator"
)

// DeclaredName is an identifier declared in a source file.
type DeclaredName struct {
	Name string     `json:"name"`
	Kind SymbolKind `json:"kind"`
}

// ExtractedSymbols holds the raw facts pulled out of one source file.
type ExtractedSymbols struct {
	Imports       []string       `json:"imports,omitempty"`
	DeclaredNames []DeclaredName `json:"declared_names,omitempty"`
}

// File is one scanned file. Path is slash-separated and relative to the project root.
type File struct {
	Path      string           `json:"path"`
	Name      string           `json:"name"`
	Extension string           `json:"extension"`
	Symbols   ExtractedSymbols `json:"symbols"`

	// ReadError is set by the scanner when the content could not be read.
	// Consumers skip such files and report them as diagnostics.
	ReadError string `json:"read_error,omitempty"`
}

// Dir returns the slash-separated directory of the file ("" for root files).
func (f File) Dir() string {
	d := path.Dir(f.Path)
	if d == "." {
		return ""
	}
	return d
}

// Stem returns the file name without its extension.
func (f File) Stem() string {
	return strings.TrimSuffix(f.Name, f.Extension)
}

// Directory is one scanned directory. Top-level directories have Depth 0.
type Directory struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Depth int    `json:"depth"`
}

// ProjectModel is the normalized view of a scanned project.
// It is produced once by a scanner and treated as immutable afterwards.
type ProjectModel struct {
	Root        string      `json:"root"`
	Files       []File      `json:"files"`
	Directories []Directory `json:"directories"`
}

// Validate checks the model invariants: unique file paths and
// directory depths that match path nesting.
func (m *ProjectModel) Validate() error {
	if m == nil {
		return &MalformedInputError{Stage: "project-model", Input: "ProjectModel", Reason: "model is nil"}
	}

	seen := make(map[string]bool, len(m.Files))
	for _, f := range m.Files {
		if f.Path == "" {
			return &MalformedInputError{Stage: "project-model", Input: "files", Reason: "file with empty path"}
		}
		if seen[f.Path] {
			return &MalformedInputError{Stage: "project-model", Input: f.Path, Reason: "duplicate file path"}
		}
		seen[f.Path] = true
	}

	for _, d := range m.Directories {
		if d.Depth < 0 {
			return &MalformedInputError{Stage: "project-model", Input: d.Path, Reason: "negative directory depth"}
		}
		if want := strings.Count(strings.Trim(d.Path, "/"), "/"); want != d.Depth {
			return &MalformedInputError{
				Stage:  "project-model",
				Input:  d.Path,
				Reason: fmt.Sprintf("directory depth %d does not match path nesting %d", d.Depth, want),
			}
		}
	}

	return nil
}

// SortedFiles returns a copy of the files ordered by path.
func (m *ProjectModel) SortedFiles() []File {
	if m == nil {
		return nil
	}
	files := make([]File, len(m.Files))
	copy(files, m.Files)
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files
}

// SortedDirectories returns a copy of the directories ordered by path.
func (m *ProjectModel) SortedDirectories() []Directory {
	if m == nil {
		return nil
	}
	dirs := make([]Directory, len(m.Directories))
	copy(dirs, m.Directories)
	sort.Slice(dirs, func(i, j int) bool {
		return dirs[i].Path < dirs[j].Path
	})
	return dirs
}

// NewDirectory builds a Directory from a slash-separated relative path.
func NewDirectory(p string) Directory {
	p = strings.Trim(p, "/")
	return Directory{
		Path:  p,
		Name:  path.Base(p),
		Depth: strings.Count(p, "/"),
	}
}

// NewFile builds a File from a slash-separated relative path and its symbols.
func NewFile(p string, symbols ExtractedSymbols) File {
	p = strings.TrimPrefix(p, "./")
	name := path.Base(p)
	return File{
		Path:      p,
		Name:      name,
		Extension: path.Ext(name),
		Symbols:   symbols,
	}
}
