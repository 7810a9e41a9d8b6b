// Package scanner walks a project directory and builds the ProjectModel the
// analysis stages consume.
//
// Symbol extraction is delegated to an Extractor per file extension, so
// language support can grow without touching the walk itself.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/rulecraft/pkg/core"
)

const stage = "scanner"

// DefaultMaxFileSize bounds the bytes read from a single file.
const DefaultMaxFileSize = 1 << 20

// DefaultIgnoreDirs are directory names never descended into. Generated
// assistant rule directories are skipped so output never feeds analysis.
var DefaultIgnoreDirs = []string{
	".git", ".hg", ".svn", ".idea", ".vscode", ".next", ".nuxt", ".cache", ".venv",
	"node_modules", "vendor", "dist", "build", "target", "out", "coverage",
	"__pycache__", "venv", "bin", "obj",
	".rulecraft", ".cursor", ".claude", ".windsurf", ".junie",
}

// Extractor pulls imports and declared names out of one source file.
type Extractor interface {
	// Extensions lists the file extensions (with dot) the extractor handles.
	Extensions() []string
	// Extract parses src. An error marks the file unreadable.
	Extract(path string, src []byte) (core.ExtractedSymbols, error)
}

// DefaultExtractors returns the built-in extractors.
func DefaultExtractors() []Extractor {
	return []Extractor{
		GoExtractor{},
		NewScriptExtractor(),
		NewPythonExtractor(),
		NewRustExtractor(),
	}
}

// Options configures a scan.
type Options struct {
	// IgnoreDirs replaces DefaultIgnoreDirs when non-nil.
	IgnoreDirs []string
	// MaxFileSize caps bytes read per file; 0 means DefaultMaxFileSize.
	MaxFileSize int64
	// Extractors replaces DefaultExtractors when non-nil.
	Extractors []Extractor
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Result is the outcome of a scan.
type Result struct {
	Model       *core.ProjectModel
	Diagnostics []core.Diagnostic
}

// Scan walks root and returns its project model. Files in ignored or hidden
// directories are left out; files that cannot be read keep their path with
// ReadError set. Only a missing root or a cancelled context is an error.
func Scan(ctx context.Context, root string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	ignore := opts.IgnoreDirs
	if ignore == nil {
		ignore = DefaultIgnoreDirs
	}
	ignored := make(map[string]bool, len(ignore))
	for _, d := range ignore {
		ignored[d] = true
	}
	extractors := opts.Extractors
	if extractors == nil {
		extractors = DefaultExtractors()
	}
	byExt := make(map[string]Extractor)
	for _, e := range extractors {
		for _, ext := range e.Extensions() {
			if _, ok := byExt[ext]; !ok {
				byExt[ext] = e
			}
		}
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scanning %s: not a directory", root)
	}

	res := &Result{Model: &core.ProjectModel{Root: root}}
	dirs := make(map[string]bool)

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if walkErr != nil {
			if rel == "." {
				return walkErr
			}
			res.Diagnostics = append(res.Diagnostics, core.Diagnostic{
				Kind:     core.DiagSkippedFile,
				Severity: core.SeverityWarning,
				Stage:    stage,
				Subject:  rel,
				Message:  walkErr.Error(),
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if ignored[d.Name()] || (strings.HasPrefix(d.Name(), ".") && d.Name() != ".github") {
				return filepath.SkipDir
			}
			dirs[rel] = true
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		res.Model.Files = append(res.Model.Files, readFile(p, rel, maxSize, byExt, logger))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	for _, f := range res.Model.Files {
		for d := path.Dir(f.Path); d != "." && !dirs[d]; d = path.Dir(d) {
			dirs[d] = true
		}
	}
	paths := make([]string, 0, len(dirs))
	for d := range dirs {
		paths = append(paths, d)
	}
	sort.Strings(paths)
	for _, d := range paths {
		res.Model.Directories = append(res.Model.Directories, core.NewDirectory(d))
	}
	sort.Slice(res.Model.Files, func(i, j int) bool { return res.Model.Files[i].Path < res.Model.Files[j].Path })

	logger.Debug("scan complete",
		slog.String("root", root),
		slog.Int("files", len(res.Model.Files)),
		slog.Int("dirs", len(res.Model.Directories)))
	return res, nil
}

func readFile(full, rel string, maxSize int64, byExt map[string]Extractor, logger *slog.Logger) core.File {
	f := core.NewFile(rel, core.ExtractedSymbols{})

	ex, ok := byExt[strings.ToLower(f.Extension)]
	if !ok {
		return f
	}

	info, err := os.Stat(full)
	if err != nil {
		f.ReadError = err.Error()
		return f
	}
	if info.Size() > maxSize {
		f.ReadError = fmt.Sprintf("file size %d exceeds limit %d", info.Size(), maxSize)
		return f
	}

	src, err := os.ReadFile(full)
	if err != nil {
		f.ReadError = err.Error()
		return f
	}
	symbols, err := ex.Extract(rel, src)
	if err != nil {
		logger.Debug("extraction failed", slog.String("path", rel), slog.String("error", err.Error()))
		f.ReadError = err.Error()
		return f
	}
	f.Symbols = symbols
	return f
}
