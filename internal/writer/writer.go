// Package writer persists platform artifacts to disk.
//
// Project and workspace artifacts land under the output directory. Paths
// starting with "~/" resolve against the home directory, which is how
// user-scope memory files reach their global location.
package writer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/rulecraft/pkg/core"
)

const stage = "writer"

// Status is the outcome for one artifact.
type Status string

// Statuses.
const (
	StatusWritten   Status = "written"
	StatusUnchanged Status = "unchanged"
	StatusPlanned   Status = "planned"
)

// Options configures a Writer.
type Options struct {
	// OutputDir is the base for relative artifact paths. Empty means ".".
	OutputDir string
	// HomeDir replaces the user's home directory for "~/" paths.
	HomeDir string
	// DryRun reports what would be written without touching disk.
	DryRun bool
	Logger *slog.Logger
}

// FileResult records what happened to one artifact.
type FileResult struct {
	Path   string     `json:"path"`
	Target string     `json:"target"`
	Scope  core.Scope `json:"scope"`
	Status Status     `json:"status"`
	Bytes  int        `json:"bytes"`
}

// Report summarises a Write call.
type Report struct {
	Files     []FileResult `json:"files"`
	Written   int          `json:"written"`
	Unchanged int          `json:"unchanged"`
	Planned   int          `json:"planned"`
}

// Writer writes artifacts.
type Writer struct {
	outputDir string
	homeDir   string
	dryRun    bool
	logger    *slog.Logger
}

// New creates a Writer. The home directory is looked up lazily, only when
// an artifact needs it.
func New(opts Options) *Writer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	out := opts.OutputDir
	if out == "" {
		out = "."
	}
	return &Writer{outputDir: out, homeDir: opts.HomeDir, dryRun: opts.DryRun, logger: logger}
}

// Target resolves an artifact path to a filesystem location. Absolute paths
// and paths that climb out of their base are rejected.
func (w *Writer) Target(a core.PlatformArtifact) (string, error) {
	p := a.Path
	bad := func(reason string) error {
		return &core.MalformedInputError{Stage: stage, Input: a.Path, Reason: reason}
	}
	if p == "" {
		return "", bad("empty artifact path")
	}

	base := w.outputDir
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		home, err := w.home()
		if err != nil {
			return "", err
		}
		base, p = home, rest
	}

	if path.IsAbs(p) || filepath.IsAbs(p) {
		return "", bad("artifact path must be relative")
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", bad("artifact path escapes its base directory")
	}
	return filepath.Join(base, filepath.FromSlash(clean)), nil
}

func (w *Writer) home() (string, error) {
	if w.homeDir != "" {
		return w.homeDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	w.homeDir = home
	return home, nil
}

// Write persists artifacts in order. Files whose content already matches are
// left untouched. The first failure stops the run; the partial report is
// returned with it.
func (w *Writer) Write(ctx context.Context, artifacts []core.PlatformArtifact) (*Report, error) {
	rep := &Report{Files: make([]FileResult, 0, len(artifacts))}
	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		target, err := w.Target(a)
		if err != nil {
			return rep, err
		}

		res := FileResult{Path: a.Path, Target: target, Scope: a.Scope, Bytes: len(a.Content)}
		res.Status, err = w.writeOne(target, []byte(a.Content))
		if err != nil {
			return rep, err
		}

		switch res.Status {
		case StatusWritten:
			rep.Written++
		case StatusUnchanged:
			rep.Unchanged++
		case StatusPlanned:
			rep.Planned++
		}
		w.logger.Debug("artifact", slog.String("path", target), slog.String("status", string(res.Status)))
		rep.Files = append(rep.Files, res)
	}
	return rep, nil
}

func (w *Writer) writeOne(target string, content []byte) (Status, error) {
	existing, err := os.ReadFile(target)
	switch {
	case err == nil:
		if bytes.Equal(existing, content) {
			return StatusUnchanged, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("failed to read %s: %w", target, err)
	}

	if w.dryRun {
		return StatusPlanned, nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", target, err)
	}
	if err := os.WriteFile(target, content, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	return StatusWritten, nil
}
