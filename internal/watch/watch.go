// Package watch reports debounced file changes under a directory tree.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Root is the directory watched recursively
	Root string
	// IgnoreDirs lists directory names that are not watched
	IgnoreDirs []string
	// Debounce is the quiet period before a batch is reported
	Debounce time.Duration
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Watcher batches file events under a root.
type Watcher struct {
	root     string
	ignore   []string
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a Watcher.
func New(opts Options) *Watcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{root: opts.Root, ignore: opts.IgnoreDirs, debounce: debounce, logger: logger}
}

// Run watches until ctx is done. After each quiet period onChange receives
// the changed paths, slash separated, relative to the root and sorted.
// Batches are delivered one at a time. An onChange error stops the watch.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, paths []string) error) error {
	if _, err := os.Stat(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := w.addRecursive(fw, w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if err := w.addRecursive(fw, event.Name); err != nil {
					w.logger.Debug("not watching new path", "path", event.Name, "error", err)
				}
			}
			rel, ok := w.relative(event.Name)
			if !ok {
				continue
			}
			pending[rel] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			clear(pending)

			w.logger.Debug("change detected", "files", len(batch))
			if err := onChange(ctx, batch); err != nil {
				return err
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// addRecursive watches dir and every directory below it, skipping ignored
// names. Plain files are ignored.
func (w *Watcher) addRecursive(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && slices.Contains(w.ignore, d.Name()) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

// relative maps an event path to a root-relative path, dropping ignored
// directories and anything under them.
func (w *Watcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if slices.Contains(w.ignore, part) {
			return "", false
		}
	}
	return rel, true
}
