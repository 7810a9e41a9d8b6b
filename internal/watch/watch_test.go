package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/rulecraft/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, w *Watcher, onChange func(context.Context, []string) error) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, onChange) }()
	// fsnotify registers watches synchronously inside Run; give it a moment.
	time.Sleep(100 * time.Millisecond)
	t.Cleanup(cancel)
	return cancel, done
}

func TestRun_BatchesChanges(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"src/a.go":        "package a\n",
		"vendor/x/x.go":   "package x\n",
		"src/deep/b.go":   "package deep\n",
		"node_modules/.k": "",
	})

	batches := make(chan []string, 4)
	w := New(Options{
		Root:       root,
		IgnoreDirs: []string{"vendor", "node_modules"},
		Debounce:   150 * time.Millisecond,
		Logger:     testutil.NewTestLogger(t),
	})
	cancel, done := startWatcher(t, w, func(_ context.Context, paths []string) error {
		batches <- paths
		return nil
	})

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "a.go"), []byte("package a\n\nvar X = 1\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "deep", "b.go"), []byte("package deep\n\nvar Y = 2\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "vendor", "x", "x.go"), []byte("package x\n\nvar Z = 3\n"), 0600))

	select {
	case got := <-batches:
		assert.Equal(t, []string{"src/a.go", "src/deep/b.go"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change batch delivered")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestRun_WatchesNewDirectories(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"main.go": "package main\n"})

	batches := make(chan []string, 8)
	w := New(Options{Root: root, Debounce: 50 * time.Millisecond})
	startWatcher(t, w, func(_ context.Context, paths []string) error {
		batches <- paths
		return nil
	})

	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0750))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "new.go"), []byte("package pkg\n"), 0600))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-batches:
			if assert.NotEmpty(t, got) && got[len(got)-1] == "pkg/new.go" {
				return
			}
		case <-deadline:
			t.Fatal("change in new directory not delivered")
		}
	}
}

func TestRun_CallbackErrorStops(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"a.txt": "a"})
	boom := errors.New("boom")

	w := New(Options{Root: root, Debounce: 20 * time.Millisecond})
	_, done := startWatcher(t, w, func(context.Context, []string) error { return boom })

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("b"), 0600))
	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRun_MissingRoot(t *testing.T) {
	w := New(Options{Root: filepath.Join(t.TempDir(), "missing")})
	err := w.Run(context.Background(), func(context.Context, []string) error { return nil })
	assert.ErrorContains(t, err, "failed to watch")
}

func TestRelative(t *testing.T) {
	root := filepath.FromSlash("/p")
	w := New(Options{Root: root, IgnoreDirs: []string{".git"}})

	got, ok := w.relative(filepath.Join(root, "a", "b.go"))
	assert.True(t, ok)
	assert.Equal(t, "a/b.go", got)

	_, ok = w.relative(filepath.Join(root, ".git", "HEAD"))
	assert.False(t, ok)
	_, ok = w.relative(root)
	assert.False(t, ok)
	_, ok = w.relative(filepath.FromSlash("/elsewhere/x.go"))
	assert.False(t, ok)
}
