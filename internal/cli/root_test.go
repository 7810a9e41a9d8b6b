package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/rulecraft/internal/cli/config"
	"github.com/leapstack-labs/rulecraft/internal/cli/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"analyze", "graph", "patterns", "signature", "generate",
		"platforms", "rules", "cache", "watch", "doctor", "init", "version", "completion"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "project-dir", "rules-dir", "output-dir", "platforms",
		"no-cache", "cache-path", "strict", "dry-run", "verbose", "output"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRootCommand_GenerateEndToEnd(t *testing.T) {
	project := testutil.SetupTestProject(t)

	out, _, err := run(t, "--project-dir", project, "--platforms", "cursor,claude", "-o", "json", "generate")
	require.NoError(t, err)

	var got struct {
		Selected []string `json:"selected"`
		Report   struct {
			Written int `json:"written"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, []string{"cli/cobra", "core/go-style"}, got.Selected)
	assert.Positive(t, got.Report.Written)
	assert.FileExists(t, filepath.Join(project, "out", ".cursor", "rules", "core-go-style.mdc"))
	assert.FileExists(t, filepath.Join(project, "out", "CLAUDE.md"))
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	project := testutil.SetupTestProject(t)

	out, _, err := run(t, "--config", filepath.Join(project, "rulecraft.yaml"), "--no-cache", "-o", "markdown", "signature")
	require.NoError(t, err)
	assert.Contains(t, out, "# Project Signature")
	assert.NotContains(t, out, "cached as run")
	assert.NoFileExists(t, filepath.Join(project, ".rulecraft", "cache.db"))
}

func TestRootCommand_VerboseLogsToStderr(t *testing.T) {
	project := testutil.SetupTestProject(t)

	out, errOut, err := run(t, "--project-dir", project, "-v", "-o", "json", "platforms")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
	assert.Contains(t, errOut, "using config file")
}

func TestRootCommand_InvalidOutput(t *testing.T) {
	project := testutil.SetupTestProject(t)

	_, _, err := run(t, "--project-dir", project, "-o", "html", "rules")
	assert.ErrorContains(t, err, "invalid output format")
}

func TestCompletionCommand(t *testing.T) {
	out, _, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "rulecraft")

	_, _, err = run(t, "completion", "tcsh")
	assert.Error(t, err)
}
