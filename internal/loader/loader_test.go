package loader

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/rulecraft/internal/testutil"
	"github.com/leapstack-labs/rulecraft/pkg/adapt"
	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFrontmatter(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantFM   core.Frontmatter
		wantBody string
		wantYAML bool
	}{
		{
			name:     "no frontmatter",
			content:  "# Just markdown\n\nBody text.",
			wantBody: "# Just markdown\n\nBody text.",
		},
		{
			name: "full frontmatter",
			content: `---
title: Go testing
description: How we write tests
category: testing
globs:
  - "**/*_test.go"
alwaysApply: false
framework: testify
---

Use table-driven tests.`,
			wantFM: core.Frontmatter{
				Title:       "Go testing",
				Description: "How we write tests",
				Category:    "testing",
				Globs:       []string{"**/*_test.go"},
				Framework:   "testify",
			},
			wantBody: "Use table-driven tests.",
			wantYAML: true,
		},
		{
			name:     "comma separated globs",
			content:  "---\nglobs: src/**/*.ts, src/**/*.tsx\n---\nBody",
			wantFM:   core.Frontmatter{Globs: []string{"src/**/*.ts", "src/**/*.tsx"}},
			wantBody: "Body",
			wantYAML: true,
		},
		{
			name:     "empty block",
			content:  "---\n---\nBody",
			wantBody: "Body",
			wantYAML: true,
		},
		{
			name:     "always apply",
			content:  "---\nalwaysApply: true\n---\r\nBody\r\n",
			wantFM:   core.Frontmatter{AlwaysApply: true},
			wantBody: "Body",
			wantYAML: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ExtractFrontmatter(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.wantYAML, res.HasYAML)
			assert.Equal(t, tt.wantFM, res.Frontmatter)
			assert.Equal(t, tt.wantBody, res.Body)
		})
	}
}

func TestExtractFrontmatter_Errors(t *testing.T) {
	t.Run("unknown field", func(t *testing.T) {
		_, err := ExtractFrontmatter("---\ndescription: x\npriority: high\n---\nBody")
		var fieldErr *UnknownFieldError
		require.True(t, errors.As(err, &fieldErr))
		assert.Equal(t, "priority", fieldErr.Field)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := ExtractFrontmatter("---\ndescription: [open\n---\nBody")
		var parseErr *FrontmatterParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Contains(t, parseErr.Error(), "invalid YAML")
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := ExtractFrontmatter("---\nalwaysApply: sometimes\n---\nBody")
		var parseErr *FrontmatterParseError
		require.True(t, errors.As(err, &parseErr))
	})

	t.Run("unterminated", func(t *testing.T) {
		_, err := ExtractFrontmatter("---\ndescription: x\nBody")
		var parseErr *FrontmatterParseError
		require.True(t, errors.As(err, &parseErr))
	})
}

func TestConvertHTMLRule(t *testing.T) {
	doc := `<!doctype html>
<html>
<head>
  <title>API Errors</title>
  <meta name="viewport" content="width=device-width">
  <meta name="description" content="When returning errors from handlers">
  <meta name="rule:category" content="api">
  <meta name="rule:globs" content="internal/http/**/*.go, cmd/**/*.go">
</head>
<body>
  <h2>Shape</h2>
  <p>Return <code>{"error": "..."}</code> bodies.</p>
  <ul><li>Never leak stack traces</li></ul>
</body>
</html>`

	fm, body, err := ConvertHTMLRule(doc)
	require.NoError(t, err)

	assert.Equal(t, core.Frontmatter{
		Title:       "API Errors",
		Description: "When returning errors from handlers",
		Category:    "api",
		Globs:       []string{"internal/http/**/*.go", "cmd/**/*.go"},
	}, fm)
	assert.Contains(t, body, "## Shape")
	assert.Contains(t, body, "Never leak stack traces")
	assert.NotContains(t, body, "<p>")
}

func TestConvertHTMLRule_UnknownMeta(t *testing.T) {
	_, _, err := ConvertHTMLRule(`<html><head><meta name="rule:priority" content="1"></head><body>x</body></html>`)
	var fieldErr *UnknownFieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "priority", fieldErr.Field)
}

func TestLoadRules(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"core/standards.md":  "---\ncategory: core\nalwaysApply: true\n---\nUse gofmt.",
		"testing/go.mdc":     "---\nglobs: \"**/*_test.go\"\n---\nTable tests.",
		"api/errors.html":    `<html><head><meta name="description" content="errors"></head><body><p>Wrap errors.</p></body></html>`,
		"README.md":          "# Rules library",
		"notes.txt":          "ignored",
		".drafts/wip.md":     "---\nbogus: 1\n---\nx",
		"broken/unknown.md":  "---\npriority: 1\n---\nx",
		"broken/unclosed.md": "---\ndescription: x\n",
	})

	set, err := LoadRules(dir, Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)

	var ids []string
	for _, r := range set.Rules {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"api/errors", "core/standards", "testing/go"}, ids)

	assert.Equal(t, "core", set.Rules[1].Frontmatter.Category)
	assert.Contains(t, set.Rules[1].Content, "alwaysApply: true", "markdown rules keep their source")
	assert.Equal(t, []string{"**/*_test.go"}, set.Rules[2].Frontmatter.Globs)
	assert.Equal(t, "errors", set.Rules[0].Frontmatter.Description)
	assert.Contains(t, set.Rules[0].Content, "Wrap errors.")

	require.Len(t, set.Diagnostics, 2)
	for _, d := range set.Diagnostics {
		assert.Equal(t, core.DiagSkippedRule, d.Kind)
		assert.Equal(t, "loader", d.Stage)
	}
	assert.Equal(t, "broken/unclosed.md", set.Diagnostics[0].Subject)
	assert.Equal(t, "broken/unknown.md", set.Diagnostics[1].Subject)
}

func TestLoadRules_LogsSkippedFiles(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"ok.md":      "fine",
		"bad/bad.md": "---\nnope: 1\n---\nx",
	})

	logger, logs := testutil.NewCaptureLogger(slog.LevelWarn)
	set, err := LoadRules(dir, Options{Logger: logger})
	require.NoError(t, err)
	assert.Len(t, set.Rules, 1)
	assert.Contains(t, logs.String(), "skipping rule file")
	assert.Contains(t, logs.String(), "bad/bad.md")
}

func TestLoadRules_Strict(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"a.md":     "fine",
		"b/bad.md": "---\nnope: 1\n---\nx",
	})

	_, err := LoadRules(dir, Options{Strict: true})
	require.Error(t, err)

	var fieldErr *UnknownFieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, filepath.Join(dir, "b", "bad.md"), fieldErr.File)
}

func TestLoadRules_DuplicateIDs(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"style.md":  "one",
		"style.mdc": "two",
	})

	set, err := LoadRules(dir, Options{})
	require.NoError(t, err)
	require.Len(t, set.Rules, 1)
	require.Len(t, set.Diagnostics, 1)
	assert.Contains(t, set.Diagnostics[0].Message, "already defined")
}

func TestLoadRules_MissingDir(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "nope"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadRules_FeedsAdaptation(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"core/standards.md": "---\ncategory: core\nalwaysApply: true\n---\nUse gofmt.",
	})
	set, err := LoadRules(dir, Options{})
	require.NoError(t, err)

	res, err := adapt.New(adapt.Options{}).Adapt(set.Rules, adapt.Builtins()[1], nil)
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "---\ndescription: \nglobs: \nalwaysApply: true\n---\n\nUse gofmt.\n", res.Files[0].Content)
}

func TestLoadPlatforms(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"b.yaml":    "id: beta\nenvelope: guidelines\n",
		"a.yml":     "id: alpha\nenvelope: memory\n---\nid: gamma\nenvelope: typed-header\n",
		"notes.txt": "ignored",
	})

	got, err := LoadPlatforms(dir)
	require.NoError(t, err)

	var ids []string
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"alpha", "gamma", "beta"}, ids)

	single, err := LoadPlatforms(filepath.Join(dir, "b.yaml"))
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, adapt.EnvelopeGuidelines, single[0].Envelope)
}

func TestLoadPlatforms_Invalid(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"bad.yaml": "id: x\nenvelope: carrier-pigeon\n",
	})

	_, err := LoadPlatforms(dir)
	require.Error(t, err)
	assert.True(t, core.IsMalformedInput(err))
}
