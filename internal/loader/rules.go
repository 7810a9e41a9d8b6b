package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/rulecraft/pkg/core"
)

const stage = "loader"

// RuleExtensions lists the file extensions treated as rule sources.
var RuleExtensions = []string{".md", ".mdc", ".html"}

// Options configures rule loading.
type Options struct {
	// Strict turns the first invalid rule file into an error instead of a diagnostic.
	Strict bool
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// RuleSet is the result of loading a rules directory.
type RuleSet struct {
	Rules       []core.Rule
	Diagnostics []core.Diagnostic
}

// LoadRules reads every rule file under dir. Rule ids are slash separated
// paths relative to dir without extension; rules are returned sorted by id.
// Files named README are ignored.
func LoadRules(dir string, opts Options) (*RuleSet, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("rules directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("rules directory: %s is not a directory", dir)
	}

	set := &RuleSet{}
	seen := make(map[string]string)

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !isRuleExtension(ext) {
			return nil
		}
		if strings.EqualFold(strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())), "readme") {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		id := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))

		rule, err := LoadRule(path, id)
		if err == nil {
			if other, dup := seen[id]; dup {
				err = fmt.Errorf("rule id %q already defined by %s", id, other)
			}
		}
		if err != nil {
			if opts.Strict {
				return err
			}
			logger.Warn("skipping rule file", slog.String("path", rel), slog.String("error", err.Error()))
			set.Diagnostics = append(set.Diagnostics, core.Diagnostic{
				Kind:     core.DiagSkippedRule,
				Severity: core.SeverityWarning,
				Stage:    stage,
				Subject:  filepath.ToSlash(rel),
				Message:  err.Error(),
			})
			return nil
		}

		seen[id] = filepath.ToSlash(rel)
		set.Rules = append(set.Rules, rule)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading rules from %s: %w", dir, err)
	}

	sort.Slice(set.Rules, func(i, j int) bool { return set.Rules[i].ID < set.Rules[j].ID })
	logger.Debug("loaded rules", slog.String("dir", dir), slog.Int("rules", len(set.Rules)), slog.Int("skipped", len(set.Diagnostics)))
	return set, nil
}

// LoadRule reads one rule file. Markdown sources keep their original content
// so adapters can strip the frontmatter themselves; HTML sources are converted
// to Markdown.
func LoadRule(path, id string) (core.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Rule{}, fmt.Errorf("failed to read rule file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".html") {
		fm, body, err := ConvertHTMLRule(string(data))
		if err != nil {
			return core.Rule{}, &FrontmatterParseError{File: path, Message: err.Error()}
		}
		return core.Rule{ID: id, Frontmatter: fm, Content: body}, nil
	}

	res, err := ExtractFrontmatter(string(data))
	if err != nil {
		return core.Rule{}, withFile(err, path)
	}
	return core.Rule{ID: id, Frontmatter: res.Frontmatter, Content: string(data)}, nil
}

func withFile(err error, path string) error {
	var parseErr *FrontmatterParseError
	if errors.As(err, &parseErr) {
		parseErr.File = path
		return parseErr
	}
	var fieldErr *UnknownFieldError
	if errors.As(err, &fieldErr) {
		fieldErr.File = path
		return fieldErr
	}
	return fmt.Errorf("%s: %w", path, err)
}

func isRuleExtension(ext string) bool {
	for _, e := range RuleExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
