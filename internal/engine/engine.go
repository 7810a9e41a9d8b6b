// Package engine runs the analysis and adaptation pipeline for one project.
// It wires the scanner, dependency graph, pattern detector, signature,
// signature cache, rule loader and adaptation engine together.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/leapstack-labs/rulecraft/internal/cache"
	"github.com/leapstack-labs/rulecraft/internal/loader"
	"github.com/leapstack-labs/rulecraft/internal/scanner"
	"github.com/leapstack-labs/rulecraft/pkg/adapt"
	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/leapstack-labs/rulecraft/pkg/depgraph"
	"github.com/leapstack-labs/rulecraft/pkg/patterns"
	"github.com/leapstack-labs/rulecraft/pkg/signature"
	"golang.org/x/mod/modfile"
	"golang.org/x/sync/errgroup"
)

// Config holds engine configuration.
type Config struct {
	// ProjectDir is the root of the project to analyse
	ProjectDir string
	// RulesDir holds the rule library
	RulesDir string
	// IgnoreDirs adds directory names the scanner skips
	IgnoreDirs []string
	// MaxFileSize caps bytes read per file (0 = scanner default)
	MaxFileSize int64
	// MaxFiles caps files parsed into the graph (0 = graph default)
	MaxFiles int
	// SampleSize caps files inspected for code idioms (0 = detector default)
	SampleSize int
	// MinConfidence is the architecture threshold (0 = detector default)
	MinConfidence float64
	// ModulePath resolves Go imports; empty reads it from go.mod
	ModulePath string
	// Aliases maps import prefixes to project paths
	Aliases map[string]string
	// Stack is merged into the inferred stack
	Stack signature.Stack
	// CachePath enables the signature cache when set
	CachePath string
	// Platforms registers custom descriptors next to the built-ins
	Platforms []adapt.Platform
	// PlatformFiles lists descriptor files or directories to load
	PlatformFiles []string
	// StrictRules fails on the first unreadable rule
	StrictRules bool
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine orchestrates analysis and adaptation.
type Engine struct {
	cfg      Config
	logger   *slog.Logger
	registry *adapt.Registry
	adapter  *adapt.Engine

	storeMu sync.Mutex
	store   *cache.Store
}

// New creates an engine. The cache database is opened lazily on first use.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.ProjectDir == "" {
		cfg.ProjectDir = "."
	}

	logger.Debug("initializing engine", "project_dir", cfg.ProjectDir, "rules_dir", cfg.RulesDir)

	registry := adapt.NewRegistry()
	for _, p := range cfg.Platforms {
		if err := registry.Register(p); err != nil {
			return nil, fmt.Errorf("invalid custom platform: %w", err)
		}
	}
	for _, path := range cfg.PlatformFiles {
		loaded, err := loader.LoadPlatforms(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load platforms: %w", err)
		}
		for _, p := range loaded {
			if err := registry.Register(p); err != nil {
				return nil, fmt.Errorf("invalid custom platform: %w", err)
			}
		}
	}

	return &Engine{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		adapter:  adapt.New(adapt.Options{Logger: logger}),
	}, nil
}

// Close releases the cache database if it was opened.
func (e *Engine) Close() error {
	e.storeMu.Lock()
	defer e.storeMu.Unlock()
	if e.store == nil {
		return nil
	}
	err := e.store.Close()
	e.store = nil
	return err
}

// Registry returns the platform registry.
func (e *Engine) Registry() *adapt.Registry { return e.registry }

// Cache returns the signature cache, opening it on first use. It returns
// nil when no cache path is configured.
func (e *Engine) Cache(ctx context.Context) (*cache.Store, error) {
	if e.cfg.CachePath == "" {
		return nil, nil
	}
	e.storeMu.Lock()
	defer e.storeMu.Unlock()
	if e.store != nil {
		return e.store, nil
	}

	if dir := filepath.Dir(e.cfg.CachePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	store, err := cache.Open(ctx, e.cfg.CachePath, e.logger)
	if err != nil {
		return nil, err
	}
	e.store = store
	return store, nil
}

// Analysis is a full pipeline snapshot.
type Analysis struct {
	Model       *core.ProjectModel  `json:"-"`
	Graph       *depgraph.Graph     `json:"graph"`
	Patterns    *patterns.Result    `json:"patterns"`
	Stack       signature.Stack     `json:"stack"`
	Signature   signature.Signature `json:"signature"`
	Diagnostics []core.Diagnostic   `json:"diagnostics,omitempty"`
}

// Scan walks the project directory.
func (e *Engine) Scan(ctx context.Context) (*scanner.Result, error) {
	var ignore []string
	if len(e.cfg.IgnoreDirs) > 0 {
		ignore = append(append(ignore, scanner.DefaultIgnoreDirs...), e.cfg.IgnoreDirs...)
	}
	res, err := scanner.Scan(ctx, e.cfg.ProjectDir, scanner.Options{
		IgnoreDirs:  ignore,
		MaxFileSize: e.cfg.MaxFileSize,
		Logger:      e.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", e.cfg.ProjectDir, err)
	}
	return res, nil
}

// Analyze runs scan, graph, pattern detection and signature composition.
func (e *Engine) Analyze(ctx context.Context) (*Analysis, error) {
	scanned, err := e.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return e.AnalyzeModel(scanned.Model, scanned.Diagnostics)
}

// AnalyzeModel runs the pipeline on an already scanned model.
func (e *Engine) AnalyzeModel(model *core.ProjectModel, diags []core.Diagnostic) (*Analysis, error) {
	graph, err := depgraph.Build(model, depgraph.Options{
		MaxFilesToParse: e.cfg.MaxFiles,
		Aliases:         e.cfg.Aliases,
		ModulePath:      e.modulePath(),
		Logger:          e.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}

	detected := patterns.Detect(model, patterns.Options{
		SampleSize:    e.cfg.SampleSize,
		MinConfidence: e.cfg.MinConfidence,
		Graph:         graph,
		Logger:        e.logger,
	})

	stack := signature.InferStack(model, graph).Merge(e.cfg.Stack)
	sig := signature.Compose(signature.Input{Model: model, Graph: graph, Patterns: detected, Stack: stack})

	a := &Analysis{Model: model, Graph: graph, Patterns: detected, Stack: stack, Signature: sig}
	a.Diagnostics = append(a.Diagnostics, diags...)
	a.Diagnostics = append(a.Diagnostics, graph.Diagnostics...)
	a.Diagnostics = append(a.Diagnostics, detected.Diagnostics...)
	return a, nil
}

// SignatureResult is a signature plus where it came from.
type SignatureResult struct {
	Signature   signature.Signature `json:"signature"`
	Fingerprint string              `json:"fingerprint"`
	Cached      bool                `json:"cached"`
	RunID       string              `json:"run_id,omitempty"`
	Diagnostics []core.Diagnostic   `json:"diagnostics,omitempty"`
}

// Signature returns the project signature, consulting the cache when one
// is configured. A cache failure is logged and the pipeline runs anyway.
func (e *Engine) Signature(ctx context.Context) (*SignatureResult, error) {
	scanned, err := e.Scan(ctx)
	if err != nil {
		return nil, err
	}
	fp := cache.Fingerprint(scanned.Model, e.fingerprintExtras()...)

	store, err := e.Cache(ctx)
	if err != nil {
		e.logger.Warn("signature cache unavailable", "error", err)
		store = nil
	}
	if store != nil {
		entry, err := store.Get(ctx, fp)
		switch {
		case err == nil:
			e.logger.Debug("signature cache hit", "fingerprint", fp, "run_id", entry.RunID)
			return &SignatureResult{
				Signature:   entry.Signature,
				Fingerprint: fp,
				Cached:      true,
				RunID:       entry.RunID,
				Diagnostics: scanned.Diagnostics,
			}, nil
		case !errors.Is(err, cache.ErrNotFound):
			e.logger.Warn("signature cache read failed", "error", err)
		}
	}

	a, err := e.AnalyzeModel(scanned.Model, scanned.Diagnostics)
	if err != nil {
		return nil, err
	}
	res := &SignatureResult{Signature: a.Signature, Fingerprint: fp, Diagnostics: a.Diagnostics}
	if store != nil {
		entry, err := store.Put(ctx, e.cfg.ProjectDir, fp, a.Signature)
		if err != nil {
			e.logger.Warn("signature cache write failed", "error", err)
		} else {
			res.RunID = entry.RunID
		}
	}
	return res, nil
}

// LoadRules reads the rule library.
func (e *Engine) LoadRules() (*loader.RuleSet, error) {
	if e.cfg.RulesDir == "" {
		return nil, fmt.Errorf("rules directory is not configured")
	}
	return loader.LoadRules(e.cfg.RulesDir, loader.Options{Strict: e.cfg.StrictRules, Logger: e.logger})
}

// PlatformResult is the adaptation output for one platform.
type PlatformResult struct {
	Platform adapt.Platform `json:"platform"`
	Result   *adapt.Result  `json:"result"`
}

// Generation is the output of Generate.
type Generation struct {
	Signature   *SignatureResult  `json:"signature"`
	Selected    []string          `json:"selected"`
	Rejected    []string          `json:"rejected,omitempty"`
	Platforms   []PlatformResult  `json:"platforms"`
	Diagnostics []core.Diagnostic `json:"diagnostics,omitempty"`
}

// Generate selects the rules that fit the project and adapts them to each
// platform concurrently. Results keep the order of platformIDs; no ids
// means every registered platform.
func (e *Engine) Generate(ctx context.Context, platformIDs []string) (*Generation, error) {
	if len(platformIDs) == 0 {
		platformIDs = e.registry.IDs()
	}
	targets, err := e.registry.Resolve(platformIDs)
	if err != nil {
		return nil, err
	}

	sig, err := e.Signature(ctx)
	if err != nil {
		return nil, err
	}
	rules, err := e.LoadRules()
	if err != nil {
		return nil, err
	}

	kept, rejected := sig.Signature.Filter(rules.Rules)
	gen := &Generation{
		Signature: sig,
		Selected:  ruleIDs(kept),
		Rejected:  ruleIDs(rejected),
		Platforms: make([]PlatformResult, len(targets)),
	}
	gen.Diagnostics = append(gen.Diagnostics, rules.Diagnostics...)
	e.logger.Debug("rules selected", "kept", len(kept), "rejected", len(rejected))

	eg, egctx := errgroup.WithContext(ctx)
	for i, target := range targets {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			res, err := e.adapter.Adapt(kept, target, &sig.Signature)
			if err != nil {
				return fmt.Errorf("%s: %w", target.ID, err)
			}
			gen.Platforms[i] = PlatformResult{Platform: target, Result: res}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, p := range gen.Platforms {
		gen.Diagnostics = append(gen.Diagnostics, p.Result.Diagnostics...)
	}
	return gen, nil
}

func ruleIDs(rules []core.Rule) []string {
	ids := make([]string, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}
	return ids
}

// modulePath returns the configured module path or the one declared in the
// project's go.mod.
func (e *Engine) modulePath() string {
	if e.cfg.ModulePath != "" {
		return e.cfg.ModulePath
	}
	data, err := os.ReadFile(filepath.Join(e.cfg.ProjectDir, "go.mod"))
	if err != nil {
		return ""
	}
	return modfile.ModulePath(data)
}

// fingerprintExtras folds every option that changes analysis output into the
// cache key.
func (e *Engine) fingerprintExtras() []string {
	extras := []string{
		"max_files=" + strconv.Itoa(e.cfg.MaxFiles),
		"sample_size=" + strconv.Itoa(e.cfg.SampleSize),
		"min_confidence=" + strconv.FormatFloat(e.cfg.MinConfidence, 'g', -1, 64),
		"module_path=" + e.modulePath(),
		"stack=" + strings.Join(e.cfg.Stack.Languages, ",") + "|" +
			strings.Join(e.cfg.Stack.Frameworks, ",") + "|" +
			strings.Join(e.cfg.Stack.Libraries, ","),
	}
	keys := make([]string, 0, len(e.cfg.Aliases))
	for k := range e.cfg.Aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		extras = append(extras, "alias="+k+"="+e.cfg.Aliases[k])
	}
	return extras
}
