// Package adapt converts platform-agnostic rules into the native artifacts of
// one AI coding assistant.
//
// A call validates the platform descriptor, classifies each rule's
// activation, caps the rule count by priority, renders the platform envelope
// and finally enforces per-file and workspace character limits. Nothing is
// written to disk.
package adapt

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/leapstack-labs/rulecraft/pkg/signature"
)

const stage = "adapt"

// Options configures an Engine.
type Options struct {
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine adapts rules to platforms. It holds only its options, so a single
// Engine may serve concurrent calls.
type Engine struct {
	logger *slog.Logger
}

// New creates an Engine.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{logger: logger}
}

// Summary describes the artifacts produced for one platform.
type Summary struct {
	Platform        string                    `json:"platform"`
	TotalFiles      int                       `json:"total_files"`
	ByScope         map[core.Scope]int        `json:"by_scope"`
	ByType          map[core.ArtifactType]int `json:"by_type"`
	ByActivation    map[core.Activation]int   `json:"by_activation"`
	TotalCharacters int                       `json:"total_characters"`
	CharacterLimit  int                       `json:"character_limit,omitempty"`
	WithinLimit     bool                      `json:"within_limit"`
	Truncations     []core.TruncationWarning  `json:"truncations,omitempty"`
	Dropped         []string                  `json:"dropped,omitempty"`
	Skipped         []string                  `json:"skipped,omitempty"`
}

// Result is the output of one Adapt call.
type Result struct {
	Files       []core.PlatformArtifact `json:"files"`
	Summary     Summary                 `json:"summary"`
	Diagnostics []core.Diagnostic       `json:"diagnostics,omitempty"`
}

// Adapt renders rules for target. sig may be nil; it only feeds the project
// context preamble of aggregating envelopes.
//
// An invalid descriptor or an empty or duplicated rule id is a
// *core.MalformedInputError. Rules that cannot be rendered and rules dropped
// by count capping become diagnostics.
func (e *Engine) Adapt(rules []core.Rule, target Platform, sig *signature.Signature) (*Result, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if err := validateRules(rules); err != nil {
		return nil, err
	}

	res := &Result{Summary: Summary{
		Platform:     target.ID,
		ByScope:      make(map[core.Scope]int),
		ByType:       make(map[core.ArtifactType]int),
		ByActivation: make(map[core.Activation]int),
	}}

	sorted := make([]core.Rule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	kept, dropped := capRules(sorted, target.Limits.MaxCount)
	for _, d := range dropped {
		res.Summary.Dropped = append(res.Summary.Dropped, d.rule.ID)
		res.Diagnostics = append(res.Diagnostics, core.Diagnostic{
			Kind:     core.DiagDroppedRule,
			Severity: core.SeverityWarning,
			Stage:    stage,
			Subject:  d.rule.ID,
			Message:  fmt.Sprintf("priority %d below the top %d for %s", d.priority, target.Limits.MaxCount, target.ID),
		})
	}
	if len(dropped) > 0 {
		e.logger.Warn("rule count capped",
			slog.String("platform", target.ID),
			slog.Int("max_count", target.Limits.MaxCount),
			slog.Int("dropped", len(dropped)))
	}

	ready := make([]prepared, 0, len(kept))
	for _, r := range kept {
		p, err := prepare(r)
		if err != nil {
			res.Summary.Skipped = append(res.Summary.Skipped, r.ID)
			res.Diagnostics = append(res.Diagnostics, core.Diagnostic{
				Kind:     core.DiagSkippedRule,
				Severity: core.SeverityWarning,
				Stage:    stage,
				Subject:  r.ID,
				Message:  err.Error(),
			})
			e.logger.Debug("rule skipped", slog.String("rule", r.ID), slog.String("error", err.Error()))
			continue
		}
		ready = append(ready, p)
		res.Summary.ByActivation[p.activation]++
	}

	for _, p := range disambiguateSlugs(ready) {
		e.logger.Debug("slug collision", slog.String("rule", p.rule.ID), slog.String("slug", p.slug))
	}

	files := renderers[target.Envelope](target, ready, sig)

	warnings := enforceFileLimits(files, target)
	warnings = append(warnings, enforceWorkspaceLimit(files, target.Limits.TotalWorkspace)...)
	for _, w := range warnings {
		res.Diagnostics = append(res.Diagnostics, core.Diagnostic{
			Kind:     core.DiagTruncation,
			Severity: core.SeverityWarning,
			Stage:    stage,
			Subject:  w.Path,
			Message:  fmt.Sprintf("truncated from %d to %d characters (limit %d, %s boundary)", w.OriginalLength, w.FinalLength, w.Limit, w.Boundary),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	res.Files = files
	summarize(&res.Summary, files, target, warnings)

	e.logger.Debug("adapted rules",
		slog.String("platform", target.ID),
		slog.Int("rules", len(ready)),
		slog.Int("files", len(files)),
		slog.Int("truncations", len(warnings)))

	return res, nil
}

func validateRules(rules []core.Rule) error {
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if r.ID == "" {
			return &core.MalformedInputError{Stage: stage, Input: fmt.Sprintf("rule #%d", i), Reason: "rule id is empty"}
		}
		if seen[r.ID] {
			return &core.MalformedInputError{Stage: stage, Input: r.ID, Reason: "duplicate rule id"}
		}
		seen[r.ID] = true
	}
	return nil
}

func summarize(s *Summary, files []core.PlatformArtifact, target Platform, warnings []core.TruncationWarning) {
	s.TotalFiles = len(files)
	s.Truncations = warnings

	workspace := 0
	perFile := fileLimit(target)
	s.WithinLimit = true
	for _, f := range files {
		n := Length(f.Content)
		s.TotalCharacters += n
		s.ByScope[f.Scope]++
		s.ByType[f.Type]++
		if f.Scope == core.ScopeWorkspace {
			workspace += n
		}
		if perFile > 0 && n > perFile {
			s.WithinLimit = false
		}
	}

	s.CharacterLimit = target.Limits.TotalWorkspace
	if s.CharacterLimit > 0 && workspace > s.CharacterLimit {
		s.WithinLimit = false
	}
}
