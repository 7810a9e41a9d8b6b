// Package patterns detects naming conventions, architectural patterns and
// code idioms in a scanned project.
//
// Detection is heuristic: every result carries a confidence in [0,1] and
// nothing here fails. A malformed or empty model yields an empty result.
package patterns

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/leapstack-labs/rulecraft/pkg/depgraph"
)

// Defaults for Options.
const (
	DefaultSampleSize    = 200
	DefaultMinConfidence = 0.3
)

const stage = "patterns"

// Options configures a Detect call.
type Options struct {
	// SampleSize bounds files inspected for code idioms; 0 means DefaultSampleSize.
	SampleSize int
	// MinConfidence is the architecture threshold; 0 means DefaultMinConfidence.
	MinConfidence float64
	// Patterns replaces the architecture catalog when non-empty.
	Patterns []PatternDef
	// CodePatterns replaces the idiom catalog when non-empty.
	CodePatterns []CodePatternDef
	// Graph adds dependency layer evidence (optional).
	Graph *depgraph.Graph
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Result is one detection snapshot.
type Result struct {
	Naming       NamingProfile               `json:"naming"`
	Architecture []ArchitecturalPatternScore `json:"architecture"`
	CodePatterns []CodePattern               `json:"code_patterns"`
	Consistency  ConsistencyMetrics          `json:"consistency"`
	Diagnostics  []core.Diagnostic           `json:"diagnostics,omitempty"`
}

// Primary returns the highest scoring architecture, if any.
func (r *Result) Primary() (ArchitecturalPatternScore, bool) {
	if r == nil || len(r.Architecture) == 0 {
		return ArchitecturalPatternScore{}, false
	}
	return r.Architecture[0], true
}

// Detect analyses model. It never fails.
func Detect(model *core.ProjectModel, opts Options) *Result {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sampleSize := opts.SampleSize
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	minConfidence := opts.MinConfidence
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	defs := opts.Patterns
	if len(defs) == 0 {
		defs = DefaultPatterns()
	}
	codeDefs := opts.CodePatterns
	if len(codeDefs) == 0 {
		codeDefs = DefaultCodePatterns()
	}

	if err := model.Validate(); err != nil {
		logger.Warn("pattern detection on malformed model", "error", err)
		res := emptyResult()
		res.Diagnostics = append(res.Diagnostics, unresolved(fmt.Sprintf("model rejected: %v", err)))
		return res
	}

	res := &Result{
		Naming:       DetectNaming(model),
		Architecture: ScoreArchitecture(NewFacts(model, opts.Graph), defs, minConfidence),
	}

	files := model.SortedFiles()
	if len(files) > sampleSize {
		files = files[:sampleSize]
	}
	res.CodePatterns = DetectCodePatterns(files, codeDefs)
	res.Consistency = computeConsistency(model, res.Naming, len(files))

	if len(res.Architecture) == 0 {
		res.Diagnostics = append(res.Diagnostics,
			unresolved(fmt.Sprintf("no architectural pattern reached confidence %.2f", minConfidence)))
	}

	logger.Debug("patterns detected",
		"architectures", len(res.Architecture),
		"code_patterns", len(res.CodePatterns),
		"sampled", len(files))
	return res
}

func emptyResult() *Result {
	naming := newNamingCounter().profile()
	return &Result{
		Naming:       naming,
		Architecture: []ArchitecturalPatternScore{},
		CodePatterns: []CodePattern{},
		Consistency:  computeConsistency(nil, naming, 0),
	}
}

func unresolved(msg string) core.Diagnostic {
	return core.Diagnostic{
		Kind:     core.DiagUnresolvedPattern,
		Severity: core.SeverityInfo,
		Stage:    stage,
		Message:  msg,
	}
}
