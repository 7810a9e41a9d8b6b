package adapt

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/rulecraft/pkg/core"
)

// TruncationMarker is appended to shortened content.
const TruncationMarker = "\n\n[... content truncated to fit platform limits]"

// minRetain is the share of the limit a boundary cut must keep.
const minRetain = 0.7

// hardCutBuffer is subtracted from the budget when no boundary qualifies.
const hardCutBuffer = 10

// Boundary kinds reported in truncation results.
const (
	BoundaryParagraph       = "paragraph"
	BoundarySentenceNewline = "sentence-newline"
	BoundarySentence        = "sentence"
	BoundaryLine            = "line"
	BoundaryHard            = "hard"
	BoundaryPrefix          = "prefix"
)

// Truncation describes what EnforceLimit did.
type Truncation struct {
	Truncated      bool
	OriginalLength int
	FinalLength    int
	Limit          int
	Boundary       string
}

// boundary finds a cut position p (content kept is r[:p]) for one kind.
type boundary struct {
	name  string
	cutAt func(r []rune, p int) bool
}

// boundaries in priority order.
var boundaries = []boundary{
	{BoundaryParagraph, func(r []rune, p int) bool {
		return p+1 < len(r) && r[p] == '\n' && r[p+1] == '\n'
	}},
	{BoundarySentenceNewline, func(r []rune, p int) bool {
		return p > 0 && r[p-1] == '.' && r[p] == '\n'
	}},
	{BoundarySentence, func(r []rune, p int) bool {
		return p > 0 && r[p-1] == '.' && r[p] == ' '
	}},
	{BoundaryLine, func(r []rune, p int) bool {
		return r[p] == '\n'
	}},
}

// EnforceLimit shortens s to at most limit code points. A limit of 0 or less
// means unlimited. The kept text is always a prefix of s followed by
// TruncationMarker, except when limit cannot fit the marker, in which case a
// bare prefix is returned.
func EnforceLimit(s string, limit int) (string, Truncation) {
	n := utf8.RuneCountInString(s)
	t := Truncation{OriginalLength: n, FinalLength: n, Limit: limit}
	if limit <= 0 || n <= limit {
		return s, t
	}

	r := []rune(s)
	t.Truncated = true

	markerLen := utf8.RuneCountInString(TruncationMarker)
	if limit <= markerLen {
		t.FinalLength = limit
		t.Boundary = BoundaryPrefix
		return string(r[:limit]), t
	}

	budget := limit - markerLen
	minKeep := int(math.Ceil(float64(limit) * minRetain))

	cut := -1
	for _, b := range boundaries {
		for p := budget; p >= minKeep && p > 0; p-- {
			if b.cutAt(r, p) {
				cut = p
				t.Boundary = b.name
				break
			}
		}
		if cut >= 0 {
			break
		}
	}
	if cut < 0 {
		cut = max(budget-hardCutBuffer, 0)
		t.Boundary = BoundaryHard
	}

	out := string(r[:cut]) + TruncationMarker
	t.FinalLength = cut + markerLen
	return out, t
}

// Length counts code points, the unit all platform limits use.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

// fileLimit is the per-file limit that applies to an artifact.
func fileLimit(target Platform) int {
	l := target.Limits
	if target.Envelope != EnvelopeGuidelines {
		return l.PerFile
	}
	switch {
	case l.PerFile > 0 && l.PerGuideline > 0:
		return min(l.PerFile, l.PerGuideline)
	case l.PerGuideline > 0:
		return l.PerGuideline
	default:
		return l.PerFile
	}
}

func warning(a core.PlatformArtifact, t Truncation) core.TruncationWarning {
	return core.TruncationWarning{
		Path:           a.Path,
		OriginalLength: t.OriginalLength,
		FinalLength:    t.FinalLength,
		Limit:          t.Limit,
		Boundary:       t.Boundary,
	}
}

// limitArtifact shortens an artifact's content to limit. Semantic-tag
// artifacts are cut inside the tag so the closing tag survives.
func limitArtifact(a *core.PlatformArtifact, limit int) Truncation {
	closing := ""
	if tag := a.Metadata["tag"]; tag != "" {
		closing = "\n</" + tag + ">\n"
	}
	n := Length(a.Content)
	if closing == "" || limit <= 0 || n <= limit ||
		!strings.HasSuffix(a.Content, closing) || limit <= Length(closing) {
		out, t := EnforceLimit(a.Content, limit)
		a.Content = out
		return t
	}

	inner, t := EnforceLimit(strings.TrimSuffix(a.Content, closing), limit-Length(closing))
	a.Content = inner + closing
	t.OriginalLength = n
	t.FinalLength = Length(a.Content)
	t.Limit = limit
	return t
}

// enforceFileLimits truncates every artifact to the platform's per-file limit.
func enforceFileLimits(files []core.PlatformArtifact, target Platform) []core.TruncationWarning {
	limit := fileLimit(target)
	if limit <= 0 {
		return nil
	}
	var warnings []core.TruncationWarning
	for i := range files {
		if t := limitArtifact(&files[i], limit); t.Truncated {
			warnings = append(warnings, warning(files[i], t))
		}
	}
	return warnings
}

// enforceWorkspaceLimit proportionally shrinks workspace-scoped artifacts when
// their combined length exceeds total.
func enforceWorkspaceLimit(files []core.PlatformArtifact, total int) []core.TruncationWarning {
	if total <= 0 {
		return nil
	}
	current := 0
	for _, f := range files {
		if f.Scope == core.ScopeWorkspace {
			current += Length(f.Content)
		}
	}
	if current <= total {
		return nil
	}

	var warnings []core.TruncationWarning
	for i := range files {
		if files[i].Scope != core.ScopeWorkspace {
			continue
		}
		target := Length(files[i].Content) * total / current
		if t := limitArtifact(&files[i], target); t.Truncated {
			warnings = append(warnings, warning(files[i], t))
		}
	}
	return warnings
}
