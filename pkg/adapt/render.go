package adapt

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/leapstack-labs/rulecraft/pkg/signature"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// categoryTags maps rule categories to semantic envelope tags.
var categoryTags = map[string]string{
	"core":          "development-standards",
	"testing":       "testing-patterns",
	"security":      "security-guidelines",
	"performance":   "performance-optimization",
	"architecture":  "architectural-patterns",
	"documentation": "documentation-standards",
	"style":         "code-style",
	"workflow":      "development-workflow",
	"framework":     "framework-conventions",
	"language":      "language-conventions",
	"api":           "api-design",
	"database":      "data-access",
	"devops":        "deployment-operations",
}

const defaultTag = "general-guidelines"

// CategoryTag returns the semantic tag for a normalized category.
func CategoryTag(category string) string {
	if tag, ok := categoryTags[category]; ok {
		return tag
	}
	return defaultTag
}

// windsurfTriggers maps activation classes to semantic-tag trigger values.
var windsurfTriggers = map[core.Activation]string{
	core.ActivationAlways:         "always_on",
	core.ActivationAutoAttached:   "glob",
	core.ActivationAgentRequested: "model_decision",
	core.ActivationManual:         "manual",
}

// prepared is a rule ready for an envelope.
type prepared struct {
	rule       core.Rule
	activation core.Activation
	category   string
	globs      []string
	body       string
	slug       string
	title      string
}

var (
	errUnterminatedFrontmatter = errors.New("unterminated front-matter")
	errEmptyBody               = errors.New("empty body after front-matter")
)

// StripFrontmatter removes a leading YAML front-matter block from content.
// The block must be closed by a line holding only "---".
func StripFrontmatter(content string) (string, error) {
	text := strings.TrimPrefix(strings.ReplaceAll(content, "\r\n", "\n"), "\ufeff")
	if !strings.HasPrefix(text, "---\n") && strings.TrimSpace(text) != "---" {
		return strings.TrimSpace(text), nil
	}
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t") == "---" {
			return strings.TrimSpace(strings.Join(lines[i+1:], "\n")), nil
		}
	}
	return "", errUnterminatedFrontmatter
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slug converts a rule id into a file-name-safe slug.
func Slug(id string) string {
	s := slugInvalid.ReplaceAllString(strings.ToLower(id), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "rule"
	}
	return s
}

// Title returns the display title of a rule: its front-matter title or the
// last id segment in title case.
func Title(r core.Rule) string {
	if t := strings.TrimSpace(r.Frontmatter.Title); t != "" {
		return t
	}
	base := path.Base(strings.ReplaceAll(r.ID, "\\", "/"))
	words := strings.FieldsFunc(base, func(c rune) bool { return c == '-' || c == '_' || c == '.' || c == ' ' })
	if len(words) == 0 {
		return "Rule"
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// disambiguateSlugs gives every rule whose slug is already taken by an
// earlier rule a suffix derived from its id, so no two rules share an
// artifact path. It returns the renamed rules.
func disambiguateSlugs(ready []prepared) []prepared {
	taken := make(map[string]bool, len(ready))
	for _, p := range ready {
		taken[p.slug] = true
	}
	seen := make(map[string]bool, len(ready))
	var renamed []prepared
	for i := range ready {
		p := &ready[i]
		if !seen[p.slug] {
			seen[p.slug] = true
			continue
		}
		sum := sha256.Sum256([]byte(p.rule.ID))
		suffix := hex.EncodeToString(sum[:])
		slug := p.slug + "-" + suffix[:6]
		for n := 8; taken[slug] && n <= len(suffix); n += 2 {
			slug = p.slug + "-" + suffix[:n]
		}
		p.slug = slug
		taken[slug], seen[slug] = true, true
		renamed = append(renamed, *p)
	}
	return renamed
}

func prepare(r core.Rule) (prepared, error) {
	body, err := StripFrontmatter(r.Content)
	if err != nil {
		return prepared{}, err
	}
	if body == "" {
		return prepared{}, errEmptyBody
	}

	var globs []string
	for _, g := range r.Frontmatter.Globs {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if _, err := path.Match(g, ""); err != nil {
			return prepared{}, fmt.Errorf("invalid glob %q: %w", g, err)
		}
		globs = append(globs, g)
	}

	return prepared{
		rule:       r,
		activation: core.Classify(r.Frontmatter),
		category:   r.Frontmatter.NormalizedCategory(),
		globs:      globs,
		body:       body,
		slug:       Slug(r.ID),
		title:      Title(r),
	}, nil
}

func (p prepared) metadata(platformID string) map[string]string {
	return map[string]string{
		"platform":   platformID,
		"rule_id":    p.rule.ID,
		"activation": string(p.activation),
		"category":   p.category,
	}
}

// renderer turns prepared rules into artifacts for one envelope.
type renderer func(target Platform, rules []prepared, sig *signature.Signature) []core.PlatformArtifact

var renderers = map[Envelope]renderer{
	EnvelopeMemory:       renderMemory,
	EnvelopeTypedHeader:  renderTypedHeader,
	EnvelopeSemanticTags: renderSemanticTags,
	EnvelopeInstructions: renderInstructions,
	EnvelopeGuidelines:   renderGuidelines,
}

func dirOr(target Platform, def string) string {
	if target.Dir != "" {
		return strings.TrimSuffix(target.Dir, "/")
	}
	return def
}

func extOr(target Platform, def string) string {
	if target.Extension != "" {
		return "." + strings.TrimPrefix(target.Extension, ".")
	}
	return def
}

func quoteList(globs []string) string {
	quoted := make([]string, len(globs))
	for i, g := range globs {
		quoted[i] = "`" + g + "`"
	}
	return strings.Join(quoted, ", ")
}

func renderMemory(target Platform, rules []prepared, sig *signature.Signature) []core.PlatformArtifact {
	var out []core.PlatformArtifact
	var sections []prepared
	for _, p := range rules {
		if p.activation == core.ActivationManual {
			out = append(out, core.PlatformArtifact{
				Path:     path.Join(dirOr(target, ".claude/commands"), p.slug+".md"),
				Content:  commandBody(p),
				Type:     core.ArtifactCommand,
				Scope:    core.ScopeProject,
				Metadata: p.metadata(target.ID),
			})
			continue
		}
		sections = append(sections, p)
	}
	if len(sections) == 0 {
		return out
	}

	var b strings.Builder
	b.WriteString("# Project Guidelines\n")
	if lines := sig.ContextLines(); len(lines) > 0 {
		b.WriteString("\n## Project Context\n\n")
		for _, l := range lines {
			b.WriteString("- " + l + "\n")
		}
	}
	for _, act := range core.Activations {
		for _, p := range sections {
			if p.activation != act {
				continue
			}
			b.WriteString("\n## " + p.title + "\n\n")
			switch p.activation {
			case core.ActivationAutoAttached:
				b.WriteString("_Applies to: " + quoteList(p.globs) + "_\n\n")
			case core.ActivationAgentRequested:
				b.WriteString("_Use when: " + strings.TrimSpace(p.rule.Frontmatter.Description) + "_\n\n")
			}
			b.WriteString(p.body + "\n")
		}
	}

	scope := target.primaryScope()
	memPath := "CLAUDE.md"
	if scope == core.ScopeUser || scope == core.ScopeGlobal {
		memPath = "~/.claude/CLAUDE.md"
	}
	out = append(out, core.PlatformArtifact{
		Path:     memPath,
		Content:  b.String(),
		Type:     core.ArtifactMemory,
		Scope:    scope,
		Metadata: aggregateMetadata(target.ID, sections),
	})
	return out
}

func commandBody(p prepared) string {
	var b strings.Builder
	b.WriteString("# " + p.title + "\n\n")
	if d := strings.TrimSpace(p.rule.Frontmatter.Description); d != "" {
		b.WriteString(d + "\n\n")
	}
	b.WriteString(p.body + "\n")
	return b.String()
}

func aggregateMetadata(platformID string, rules []prepared) map[string]string {
	ids := make([]string, len(rules))
	for i, p := range rules {
		ids[i] = p.rule.ID
	}
	return map[string]string{
		"platform": platformID,
		"rules":    strings.Join(ids, ","),
	}
}

func renderTypedHeader(target Platform, rules []prepared, _ *signature.Signature) []core.PlatformArtifact {
	dir := dirOr(target, ".cursor/rules")
	ext := extOr(target, ".mdc")
	out := make([]core.PlatformArtifact, 0, len(rules))
	for _, p := range rules {
		var b strings.Builder
		b.WriteString("---\n")
		b.WriteString("description: " + oneLine(p.rule.Frontmatter.Description) + "\n")
		b.WriteString("globs: " + strings.Join(p.globs, ",") + "\n")
		fmt.Fprintf(&b, "alwaysApply: %t\n", p.activation == core.ActivationAlways)
		b.WriteString("---\n\n")
		b.WriteString(p.body + "\n")

		out = append(out, core.PlatformArtifact{
			Path:     path.Join(dir, p.slug+ext),
			Content:  b.String(),
			Type:     core.ArtifactRule,
			Scope:    target.primaryScope(),
			Metadata: p.metadata(target.ID),
		})
	}
	return out
}

func renderSemanticTags(target Platform, rules []prepared, _ *signature.Signature) []core.PlatformArtifact {
	dir := dirOr(target, ".windsurf/rules")
	ext := extOr(target, ".md")
	out := make([]core.PlatformArtifact, 0, len(rules))
	for _, p := range rules {
		tag := CategoryTag(p.category)

		var b strings.Builder
		b.WriteString("---\n")
		b.WriteString("trigger: " + windsurfTriggers[p.activation] + "\n")
		switch p.activation {
		case core.ActivationAutoAttached:
			b.WriteString("globs: " + strings.Join(p.globs, ",") + "\n")
		case core.ActivationAgentRequested:
			b.WriteString("description: " + oneLine(p.rule.Frontmatter.Description) + "\n")
		}
		b.WriteString("---\n\n")
		b.WriteString("<" + tag + ">\n")
		b.WriteString(p.body + "\n")
		b.WriteString("</" + tag + ">\n")

		meta := p.metadata(target.ID)
		meta["tag"] = tag
		out = append(out, core.PlatformArtifact{
			Path:     path.Join(dir, p.slug+ext),
			Content:  b.String(),
			Type:     core.ArtifactRule,
			Scope:    target.primaryScope(),
			Metadata: meta,
		})
	}
	return out
}

func renderInstructions(target Platform, rules []prepared, sig *signature.Signature) []core.PlatformArtifact {
	base := dirOr(target, ".github")
	var out []core.PlatformArtifact
	var always []prepared

	for _, p := range rules {
		switch p.activation {
		case core.ActivationAlways:
			always = append(always, p)

		case core.ActivationAutoAttached, core.ActivationAgentRequested:
			applyTo := "**"
			if len(p.globs) > 0 {
				applyTo = strings.Join(p.globs, ",")
			}
			var b strings.Builder
			b.WriteString("---\n")
			if p.activation == core.ActivationAgentRequested {
				b.WriteString("description: " + oneLine(p.rule.Frontmatter.Description) + "\n")
			}
			b.WriteString("applyTo: \"" + applyTo + "\"\n")
			b.WriteString("---\n\n")
			b.WriteString("# " + p.title + "\n\n")
			b.WriteString(p.body + "\n")
			out = append(out, core.PlatformArtifact{
				Path:     path.Join(base, "instructions", p.slug+".instructions.md"),
				Content:  b.String(),
				Type:     core.ArtifactInstructions,
				Scope:    target.primaryScope(),
				Metadata: p.metadata(target.ID),
			})

		case core.ActivationManual:
			var b strings.Builder
			b.WriteString("---\n")
			b.WriteString("description: " + oneLine(p.rule.Frontmatter.Description) + "\n")
			b.WriteString("mode: agent\n")
			b.WriteString("---\n\n")
			b.WriteString(p.body + "\n")
			out = append(out, core.PlatformArtifact{
				Path:     path.Join(base, "prompts", p.slug+".prompt.md"),
				Content:  b.String(),
				Type:     core.ArtifactCommand,
				Scope:    target.primaryScope(),
				Metadata: p.metadata(target.ID),
			})
		}
	}

	if len(always) > 0 {
		var b strings.Builder
		b.WriteString("# Copilot Instructions\n")
		if lines := sig.ContextLines(); len(lines) > 0 {
			b.WriteString("\n## Project Context\n\n")
			for _, l := range lines {
				b.WriteString("- " + l + "\n")
			}
		}
		for _, p := range always {
			b.WriteString("\n## " + p.title + "\n\n")
			b.WriteString(p.body + "\n")
		}
		out = append(out, core.PlatformArtifact{
			Path:     path.Join(base, "copilot-instructions.md"),
			Content:  b.String(),
			Type:     core.ArtifactInstructions,
			Scope:    target.primaryScope(),
			Metadata: aggregateMetadata(target.ID, always),
		})
	}
	return out
}

func renderGuidelines(target Platform, rules []prepared, _ *signature.Signature) []core.PlatformArtifact {
	dir := dirOr(target, ".junie/guidelines")
	ext := extOr(target, ".md")
	out := make([]core.PlatformArtifact, 0, len(rules))
	for _, p := range rules {
		var b strings.Builder
		b.WriteString("# " + p.title + "\n\n")
		if len(p.globs) > 0 {
			b.WriteString("Applies to: " + quoteList(p.globs) + "\n\n")
		}
		b.WriteString(p.body + "\n")
		out = append(out, core.PlatformArtifact{
			Path:     path.Join(dir, p.slug+ext),
			Content:  b.String(),
			Type:     core.ArtifactRule,
			Scope:    target.primaryScope(),
			Metadata: p.metadata(target.ID),
		})
	}
	return out
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
