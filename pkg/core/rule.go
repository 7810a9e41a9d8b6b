package core

import "strings"

// Frontmatter is the closed set of rule metadata the adaptation engine understands.
// Unknown keys are rejected by the loader rather than carried along.
type Frontmatter struct {
	Title       string   `yaml:"title,omitempty" json:"title,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Category    string   `yaml:"category,omitempty" json:"category,omitempty"`
	Globs       []string `yaml:"globs,omitempty" json:"globs,omitempty"`
	AlwaysApply bool     `yaml:"alwaysApply,omitempty" json:"alwaysApply,omitempty"`
	Framework   string   `yaml:"framework,omitempty" json:"framework,omitempty"`
}

// DefaultCategory is used for rules that declare no category.
const DefaultCategory = "general"

// NormalizedCategory returns the lowercased category, or DefaultCategory when empty.
func (f Frontmatter) NormalizedCategory() string {
	c := strings.ToLower(strings.TrimSpace(f.Category))
	if c == "" {
		return DefaultCategory
	}
	return c
}

// HasGlobs reports whether the rule declares at least one non-empty glob.
func (f Frontmatter) HasGlobs() bool {
	for _, g := range f.Globs {
		if strings.TrimSpace(g) != "" {
			return true
		}
	}
	return false
}

// Rule is a platform-agnostic documentation unit.
// Rules are owned by the selection step; adapters only read them.
type Rule struct {
	// ID identifies the rule, usually its path relative to the rules directory without extension.
	ID          string      `json:"id"`
	Frontmatter Frontmatter `json:"frontmatter"`
	Content     string      `json:"content"`
}

// Activation describes how a rule is triggered on a platform.
type Activation string

// Activation classes. Every rule maps to exactly one.
const (
	ActivationAlways         Activation = "always"
	ActivationAutoAttached   Activation = "auto-attached"
	ActivationAgentRequested Activation = "agent-requested"
	ActivationManual         Activation = "manual"
)

// Activations lists all activation classes in precedence order.
var Activations = []Activation{
	ActivationAlways,
	ActivationAutoAttached,
	ActivationAgentRequested,
	ActivationManual,
}

// Classify assigns the activation class for a rule. It depends only on metadata.
func Classify(fm Frontmatter) Activation {
	switch {
	case fm.AlwaysApply:
		return ActivationAlways
	case fm.HasGlobs():
		return ActivationAutoAttached
	case strings.TrimSpace(fm.Description) != "":
		return ActivationAgentRequested
	default:
		return ActivationManual
	}
}
