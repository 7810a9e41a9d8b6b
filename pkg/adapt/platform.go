package adapt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/rulecraft/pkg/core"
	"gopkg.in/yaml.v3"
)

// Envelope is the native file shape a platform consumes.
type Envelope string

// Supported envelopes.
const (
	// EnvelopeMemory aggregates rules into one memory file plus command files.
	EnvelopeMemory Envelope = "memory"
	// EnvelopeTypedHeader writes one file per rule with a typed metadata header.
	EnvelopeTypedHeader Envelope = "typed-header"
	// EnvelopeSemanticTags writes one file per rule wrapped in a category tag.
	EnvelopeSemanticTags Envelope = "semantic-tags"
	// EnvelopeInstructions splits rules into repository instructions, scoped
	// instructions and prompt files.
	EnvelopeInstructions Envelope = "instructions"
	// EnvelopeGuidelines writes one titled guideline file per rule.
	EnvelopeGuidelines Envelope = "guidelines"
)

// Envelopes lists every supported envelope.
var Envelopes = []Envelope{
	EnvelopeMemory,
	EnvelopeTypedHeader,
	EnvelopeSemanticTags,
	EnvelopeInstructions,
	EnvelopeGuidelines,
}

// Limits are a platform's numeric constraints. Zero means unlimited.
type Limits struct {
	PerFile        int `yaml:"per_file,omitempty" json:"per_file,omitempty" koanf:"per_file"`
	PerGuideline   int `yaml:"per_guideline,omitempty" json:"per_guideline,omitempty" koanf:"per_guideline"`
	TotalWorkspace int `yaml:"total_workspace,omitempty" json:"total_workspace,omitempty" koanf:"total_workspace"`
	MaxCount       int `yaml:"max_count,omitempty" json:"max_count,omitempty" koanf:"max_count"`
}

// Platform describes one target assistant.
// New platforms are added by supplying a descriptor, not by changing code.
type Platform struct {
	ID       string     `yaml:"id" json:"id" koanf:"id"`
	Name     string     `yaml:"name,omitempty" json:"name,omitempty" koanf:"name"`
	Limits   Limits     `yaml:"limits,omitempty" json:"limits,omitempty" koanf:"limits"`
	Envelope Envelope   `yaml:"envelope" json:"envelope" koanf:"envelope"`
	Scope    core.Scope `yaml:"scope,omitempty" json:"scope,omitempty" koanf:"scope"`
	// Dir overrides the envelope's default output directory.
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty" koanf:"dir"`
	// Extension overrides the per-rule file extension.
	Extension string `yaml:"extension,omitempty" json:"extension,omitempty" koanf:"extension"`
}

// DisplayName returns Name, falling back to ID.
func (p Platform) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Validate checks a descriptor. Errors are *core.MalformedInputError.
func (p Platform) Validate() error {
	bad := func(reason string) error {
		id := p.ID
		if id == "" {
			id = "platform"
		}
		return &core.MalformedInputError{Stage: stage, Input: id, Reason: reason}
	}
	if strings.TrimSpace(p.ID) == "" {
		return bad("platform id is empty")
	}
	if !validEnvelope(p.Envelope) {
		return bad(fmt.Sprintf("unknown envelope %q", p.Envelope))
	}
	if p.Scope != "" && !core.ValidScope(p.Scope) {
		return bad(fmt.Sprintf("unknown scope %q", p.Scope))
	}
	l := p.Limits
	if l.PerFile < 0 || l.PerGuideline < 0 || l.TotalWorkspace < 0 || l.MaxCount < 0 {
		return bad("limits must not be negative")
	}
	return nil
}

func validEnvelope(e Envelope) bool {
	for _, v := range Envelopes {
		if v == e {
			return true
		}
	}
	return false
}

// primaryScope returns the descriptor scope or the envelope default.
func (p Platform) primaryScope() core.Scope {
	if p.Scope != "" {
		return p.Scope
	}
	switch p.Envelope {
	case EnvelopeSemanticTags:
		return core.ScopeWorkspace
	default:
		return core.ScopeProject
	}
}

// Built-in platform ids.
const (
	PlatformClaude   = "claude"
	PlatformCursor   = "cursor"
	PlatformWindsurf = "windsurf"
	PlatformCopilot  = "github-copilot"
	PlatformJunie    = "junie"
)

// Builtins returns the built-in descriptors sorted by id.
func Builtins() []Platform {
	return []Platform{
		{ID: PlatformClaude, Name: "Claude", Envelope: EnvelopeMemory, Scope: core.ScopeProject},
		{ID: PlatformCursor, Name: "Cursor", Envelope: EnvelopeTypedHeader, Scope: core.ScopeProject},
		{ID: PlatformCopilot, Name: "GitHub Copilot", Envelope: EnvelopeInstructions, Scope: core.ScopeProject},
		{
			ID:       PlatformJunie,
			Name:     "Junie",
			Envelope: EnvelopeGuidelines,
			Scope:    core.ScopeProject,
			Limits:   Limits{PerGuideline: 4000, MaxCount: 6},
		},
		{
			ID:       PlatformWindsurf,
			Name:     "Windsurf",
			Envelope: EnvelopeSemanticTags,
			Scope:    core.ScopeWorkspace,
			Limits:   Limits{PerFile: 6000, TotalWorkspace: 12000},
		},
	}
}

// Registry holds platform descriptors by id. It is an explicit value owned by
// the caller; there is no package-level registry.
type Registry struct {
	mu        sync.RWMutex
	platforms map[string]Platform
}

// NewRegistry returns a registry preloaded with the built-in platforms.
func NewRegistry() *Registry {
	r := &Registry{platforms: make(map[string]Platform)}
	for _, p := range Builtins() {
		r.platforms[p.ID] = p
	}
	return r
}

// Register validates and adds a descriptor, replacing any with the same id.
func (r *Registry) Register(p Platform) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.platforms[p.ID] = p
	return nil
}

// Get returns a descriptor by id.
func (r *Registry) Get(id string) (Platform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.platforms[id]
	return p, ok
}

// All returns every descriptor sorted by id.
func (r *Registry) All() []Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Platform, 0, len(r.platforms))
	for _, p := range r.platforms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns every registered id, sorted.
func (r *Registry) IDs() []string {
	all := r.All()
	ids := make([]string, len(all))
	for i, p := range all {
		ids[i] = p.ID
	}
	return ids
}

// Resolve looks up several ids, failing on the first unknown one.
func (r *Registry) Resolve(ids []string) ([]Platform, error) {
	out := make([]Platform, 0, len(ids))
	for _, id := range ids {
		p, ok := r.Get(id)
		if !ok {
			return nil, fmt.Errorf("unknown platform %q (known: %s)", id, strings.Join(r.IDs(), ", "))
		}
		out = append(out, p)
	}
	return out, nil
}

// ParsePlatforms decodes one or more YAML descriptor documents. Unknown keys
// are rejected and every descriptor is validated.
func ParsePlatforms(data []byte) ([]Platform, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var out []Platform
	for {
		var p Platform
		err := dec.Decode(&p)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &core.MalformedInputError{Stage: stage, Input: "platform descriptor", Reason: err.Error()}
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
