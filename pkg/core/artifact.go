package core

// ArtifactType is the kind of file a platform consumes.
type ArtifactType string

// Artifact types.
const (
	ArtifactMemory       ArtifactType = "memory"
	ArtifactCommand      ArtifactType = "command"
	ArtifactRule         ArtifactType = "rule"
	ArtifactInstructions ArtifactType = "instructions"
)

// Scope is where an artifact takes effect.
type Scope string

// Artifact scopes.
const (
	ScopeGlobal    Scope = "global"
	ScopeProject   Scope = "project"
	ScopeUser      Scope = "user"
	ScopeWorkspace Scope = "workspace"
)

// Scopes lists every scope in reporting order.
var Scopes = []Scope{ScopeGlobal, ScopeProject, ScopeUser, ScopeWorkspace}

// ValidScope reports whether s is a known scope.
func ValidScope(s Scope) bool {
	for _, v := range Scopes {
		if v == s {
			return true
		}
	}
	return false
}

// PlatformArtifact is a rendered, constraint-compliant file for one platform.
// Ownership passes to the caller, which decides whether to persist it.
type PlatformArtifact struct {
	Path     string            `json:"path"`
	Content  string            `json:"content"`
	Type     ArtifactType      `json:"type"`
	Scope    Scope             `json:"scope"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
