package adapt

import (
	"sync"
	"testing"

	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Builtins(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, []string{"claude", "cursor", "github-copilot", "junie", "windsurf"}, r.IDs())

	windsurf, ok := r.Get(PlatformWindsurf)
	require.True(t, ok)
	assert.Equal(t, Limits{PerFile: 6000, TotalWorkspace: 12000}, windsurf.Limits)
	assert.Equal(t, EnvelopeSemanticTags, windsurf.Envelope)

	junie, ok := r.Get(PlatformJunie)
	require.True(t, ok)
	assert.Equal(t, 4000, junie.Limits.PerGuideline)
	assert.Equal(t, 6, junie.Limits.MaxCount)

	for _, p := range Builtins() {
		assert.NoError(t, p.Validate(), p.ID)
	}
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(Platform{ID: "acme", Name: "Acme", Envelope: EnvelopeGuidelines}))
	err := r.Register(Platform{ID: "broken", Envelope: "nope"})
	require.Error(t, err)
	assert.True(t, core.IsMalformedInput(err))

	got, err := r.Resolve([]string{"acme", "cursor"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Acme", got[0].DisplayName())
	assert.Equal(t, "cursor", got[1].ID)

	_, err = r.Resolve([]string{"cursor", "emacs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown platform "emacs"`)
}

func TestRegistry_IsolatedInstances(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()

	require.NoError(t, a.Register(Platform{ID: "only-a", Envelope: EnvelopeMemory}))

	_, ok := b.Get("only-a")
	assert.False(t, ok)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = r.Register(Platform{ID: "p", Envelope: EnvelopeMemory})
				return
			}
			_ = r.All()
		}(i)
	}
	wg.Wait()

	_, ok := r.Get("p")
	assert.True(t, ok)
}

func TestParsePlatforms(t *testing.T) {
	data := []byte(`id: acme
name: Acme Assistant
envelope: typed-header
dir: .acme/rules
extension: md
limits:
  per_file: 2000
  max_count: 10
---
id: team-wiki
envelope: memory
scope: user
`)

	got, err := ParsePlatforms(data)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, Platform{
		ID:        "acme",
		Name:      "Acme Assistant",
		Envelope:  EnvelopeTypedHeader,
		Dir:       ".acme/rules",
		Extension: "md",
		Limits:    Limits{PerFile: 2000, MaxCount: 10},
	}, got[0])
	assert.Equal(t, core.ScopeUser, got[1].Scope)
	assert.Equal(t, "team-wiki", got[1].DisplayName())
}

func TestParsePlatforms_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown field", "id: x\nenvelope: memory\ncolour: blue\n"},
		{"unknown envelope", "id: x\nenvelope: scroll\n"},
		{"missing id", "envelope: memory\n"},
		{"negative limit", "id: x\nenvelope: memory\nlimits:\n  max_count: -2\n"},
		{"not yaml", "id: [unterminated\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlatforms([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, core.IsMalformedInput(err))
		})
	}
}

func TestParsePlatforms_Empty(t *testing.T) {
	got, err := ParsePlatforms(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
