package patterns_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/leapstack-labs/rulecraft/internal/testutil"
	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/leapstack-labs/rulecraft/pkg/patterns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reactModel() *core.ProjectModel {
	return testutil.Model([]core.File{
		core.NewFile("src/components/UserCard.tsx", core.ExtractedSymbols{
			Imports:       []string{"react", "../hooks/useUser"},
			DeclaredNames: []core.DeclaredName{{Name: "UserCard", Kind: core.KindFunction}},
		}),
		core.NewFile("src/components/OrderList.tsx", core.ExtractedSymbols{
			DeclaredNames: []core.DeclaredName{{Name: "OrderList", Kind: core.KindFunction}},
		}),
		core.NewFile("src/components/Header.tsx", core.ExtractedSymbols{}),
		core.NewFile("src/hooks/useUser.ts", core.ExtractedSymbols{
			DeclaredNames: []core.DeclaredName{
				{Name: "useUser", Kind: core.KindFunction},
				{Name: "fetchUserAsync", Kind: core.KindFunction},
			},
		}),
		core.NewFile("src/services/api.ts", core.ExtractedSymbols{
			Imports: []string{"inversify"},
			DeclaredNames: []core.DeclaredName{
				{Name: "IApiClient", Kind: core.KindInterface},
				{Name: "ApiError", Kind: core.KindClass},
			},
		}),
		core.NewFile("src/components/UserCard.test.tsx", core.ExtractedSymbols{}),
	})
}

func TestDetect_ReactProject(t *testing.T) {
	res := patterns.Detect(reactModel(), patterns.Options{Logger: testutil.NewTestLogger(t)})

	primary, ok := res.Primary()
	require.True(t, ok)
	assert.Equal(t, "Component-Based", primary.Name)
	assert.InDelta(t, 1.0, primary.Confidence, 1e-9)

	found := make(map[string]patterns.CodePattern)
	for _, p := range res.CodePatterns {
		found[p.Name] = p
	}
	assert.Equal(t, []string{"useUser"}, found["hooks"].Examples)
	assert.Equal(t, 1, found["interface-prefix"].Occurrences)
	assert.Equal(t, 1, found["error-types"].Occurrences)
	assert.Equal(t, 1, found["tests"].Files)
	assert.Equal(t, 1, found["async"].Occurrences)
	assert.Equal(t, 1, found["dependency-injection"].Files)
	assert.NotContains(t, found, "decorators")
	assert.InDelta(t, 1.0/6.0, found["hooks"].Prevalence, 1e-9)

	assert.Equal(t, 6, res.Consistency.SampledFiles)
	assert.Equal(t, 1, res.Consistency.MaxDirectoryDepth)
}

func TestDetect_CodePatternsInCatalogOrder(t *testing.T) {
	res := patterns.Detect(reactModel(), patterns.Options{})

	catalog := make(map[string]int)
	for i, def := range patterns.DefaultCodePatterns() {
		catalog[def.Name] = i
	}
	for i := 1; i < len(res.CodePatterns); i++ {
		assert.Less(t, catalog[res.CodePatterns[i-1].Name], catalog[res.CodePatterns[i].Name])
	}
}

func TestDetect_SampleSize(t *testing.T) {
	var files []core.File
	for i := range 10 {
		files = append(files, testutil.FileWithNames(fmt.Sprintf("f%02d.ts", i), core.KindFunction, "useThing"))
	}

	res := patterns.Detect(testutil.Model(files), patterns.Options{SampleSize: 4})

	require.NotEmpty(t, res.CodePatterns)
	assert.Equal(t, "hooks", res.CodePatterns[0].Name)
	assert.Equal(t, 4, res.CodePatterns[0].Files)
	assert.Equal(t, 4, res.Consistency.SampledFiles)
}

func TestDetect_MalformedModel(t *testing.T) {
	for name, model := range map[string]*core.ProjectModel{
		"nil":       nil,
		"duplicate": {Files: []core.File{testutil.File("a.go"), testutil.File("a.go")}},
	} {
		t.Run(name, func(t *testing.T) {
			res := patterns.Detect(model, patterns.Options{})

			require.NotNil(t, res)
			assert.NotNil(t, res.Architecture)
			assert.Empty(t, res.Architecture)
			assert.Empty(t, res.CodePatterns)
			assert.Len(t, res.Naming, len(patterns.Categories))
			assert.Zero(t, res.Consistency.NamingConsistency)
			require.Len(t, res.Diagnostics, 1)
			assert.Equal(t, core.DiagUnresolvedPattern, res.Diagnostics[0].Kind)
		})
	}
}

func TestDetect_UnresolvedPattern(t *testing.T) {
	model := testutil.Model([]core.File{testutil.File("main.c")})

	res := patterns.Detect(model, patterns.Options{})

	assert.Empty(t, res.Architecture)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, core.DiagUnresolvedPattern, res.Diagnostics[0].Kind)
}

func TestDetect_ConfidenceBounds(t *testing.T) {
	res := patterns.Detect(reactModel(), patterns.Options{MinConfidence: 0.01})

	for _, p := range res.Naming {
		assert.GreaterOrEqual(t, p.Confidence, 0.0)
		assert.LessOrEqual(t, p.Confidence, 1.0)
		if p.Total == 0 {
			assert.Zero(t, p.Confidence)
		}
	}
	for _, a := range res.Architecture {
		assert.GreaterOrEqual(t, a.Confidence, 0.01)
		assert.LessOrEqual(t, a.Confidence, 1.0)
	}
}

func TestDetect_Deterministic(t *testing.T) {
	first, err := json.Marshal(patterns.Detect(reactModel(), patterns.Options{}))
	require.NoError(t, err)
	second, err := json.Marshal(patterns.Detect(reactModel(), patterns.Options{}))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}
