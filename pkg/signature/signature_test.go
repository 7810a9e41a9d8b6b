package signature_test

import (
	"fmt"
	"testing"

	"github.com/leapstack-labs/rulecraft/internal/testutil"
	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/leapstack-labs/rulecraft/pkg/depgraph"
	"github.com/leapstack-labs/rulecraft/pkg/patterns"
	"github.com/leapstack-labs/rulecraft/pkg/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeFor(t *testing.T) {
	assert.Equal(t, signature.SizeSmall, signature.SizeFor(0))
	assert.Equal(t, signature.SizeSmall, signature.SizeFor(49))
	assert.Equal(t, signature.SizeMedium, signature.SizeFor(50))
	assert.Equal(t, signature.SizeMedium, signature.SizeFor(199))
	assert.Equal(t, signature.SizeLarge, signature.SizeFor(200))
	assert.Equal(t, signature.SizeLarge, signature.SizeFor(999))
	assert.Equal(t, signature.SizeEnterprise, signature.SizeFor(1000))
}

func TestScoreAndComplexity(t *testing.T) {
	tests := []struct {
		langs, fws, libs int
		score            float64
		want             signature.Complexity
	}{
		{1, 0, 2, 3, signature.ComplexitySimple},
		{2, 1, 4, 9, signature.ComplexitySimple},
		{2, 2, 2, 11, signature.ComplexityModerate},
		{3, 3, 20, 25, signature.ComplexityComplex},
		{5, 5, 100, 45, signature.ComplexityComplex},
		{10, 5, 100, 55, signature.ComplexityHighlyComplex},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d-%d-%d", tt.langs, tt.fws, tt.libs), func(t *testing.T) {
			score := signature.Score(tt.langs, tt.fws, tt.libs)
			assert.InDelta(t, tt.score, score, 1e-9)
			assert.Equal(t, tt.want, signature.ComplexityFor(score))
		})
	}
}

func TestStack_Merge(t *testing.T) {
	declared := signature.Stack{Languages: []string{"TypeScript"}, Frameworks: []string{"React"}}
	inferred := signature.Stack{Languages: []string{"typescript", "JavaScript"}, Libraries: []string{"zod", "axios"}}

	merged := declared.Merge(inferred)

	assert.Equal(t, []string{"JavaScript", "TypeScript"}, merged.Languages)
	assert.Equal(t, []string{"React"}, merged.Frameworks)
	assert.Equal(t, []string{"axios", "zod"}, merged.Libraries)
}

func TestInferStack(t *testing.T) {
	model := testutil.Model([]core.File{
		testutil.File("src/app.tsx", "react", "@tanstack/react-query", "./util"),
		testutil.File("src/util.ts", "lodash"),
		testutil.File("next.config.js"),
		testutil.File("scripts/seed.py", "requests"),
	})
	graph, err := depgraph.Build(model, depgraph.Options{})
	require.NoError(t, err)

	stack := signature.InferStack(model, graph)

	assert.Equal(t, []string{"JavaScript", "Python", "TypeScript"}, stack.Languages)
	assert.Equal(t, []string{"Next.js", "React", "TanStack Query"}, stack.Frameworks)
	assert.Equal(t, []string{"@tanstack/react-query", "lodash", "react", "requests"}, stack.Libraries)

	empty := signature.InferStack(nil, nil)
	assert.Empty(t, empty.Languages)
}

func TestCompose(t *testing.T) {
	var files []core.File
	for i := range 60 {
		files = append(files, testutil.FileWithNames(fmt.Sprintf("src/components/Widget%02d.tsx", i), core.KindFunction, fmt.Sprintf("renderWidget%d", i)))
	}
	files = append(files, testutil.File("src/hooks/useData.ts"))
	model := testutil.Model(files)
	graph, err := depgraph.Build(model, depgraph.Options{})
	require.NoError(t, err)
	detected := patterns.Detect(model, patterns.Options{Graph: graph})

	sig := signature.Compose(signature.Input{
		Model:    model,
		Graph:    graph,
		Patterns: detected,
		Stack:    signature.Stack{Languages: []string{"TypeScript"}, Frameworks: []string{"React"}},
	})

	assert.Equal(t, 61, sig.FileCount)
	assert.Equal(t, signature.SizeMedium, sig.ProjectSize)
	assert.InDelta(t, 5.0, sig.ComplexityScore, 1e-9)
	assert.Equal(t, signature.ComplexitySimple, sig.Complexity)
	assert.Equal(t, "Component-Based", sig.Patterns.Architecture)
	assert.Equal(t, "camelCase", sig.Patterns.Naming["functions"])
	assert.Equal(t, "PascalCase", sig.Patterns.Naming["files"])
	assert.NotNil(t, sig.Graph.CoreModules)
}

func TestCompose_Empty(t *testing.T) {
	sig := signature.Compose(signature.Input{})

	assert.Equal(t, signature.SizeSmall, sig.ProjectSize)
	assert.Equal(t, signature.ComplexitySimple, sig.Complexity)
	assert.Empty(t, sig.Patterns.Architecture)
	assert.NotNil(t, sig.Patterns.Naming)
	assert.NotNil(t, sig.Languages)
}

func TestSignature_Accepts(t *testing.T) {
	sig := signature.Compose(signature.Input{Stack: signature.Stack{
		Languages:  []string{"TypeScript"},
		Frameworks: []string{"Next.js"},
		Libraries:  []string{"zod"},
	}})

	rule := func(fw string) core.Rule {
		return core.Rule{ID: "r", Frontmatter: core.Frontmatter{Framework: fw}}
	}

	assert.True(t, sig.Accepts(rule("")))
	assert.True(t, sig.Accepts(rule("nextjs")))
	assert.True(t, sig.Accepts(rule("Next.js")))
	assert.True(t, sig.Accepts(rule("typescript")))
	assert.True(t, sig.Accepts(rule("Zod")))
	assert.False(t, sig.Accepts(rule("django")))

	kept, rejected := sig.Filter([]core.Rule{rule("vue"), rule(""), rule("NextJS")})
	assert.Len(t, kept, 2)
	require.Len(t, rejected, 1)
	assert.Equal(t, "vue", rejected[0].Frontmatter.Framework)
}

func TestSignature_ContextLines(t *testing.T) {
	sig := signature.Compose(signature.Input{Stack: signature.Stack{Languages: []string{"Go"}}})
	sig.Patterns.Architecture = "Go Standard Layout"
	sig.Patterns.Naming["functions"] = "PascalCase"

	lines := sig.ContextLines()

	assert.Equal(t, []string{
		"Languages: Go",
		"Architecture: Go Standard Layout",
		"Naming: functions PascalCase",
		"Size: small (0 files), complexity simple",
	}, lines)
}
