package patterns_test

import (
	"fmt"
	"testing"

	"github.com/leapstack-labs/rulecraft/internal/testutil"
	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/leapstack-labs/rulecraft/pkg/patterns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want patterns.Convention
	}{
		{"userName", patterns.CamelCase},
		{"getHTTP", patterns.CamelCase},
		{"UserService", patterns.PascalCase},
		{"User", patterns.PascalCase},
		{"user_name", patterns.SnakeCase},
		{"_private_value", patterns.SnakeCase},
		{"user-card", patterns.KebabCase},
		{"MAX_RETRIES", patterns.ScreamingSnakeCase},
		{"ID", patterns.ScreamingSnakeCase},
		{"$scope", ""},
		{"$rootScope", patterns.CamelCase},
		{"user", ""},
		{"X", ""},
		{"HTTPServer", ""},
		{"Mixed_Case", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, patterns.Classify(tt.name))
		})
	}
}

func TestDetectNaming_Dominance(t *testing.T) {
	var names []string
	for i := range 8 {
		names = append(names, fmt.Sprintf("userValue%d", i))
	}
	names = append(names, "snake_one", "snake_two", "plain")

	model := testutil.Model([]core.File{testutil.FileWithNames("src/vars.ts", core.KindVariable, names...)})
	profile := patterns.DetectNaming(model)

	vars := profile[patterns.CategoryVariables]
	assert.Equal(t, patterns.CamelCase, vars.Dominant)
	assert.InDelta(t, 0.8, vars.Confidence, 1e-9)
	assert.Equal(t, 10, vars.Total)
	assert.Equal(t, 1, vars.Unclassified)
	assert.Equal(t, 8, vars.Counts[patterns.CamelCase])
	assert.Equal(t, 2, vars.Counts[patterns.SnakeCase])
	assert.Len(t, vars.Examples[patterns.CamelCase], 3)
}

func TestDetectNaming_EmptyCategory(t *testing.T) {
	profile := patterns.DetectNaming(&core.ProjectModel{})

	for _, cat := range patterns.Categories {
		p, ok := profile[cat]
		require.True(t, ok, "category %s missing", cat)
		assert.Equal(t, patterns.Convention(""), p.Dominant)
		assert.Zero(t, p.Confidence)
		assert.Zero(t, p.Total)
	}
}

func TestDetectNaming_TieBreaksByDeclarationOrder(t *testing.T) {
	model := testutil.Model([]core.File{
		testutil.FileWithNames("a.py", core.KindFunction, "load_user", "LoadUser"),
	})

	fns := patterns.DetectNaming(model)[patterns.CategoryFunctions]
	assert.Equal(t, patterns.PascalCase, fns.Dominant)
	assert.InDelta(t, 0.5, fns.Confidence, 1e-9)
}

func TestDetectNaming_FilesAndDirectories(t *testing.T) {
	model := testutil.Model([]core.File{
		testutil.File("src/user-card/user-card.test.tsx"),
		testutil.File("src/user-card/user-card.tsx"),
		testutil.File("src/order-list/OrderList.tsx"),
		testutil.File("src/.eslintrc.js"),
	})

	profile := patterns.DetectNaming(model)

	files := profile[patterns.CategoryFiles]
	assert.Equal(t, patterns.KebabCase, files.Dominant)
	assert.Equal(t, 2, files.Counts[patterns.KebabCase])
	assert.Equal(t, 1, files.Counts[patterns.PascalCase])
	assert.Equal(t, 1, files.Unclassified)

	dirs := profile[patterns.CategoryDirectories]
	assert.Equal(t, patterns.KebabCase, dirs.Dominant)
	assert.Equal(t, 2, dirs.Total)
	assert.Equal(t, 1, dirs.Unclassified)
}

func TestDetectNaming_KindMapping(t *testing.T) {
	f := core.NewFile("svc.go", core.ExtractedSymbols{DeclaredNames: []core.DeclaredName{
		{Name: "NewService", Kind: core.KindFunction},
		{Name: "handleRequest", Kind: core.KindMethod},
		{Name: "Service", Kind: core.KindStruct},
		{Name: "Store", Kind: core.KindInterface},
		{Name: "MAX_CONNS", Kind: core.KindConstant},
		{Name: "Inject", Kind: core.KindDecorator},
	}})

	profile := patterns.DetectNaming(testutil.Model([]core.File{f}))

	assert.Equal(t, 2, profile[patterns.CategoryFunctions].Total)
	assert.Equal(t, 2, profile[patterns.CategoryClasses].Total)
	assert.Equal(t, patterns.ScreamingSnakeCase, profile[patterns.CategoryConstants].Dominant)
	assert.Zero(t, profile[patterns.CategoryVariables].Total)
}
