package signature

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/leapstack-labs/rulecraft/pkg/depgraph"
)

// Stack is a project's technology stack.
type Stack struct {
	Languages  []string `json:"languages" koanf:"languages"`
	Frameworks []string `json:"frameworks" koanf:"frameworks"`
	Libraries  []string `json:"libraries" koanf:"libraries"`
}

// Merge unions two stacks. Entries are de-duplicated case-insensitively,
// keeping the receiver's spelling, and sorted.
func (s Stack) Merge(other Stack) Stack {
	return Stack{
		Languages:  union(s.Languages, other.Languages),
		Frameworks: union(s.Frameworks, other.Frameworks),
		Libraries:  union(s.Libraries, other.Libraries),
	}
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := []string{}
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			v = strings.TrimSpace(v)
			key := strings.ToLower(v)
			if v == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i]), strings.ToLower(out[j])
		if li != lj {
			return li < lj
		}
		return out[i] < out[j]
	})
	return out
}

// languageByExt maps source extensions to language names.
var languageByExt = map[string]string{
	".go":    "Go",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".mts":   "TypeScript",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".mjs":   "JavaScript",
	".cjs":   "JavaScript",
	".py":    "Python",
	".rs":    "Rust",
	".rb":    "Ruby",
	".java":  "Java",
	".kt":    "Kotlin",
	".php":   "PHP",
	".cs":    "C#",
	".swift": "Swift",
	".c":     "C",
	".cpp":   "C++",
	".cc":    "C++",
	".hpp":   "C++",
	".scala": "Scala",
	".dart":  "Dart",
	".ex":    "Elixir",
	".exs":   "Elixir",
}

// frameworkByPackage maps external package roots to frameworks.
var frameworkByPackage = map[string]string{
	"react":                    "React",
	"next":                     "Next.js",
	"vue":                      "Vue",
	"nuxt":                     "Nuxt",
	"@angular/core":            "Angular",
	"svelte":                   "Svelte",
	"@sveltejs/kit":            "SvelteKit",
	"solid-js":                 "Solid",
	"express":                  "Express",
	"fastify":                  "Fastify",
	"@nestjs/core":             "NestJS",
	"@nestjs/common":           "NestJS",
	"hono":                     "Hono",
	"django":                   "Django",
	"flask":                    "Flask",
	"fastapi":                  "FastAPI",
	"rails":                    "Rails",
	"github.com/gin-gonic/gin": "Gin",
	"github.com/labstack/echo": "Echo",
	"github.com/gofiber/fiber": "Fiber",
	"github.com/go-chi/chi":    "Chi",
	"github.com/spf13/cobra":   "Cobra",
	"github.com/a-h/templ":     "Templ",
	"actix-web":                "Actix",
	"axum":                     "Axum",
	"rocket":                   "Rocket",
	"org.springframework":      "Spring",
	"illuminate":               "Laravel",
	"@remix-run/react":         "Remix",
	"astro":                    "Astro",
	"@tanstack/react-query":    "TanStack Query",
	"tailwindcss":              "Tailwind CSS",
}

// frameworkByFile maps marker file names to frameworks.
var frameworkByFile = map[string]string{
	"next.config.js":     "Next.js",
	"next.config.mjs":    "Next.js",
	"next.config.ts":     "Next.js",
	"nuxt.config.ts":     "Nuxt",
	"nuxt.config.js":     "Nuxt",
	"angular.json":       "Angular",
	"svelte.config.js":   "Svelte",
	"astro.config.mjs":   "Astro",
	"manage.py":          "Django",
	"tailwind.config.js": "Tailwind CSS",
	"tailwind.config.ts": "Tailwind CSS",
	"vite.config.ts":     "Vite",
	"vite.config.js":     "Vite",
	"remix.config.js":    "Remix",
}

// InferStack derives a stack from file extensions, external packages and
// framework marker files. graph may be nil.
func InferStack(model *core.ProjectModel, graph *depgraph.Graph) Stack {
	var langs, frameworks, libs []string
	if model != nil {
		for _, f := range model.SortedFiles() {
			if lang, ok := languageByExt[strings.ToLower(f.Extension)]; ok {
				langs = append(langs, lang)
			}
			if fw, ok := frameworkByFile[strings.ToLower(f.Name)]; ok {
				frameworks = append(frameworks, fw)
			}
		}
	}
	if graph != nil {
		for _, p := range graph.ExternalPackages {
			libs = append(libs, p.Name)
			if fw, ok := frameworkByPackage[p.Name]; ok {
				frameworks = append(frameworks, fw)
			}
		}
	}
	return Stack{
		Languages:  union(langs, nil),
		Frameworks: union(frameworks, nil),
		Libraries:  union(libs, nil),
	}
}
