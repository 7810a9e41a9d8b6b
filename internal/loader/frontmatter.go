// Package loader reads rule files and platform descriptors from disk.
package loader

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/rulecraft/pkg/core"
	"gopkg.in/yaml.v3"
)

// FrontmatterResult holds the result of frontmatter extraction.
type FrontmatterResult struct {
	Frontmatter core.Frontmatter
	Body        string // content after the frontmatter block
	HasYAML     bool   // whether a frontmatter block was found
}

// globList accepts either a YAML sequence or a comma separated scalar.
type globList []string

func (g *globList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*g = splitGlobs(value.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		var out []string
		for _, item := range items {
			out = append(out, splitGlobs(item)...)
		}
		*g = out
		return nil
	default:
		return fmt.Errorf("globs must be a string or a list, got %s", value.Tag)
	}
}

func splitGlobs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// frontmatterYAML is an internal type for YAML unmarshaling.
type frontmatterYAML struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Globs       globList `yaml:"globs"`
	AlwaysApply bool     `yaml:"alwaysApply"`
	Framework   string   `yaml:"framework"`
}

var knownFields = map[string]bool{
	"title":       true,
	"description": true,
	"category":    true,
	"globs":       true,
	"alwaysApply": true,
	"framework":   true,
}

// ExtractFrontmatter splits a rule file into its YAML frontmatter and body.
// Content without a leading "---" line is returned unchanged with HasYAML false.
func ExtractFrontmatter(content string) (*FrontmatterResult, error) {
	text := strings.TrimPrefix(strings.ReplaceAll(content, "\r\n", "\n"), "\ufeff")
	result := &FrontmatterResult{Body: strings.TrimSpace(text)}

	if !strings.HasPrefix(text, "---\n") && strings.TrimSpace(text) != "---" {
		return result, nil
	}

	lines := strings.Split(text, "\n")
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t") == "---" {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, &FrontmatterParseError{Line: 1, Message: "frontmatter block is not closed with ---"}
	}

	fm, err := parseFrontmatterYAML(strings.Join(lines[1:end], "\n"))
	if err != nil {
		return nil, err
	}

	result.HasYAML = true
	result.Frontmatter = fm
	result.Body = strings.TrimSpace(strings.Join(lines[end+1:], "\n"))
	return result, nil
}

// parseFrontmatterYAML parses YAML content with strict field validation.
func parseFrontmatterYAML(yamlContent string) (core.Frontmatter, error) {
	if strings.TrimSpace(yamlContent) == "" {
		return core.Frontmatter{}, nil
	}

	// First, decode into a map to check for unknown fields
	var rawMap map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &rawMap); err != nil {
		return core.Frontmatter{}, &FrontmatterParseError{
			Message: fmt.Sprintf("invalid YAML: %v", err),
		}
	}
	for field := range rawMap {
		if !knownFields[field] {
			return core.Frontmatter{}, &UnknownFieldError{Field: field}
		}
	}

	var raw frontmatterYAML
	if err := yaml.Unmarshal([]byte(yamlContent), &raw); err != nil {
		return core.Frontmatter{}, &FrontmatterParseError{
			Message: fmt.Sprintf("failed to parse frontmatter: %v", err),
		}
	}

	return core.Frontmatter{
		Title:       strings.TrimSpace(raw.Title),
		Description: strings.TrimSpace(raw.Description),
		Category:    strings.TrimSpace(raw.Category),
		Globs:       []string(raw.Globs),
		AlwaysApply: raw.AlwaysApply,
		Framework:   strings.TrimSpace(raw.Framework),
	}, nil
}

// FrontmatterParseError represents a frontmatter parsing error.
type FrontmatterParseError struct {
	File    string
	Line    int
	Message string
}

func (e *FrontmatterParseError) Error() string {
	if e.File != "" {
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnknownFieldError represents an error for unknown frontmatter fields.
type UnknownFieldError struct {
	File  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown field %q in frontmatter, allowed: title, description, category, globs, alwaysApply, framework", e.Field)
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}
