package loader

import (
	"bytes"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/leapstack-labs/rulecraft/pkg/core"
	"golang.org/x/net/html"
)

// metaPrefix marks rule metadata in HTML <meta> tags, e.g.
// <meta name="rule:category" content="testing">.
const metaPrefix = "rule:"

// ConvertHTMLRule reads rule metadata from an HTML document's <title> and
// <meta> tags and converts its <body> to Markdown.
// Plain "description" metas are honoured; other unprefixed metas are ignored.
func ConvertHTMLRule(doc string) (core.Frontmatter, string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return core.Frontmatter{}, "", fmt.Errorf("invalid HTML: %w", err)
	}

	var fm core.Frontmatter
	var body *html.Node
	var walkErr error

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if fm.Title == "" {
					fm.Title = strings.TrimSpace(textContent(n))
				}
			case "meta":
				if err := applyMeta(&fm, getAttr(n, "name"), getAttr(n, "content")); err != nil && walkErr == nil {
					walkErr = err
				}
			case "body":
				body = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	if walkErr != nil {
		return core.Frontmatter{}, "", walkErr
	}
	if body == nil {
		return fm, "", nil
	}

	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return core.Frontmatter{}, "", fmt.Errorf("rendering HTML body: %w", err)
		}
	}

	md, err := htmltomarkdown.ConvertString(buf.String())
	if err != nil {
		return core.Frontmatter{}, "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return fm, strings.TrimSpace(md), nil
}

func applyMeta(fm *core.Frontmatter, name, content string) error {
	name = strings.TrimSpace(name)
	if name == "description" {
		fm.Description = strings.TrimSpace(content)
		return nil
	}
	if !strings.HasPrefix(name, metaPrefix) {
		return nil
	}

	field := strings.TrimPrefix(name, metaPrefix)
	content = strings.TrimSpace(content)
	switch field {
	case "title":
		fm.Title = content
	case "description":
		fm.Description = content
	case "category":
		fm.Category = content
	case "globs":
		fm.Globs = splitGlobs(content)
	case "alwaysApply":
		fm.AlwaysApply = strings.EqualFold(content, "true")
	case "framework":
		fm.Framework = content
	default:
		return &UnknownFieldError{Field: field}
	}
	return nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
