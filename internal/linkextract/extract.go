/*
Responsibilities
- Find every http(s) link in sanitized newsletter markdown
- Canonicalize and deduplicate them
- Keep document order so triage follows the reading order of the issue
*/
package linkextract

import (
	"net/url"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rohmanhakim/newsletter-triage/pkg/urlutil"
)

// Extract returns the link candidates of markdown in document order.
// Non-web destinations (mailto:, tel:, fragments, relative paths) are skipped.
func Extract(markdownText string) []Candidate {
	if strings.TrimSpace(markdownText) == "" {
		return nil
	}

	// parsers keep state, never share one
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := markdown.Parse([]byte(markdownText), p)

	var candidates []Candidate
	index := make(map[string]int)

	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		link, ok := node.(*ast.Link)
		if !ok {
			return ast.GoToNext
		}

		raw := strings.TrimSpace(string(link.Destination))
		canonical, host, ok := canonicalWebURL(raw)
		if !ok {
			return ast.SkipChildren
		}
		text := collapse(leafText(link))

		if i, seen := index[canonical]; seen {
			if len(text) > len(candidates[i].Text) {
				candidates[i].Text = text
			}
			return ast.SkipChildren
		}

		index[canonical] = len(candidates)
		candidates = append(candidates, Candidate{
			URL:      canonical,
			RawURL:   raw,
			Text:     text,
			Host:     host,
			Position: len(candidates),
		})
		return ast.SkipChildren
	})

	return candidates
}

func canonicalWebURL(raw string) (string, string, bool) {
	if raw == "" || strings.HasPrefix(raw, "#") {
		return "", "", false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", "", false
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", "", false
	}
	if parsed.Hostname() == "" {
		return "", "", false
	}
	canonical := urlutil.Canonicalize(*parsed)
	return canonical.String(), canonical.Hostname(), true
}

// leafText concatenates the literal text below node.
func leafText(node ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(node, func(n ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch n.(type) {
		case *ast.Softbreak, *ast.Hardbreak:
			b.WriteByte(' ')
		}
		if leaf := n.AsLeaf(); leaf != nil {
			b.Write(leaf.Literal)
		}
		return ast.GoToNext
	})
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
