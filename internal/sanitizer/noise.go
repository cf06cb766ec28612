package sanitizer

import (
	"strings"

	"golang.org/x/net/html"
)

// noiseTags are removed together with everything they contain.
// head also carries title, meta, link, base and any script or style the parser hoisted there.
var noiseTags = map[string]struct{}{
	"head":     {},
	"title":    {},
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
	"meta":     {},
	"link":     {},
	"base":     {},
	"svg":      {},
	"iframe":   {},
	"canvas":   {},
	"img":      {},
	"video":    {},
}

func isNoise(node *html.Node) bool {
	switch node.Type {
	case html.CommentNode:
		return true
	case html.ElementNode:
		_, ok := noiseTags[strings.ToLower(node.Data)]
		return ok
	default:
		return false
	}
}

// removeNoise detaches every noise subtree below root and returns how many were removed.
// Children of a removed node are not visited.
func removeNoise(root *html.Node) int {
	if root == nil {
		return 0
	}

	// collect first, removing while iterating breaks the sibling links
	var children []*html.Node
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		children = append(children, child)
	}

	removed := 0
	for _, child := range children {
		if isNoise(child) {
			root.RemoveChild(child)
			removed++
			continue
		}
		removed += removeNoise(child)
	}
	return removed
}

// findBody returns the body element of a parsed document, or nil.
func findBody(node *html.Node) *html.Node {
	if node == nil {
		return nil
	}
	if node.Type == html.ElementNode && node.Data == "body" {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if body := findBody(child); body != nil {
			return body
		}
	}
	return nil
}
