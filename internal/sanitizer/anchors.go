package sanitizer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// IgnoreRules decides which anchors are newsletter boilerplate.
// Phrases are compared against anchor text that has been trimmed,
// whitespace-collapsed and lowercased. The zero value matches nothing.
type IgnoreRules struct {
	exact    map[string]struct{}
	contains []string
}

var defaultExactPhrases = []string{
	"sign up",
	"advertise",
	"unsubscribe",
	"view online",
	"manage your subscription",
}

var defaultContainsPhrases = []string{
	"(sponsor)",
}

// DefaultIgnoreRules returns the rules applied by Sanitize.
func DefaultIgnoreRules() IgnoreRules {
	return NewIgnoreRules(defaultExactPhrases, defaultContainsPhrases)
}

// NewIgnoreRules builds rules from exact phrases and substring phrases.
// Blank phrases are dropped.
func NewIgnoreRules(exact []string, contains []string) IgnoreRules {
	rules := IgnoreRules{
		exact: make(map[string]struct{}, len(exact)),
	}
	for _, phrase := range exact {
		if p := normalizeAnchorText(phrase); p != "" {
			rules.exact[p] = struct{}{}
		}
	}
	for _, phrase := range contains {
		if p := normalizeAnchorText(phrase); p != "" {
			rules.contains = append(rules.contains, p)
		}
	}
	return rules
}

// With returns a copy of r extended with more phrases. r is left untouched.
func (r IgnoreRules) With(exact []string, contains []string) IgnoreRules {
	allExact := make([]string, 0, len(r.exact)+len(exact))
	for phrase := range r.exact {
		allExact = append(allExact, phrase)
	}
	allExact = append(allExact, exact...)

	allContains := make([]string, 0, len(r.contains)+len(contains))
	allContains = append(allContains, r.contains...)
	allContains = append(allContains, contains...)

	return NewIgnoreRules(allExact, allContains)
}

// Matches reports whether an anchor with visible text should be removed.
func (r IgnoreRules) Matches(text string) bool {
	normalized := normalizeAnchorText(text)
	if normalized == "" {
		return false
	}
	if _, ok := r.exact[normalized]; ok {
		return true
	}
	for _, phrase := range r.contains {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

// normalizeAnchorText trims, collapses whitespace runs to one space and lowercases.
func normalizeAnchorText(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// removeIgnoredAnchors deletes every anchor under body whose text matches rules,
// including the anchor's own text. Returns the number removed.
func removeIgnoredAnchors(body *html.Node, rules IgnoreRules) int {
	if body == nil {
		return 0
	}

	removed := 0
	goquery.NewDocumentFromNode(body).Find("a").Each(func(_ int, s *goquery.Selection) {
		// an enclosing anchor may already have taken this one with it
		if !attachedTo(s.Nodes[0], body) {
			return
		}
		if rules.Matches(s.Text()) {
			s.Remove()
			removed++
		}
	})
	return removed
}

func attachedTo(node, root *html.Node) bool {
	for n := node; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}
