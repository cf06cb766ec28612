package sanitizer

import (
	"regexp"
	"strings"
)

var (
	trailingBlanks = regexp.MustCompile(`[ \t]+\n`)
	blankRuns      = regexp.MustCompile(`\n{3,}`)
	// noise tag openers that survive as literal text, e.g. an escaped "&lt;script&gt;" in a code sample
	residualMarkup = regexp.MustCompile(`(?i)<(/?)(script|style|img|noscript|iframe|svg|video|canvas|head|meta|link|base)`)
)

// normalizeMarkdown drops carriage returns, strips trailing blanks before newlines,
// collapses three or more newlines into two and trims the result.
func normalizeMarkdown(markdown string) string {
	out := strings.ReplaceAll(markdown, "\r", "")
	out = trailingBlanks.ReplaceAllString(out, "\n")
	out = blankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// guardResidualMarkup entity-encodes the opening bracket of any noise tag left in the text.
func guardResidualMarkup(markdown string) string {
	return residualMarkup.ReplaceAllString(markdown, "&lt;$1$2")
}
