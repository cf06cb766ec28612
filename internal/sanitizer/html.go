/*
Responsibilities
- Drop everything a reader never sees: head, comments, scripts, styles, media
- Drop boilerplate anchors (unsubscribe, sponsor, view online, ...)
- Render what is left as markdown with stable whitespace

The document is parsed once. Noise is removed from the tree by tag name,
never by pattern matching on the raw text.
*/
package sanitizer

import (
	"strconv"
	"strings"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/metadata"
	"golang.org/x/net/html"
)

type NewsletterSanitizer struct {
	metadataSink metadata.MetadataSink
	rules        IgnoreRules
}

func NewNewsletterSanitizer(metadataSink metadata.MetadataSink) *NewsletterSanitizer {
	if metadataSink == nil {
		metadataSink = metadata.NoopSink{}
	}
	return &NewsletterSanitizer{
		metadataSink: metadataSink,
		rules:        DefaultIgnoreRules(),
	}
}

// WithIgnoreRules replaces the anchor rules.
func (n *NewsletterSanitizer) WithIgnoreRules(rules IgnoreRules) *NewsletterSanitizer {
	n.rules = rules
	return n
}

func (n *NewsletterSanitizer) Sanitize(rawHTML string) SanitizedDoc {
	doc, err := sanitize(rawHTML, n.rules)
	if err != nil {
		n.metadataSink.RecordError(
			time.Now(),
			"sanitizer",
			"NewsletterSanitizer.Sanitize",
			mapSanitizationErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrNoiseNodes, strconv.Itoa(doc.noiseNodes)),
				metadata.NewAttr(metadata.AttrAnchors, strconv.Itoa(doc.ignoredAnchors)),
			},
		)
	}
	return doc
}

// Sanitize converts raw newsletter HTML into markdown using the default ignore rules.
// It never fails: malformed markup is parsed leniently and a conversion failure
// falls back to the plain text of the filtered body.
func Sanitize(rawHTML string) string {
	doc, _ := sanitize(rawHTML, DefaultIgnoreRules())
	return doc.markdown
}

// sanitize always returns a usable document. The error only explains a degraded result.
func sanitize(rawHTML string, rules IgnoreRules) (SanitizedDoc, *SanitizationError) {
	if strings.TrimSpace(rawHTML) == "" {
		return SanitizedDoc{}, nil
	}

	// html.Parse only fails when its reader does; a strings.Reader never does
	root, _ := html.Parse(strings.NewReader(rawHTML))

	doc := SanitizedDoc{}
	doc.noiseNodes = removeNoise(root)

	body := findBody(root)
	if body == nil {
		return doc, nil
	}

	doc.ignoredAnchors = removeIgnoredAnchors(body, rules)

	markdown, convErr := convert(body)
	if convErr != nil {
		markdown = plainText(body)
		doc.degraded = true
	}
	doc.markdown = guardResidualMarkup(normalizeMarkdown(markdown))

	if convErr != nil {
		return doc, convErr
	}
	return doc, nil
}
