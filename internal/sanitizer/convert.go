package sanitizer

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

/*
Conversion Rules
- Anchors render as [text](href)
- Block elements become paragraphs
- Headings, emphasis and lists use CommonMark syntax
- Anchors without text or without href are dropped rather than rendered empty

Layout tables are flattened: every row and cell becomes its own block.
Newsletters use tables for positioning, so GFM table output would be noise.
*/
func newConverter() *converter.Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithLinkEmptyContentBehavior(commonmark.LinkBehaviorSkip),
				commonmark.WithLinkEmptyHrefBehavior(commonmark.LinkBehaviorSkip),
			),
		),
	)
	for _, tag := range layoutCellTags {
		conv.Register.TagType(tag, converter.TagTypeBlock, converter.PriorityStandard)
	}
	return conv
}

// layoutCellTags are not block elements to the converter, so adjacent cells would run together.
var layoutCellTags = []string{"tr", "td", "th", "caption"}

// convert renders body as markdown.
func convert(body *html.Node) (string, *SanitizationError) {
	markdown, err := newConverter().ConvertNode(body)
	if err != nil {
		return "", &SanitizationError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}
	return string(markdown), nil
}

// plainText is the degraded rendering used when conversion fails.
func plainText(body *html.Node) string {
	if body == nil {
		return ""
	}
	lines := strings.Split(goquery.NewDocumentFromNode(body).Text(), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}
