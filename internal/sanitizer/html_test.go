package sanitizer_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/rohmanhakim/newsletter-triage/internal/sanitizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_Examples(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "whitespace only input",
			input: "  \n\t ",
			want:  "",
		},
		{
			name:  "style and script dropped",
			input: `<style>.x{display:none}</style><script>alert(1)</script><p>Hello</p>`,
			want:  "Hello",
		},
		{
			name:  "anchor becomes markdown link",
			input: `<p><a href="https://example.com/a">Read more</a></p>`,
			want:  "[Read more](https://example.com/a)",
		},
		{
			name:  "image dropped",
			input: `<p><img src="https://example.com/a.png" /> Hello</p>`,
			want:  "Hello",
		},
		{
			name:  "unsubscribe anchor removed with its text",
			input: `<p><a href="https://example.com/unsub">Unsubscribe</a> Keep</p>`,
			want:  "Keep",
		},
		{
			name:  "sponsor anchor removed",
			input: `<p><a href="https://example.com/sponsor">(Sponsor)</a> Keep</p>`,
			want:  "Keep",
		},
		{
			name:  "comments dropped",
			input: `<!-- tracking --><p>Visible<!-- inline --></p>`,
			want:  "Visible",
		},
		{
			name:  "head and title dropped",
			input: `<html><head><title>Weekly Digest</title><meta charset="utf-8"><link rel="stylesheet" href="a.css"><base href="https://x"></head><body><p>Body</p></body></html>`,
			want:  "Body",
		},
		{
			name:  "media containers dropped with contents",
			input: `<svg><text>Logo</text></svg><iframe>frame text</iframe><canvas>canvas fallback</canvas><video><source src="a.mp4">no video</video><p>Story</p>`,
			want:  "Story",
		},
		{
			name:  "noscript dropped with contents",
			input: `<noscript><p>Enable JavaScript</p></noscript><p>Story</p>`,
			want:  "Story",
		},
		{
			name:  "uppercase tags handled",
			input: `<SCRIPT>x()</SCRIPT><P>Hi <IMG SRC="a.png"></P>`,
			want:  "Hi",
		},
		{
			name:  "layout table cells kept apart",
			input: `<table><tr><td>Monday</td><td>Briefing</td></tr><tr><td>Top</td><td>story</td></tr></table>`,
			want:  "Monday\n\nBriefing\n\nTop\n\nstory",
		},
		{
			name:  "linked cells kept apart",
			input: `<table><tr><td><a href="https://e.com/a">Story A</a></td><td><a href="https://e.com/b">Story B</a></td></tr></table>`,
			want:  "[Story A](https://e.com/a)\n\n[Story B](https://e.com/b)",
		},
		{
			name:  "paragraph spacing collapsed",
			input: "<p>One</p>\r\n\r\n\r\n\r\n<p>Two</p>",
			want:  "One\n\nTwo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizer.Sanitize(tt.input))
		})
	}
}

func TestSanitize_UnsubscribeRemovedButPartialMatchKept(t *testing.T) {
	removed := sanitizer.Sanitize(`<p><a href="https://example.com/unsub">Unsubscribe</a> Keep</p>`)
	assert.NotContains(t, removed, "Unsubscribe")
	assert.Contains(t, removed, "Keep")

	kept := sanitizer.Sanitize(`<p><a href="https://example.com/unsub">Click to unsubscribe</a> Keep</p>`)
	assert.Contains(t, kept, "unsubscribe")
	assert.Contains(t, kept, "https://example.com/unsub")
}

func TestSanitize_SponsorRemoved(t *testing.T) {
	out := sanitizer.Sanitize(`<p><a href="https://example.com/sponsor">(Sponsor)</a> Keep</p>`)
	assert.NotContains(t, out, "Sponsor")
}

func TestSanitize_IgnoredAnchorVariants(t *testing.T) {
	tests := []struct {
		name    string
		anchor  string
		removed bool
	}{
		{name: "sign up", anchor: "Sign Up", removed: true},
		{name: "advertise", anchor: "ADVERTISE", removed: true},
		{name: "view online", anchor: "View online", removed: true},
		{name: "collapsed whitespace", anchor: "  Manage   your\n\tsubscription ", removed: true},
		{name: "nested markup", anchor: "<span>Unsub</span><b>scribe</b>", removed: true},
		{name: "sponsor suffix", anchor: "Try Acme today (sponsor)", removed: true},
		{name: "exact phrase with extra words", anchor: "Sign up for the conference", removed: false},
		{name: "unrelated", anchor: "Deep dive into Go generics", removed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := `<p><a href="https://example.com/target">` + tt.anchor + `</a> tail</p>`
			out := sanitizer.Sanitize(input)
			if tt.removed {
				assert.NotContains(t, out, "https://example.com/target")
			} else {
				assert.Contains(t, out, "https://example.com/target")
			}
			assert.Contains(t, out, "tail")
		})
	}
}

func TestSanitize_NeverEmitsNoiseMarkup(t *testing.T) {
	inputs := []string{
		`<p>&lt;script&gt;alert(1)&lt;/script&gt;</p>`,
		`<pre><code>&lt;style&gt;body{}&lt;/style&gt; &lt;img src=x&gt;</code></pre>`,
		`<p>text <scr<script>ipt>alert(1)</script></p>`,
		`<div><style>a{}</style><p>x</p><script src="a.js"></script><img src=y></div>`,
		`<<img>script>`,
		`<p>&lt;scripts&gt; and &lt;imgur&gt;</p>`,
		`<script>unterminated`,
		`<p>unclosed <b>bold <i>italic`,
		`<table><tr><td><img src="spacer.gif"><a href="https://example.com">Story</a></td></tr></table>`,
		"\x00<script>\x00</script>",
	}

	for _, input := range inputs {
		out := sanitizer.Sanitize(input)
		for _, forbidden := range []string{"<script", "<style", "<img"} {
			assert.NotContains(t, strings.ToLower(out), forbidden, "input %q produced %q", input, out)
		}
	}
}

func TestSanitize_MarkdownStructure(t *testing.T) {
	input := `<h1>Issue 42</h1><p>Intro with <strong>bold</strong> text.</p><ul><li>First</li><li>Second</li></ul>`
	out := sanitizer.Sanitize(input)

	assert.Contains(t, out, "# Issue 42")
	assert.Contains(t, out, "**bold**")
	assert.Contains(t, out, "- First")
	assert.Contains(t, out, "- Second")
}

func TestSanitize_AnchorsWithoutHrefOrTextDropped(t *testing.T) {
	out := sanitizer.Sanitize(`<p><a href="https://example.com/empty"></a>Keep <a>no href</a></p>`)
	assert.NotContains(t, out, "https://example.com/empty")
	assert.Contains(t, out, "Keep")
}

func TestSanitize_NoTrailingBlanksOrCarriageReturns(t *testing.T) {
	out := sanitizer.Sanitize("<p>line one   </p>\r\n<p>line two\t</p>")
	assert.NotContains(t, out, "\r")
	for _, line := range strings.Split(out, "\n") {
		assert.Equal(t, strings.TrimRight(line, " \t"), line)
	}
	assert.NotContains(t, out, "\n\n\n")
}

func TestSanitize_ConcurrentCallsAreIndependent(t *testing.T) {
	inputs := []string{
		`<p><a href="https://example.com/a">A</a></p>`,
		`<p><a href="https://example.com/unsub">Unsubscribe</a> B</p>`,
		`<style>x</style><p>C</p>`,
	}
	want := make([]string, len(inputs))
	for i, in := range inputs {
		want[i] = sanitizer.Sanitize(in)
	}

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				idx := i % len(inputs)
				if got := sanitizer.Sanitize(inputs[idx]); got != want[idx] {
					t.Errorf("concurrent result mismatch for %q: %q vs %q", inputs[idx], got, want[idx])
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestNewsletterSanitizer_ReportsCounts(t *testing.T) {
	sink := &recordingSink{}
	s := sanitizer.NewNewsletterSanitizer(sink)

	doc := s.Sanitize(`<html><head><title>x</title></head><body><!--c--><script>y()</script><p><a href="https://e.com/u">Unsubscribe</a>Hi</p></body></html>`)

	assert.Equal(t, "Hi", doc.Markdown())
	assert.Equal(t, 3, doc.NoiseNodes())
	assert.Equal(t, 1, doc.IgnoredAnchors())
	assert.False(t, doc.Degraded())
	assert.Empty(t, sink.Errors())
}

func TestNewsletterSanitizer_MalformedMarkupIsNotDegraded(t *testing.T) {
	sink := &recordingSink{}
	s := sanitizer.NewNewsletterSanitizer(sink)

	inputs := []string{
		`<p>unclosed <b>bold <i>italic`,
		`</td></tr></table><p>stray closers</p>`,
		"<p>\x00nul\x00</p>",
		`<<<>>>`,
	}
	for _, input := range inputs {
		doc := s.Sanitize(input)
		assert.False(t, doc.Degraded(), "input %q", input)
	}
	assert.Empty(t, sink.Errors())
}

func TestNewsletterSanitizer_CustomRules(t *testing.T) {
	rules := sanitizer.DefaultIgnoreRules().With([]string{"Read in browser"}, []string{"[ad]"})
	s := sanitizer.NewNewsletterSanitizer(nil).WithIgnoreRules(rules)

	doc := s.Sanitize(`<p><a href="https://e.com/web">Read in browser</a> <a href="https://e.com/ad">[AD] Acme</a> <a href="https://e.com/story">Story</a></p>`)
	require.Equal(t, 2, doc.IgnoredAnchors())
	assert.NotContains(t, doc.Markdown(), "e.com/web")
	assert.NotContains(t, doc.Markdown(), "e.com/ad")
	assert.Contains(t, doc.Markdown(), "[Story](https://e.com/story)")

	// defaults still apply on the extended rules
	doc = s.Sanitize(`<p><a href="https://e.com/u">unsubscribe</a> x</p>`)
	assert.Equal(t, 1, doc.IgnoredAnchors())
}

func TestNewsletterSanitizer_MatchesPureFunction(t *testing.T) {
	input := `<div><p>Hello <a href="https://example.com/x">there</a></p><a href="#">View Online</a></div>`
	s := sanitizer.NewNewsletterSanitizer(nil)
	assert.Equal(t, sanitizer.Sanitize(input), s.Sanitize(input).Markdown())
}
