package sanitizer

// SanitizedDoc is the result of one sanitization run.
type SanitizedDoc struct {
	markdown       string
	noiseNodes     int
	ignoredAnchors int
	degraded       bool
}

func (s SanitizedDoc) Markdown() string {
	return s.markdown
}

// NoiseNodes counts removed subtrees (comments, scripts, media, head).
func (s SanitizedDoc) NoiseNodes() int {
	return s.noiseNodes
}

func (s SanitizedDoc) IgnoredAnchors() int {
	return s.ignoredAnchors
}

// Degraded reports that markdown conversion failed and the output is plain body text.
func (s SanitizedDoc) Degraded() bool {
	return s.degraded
}

// NewSanitizedDoc creates a SanitizedDoc for testing purposes.
func NewSanitizedDoc(markdown string, noiseNodes, ignoredAnchors int, degraded bool) SanitizedDoc {
	return SanitizedDoc{
		markdown:       markdown,
		noiseNodes:     noiseNodes,
		ignoredAnchors: ignoredAnchors,
		degraded:       degraded,
	}
}
