package linkextract

// Candidate is a link found in a sanitized newsletter, ready for triage.
type Candidate struct {
	// URL is the canonical form used for identity and deduplication.
	URL string
	// RawURL is the first destination seen for this URL, as written.
	RawURL string
	// Text is the longest non-empty anchor text seen for this URL.
	Text string
	// Host of the canonical URL.
	Host string
	// Position is the 0-based rank among kept links, in document order.
	Position int
}
