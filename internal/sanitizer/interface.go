package sanitizer

// Sanitizer turns raw newsletter HTML into clean markdown.
// Implementations must be total: every input yields a document, never an error.
type Sanitizer interface {
	Sanitize(rawHTML string) SanitizedDoc
}

// Compile-time interface check
var _ Sanitizer = (*NewsletterSanitizer)(nil)
