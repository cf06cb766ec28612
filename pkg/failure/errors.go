package failure

type Severity int

// sync control flow
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

// ClassifiedError is returned by every pipeline stage. Only the caller that owns
// control flow (the syncer or the CLI) decides what a severity means.
type ClassifiedError interface {
	error
	Severity() Severity
}

// IsRecoverable reports whether err is a ClassifiedError marked recoverable.
func IsRecoverable(err error) bool {
	ce, ok := err.(ClassifiedError)
	return ok && ce.Severity() == SeverityRecoverable
}
