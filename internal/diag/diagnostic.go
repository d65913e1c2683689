package diag

import (
	"mpsl/internal/source"
)

// Note attaches a secondary location to a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one finished compiler message. Primary points into the
// source buffer of the compilation that produced it.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}
