package cascata

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidTarget = "invalid_target_type"
	CodeRequired      = "missing_required_field"
	CodeConversion    = "conversion"
	CodeUnknownKey    = "unknown_key"
	CodeCycle         = "config_cycle"
	CodeSourceRead    = "source_read"
	CodeEmptyCascade  = "empty_cascade"
	CodeValidation    = "validation"
)

// Frame records one (target type, source) pair visited while materializing.
// Frames accumulate on an Error as it unwinds; index 0 is the innermost frame.
type Frame struct {
	Type   string // Target type name (e.g. "Server").
	Source string // Source description (file path, cascade, or "<map>").
}

// Error is the single error shape produced by this package.
type Error struct {
	Code    string
	Field   string   // Mapping key or field name, when field-scoped.
	Type    string   // Declared type name involved in the failure.
	Value   any      // Offending raw value, when one exists.
	Chain   []string // Visited source chain; set for config_cycle only.
	Message string
	Cause   error   // Optional underlying error.
	Trail   []Frame // Provenance, innermost-first.
}

func (e *Error) Error() string {
	b := &strings.Builder{}
	code := e.Code
	if code == "" {
		code = "error"
	}
	b.WriteString(code)
	if e.Field != "" {
		fmt.Fprintf(b, " %q", e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(b, ": %v", e.Cause)
	}
	if len(e.Chain) > 0 {
		fmt.Fprintf(b, " (chain: %s)", strings.Join(e.Chain, " -> "))
	}
	for _, fr := range e.Trail {
		fmt.Fprintf(b, "\n  while building %s from %s", fr.Type, fr.Source)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// AsError extracts a *Error from err using errors.As internally.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// withFrame appends a provenance frame to err on its way out of a
// materialization frame. Only an err that is itself a *Error grows in place;
// anything else, including wrappers that carry a *Error deeper in their chain,
// is enclosed in a fresh *Error so shared error values are never mutated and
// wrapper messages are never dropped.
func withFrame(err error, fr Frame) error {
	if err == nil {
		return nil
	}
	ce, ok := err.(*Error)
	if !ok {
		ce = &Error{Message: err.Error(), Cause: err}
	}
	ce.Trail = append(ce.Trail, fr)
	return ce
}
