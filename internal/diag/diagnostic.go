// Package diag defines program diagnostics and renders them against source.
//
// Every diagnostic is fatal to "this program is safe to run unmodified";
// there is no severity tiering. Messages name only DSL-visible identifiers
// (verb names, keywords, @symbols, reference codes).
package diag

import (
	"fmt"
	"strings"

	"github.com/roach88/verbcheck/internal/ir"
)

// Code is a stable diagnostic code.
type Code string

// Program diagnostic codes (E200-E299). One per taxonomy entry.
const (
	UnknownVerb         Code = "E201" // verb name not in catalog
	UnknownArgument     Code = "E202" // keyword not declared by the verb
	MissingRequired     Code = "E203" // required argument absent and not defaultable
	TypeMismatch        Code = "E204" // value shape does not match the declared type
	ValidationFailed    Code = "E205" // named rule failed (range, length, pattern, ...)
	ConstraintViolation Code = "E206" // cross-argument constraint failed
	UndefinedSymbol     Code = "E207" // @symbol not defined by an earlier call
	DuplicateSymbol     Code = "E208" // @symbol captured twice
)

var codeTitles = map[Code]string{
	UnknownVerb:         "unknown verb",
	UnknownArgument:     "unknown argument",
	MissingRequired:     "missing required argument",
	TypeMismatch:        "type mismatch",
	ValidationFailed:    "validation failed",
	ConstraintViolation: "constraint violation",
	UndefinedSymbol:     "undefined symbol",
	DuplicateSymbol:     "duplicate symbol",
}

// Title returns a short human name for the code.
func (c Code) Title() string {
	if t, ok := codeTitles[c]; ok {
		return t
	}
	return "diagnostic"
}

// Hint is optional guidance attached to a diagnostic.
type Hint struct {
	Suggestions []string `json:"suggestions,omitempty"` // rendered as "did you mean ...?"
	Note        string   `json:"note,omitempty"`
}

// IsEmpty reports whether the hint carries nothing to show.
func (h *Hint) IsEmpty() bool {
	return h == nil || (len(h.Suggestions) == 0 && h.Note == "")
}

// Diagnostic is one validation failure.
type Diagnostic struct {
	Code    Code     `json:"code"`
	Message string   `json:"message"`
	Span    ir.Span  `json:"span"`
	Hint    *Hint    `json:"hint,omitempty"`
	Related *ir.Span `json:"related,omitempty"` // e.g. the first definition of a duplicate symbol
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("[%s] %s: %s", d.Code, d.Span, d.Message)
}

// Suggest returns a hint listing suggestions, or nil when there are none.
func Suggest(suggestions []string) *Hint {
	if len(suggestions) == 0 {
		return nil
	}
	return &Hint{Suggestions: suggestions}
}

// Note returns a hint carrying a note.
func Note(format string, args ...any) *Hint {
	return &Hint{Note: fmt.Sprintf(format, args...)}
}

// Report is the ordered list of diagnostics from one validation.
// A non-empty Report is returned as the error of a failed validation.
type Report struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Add appends a diagnostic.
func (r *Report) Add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// Len returns the number of diagnostics.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Diagnostics)
}

// Codes returns the code of every diagnostic in order.
func (r *Report) Codes() []Code {
	codes := make([]Code, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		codes[i] = d.Code
	}
	return codes
}

// Error implements the error interface with a one-line summary.
func (r *Report) Error() string {
	if r.Len() == 0 {
		return "validation passed"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "validation failed with %d diagnostic(s)", len(r.Diagnostics))
	fmt.Fprintf(&b, ": %s", r.Diagnostics[0].Error())
	if len(r.Diagnostics) > 1 {
		fmt.Fprintf(&b, " (and %d more)", len(r.Diagnostics)-1)
	}
	return b.String()
}
