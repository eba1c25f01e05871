package harness

import (
	"strings"

	"github.com/roach88/verbcheck/internal/diag"
	"github.com/roach88/verbcheck/internal/ir"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates every expectation matched.
	Pass bool `json:"pass"`

	// Valid reports whether the program validated without diagnostics.
	Valid bool `json:"valid"`

	// Source is the DSL text the scenario program rendered to.
	Source string `json:"source"`

	// Program is the typed program. Nil when the program is invalid.
	Program *ir.TypedProgram `json:"-"`

	// Report holds the diagnostics. Empty when the program is valid.
	Report *diag.Report `json:"-"`

	// Symbols lists the captured session symbols in definition order.
	Symbols []string `json:"symbols"`

	// Errors contains expectation failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Report:  &diag.Report{},
		Symbols: []string{},
		Errors:  []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Codes returns the diagnostic codes in report order.
func (r *Result) Codes() []string {
	codes := make([]string, 0, r.Report.Len())
	for _, c := range r.Report.Codes() {
		codes = append(codes, string(c))
	}
	return codes
}

// Rendered returns the human-readable report, or "" for a valid program.
func (r *Result) Rendered(name string) string {
	if r.Report.Len() == 0 {
		return ""
	}
	var buf strings.Builder
	_ = r.Report.Render(&buf, name, r.Source)
	return buf.String()
}
