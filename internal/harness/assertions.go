package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/verbcheck/internal/diag"
)

// Expectation kinds, used to categorize assertion failures.
const (
	AssertValid      = "valid"
	AssertCodes      = "codes"
	AssertDiagnostic = "diagnostic"
	AssertSymbols    = "symbols"
)

// AssertionError is returned when an expectation fails.
// It includes the full report to help debug the failure.
type AssertionError struct {
	Type     string // Expectation kind for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Report   string // Rendered diagnostics, empty for a valid program
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Report != "" {
		fmt.Fprintf(&buf, "\nDiagnostics:\n%s", e.Report)
	}
	return buf.String()
}

func assertValid(result *Result, want bool) error {
	if result.Valid == want {
		return nil
	}
	return &AssertionError{
		Type:     AssertValid,
		Expected: outcome(want),
		Actual:   outcome(result.Valid),
		Report:   result.Rendered(""),
	}
}

func outcome(valid bool) string {
	if valid {
		return "valid program"
	}
	return "diagnostics"
}

// assertCodes checks the exact code sequence in report order.
func assertCodes(result *Result, want []string) error {
	got := result.Codes()
	if slices.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertCodes,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
		Report:   result.Rendered(""),
	}
}

// assertDiagnostic checks that some reported diagnostic matches want.
func assertDiagnostic(result *Result, want ExpectedDiagnostic) error {
	for _, d := range result.Report.Diagnostics {
		if matchDiagnostic(d, want, result.Source) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertDiagnostic,
		Expected: describeExpected(want),
		Actual:   fmt.Sprintf("not among %d diagnostic(s)", result.Report.Len()),
		Report:   result.Rendered(""),
	}
}

func matchDiagnostic(d diag.Diagnostic, want ExpectedDiagnostic, source string) bool {
	if want.Code != "" && string(d.Code) != want.Code {
		return false
	}
	if want.Contains != "" && !strings.Contains(d.Message, want.Contains) {
		return false
	}
	if want.Line > 0 && diag.Locate(d.Span, source).Line != want.Line {
		return false
	}
	return true
}

func describeExpected(want ExpectedDiagnostic) string {
	var parts []string
	if want.Code != "" {
		parts = append(parts, want.Code)
	}
	if want.Contains != "" {
		parts = append(parts, fmt.Sprintf("containing %q", want.Contains))
	}
	if want.Line > 0 {
		parts = append(parts, fmt.Sprintf("on line %d", want.Line))
	}
	return "diagnostic " + strings.Join(parts, " ")
}

// assertSymbols checks the captured symbols in definition order.
// A leading "@" in the expectation is optional.
func assertSymbols(result *Result, want []string) error {
	names := make([]string, len(want))
	for i, w := range want {
		names[i] = strings.TrimPrefix(w, "@")
	}
	if slices.Equal(result.Symbols, names) {
		return nil
	}
	return &AssertionError{
		Type:     AssertSymbols,
		Expected: fmt.Sprintf("%v", names),
		Actual:   fmt.Sprintf("%v", result.Symbols),
	}
}

// EvaluateExpectations checks the result against expect.
// Returns a slice of error messages for failed expectations.
func EvaluateExpectations(result *Result, expect Expectation) []string {
	var errors []string
	add := func(err error) {
		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	add(assertValid(result, expect.Valid))
	if len(expect.Codes) > 0 {
		add(assertCodes(result, expect.Codes))
	}
	for _, d := range expect.Diagnostics {
		add(assertDiagnostic(result, d))
	}
	if len(expect.Symbols) > 0 {
		add(assertSymbols(result, expect.Symbols))
	}

	return errors
}
