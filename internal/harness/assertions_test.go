package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/verbcheck/internal/diag"
	"github.com/roach88/verbcheck/internal/ir"
)

// failedResult is an invalid-program result with two diagnostics on line 2.
func failedResult() *Result {
	r := NewResult()
	r.Source = "(cbu.create :name \"Acme\")\n(party.link :role \"Boss\")\n"
	r.Report.Add(diag.Diagnostic{
		Code:    diag.ValidationFailed,
		Message: "argument 'role': unknown role code 'Boss'",
		Span:    ir.Span{Start: 44, End: 50, Line: 2, Column: 19},
	})
	r.Report.Add(diag.Diagnostic{
		Code:    diag.MissingRequired,
		Message: "missing required argument 'target'",
		Span:    ir.Span{Start: 27, End: 37, Line: 2, Column: 2},
	})
	return r
}

func validResult(symbols ...string) *Result {
	r := NewResult()
	r.Valid = true
	r.Symbols = symbols
	return r
}

func TestAssertValid(t *testing.T) {
	assert.NoError(t, assertValid(validResult(), true))
	assert.NoError(t, assertValid(failedResult(), false))

	err := assertValid(failedResult(), true)
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertValid, ae.Type)
	assert.Equal(t, "valid program", ae.Expected)
	assert.Equal(t, "diagnostics", ae.Actual)
	assert.Contains(t, ae.Report, "error[E205]")
}

func TestAssertCodes_ExactSequence(t *testing.T) {
	r := failedResult()
	assert.NoError(t, assertCodes(r, []string{"E205", "E203"}))

	err := assertCodes(r, []string{"E203", "E205"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: [E203 E205]")
	assert.Contains(t, err.Error(), "Actual: [E205 E203]")

	assert.Error(t, assertCodes(r, []string{"E205"}))
}

func TestAssertDiagnostic(t *testing.T) {
	r := failedResult()

	tests := []struct {
		name  string
		want  ExpectedDiagnostic
		found bool
	}{
		{"code only", ExpectedDiagnostic{Code: "E203"}, true},
		{"contains only", ExpectedDiagnostic{Contains: "code 'Boss'"}, true},
		{"code and contains", ExpectedDiagnostic{Code: "E205", Contains: "role"}, true},
		{"line", ExpectedDiagnostic{Code: "E203", Line: 2}, true},
		{"wrong line", ExpectedDiagnostic{Code: "E203", Line: 1}, false},
		{"contains on other code", ExpectedDiagnostic{Code: "E203", Contains: "Boss"}, false},
		{"absent code", ExpectedDiagnostic{Code: "E207"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertDiagnostic(r, tt.want)
			if tt.found {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "not among 2 diagnostic(s)")
		})
	}
}

func TestAssertDiagnostic_LineFromOffsets(t *testing.T) {
	r := NewResult()
	r.Source = "(a)\n(b :x 1)\n"
	r.Report.Add(diag.Diagnostic{Code: diag.UnknownArgument, Message: "unknown argument 'x'", Span: ir.Span{Start: 7, End: 9}})

	assert.NoError(t, assertDiagnostic(r, ExpectedDiagnostic{Code: "E202", Line: 2}))
}

func TestAssertSymbols(t *testing.T) {
	r := validResult("acme", "jane")

	assert.NoError(t, assertSymbols(r, []string{"@acme", "@jane"}))
	assert.NoError(t, assertSymbols(r, []string{"acme", "jane"}))

	err := assertSymbols(r, []string{"jane", "acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Assertion failed: symbols")
}

func TestEvaluateExpectations_AllPass(t *testing.T) {
	errs := EvaluateExpectations(failedResult(), Expectation{
		Valid: false,
		Codes: []string{"E205", "E203"},
		Diagnostics: []ExpectedDiagnostic{
			{Code: "E205", Contains: "Boss"},
			{Code: "E203", Line: 2},
		},
	})
	assert.Empty(t, errs)

	assert.Empty(t, EvaluateExpectations(validResult("acme"), Expectation{Valid: true, Symbols: []string{"@acme"}}))
}

func TestEvaluateExpectations_SomeFail(t *testing.T) {
	errs := EvaluateExpectations(failedResult(), Expectation{
		Valid: false,
		Codes: []string{"E205"},
		Diagnostics: []ExpectedDiagnostic{
			{Code: "E205"},
			{Code: "E208"},
		},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "Assertion failed: codes")
	assert.Contains(t, errs[1], "diagnostic E208")
}

func TestEvaluateExpectations_NoDiagnosticsOnlyChecksValidity(t *testing.T) {
	assert.Empty(t, EvaluateExpectations(failedResult(), Expectation{Valid: false}))
	assert.Empty(t, EvaluateExpectations(validResult("a", "b"), Expectation{Valid: true}))
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertDiagnostic,
		Expected: `diagnostic E205 containing "x"`,
		Actual:   "not among 1 diagnostic(s)",
		Report:   "error[E203]: missing required argument 'y'\n",
	}

	want := "Assertion failed: diagnostic\n" +
		"  Expected: diagnostic E205 containing \"x\"\n" +
		"  Actual: not among 1 diagnostic(s)\n" +
		"\nDiagnostics:\n" +
		"error[E203]: missing required argument 'y'\n"
	assert.Equal(t, want, err.Error())

	err.Report = ""
	assert.NotContains(t, err.Error(), "Diagnostics:")
}

func TestDescribeExpected(t *testing.T) {
	assert.Equal(t, `diagnostic E205 containing "Boss" on line 2`,
		describeExpected(ExpectedDiagnostic{Code: "E205", Contains: "Boss", Line: 2}))
	assert.Equal(t, "diagnostic E207", describeExpected(ExpectedDiagnostic{Code: "E207"}))
}
