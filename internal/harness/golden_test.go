package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/verbcheck/internal/diag"
	"github.com/roach88/verbcheck/internal/ir"
)

// Golden files live in testdata/golden. To regenerate:
//
//	go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden_ValidProgram(t *testing.T) {
	result, err := RunWithGolden(t, loadExample(t, "cbu_create"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunWithGolden_Diagnostics(t *testing.T) {
	result, err := RunWithGolden(t, loadExample(t, "unknown_role"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestAssertGolden_ReusesResult(t *testing.T) {
	result, err := Run(loadExample(t, "unknown_role"))
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, "unknown_role", result))
}

func TestSnapshot_Deterministic(t *testing.T) {
	scenario := loadExample(t, "onboarding")

	var outputs [][]byte
	for range 3 {
		result, err := Run(scenario)
		require.NoError(t, err)
		data, err := NewSnapshot(scenario.Name, result).MarshalSnapshot()
		require.NoError(t, err)
		outputs = append(outputs, data)
	}
	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[1], outputs[2])
}

func TestSnapshot_InvalidProgramShape(t *testing.T) {
	r := NewResult()
	r.Source = "(a)\n"
	first := ir.Span{Start: 0, End: 3, Line: 1, Column: 1}
	r.Report.Add(diag.Diagnostic{
		Code:    diag.DuplicateSymbol,
		Message: "symbol '@x' is already defined",
		Span:    ir.Span{Start: 1, End: 2, Line: 1, Column: 2},
		Related: &first,
		Hint:    diag.Note("rename one of them"),
	})

	data, err := NewSnapshot("dup", r).MarshalSnapshot()
	require.NoError(t, err)

	want := `{"diagnostics":[{"code":"E208","column":2,"line":1,"message":"symbol '@x' is already defined",` +
		`"note":"rename one of them","related":{"column":1,"line":1},"title":"duplicate symbol"}],` +
		`"scenario_name":"dup","source":"(a)\n","valid":false}`
	assert.Equal(t, want, string(data))
}

func TestSnapshot_ValidProgramCarriesTypedTree(t *testing.T) {
	result, err := Run(loadExample(t, "cbu_create"))
	require.NoError(t, err)

	doc := NewSnapshot("cbu_create", result).toCanonicalMap()
	assert.Equal(t, true, doc["valid"])
	assert.Equal(t, []any{"acme"}, doc["symbols"])
	assert.NotContains(t, doc, "diagnostics")
	require.Contains(t, doc, "program")

	program := doc["program"].(map[string]any)
	assert.Len(t, program["calls"], 1)
}
