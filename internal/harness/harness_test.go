package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadExample(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return scenario
}

func TestRun_ExampleScenariosPass(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_ValidProgram(t *testing.T) {
	result, err := Run(loadExample(t, "onboarding"))
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Equal(t, 0, result.Report.Len())
	require.NotNil(t, result.Program)
	assert.Len(t, result.Program.Calls, 5)
	assert.Equal(t, []string{"acme", "jane"}, result.Symbols)
	assert.Empty(t, result.Rendered("onboarding"))
}

func TestRun_InvalidProgram(t *testing.T) {
	result, err := Run(loadExample(t, "document_request"))
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Nil(t, result.Program)
	assert.Empty(t, result.Symbols)
	assert.Equal(t, []string{"E205", "E206"}, result.Codes())
	assert.Contains(t, result.Rendered("document_request"), "--> document_request:2:")
}

func TestRun_ExpectationMismatchFailsScenario(t *testing.T) {
	scenario := loadExample(t, "unknown_role")
	scenario.Expect = Expectation{Valid: true}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: valid")
	assert.Contains(t, result.Errors[0], "unknown role code 'Directr'")
}

func TestRun_WithoutReferencesEveryCodeIsUnknown(t *testing.T) {
	scenario := loadExample(t, "unknown_role")
	scenario.References = ""
	scenario.Expect = Expectation{Valid: false}

	result, err := Run(scenario)
	require.NoError(t, err)

	// context values are injected as given, but no role code exists
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"E205"}, result.Codes())
	assert.Nil(t, result.Report.Diagnostics[0].Hint, "no codes to suggest")
}

func TestRun_TodayFromScenario(t *testing.T) {
	scenario := loadExample(t, "cbu_create")
	scenario.Program = stepsOf(t, `
- call: case.open
  args: {title: Review, due-date: "2026-03-10"}
`)
	scenario.Expect = Expectation{Valid: true}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Valid, "due date lies before the default today")

	scenario.Today = "2026-03-01"
	result, err = Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Valid, "errors: %v", result.Errors)
}

func TestRun_CatalogDefect(t *testing.T) {
	scenario := loadExample(t, "cbu_create")
	scenario.Catalog = []string{"../catalog/testdata/defects.yaml"}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load catalog")
}

func TestRun_ProgramBuildError(t *testing.T) {
	scenario := loadExample(t, "cbu_create")
	scenario.Program = stepsOf(t, "- call: cbu.create\n  args: {name: null}\n")

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build program")
}

func TestRun_Deterministic(t *testing.T) {
	scenario := loadExample(t, "document_request")

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Source, second.Source)
	assert.Equal(t, first.Report, second.Report)
}
