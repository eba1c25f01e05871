package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/verbcheck/internal/diag"
	"github.com/roach88/verbcheck/internal/ir"
)

// Snapshot captures the outcome of a scenario for golden comparison.
// It is serialized as canonical JSON for deterministic comparison.
type Snapshot struct {
	ScenarioName string
	Source       string
	Valid        bool
	Diagnostics  []diag.Record
	Program      *ir.TypedProgram
	Symbols      []string
}

// NewSnapshot builds the snapshot of a result.
func NewSnapshot(name string, result *Result) *Snapshot {
	s := &Snapshot{
		ScenarioName: name,
		Source:       result.Source,
		Valid:        result.Valid,
		Program:      result.Program,
		Symbols:      result.Symbols,
	}
	if !result.Valid {
		s.Diagnostics = result.Report.Structured(result.Source)
	}
	return s
}

// toCanonicalMap converts the snapshot to the generic shapes
// ir.MarshalCanonical accepts.
func (s *Snapshot) toCanonicalMap() map[string]any {
	out := map[string]any{
		"scenario_name": s.ScenarioName,
		"source":        s.Source,
		"valid":         s.Valid,
	}
	if s.Program != nil {
		out["program"] = ir.ProgramDoc(s.Program)
		symbols := make([]any, len(s.Symbols))
		for i, name := range s.Symbols {
			symbols[i] = name
		}
		out["symbols"] = symbols
	}
	if !s.Valid {
		records := make([]any, len(s.Diagnostics))
		for i, rec := range s.Diagnostics {
			records[i] = recordDoc(rec)
		}
		out["diagnostics"] = records
	}
	return out
}

func recordDoc(rec diag.Record) map[string]any {
	doc := map[string]any{
		"code":    string(rec.Code),
		"title":   rec.Title,
		"message": rec.Message,
		"line":    rec.Position.Line,
		"column":  rec.Position.Column,
	}
	if len(rec.Suggestions) > 0 {
		suggestions := make([]any, len(rec.Suggestions))
		for i, s := range rec.Suggestions {
			suggestions[i] = s
		}
		doc["suggestions"] = suggestions
	}
	if rec.Note != "" {
		doc["note"] = rec.Note
	}
	if rec.Related != nil {
		doc["related"] = map[string]any{
			"line":   rec.Related.Line,
			"column": rec.Related.Column,
		}
	}
	return doc
}

// MarshalSnapshot serializes the snapshot as canonical JSON.
func (s *Snapshot) MarshalSnapshot() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).MarshalSnapshot()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
