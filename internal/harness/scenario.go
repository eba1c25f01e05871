package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/verbcheck/internal/diag"
	"github.com/roach88/verbcheck/internal/environ"
	"github.com/roach88/verbcheck/internal/ir"
)

// Scenario defines a validation scenario: a catalog, its collaborators, a
// program, and what validating the program must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog lists catalog files or directories (.yaml, .yml, .cue).
	// Paths are relative to the scenario file location.
	Catalog []string `yaml:"catalog"`

	// References is an optional reference table file ({kind: [codes]}).
	References string `yaml:"references,omitempty"`

	// Context binds runtime context keys to typed values.
	Context map[string]environ.Entry `yaml:"context,omitempty"`

	// Today fixes the date relative date bounds resolve against (YYYY-MM-DD).
	// If empty, defaults to 2026-03-15 for deterministic golden files.
	Today string `yaml:"today,omitempty"`

	// Program is the list of calls to validate, in source order.
	Program []Step `yaml:"program"`

	// Expect describes the validation outcome.
	Expect Expectation `yaml:"expect"`
}

// Step is one call of the scenario program.
type Step struct {
	// Call is the verb name (e.g., "cbu.create").
	Call string `yaml:"call"`

	// Args is a mapping of keywords to literals. Order is preserved.
	// Strings starting with "@" are session symbol references.
	Args yaml.Node `yaml:"args,omitempty"`

	// As captures the call's result as a session symbol.
	As string `yaml:"as,omitempty"`
}

// Expectation describes the validation outcome.
type Expectation struct {
	// Valid is whether the program must validate cleanly.
	Valid bool `yaml:"valid"`

	// Codes is the exact diagnostic code sequence, in report order.
	Codes []string `yaml:"codes,omitempty"`

	// Diagnostics must each match at least one reported diagnostic.
	Diagnostics []ExpectedDiagnostic `yaml:"diagnostics,omitempty"`

	// Symbols is the exact list of captured symbols, in definition order.
	Symbols []string `yaml:"symbols,omitempty"`
}

// ExpectedDiagnostic matches a reported diagnostic. Empty fields match anything.
type ExpectedDiagnostic struct {
	Code     string `yaml:"code"`
	Contains string `yaml:"contains,omitempty"`
	Line     int    `yaml:"line,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Relative paths resolve against the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving catalog and reference paths relative to basePath.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve paths BEFORE validation
	for i, p := range scenario.Catalog {
		scenario.Catalog[i] = resolvePath(basePath, p)
	}
	if scenario.References != "" {
		scenario.References = resolvePath(basePath, scenario.References)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func resolvePath(basePath, p string) string {
	if filepath.IsAbs(p) || basePath == "" {
		return p
	}
	return filepath.Join(basePath, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Catalog) == 0 {
		return fmt.Errorf("catalog list is required and must be non-empty")
	}

	if len(s.Program) == 0 {
		return fmt.Errorf("program list is required and must be non-empty")
	}

	for _, p := range s.Catalog {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("catalog not found: %s", p)
		}
	}
	if s.References != "" {
		if _, err := os.Stat(s.References); os.IsNotExist(err) {
			return fmt.Errorf("references not found: %s", s.References)
		}
	}

	if s.Today != "" {
		if _, err := time.Parse(ir.DateLayout, s.Today); err != nil {
			return fmt.Errorf("today: expected YYYY-MM-DD, got %q", s.Today)
		}
	}

	for k, entry := range s.Context {
		if _, err := entry.Value(); err != nil {
			return fmt.Errorf("context[%s]: %w", k, err)
		}
	}

	for i, step := range s.Program {
		if step.Call == "" {
			return fmt.Errorf("program[%d]: call is required", i)
		}
		if step.Args.Kind != 0 && step.Args.Kind != yaml.MappingNode {
			return fmt.Errorf("program[%d]: args must be a mapping", i)
		}
	}

	return validateExpectation(&s.Expect)
}

// validateExpectation rejects expectations that can never hold.
func validateExpectation(e *Expectation) error {
	if e.Valid && (len(e.Codes) > 0 || len(e.Diagnostics) > 0) {
		return fmt.Errorf("expect: a valid program has no diagnostics")
	}
	if !e.Valid && len(e.Symbols) > 0 {
		return fmt.Errorf("expect: symbols are only known for a valid program")
	}
	for i, c := range e.Codes {
		if diag.Code(c).Title() == "diagnostic" {
			return fmt.Errorf("expect.codes[%d]: unknown code %q", i, c)
		}
	}
	for i, d := range e.Diagnostics {
		if d.Code == "" && d.Contains == "" {
			return fmt.Errorf("expect.diagnostics[%d]: code or contains is required", i)
		}
		if d.Code != "" && diag.Code(d.Code).Title() == "diagnostic" {
			return fmt.Errorf("expect.diagnostics[%d]: unknown code %q", i, d.Code)
		}
		if d.Line < 0 {
			return fmt.Errorf("expect.diagnostics[%d]: line must be positive", i)
		}
	}
	return nil
}
