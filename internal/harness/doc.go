// Package harness runs validation scenarios: executable examples that pin
// down what a catalog accepts and which diagnostics a program produces.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	catalog:
//	  - path/to/catalog.yaml
//	references: path/to/references.yaml
//	context:
//	  current-country: {ref: jurisdiction, code: LU}
//	today: "2026-03-15"
//	program:
//	  - call: cbu.create
//	    args: {name: Acme, client-type: fund}
//	    as: "@acme"
//	  - call: party.link
//	    args: {target: "@acme", role: Boss}
//	expect:
//	  valid: false
//	  codes: [E205]
//	  diagnostics:
//	    - code: E205
//	      contains: "unknown role code"
//	      line: 2
//
// Argument mappings keep their order. Strings starting with "@" are session
// symbol references, integers and floats become number literals, sequences
// become lists and mappings become nested structures.
//
// # Expectations
//
//   - valid: whether the program must validate cleanly (required)
//   - codes: the exact diagnostic code sequence, in report order
//   - diagnostics: each entry must match some diagnostic by code, message
//     substring and line
//   - symbols: the captured symbols, in definition order
//
// # Deterministic Testing
//
// Every scenario validates against a fresh in-memory reference store and a
// fixed today (2026-03-15 unless the scenario sets one), so snapshots are
// identical across runs for golden file comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/onboarding.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
