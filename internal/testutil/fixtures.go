// Package testutil provides deterministic fixtures for tests and scenarios:
// the onboarding verb catalog, its reference tables, a runtime context, a
// fixed "today", and a builder that renders programs with exact spans.
package testutil

import (
	_ "embed"
	"testing"
	"time"

	"github.com/roach88/verbcheck/internal/catalog"
	"github.com/roach88/verbcheck/internal/environ"
	"github.com/roach88/verbcheck/internal/ir"
	"github.com/roach88/verbcheck/internal/refdata"
)

//go:embed testdata/onboarding.yaml
var onboardingYAML []byte

//go:embed testdata/references.yaml
var referencesYAML []byte

// Today is the fixed date relative date bounds resolve against in tests.
var Today = time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

// OnboardingYAML returns the raw onboarding catalog.
func OnboardingYAML() []byte {
	return append([]byte(nil), onboardingYAML...)
}

// Catalog compiles the onboarding catalog, failing the test on any defect.
func Catalog(tb testing.TB) *catalog.Catalog {
	tb.Helper()
	decls, err := catalog.ParseYAML(onboardingYAML, "onboarding.yaml")
	if err != nil {
		tb.Fatalf("parse onboarding catalog: %v", err)
	}
	cat, err := catalog.Compile(decls)
	if err != nil {
		tb.Fatalf("compile onboarding catalog: %v", err)
	}
	return cat
}

// References returns the reference tables that go with the onboarding catalog.
func References(tb testing.TB) *refdata.Snapshot {
	tb.Helper()
	snap, err := refdata.ParseYAML(referencesYAML)
	if err != nil {
		tb.Fatalf("parse reference tables: %v", err)
	}
	return snap
}

// Environment returns a runtime context with current-country set to LU.
func Environment() *environ.Static {
	return environ.New(map[string]ir.TypedValue{
		"current-country": ir.ReferenceValue{RefKind: "jurisdiction", Code: "LU"},
	})
}
