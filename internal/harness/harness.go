package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/verbcheck/internal/catalog"
	"github.com/roach88/verbcheck/internal/diag"
	"github.com/roach88/verbcheck/internal/environ"
	"github.com/roach88/verbcheck/internal/ir"
	"github.com/roach88/verbcheck/internal/refdata"
	"github.com/roach88/verbcheck/internal/testutil"
	"github.com/roach88/verbcheck/internal/validator"
)

// Harness holds the collaborators one scenario validates against.
type Harness struct {
	store   *refdata.Store
	catalog *catalog.Catalog
	env     *environ.Static
	today   time.Time
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory reference store for isolation,
// and a fixed today so relative date bounds are reproducible.
//
// Execution flow:
// 1. Load and compile the catalog
// 2. Import reference tables into an in-memory store
// 3. Build the runtime context and render the program
// 4. Validate
// 5. Evaluate expectations against the outcome
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := refdata.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	if err := h.load(ctx, scenario); err != nil {
		return nil, err
	}

	result, err := h.validate(ctx, scenario)
	if err != nil {
		return nil, err
	}

	for _, errMsg := range EvaluateExpectations(result, scenario.Expect) {
		result.AddError(errMsg)
	}
	return result, nil
}

func (h *Harness) load(ctx context.Context, scenario *Scenario) error {
	cat, err := catalog.Open(scenario.Catalog...)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	h.catalog = cat

	if scenario.References != "" {
		snap, err := refdata.LoadYAML(scenario.References)
		if err != nil {
			return fmt.Errorf("failed to load references: %w", err)
		}
		if err := h.store.ImportSnapshot(ctx, scenario.References, snap); err != nil {
			return fmt.Errorf("failed to import references: %w", err)
		}
	}

	env, err := environ.FromEntries(scenario.Context)
	if err != nil {
		return fmt.Errorf("failed to build context: %w", err)
	}
	h.env = env

	h.today = testutil.Today
	if scenario.Today != "" {
		today, err := time.Parse(ir.DateLayout, scenario.Today)
		if err != nil {
			return fmt.Errorf("today: %w", err)
		}
		h.today = today
	}
	return nil
}

func (h *Harness) validate(ctx context.Context, scenario *Scenario) (*Result, error) {
	program, err := BuildProgram(scenario.Program)
	if err != nil {
		return nil, fmt.Errorf("failed to build program: %w", err)
	}

	refs, err := h.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read references: %w", err)
	}

	v := validator.New(h.catalog,
		validator.WithReferences(refs),
		validator.WithEnvironment(h.env),
		validator.WithToday(h.today),
		validator.WithLogger(h.logger),
	)

	result := NewResult()
	result.Source = program.Source

	validated, err := v.Validate(program)
	var report *diag.Report
	switch {
	case errors.As(err, &report):
		result.Report = report
	case err != nil:
		return nil, fmt.Errorf("failed to validate: %w", err)
	default:
		result.Valid = true
		result.Program = validated.Program
		result.Symbols = append(result.Symbols, validated.Symbols.KnownNames()...)
	}
	h.logger.Debug("scenario validated",
		"scenario", scenario.Name,
		"valid", result.Valid,
		"diagnostics", result.Report.Len())
	return result, nil
}
