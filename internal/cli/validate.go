package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/verbcheck/internal/diag"
	"github.com/roach88/verbcheck/internal/ir"
	"github.com/roach88/verbcheck/internal/telemetry"
	"github.com/roach88/verbcheck/internal/validator"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	References            string
	RefDB                 string
	Context               string
	Today                 string
	SuggestLimit          int
	ReferenceSuggestLimit int
}

// ValidationResult is the JSON payload of the validate command.
type ValidationResult struct {
	Valid       bool           `json:"valid"`
	Calls       int            `json:"calls"`
	Symbols     []string       `json:"symbols,omitempty"`
	Fingerprint string         `json:"fingerprint,omitempty"`
	Program     map[string]any `json:"program,omitempty"`
	Diagnostics []diag.Record  `json:"diagnostics,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}
	cfg := rootOpts.Config

	cmd := &cobra.Command{
		Use:   "validate <program>",
		Short: "Validate a parsed program against the catalog",
		Long: `Validate a parsed program (.json or .yaml) against the verb catalog.

Every problem in the program is reported with its code, message and span.
A valid program prints its call and symbol counts; with --format json the
typed program is included.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.References, "references", cfg.References, "reference tables YAML (env VERBCHECK_REFERENCES)")
	cmd.Flags().StringVar(&opts.RefDB, "refdata-db", cfg.RefDB, "reference cache database (env VERBCHECK_REFDATA_DB)")
	cmd.Flags().StringVar(&opts.Context, "context", cfg.Context, "runtime context YAML (env VERBCHECK_CONTEXT)")
	cmd.Flags().StringVar(&opts.Today, "today", cfg.Today, "date for relative date rules, YYYY-MM-DD (env VERBCHECK_TODAY)")
	cmd.Flags().IntVar(&opts.SuggestLimit, "suggest-limit", cfg.SuggestLimit, "maximum verb and argument suggestions")
	cmd.Flags().IntVar(&opts.ReferenceSuggestLimit, "reference-suggest-limit", cfg.ReferenceSuggestLimit, "maximum reference code suggestions")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
	logger := opts.logger()

	cfg := opts.Config
	cfg.Today = opts.Today
	today, err := cfg.TodayDate()
	if err != nil {
		return reportLoadError(formatter, &LoadError{Code: ErrCodeNoInput, Message: err.Error()})
	}

	cat, err := LoadCatalog(opts.Catalog)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d verb(s) from %s", cat.Len(), strings.Join(opts.Catalog, ", "))

	refs, err := LoadReferences(cmd.Context(), opts.RefDB, opts.References)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	env, err := LoadEnvironment(opts.Context)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	program, err := LoadProgram(path)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	ctx, span := telemetry.StartValidation(cmd.Context(), telemetry.Tracer(), path, len(program.Calls))
	if sc := trace.SpanContextFromContext(ctx); sc.IsSampled() {
		formatter.TraceID = sc.TraceID().String()
	}

	v := validator.New(cat,
		validator.WithReferences(refs),
		validator.WithEnvironment(env),
		validator.WithToday(today),
		validator.WithSuggestLimit(opts.SuggestLimit),
		validator.WithReferenceSuggestLimit(opts.ReferenceSuggestLimit),
		validator.WithLogger(logger),
	)
	validated, err := v.Validate(program)

	var report *diag.Report
	switch {
	case errors.As(err, &report):
		telemetry.EndValidation(span, report.Len(), nil)
		return outputDiagnostics(formatter, path, program, report)
	case err != nil:
		telemetry.EndValidation(span, 0, err)
		return reportLoadError(formatter, err)
	}
	telemetry.EndValidation(span, 0, nil)

	return outputValidateSuccess(formatter, validated)
}

// outputValidateSuccess outputs a valid program summary.
func outputValidateSuccess(formatter *OutputFormatter, validated *validator.Validated) error {
	fingerprint, err := ir.Fingerprint(validated.Program)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	symbols := validated.Symbols.KnownNames()

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:       true,
			Calls:       len(validated.Program.Calls),
			Symbols:     symbols,
			Fingerprint: fingerprint,
			Program:     ir.ProgramDoc(validated.Program),
		})
	}

	fmt.Fprintf(formatter.Writer, "✓ Program valid: %d call(s), %d symbol(s)\n", len(validated.Program.Calls), len(symbols))
	if formatter.Verbose {
		for _, name := range symbols {
			entry, _ := validated.Symbols.Lookup(name)
			fmt.Fprintf(formatter.Writer, "  @%s (%s)\n", name, entry.Kind)
		}
		fmt.Fprintf(formatter.Writer, "  fingerprint: %s\n", fingerprint)
	}
	return nil
}

// outputDiagnostics outputs every diagnostic of an invalid program.
func outputDiagnostics(formatter *OutputFormatter, path string, program *ir.Program, report *diag.Report) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d diagnostic(s)", report.Len()))

	if formatter.Format == "json" {
		first := report.Diagnostics[0]
		if err := formatter.Failure(string(first.Code), first.Message, ValidationResult{
			Valid:       false,
			Calls:       len(program.Calls),
			Diagnostics: report.Structured(program.Source),
		}); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintf(formatter.Writer, "✗ Validation failed: %d diagnostic(s)\n\n", report.Len())
	if err := report.Render(formatter.Writer, path, program.Source); err != nil {
		return err
	}
	return exitErr
}
