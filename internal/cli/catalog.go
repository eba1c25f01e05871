package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/spf13/cobra"

	"github.com/roach88/verbcheck/internal/catalog"
	"github.com/roach88/verbcheck/internal/ir"
)

// CatalogSummary is the JSON payload of catalog check.
type CatalogSummary struct {
	Valid   bool             `json:"valid"`
	Verbs   int              `json:"verbs"`
	Domains []string         `json:"domains,omitempty"`
	Defects []catalog.Defect `json:"defects,omitempty"`
}

// VerbDoc describes one verb for catalog list and describe.
type VerbDoc struct {
	Name        string   `json:"name"`
	Domain      string   `json:"domain"`
	Description string   `json:"description,omitempty"`
	Produces    string   `json:"produces,omitempty"`
	Args        []ArgDoc `json:"args,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// ArgDoc describes one argument or structure field.
type ArgDoc struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Required    string   `json:"required"`
	Default     string   `json:"default,omitempty"`
	Rules       []string `json:"rules,omitempty"`
	Description string   `json:"description,omitempty"`
	Fields      []ArgDoc `json:"fields,omitempty"`
}

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and check verb catalogs",
	}

	cmd.AddCommand(newCatalogCheckCommand(rootOpts))
	cmd.AddCommand(newCatalogListCommand(rootOpts))
	cmd.AddCommand(newCatalogDescribeCommand(rootOpts))

	return cmd
}

func newCatalogCheckCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the catalog and report every defect",
		Long: `Load the catalog files and run the load-time checks.

All defects are reported together: duplicate verbs or arguments, malformed
types, rules that read later arguments, bad patterns, defaults that do not
fit their type and inverted bounds.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogCheck(opts, cmd)
		},
	}
}

func runCatalogCheck(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cat, err := LoadCatalog(opts.Catalog)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Code == ErrCodeDefects {
			return outputDefects(formatter, loadErr.Details.([]catalog.Defect))
		}
		return reportLoadError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(CatalogSummary{Valid: true, Verbs: cat.Len(), Domains: cat.Domains()})
	}
	fmt.Fprintf(formatter.Writer, "✓ Catalog valid: %d verb(s) in %d domain(s)\n", cat.Len(), len(cat.Domains()))
	return nil
}

// outputDefects outputs catalog defects. Defects are a check failure (exit 1).
func outputDefects(formatter *OutputFormatter, defects []catalog.Defect) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("catalog has %d defect(s)", len(defects)))

	if formatter.Format == "json" {
		if err := formatter.Failure(defects[0].Code, defects[0].Message, CatalogSummary{
			Valid:   false,
			Defects: defects,
		}); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintf(formatter.Writer, "✗ Catalog has %d defect(s)\n\n", len(defects))
	for _, d := range defects {
		fmt.Fprintf(formatter.Writer, "  %s\n", d.Error())
	}
	return exitErr
}

func newCatalogListCommand(opts *RootOptions) *cobra.Command {
	var domain string

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List catalog verbs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts, cmd)
			cat, err := LoadCatalog(opts.Catalog)
			if err != nil {
				return reportLoadError(formatter, err)
			}

			defs := cat.Verbs(domain)
			if formatter.Format == "json" {
				docs := make([]VerbDoc, len(defs))
				for i, def := range defs {
					docs[i] = VerbDoc{Name: def.Name, Domain: def.Domain, Description: def.Description}
				}
				return formatter.Success(docs)
			}

			width := 0
			for _, def := range defs {
				width = max(width, len(def.Name))
			}
			for _, def := range defs {
				fmt.Fprintf(formatter.Writer, "%-*s  %s\n", width, def.Name, def.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "only list verbs of this domain")
	return cmd
}

func newCatalogDescribeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "describe <verb>",
		Short:         "Show the arguments, rules and constraints of a verb",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts, cmd)
			cat, err := LoadCatalog(opts.Catalog)
			if err != nil {
				return reportLoadError(formatter, err)
			}

			def, ok := cat.Lookup(args[0])
			if !ok {
				msg := fmt.Sprintf("unknown verb '%s'", args[0])
				similar := cat.SuggestSimilar(args[0], opts.Config.SuggestLimit)
				if len(similar) > 0 {
					msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(similar, ", "))
				}
				return reportLoadError(formatter, &LoadError{Code: ErrCodeUnknownVerb, Message: msg, Details: similar})
			}

			doc := describeVerb(def)
			if formatter.Format == "json" {
				return formatter.Success(doc)
			}
			writeVerbDoc(formatter, doc)
			return nil
		},
	}
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func describeVerb(def *ir.VerbDefinition) VerbDoc {
	doc := VerbDoc{
		Name:        def.Name,
		Domain:      def.Domain,
		Description: def.Description,
		Args:        describeArgs(def.Args),
		Examples:    def.Examples,
	}
	if def.Produces != nil {
		doc.Produces = def.Produces.Kind
	}
	for _, c := range def.Constraints {
		doc.Constraints = append(doc.Constraints, c.String())
	}
	return doc
}

func describeArgs(specs []ir.ArgumentSpec) []ArgDoc {
	docs := make([]ArgDoc, len(specs))
	for i, spec := range specs {
		d := ArgDoc{
			Name:        spec.Name,
			Type:        spec.Type.String(),
			Required:    spec.Required.String(),
			Description: spec.Description,
		}
		if spec.Default != nil {
			d.Default = defaultText(spec.Default)
		}
		for _, r := range spec.Rules {
			d.Rules = append(d.Rules, ruleText(r))
		}
		if fields := structFields(spec.Type); len(fields) > 0 {
			d.Fields = describeArgs(fields)
		}
		docs[i] = d
	}
	return docs
}

// structFields returns the fields of a structure or a list of structures.
func structFields(t ir.Type) []ir.ArgumentSpec {
	switch {
	case t.Kind == ir.KindStructure:
		return t.Fields
	case t.Kind == ir.KindSequence && t.Elem != nil:
		return structFields(*t.Elem)
	}
	return nil
}

func defaultText(d *ir.DefaultSpec) string {
	var parts []string
	if d.ContextKey != "" {
		parts = append(parts, "context "+d.ContextKey)
	}
	if d.Literal != nil {
		parts = append(parts, literalText(d.Literal))
	}
	return strings.Join(parts, ", else ")
}

func ruleText(r ir.ValidationRule) string {
	switch r.Kind {
	case ir.RuleRange:
		return "range" + boundPair(decimalText(r.Min), decimalText(r.Max))
	case ir.RuleLength:
		return "length" + boundPair(intText(r.MinLen), intText(r.MaxLen))
	case ir.RulePattern:
		if r.Description != "" {
			return fmt.Sprintf("pattern %s (%s)", r.Pattern, r.Description)
		}
		return "pattern " + r.Pattern
	case ir.RuleDateRange:
		var lo, hi string
		if r.After != nil {
			lo = r.After.String()
		}
		if r.Before != nil {
			hi = r.Before.String()
		}
		return "date-range" + boundPair(lo, hi)
	default:
		return r.Kind.String()
	}
}

func boundPair(lo, hi string) string {
	switch {
	case lo != "" && hi != "":
		return fmt.Sprintf(" %s..%s", lo, hi)
	case lo != "":
		return " >= " + lo
	case hi != "":
		return " <= " + hi
	}
	return ""
}

func decimalText(d *apd.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func intText(n *int) string {
	if n == nil {
		return ""
	}
	return fmt.Sprint(*n)
}

func literalText(v ir.Value) string {
	switch lit := v.(type) {
	case ir.TextLit:
		return fmt.Sprintf("%q", lit.Val)
	case ir.IntLit:
		return fmt.Sprint(lit.Val)
	case ir.DecimalLit:
		return lit.Text
	case ir.BoolLit:
		return fmt.Sprint(lit.Val)
	case ir.SymbolRef:
		return "@" + lit.Name
	case ir.ListLit:
		items := make([]string, len(lit.Items))
		for i, item := range lit.Items {
			items[i] = literalText(item)
		}
		return "[" + strings.Join(items, " ") + "]"
	case ir.MapLit:
		entries := make([]string, len(lit.Entries))
		for i, e := range lit.Entries {
			entries[i] = ":" + e.Key + " " + literalText(e.Value)
		}
		return "{" + strings.Join(entries, " ") + "}"
	}
	return ""
}

func writeVerbDoc(formatter *OutputFormatter, doc VerbDoc) {
	w := formatter.Writer
	fmt.Fprintln(w, doc.Name)
	if doc.Description != "" {
		fmt.Fprintf(w, "  %s\n", doc.Description)
	}
	if doc.Produces != "" {
		fmt.Fprintf(w, "  produces: %s\n", doc.Produces)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	writeArgDocs(formatter, doc.Args, "  ")
	if len(doc.Constraints) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Constraints:")
		for _, c := range doc.Constraints {
			fmt.Fprintf(w, "  %s\n", c)
		}
	}
	if len(doc.Examples) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Examples:")
		for _, e := range doc.Examples {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}

func writeArgDocs(formatter *OutputFormatter, args []ArgDoc, indent string) {
	w := formatter.Writer
	for _, a := range args {
		fmt.Fprintf(w, "%s:%s %s (%s)\n", indent, a.Name, a.Type, a.Required)
		if a.Default != "" {
			fmt.Fprintf(w, "%s    default: %s\n", indent, a.Default)
		}
		for _, r := range a.Rules {
			fmt.Fprintf(w, "%s    rule: %s\n", indent, r)
		}
		if formatter.Verbose && a.Description != "" {
			fmt.Fprintf(w, "%s    %s\n", indent, a.Description)
		}
		writeArgDocs(formatter, a.Fields, indent+"    ")
	}
}
