package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/verbcheck/internal/refdata"
)

// ImportResult is the JSON payload of refdata import.
type ImportResult struct {
	Database string             `json:"database"`
	Source   string             `json:"source"`
	Kinds    []refdata.KindInfo `json:"kinds"`
}

// NewRefdataCommand creates the refdata command group.
func NewRefdataCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "refdata",
		Short: "Manage the reference data cache",
		Long: `Manage the SQLite cache of reference tables (jurisdictions, roles,
document types, ...). validate reads it with --refdata-db.`,
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", rootOpts.Config.RefDB, "reference cache database (env VERBCHECK_REFDATA_DB)")

	cmd.AddCommand(newRefdataImportCommand(rootOpts, &dbPath))
	cmd.AddCommand(newRefdataListCommand(rootOpts, &dbPath))
	cmd.AddCommand(newRefdataCodesCommand(rootOpts, &dbPath))

	return cmd
}

func newRefdataImportCommand(opts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <tables.yaml>",
		Short: "Import reference tables into the cache",
		Long: `Import every table of a YAML file (kind: [codes]) into the cache.
Each imported kind replaces its previous codes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts, cmd)

			st, err := openRefdata(*dbPath)
			if err != nil {
				return reportLoadError(formatter, err)
			}
			defer st.Close()

			snap, err := refdata.LoadYAML(args[0])
			if err != nil {
				return reportLoadError(formatter, loadFileError("references", args[0], err))
			}
			if err := st.ImportSnapshot(cmd.Context(), args[0], snap); err != nil {
				return reportLoadError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: err.Error()})
			}
			opts.logger().Info("imported reference tables", "source", args[0], "kinds", len(snap.Kinds()))

			kinds, err := st.Kinds(cmd.Context())
			if err != nil {
				return reportLoadError(formatter, err)
			}
			if formatter.Format == "json" {
				return formatter.Success(ImportResult{Database: *dbPath, Source: args[0], Kinds: kinds})
			}
			fmt.Fprintf(formatter.Writer, "✓ Imported %d table(s) from %s\n", len(snap.Kinds()), args[0])
			return nil
		},
	}
}

func newRefdataListCommand(opts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List cached reference tables",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts, cmd)

			st, err := openRefdata(*dbPath)
			if err != nil {
				return reportLoadError(formatter, err)
			}
			defer st.Close()

			kinds, err := st.Kinds(cmd.Context())
			if err != nil {
				return reportLoadError(formatter, err)
			}
			if formatter.Format == "json" {
				return formatter.Success(kinds)
			}
			if len(kinds) == 0 {
				fmt.Fprintln(formatter.Writer, "No reference tables")
				return nil
			}
			width := 0
			for _, k := range kinds {
				width = max(width, len(k.Kind))
			}
			for _, k := range kinds {
				fmt.Fprintf(formatter.Writer, "%-*s  %4d  %s\n", width, k.Kind, k.Count, k.Source)
			}
			return nil
		},
	}
}

func newRefdataCodesCommand(opts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "codes <kind>",
		Short:         "Print the codes of one reference table",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts, cmd)

			st, err := openRefdata(*dbPath)
			if err != nil {
				return reportLoadError(formatter, err)
			}
			defer st.Close()

			codes, err := st.Codes(cmd.Context(), args[0])
			if err != nil {
				return reportLoadError(formatter, err)
			}
			if len(codes) == 0 {
				return reportLoadError(formatter, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no reference table %q", args[0])})
			}
			if formatter.Format == "json" {
				return formatter.Success(codes)
			}
			for _, c := range codes {
				fmt.Fprintln(formatter.Writer, c)
			}
			return nil
		},
	}
}

func openRefdata(path string) (*refdata.Store, error) {
	if path == "" {
		return nil, &LoadError{Code: ErrCodeNoInput, Message: "no reference database given (use --db or VERBCHECK_REFDATA_DB)"}
	}
	st, err := refdata.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	return st, nil
}
