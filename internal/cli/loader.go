package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/verbcheck/internal/catalog"
	"github.com/roach88/verbcheck/internal/environ"
	"github.com/roach88/verbcheck/internal/ir"
	"github.com/roach88/verbcheck/internal/refdata"
)

// Error codes for command-level failures. Catalog defects use E1xx and
// program diagnostics E2xx.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNoInput     = "E003" // Required input not given
	ErrCodeLoadFailed  = "E004" // File could not be read or decoded
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeDefects     = "E006" // Catalog has defects
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeUnknownVerb = "E008" // Verb not in the catalog
)

// LoadError represents an error that occurred while loading an input.
type LoadError struct {
	Code    string
	Message string
	Details any
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadCatalog loads and compiles the catalog at paths.
// A catalog with defects returns a *LoadError with code ErrCodeDefects
// and the defects as details.
func LoadCatalog(paths []string) (*catalog.Catalog, error) {
	if len(paths) == 0 {
		return nil, &LoadError{Code: ErrCodeNoInput, Message: "no catalog given (use --catalog or VERBCHECK_CATALOG)"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog not found: %s", p)}
		}
	}

	cat, err := catalog.Open(paths...)
	if err != nil {
		var defects *catalog.DefectError
		if errors.As(err, &defects) {
			return nil, &LoadError{Code: ErrCodeDefects, Message: defects.Error(), Details: defects.Defects}
		}
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	return cat, nil
}

// LoadReferences reads reference tables from a cache database, a YAML
// file, or both. YAML tables replace database tables of the same kind.
// With neither, every reference code is unknown.
func LoadReferences(ctx context.Context, dbPath, yamlPath string) (*refdata.Snapshot, error) {
	tables := map[string][]string{}

	if dbPath != "" {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reference database not found: %s", dbPath)}
		}
		st, err := refdata.Open(dbPath)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
		}
		defer st.Close()
		snap, err := st.Snapshot(ctx)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
		}
		maps.Copy(tables, snap.Tables())
	}

	if yamlPath != "" {
		snap, err := refdata.LoadYAML(yamlPath)
		if err != nil {
			return nil, loadFileError("references", yamlPath, err)
		}
		maps.Copy(tables, snap.Tables())
	}

	return refdata.NewSnapshot(tables), nil
}

// LoadEnvironment reads runtime context values. An empty path yields an
// empty context.
func LoadEnvironment(path string) (*environ.Static, error) {
	if path == "" {
		return environ.New(nil), nil
	}
	env, err := environ.LoadYAML(path)
	if err != nil {
		return nil, loadFileError("context", path, err)
	}
	return env, nil
}

// LoadProgram decodes a parsed program from a .json, .yaml or .yml file.
func LoadProgram(path string) (*ir.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, loadFileError("program", path, err)
	}

	var p *ir.Program
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		p, err = ir.DecodeProgramJSON(data)
	case ".yaml", ".yml":
		p, err = ir.DecodeProgramYAML(data)
	default:
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("unsupported program format %q (want .json, .yaml or .yml)", filepath.Ext(path))}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("%s: %v", path, err)}
	}
	return p, nil
}

func loadFileError(what, path string, err error) *LoadError {
	if errors.Is(err, os.ErrNotExist) {
		return &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found: %s", what, path)}
	}
	return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
}

// reportLoadError prints a load failure and maps it to a command error.
func reportLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		loadErr = &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	_ = formatter.Error(loadErr.Code, loadErr.Message, loadErr.Details)
	return WrapExitError(ExitCommandError, loadErr.Code, err)
}
