package refdata

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - reference_codes only
// 1 - added reference_imports
const currentSchemaVersion = 1

// ErrEmptyKind is returned when importing into an unnamed table.
var ErrEmptyKind = errors.New("reference kind is empty")

// Store persists reference tables in SQLite.
// Uses WAL mode so a snapshot can be read while an import runs.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies migrations.
// Safe to call repeatedly on the same file.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Import replaces the codes of kind in one transaction and records where
// they came from.
func (s *Store) Import(ctx context.Context, kind, source string, codes []string) error {
	if kind == "" {
		return fmt.Errorf("import: %w", ErrEmptyKind)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("import %s: begin: %w", kind, err)
	}
	defer tx.Rollback() // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM reference_codes WHERE kind = ?`, kind); err != nil {
		return fmt.Errorf("import %s: clear: %w", kind, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reference_codes (kind, code) VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("import %s: prepare: %w", kind, err)
	}
	defer stmt.Close()

	for _, code := range codes {
		if _, err := stmt.ExecContext(ctx, kind, code); err != nil {
			return fmt.Errorf("import %s: insert %q: %w", kind, code, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reference_imports (kind, source, code_count)
		SELECT ?, ?, COUNT(*) FROM reference_codes WHERE kind = ?
		ON CONFLICT(kind) DO UPDATE SET source = excluded.source, code_count = excluded.code_count
	`, kind, source, kind)
	if err != nil {
		return fmt.Errorf("import %s: record: %w", kind, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("import %s: commit: %w", kind, err)
	}
	return nil
}

// ImportSnapshot imports every table of snap.
func (s *Store) ImportSnapshot(ctx context.Context, source string, snap *Snapshot) error {
	for _, kind := range snap.Kinds() {
		if err := s.Import(ctx, kind, source, snap.Codes(kind)); err != nil {
			return err
		}
	}
	return nil
}

// KindInfo describes one imported table.
type KindInfo struct {
	Kind   string `json:"kind"`
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// Kinds lists the imported tables ordered by kind.
func (s *Store) Kinds(ctx context.Context) ([]KindInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, source, code_count FROM reference_imports
		ORDER BY kind ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list kinds: %w", err)
	}
	defer rows.Close()

	var out []KindInfo
	for rows.Next() {
		var k KindInfo
		if err := rows.Scan(&k.Kind, &k.Source, &k.Count); err != nil {
			return nil, fmt.Errorf("list kinds: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Codes returns the codes of kind in byte order.
func (s *Store) Codes(ctx context.Context, kind string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code FROM reference_codes WHERE kind = ?
		ORDER BY code ASC COLLATE BINARY
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("list codes of %s: %w", kind, err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("list codes of %s: %w", kind, err)
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

// Snapshot reads every table into an immutable Snapshot.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, code FROM reference_codes
		ORDER BY kind ASC, code ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	defer rows.Close()

	tables := make(map[string][]string)
	for rows.Next() {
		var kind, code string
		if err := rows.Scan(&kind, &code); err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		tables[kind] = append(tables[kind], code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return NewSnapshot(tables), nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 backfills reference_imports for databases that predate it.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		INSERT INTO reference_imports (kind, source, code_count)
		SELECT kind, '', COUNT(*) FROM reference_codes WHERE true GROUP BY kind
		ON CONFLICT(kind) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}
