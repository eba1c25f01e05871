package refdata

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "refdata.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refdata.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refdata.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		var version int
		if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
			t.Fatalf("failed to get user_version: %v", err)
		}
		if version != currentSchemaVersion {
			t.Errorf("iteration %d: user_version = %d, want %d", i, version, currentSchemaVersion)
		}
		s.Close()
	}
}

func TestOpen_WALMode(t *testing.T) {
	s := openTestStore(t)

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("failed to query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestImportAndSnapshot(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.Import(ctx, "role", "roles.yaml", []string{"Secretary", "Director", "Director"}); err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	if err := s.Import(ctx, "jurisdiction", "countries.yaml", []string{"LU", "DE"}); err != nil {
		t.Fatalf("Import() failed: %v", err)
	}

	codes, err := s.Codes(ctx, "role")
	if err != nil {
		t.Fatalf("Codes() failed: %v", err)
	}
	if want := []string{"Director", "Secretary"}; !reflect.DeepEqual(codes, want) {
		t.Errorf("Codes() = %v, want %v", codes, want)
	}

	kinds, err := s.Kinds(ctx)
	if err != nil {
		t.Fatalf("Kinds() failed: %v", err)
	}
	want := []KindInfo{
		{Kind: "jurisdiction", Source: "countries.yaml", Count: 2},
		{Kind: "role", Source: "roles.yaml", Count: 2},
	}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("Kinds() = %+v, want %+v", kinds, want)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if !snap.Exists("jurisdiction", "LU") || !snap.Exists("role", "Director") {
		t.Errorf("snapshot is missing imported codes: %v", snap.Tables())
	}
}

func TestImportReplacesKind(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.Import(ctx, "role", "v1", []string{"Director", "Secretary"}); err != nil {
		t.Fatalf("Import() v1 failed: %v", err)
	}
	if err := s.Import(ctx, "role", "v2", []string{"UBO"}); err != nil {
		t.Fatalf("Import() v2 failed: %v", err)
	}

	codes, err := s.Codes(ctx, "role")
	if err != nil {
		t.Fatalf("Codes() failed: %v", err)
	}
	if !reflect.DeepEqual(codes, []string{"UBO"}) {
		t.Errorf("Codes() = %v, want [UBO]", codes)
	}

	kinds, _ := s.Kinds(ctx)
	if len(kinds) != 1 || kinds[0].Source != "v2" || kinds[0].Count != 1 {
		t.Errorf("Kinds() = %+v, want one v2 entry with 1 code", kinds)
	}
}

func TestImportEmptyKind(t *testing.T) {
	s := openTestStore(t)

	err := s.Import(context.Background(), "", "x", []string{"a"})
	if !errors.Is(err, ErrEmptyKind) {
		t.Errorf("Import() error = %v, want ErrEmptyKind", err)
	}
}

func TestImportSnapshot(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	fixture, err := LoadYAML(filepath.Join("testdata", "references.yaml"))
	if err != nil {
		t.Fatalf("LoadYAML() failed: %v", err)
	}
	if err := s.ImportSnapshot(ctx, "references.yaml", fixture); err != nil {
		t.Fatalf("ImportSnapshot() failed: %v", err)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if !reflect.DeepEqual(snap.Tables(), fixture.Tables()) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", snap.Tables(), fixture.Tables())
	}
}

func TestImportCanceledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Import(ctx, "role", "x", []string{"Director"}); err == nil {
		t.Error("Import() with canceled context succeeded, want error")
	}
}

func TestMigrationFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v0.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open raw database: %v", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE reference_codes (kind TEXT NOT NULL, code TEXT NOT NULL, PRIMARY KEY (kind, code)) WITHOUT ROWID;
		INSERT INTO reference_codes VALUES ('role', 'Director'), ('role', 'UBO'), ('jurisdiction', 'LU');
	`); err != nil {
		t.Fatalf("failed to seed v0 schema: %v", err)
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	kinds, err := s.Kinds(context.Background())
	if err != nil {
		t.Fatalf("Kinds() failed: %v", err)
	}
	want := []KindInfo{{Kind: "jurisdiction", Count: 1}, {Kind: "role", Count: 2}}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("Kinds() after migration = %+v, want %+v", kinds, want)
	}
}
