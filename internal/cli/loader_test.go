package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/verbcheck/internal/refdata"
)

func seedRefDB(t *testing.T, tables map[string][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "refs.db")
	st, err := refdata.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.ImportSnapshot(context.Background(), "seed", refdata.NewSnapshot(tables)))
	require.NoError(t, st.Close())
	return path
}

func TestLoadCatalog(t *testing.T) {
	cat, err := LoadCatalog([]string{onboardingCatalog})
	require.NoError(t, err)
	_, ok := cat.Lookup("cbu.create")
	assert.True(t, ok)
}

func TestLoadCatalogDefects(t *testing.T) {
	_, err := LoadCatalog([]string{defectCatalog})
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeDefects, loadErr.Code)
	assert.NotEmpty(t, loadErr.Details)
}

func TestLoadReferencesFromDatabase(t *testing.T) {
	db := seedRefDB(t, map[string][]string{"role": {"Director"}, "jurisdiction": {"LU"}})

	refs, err := LoadReferences(context.Background(), db, "")
	require.NoError(t, err)
	assert.True(t, refs.Exists("role", "Director"))
	assert.True(t, refs.Exists("jurisdiction", "LU"))
}

func TestLoadReferencesYAMLReplacesDatabaseKind(t *testing.T) {
	db := seedRefDB(t, map[string][]string{"role": {"Chair"}, "currency": {"EUR"}})

	refs, err := LoadReferences(context.Background(), db, referenceTables)
	require.NoError(t, err)
	assert.False(t, refs.Exists("role", "Chair"))
	assert.True(t, refs.Exists("role", "Director"))
	assert.True(t, refs.Exists("currency", "EUR"))
}

func TestLoadReferencesNone(t *testing.T) {
	refs, err := LoadReferences(context.Background(), "", "")
	require.NoError(t, err)
	assert.Empty(t, refs.Kinds())
}

func TestLoadEnvironment(t *testing.T) {
	env, err := LoadEnvironment("")
	require.NoError(t, err)
	assert.Empty(t, env.Keys())

	env, err = LoadEnvironment("testdata/context.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"current-country"}, env.Keys())
}

func TestLoadProgram(t *testing.T) {
	fromJSON, err := LoadProgram("testdata/valid.json")
	require.NoError(t, err)
	require.Len(t, fromJSON.Calls, 1)
	assert.Equal(t, "cbu.create", fromJSON.Calls[0].Verb)
	assert.Len(t, fromJSON.Calls[0].Args, 3)

	fromYAML, err := LoadProgram("testdata/invalid.yaml")
	require.NoError(t, err)
	require.Len(t, fromYAML.Calls, 1)
	assert.Equal(t, "(cbu.create :name \"Acme\" :client-type \"fnd\")\n", fromYAML.Source)
}

func TestLoadProgramErrors(t *testing.T) {
	tests := []struct {
		path string
		code string
	}{
		{"testdata/missing.json", ErrCodeNotFound},
		{"testdata/program.txt", ErrCodeLoadFailed},
		{"testdata/context.yaml", ErrCodeLoadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := LoadProgram(tt.path)
			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.code, loadErr.Code)
		})
	}
}
