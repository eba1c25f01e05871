package symbols

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/verbcheck/internal/ir"
)

func TestDefineAndLookup(t *testing.T) {
	table := New()
	span := ir.Span{Start: 0, End: 40, Line: 1, Column: 1}

	require.NoError(t, table.Define("acme", "cbu", span, "cbu.create"))

	entry, ok := table.Lookup("acme")
	require.True(t, ok)
	assert.Equal(t, "cbu", entry.Kind)
	assert.Equal(t, span, entry.Span)
	assert.Equal(t, "cbu.create", entry.Verb)

	_, ok = table.Lookup("missing")
	assert.False(t, ok)
}

func TestDefineTwiceCitesFirstSpan(t *testing.T) {
	table := New()
	first := ir.Span{Start: 0, End: 10, Line: 1, Column: 1}
	second := ir.Span{Start: 50, End: 60, Line: 3, Column: 1}

	require.NoError(t, table.Define("acme", "cbu", first, "cbu.create"))
	err := table.Define("acme", "entity", second, "entity.create")

	var dup *AlreadyDefinedError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "acme", dup.Name)
	assert.Equal(t, first, dup.First)
	assert.Contains(t, err.Error(), "@acme")

	entry, _ := table.Lookup("acme")
	assert.Equal(t, "cbu", entry.Kind, "redefinition must not replace the entry")
	assert.Equal(t, 1, table.Len())
}

func TestKnownNamesInDefinitionOrder(t *testing.T) {
	table := New()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, table.Define(name, "entity", ir.Span{}, "entity.create"))
	}

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, table.KnownNames())

	names := table.KnownNames()
	names[0] = "mutated"
	assert.Equal(t, "zeta", table.KnownNames()[0], "KnownNames returns a copy")

	entries := table.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "mid", entries[2].Name)
}

func TestResolveExactlyOnce(t *testing.T) {
	table := New()
	require.NoError(t, table.Define("acme", "cbu", ir.Span{}, "cbu.create"))
	entry, _ := table.Lookup("acme")

	_, ok := entry.ResolvedID()
	assert.False(t, ok, "entries start unresolved")

	id := uuid.New()
	require.NoError(t, entry.Resolve(id))

	got, ok := entry.ResolvedID()
	require.True(t, ok)
	assert.Equal(t, id, got)

	err := entry.Resolve(uuid.New())
	assert.ErrorIs(t, err, ErrAlreadyResolved)
	got, _ = entry.ResolvedID()
	assert.Equal(t, id, got)
}
