// Package symbols implements the per-validation session symbol table.
//
// A symbol is defined at most once per program and is visible only to calls
// that come after its defining call. The validator builds the table; the
// external executor later records the concrete identifier each symbol
// resolved to.
package symbols

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/verbcheck/internal/ir"
)

// ErrAlreadyResolved is returned when an entry is resolved a second time.
var ErrAlreadyResolved = errors.New("symbol already resolved")

// Entry is one defined symbol.
type Entry struct {
	Name string  // without "@"
	Kind string  // identifier-kind from the defining verb's produces descriptor
	Span ir.Span // span of the defining call
	Verb string  // defining verb name

	resolved uuid.UUID
	isSet    bool
}

// Resolve records the concrete identifier the symbol stands for.
// It may be called exactly once; the validator never calls it.
func (e *Entry) Resolve(id uuid.UUID) error {
	if e.isSet {
		return fmt.Errorf("%w: @%s", ErrAlreadyResolved, e.Name)
	}
	e.resolved = id
	e.isSet = true
	return nil
}

// ResolvedID returns the resolved identifier, if any.
func (e *Entry) ResolvedID() (uuid.UUID, bool) {
	return e.resolved, e.isSet
}

// AlreadyDefinedError reports a second definition of a symbol.
type AlreadyDefinedError struct {
	Name  string
	First ir.Span // span of the original defining call
}

func (e *AlreadyDefinedError) Error() string {
	return fmt.Sprintf("symbol @%s already defined at %s", e.Name, e.First)
}

// Table maps symbol names to entries in definition order.
// A Table is owned by a single validation and is not safe for concurrent use.
type Table struct {
	entries map[string]*Entry
	order   []string
}

// New returns an empty table.
func New() *Table {
	return &Table{entries: make(map[string]*Entry)}
}

// Define registers name. Redefinition returns *AlreadyDefinedError citing
// the first definition; the table is left unchanged.
func (t *Table) Define(name, kind string, span ir.Span, verb string) error {
	if existing, ok := t.entries[name]; ok {
		return &AlreadyDefinedError{Name: name, First: existing.Span}
	}
	t.entries[name] = &Entry{Name: name, Kind: kind, Span: span, Verb: verb}
	t.order = append(t.order, name)
	return nil
}

// Lookup returns the entry for name.
func (t *Table) Lookup(name string) (*Entry, bool) {
	e, ok := t.entries[name]
	return e, ok
}

// KnownNames returns defined names in definition order.
func (t *Table) KnownNames() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of defined symbols.
func (t *Table) Len() int {
	return len(t.order)
}

// Entries returns the entries in definition order.
func (t *Table) Entries() []*Entry {
	out := make([]*Entry, len(t.order))
	for i, name := range t.order {
		out[i] = t.entries[name]
	}
	return out
}
