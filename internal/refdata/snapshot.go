// Package refdata holds the lookup tables behind Reference-typed arguments.
//
// A Snapshot is the read-only, in-memory view the validator consults. It is
// built before validation, either from a YAML fixture or from the SQLite
// Store, so validation itself never touches the database.
package refdata

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/verbcheck/internal/suggest"
)

// Snapshot is an immutable kind -> codes set. Safe for concurrent use.
type Snapshot struct {
	codes map[string][]string        // sorted
	sets  map[string]map[string]bool // membership
}

// NewSnapshot copies tables into a snapshot. Duplicate codes collapse.
func NewSnapshot(tables map[string][]string) *Snapshot {
	s := &Snapshot{
		codes: make(map[string][]string, len(tables)),
		sets:  make(map[string]map[string]bool, len(tables)),
	}
	for kind, codes := range tables {
		set := make(map[string]bool, len(codes))
		list := make([]string, 0, len(codes))
		for _, c := range codes {
			if set[c] {
				continue
			}
			set[c] = true
			list = append(list, c)
		}
		sort.Strings(list)
		s.codes[kind] = list
		s.sets[kind] = set
	}
	return s
}

// Exists reports whether code is in the kind table.
func (s *Snapshot) Exists(kind, code string) bool {
	return s.sets[kind][code]
}

// Suggest ranks the codes of kind by similarity to code.
func (s *Snapshot) Suggest(kind, code string, limit int) []string {
	return suggest.Rank(code, s.codes[kind], limit)
}

// Kinds returns the table names in sorted order.
func (s *Snapshot) Kinds() []string {
	kinds := make([]string, 0, len(s.codes))
	for k := range s.codes {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Codes returns a copy of the sorted codes of kind.
func (s *Snapshot) Codes(kind string) []string {
	return slices.Clone(s.codes[kind])
}

// Tables returns a copy of every table.
func (s *Snapshot) Tables() map[string][]string {
	out := make(map[string][]string, len(s.codes))
	for k, v := range s.codes {
		out[k] = slices.Clone(v)
	}
	return out
}

// LoadYAML reads a fixture of the form {kind: [code, ...]}.
func LoadYAML(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference file: %w", err)
	}
	snap, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// ParseYAML parses reference tables from YAML.
func ParseYAML(data []byte) (*Snapshot, error) {
	var tables map[string][]string
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("parse reference tables: %w", err)
	}
	for kind := range tables {
		if kind == "" {
			return nil, fmt.Errorf("parse reference tables: empty kind")
		}
	}
	return NewSnapshot(tables), nil
}
