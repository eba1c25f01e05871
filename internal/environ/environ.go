// Package environ supplies runtime context values for argument defaults,
// such as the jurisdiction of the current session.
package environ

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/roach88/verbcheck/internal/ir"
)

// Static is a fixed map of context keys to typed values.
// It is never mutated after construction and is safe for concurrent use.
type Static struct {
	values map[string]ir.TypedValue
}

// New returns a Static environment over a copy of values.
func New(values map[string]ir.TypedValue) *Static {
	s := &Static{values: make(map[string]ir.TypedValue, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Get returns the value bound to key.
func (s *Static) Get(key string) (ir.TypedValue, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the bound keys in sorted order.
func (s *Static) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entry is the YAML form of one context value. Exactly one variant is set.
type Entry struct {
	Ref        string  `yaml:"ref,omitempty"`
	Code       string  `yaml:"code,omitempty"`
	Text       *string `yaml:"text,omitempty"`
	Enum       *string `yaml:"enum,omitempty"`
	Whole      *int64  `yaml:"whole,omitempty"`
	Decimal    *string `yaml:"decimal,omitempty"`
	Identifier *string `yaml:"identifier,omitempty"`
	Date       *string `yaml:"date,omitempty"`
	Bool       *bool   `yaml:"bool,omitempty"`
}

// Value converts the entry to a typed value.
func (e Entry) Value() (ir.TypedValue, error) {
	set := 0
	for _, present := range []bool{
		e.Ref != "" || e.Code != "", e.Text != nil, e.Enum != nil, e.Whole != nil,
		e.Decimal != nil, e.Identifier != nil, e.Date != nil, e.Bool != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one of ref, text, enum, whole, decimal, identifier, date, bool must be set")
	}

	switch {
	case e.Ref != "" || e.Code != "":
		if e.Ref == "" || e.Code == "" {
			return nil, fmt.Errorf("a reference needs both ref and code")
		}
		return ir.ReferenceValue{RefKind: e.Ref, Code: e.Code}, nil
	case e.Text != nil:
		return ir.TextValue{Val: *e.Text}, nil
	case e.Enum != nil:
		return ir.EnumValue{Val: *e.Enum}, nil
	case e.Whole != nil:
		return ir.WholeValue{Val: *e.Whole}, nil
	case e.Decimal != nil:
		d, _, err := apd.NewFromString(*e.Decimal)
		if err != nil {
			return nil, fmt.Errorf("decimal %q: %w", *e.Decimal, err)
		}
		return ir.DecimalValue{Val: d}, nil
	case e.Identifier != nil:
		id, err := uuid.Parse(*e.Identifier)
		if err != nil {
			return nil, fmt.Errorf("identifier %q: %w", *e.Identifier, err)
		}
		return ir.IdentifierValue{Val: id}, nil
	case e.Date != nil:
		d, err := time.Parse(ir.DateLayout, *e.Date)
		if err != nil {
			return nil, fmt.Errorf("date %q: expected YYYY-MM-DD", *e.Date)
		}
		return ir.DateValue{Val: d}, nil
	default:
		return ir.BoolValue{Val: *e.Bool}, nil
	}
}

// FromEntries converts decoded YAML entries into a Static environment.
func FromEntries(entries map[string]Entry) (*Static, error) {
	values := make(map[string]ir.TypedValue, len(entries))
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, err := entries[k].Value()
		if err != nil {
			return nil, fmt.Errorf("context key %q: %w", k, err)
		}
		values[k] = v
	}
	return New(values), nil
}

// LoadYAML reads a file mapping context keys to typed values:
//
//	current-country: {ref: jurisdiction, code: LU}
//	operator: {text: "ops@example.com"}
func LoadYAML(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read context file: %w", err)
	}
	env, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return env, nil
}

// ParseYAML parses context values from YAML. Unknown entry fields are errors.
func ParseYAML(data []byte) (*Static, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var entries map[string]Entry
	if err := dec.Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse context: %w", err)
	}
	return FromEntries(entries)
}
