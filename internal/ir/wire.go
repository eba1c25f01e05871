package ir

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// WireProgram is the serialized form of an untyped Program, as emitted by the
// external parser. The same document decodes from JSON or YAML.
type WireProgram struct {
	Source string     `json:"source,omitempty" yaml:"source,omitempty"`
	Calls  []WireCall `json:"calls" yaml:"calls"`
}

// WireCall is the serialized form of a Call.
type WireCall struct {
	Verb     string    `json:"verb" yaml:"verb"`
	VerbSpan Span      `json:"verb_span" yaml:"verb_span"`
	Span     Span      `json:"span" yaml:"span"`
	Args     []WireArg `json:"args,omitempty" yaml:"args,omitempty"`
}

// WireArg is the serialized form of an Arg.
type WireArg struct {
	Key     string    `json:"key" yaml:"key"`
	KeySpan Span      `json:"key_span" yaml:"key_span"`
	Value   WireValue `json:"value" yaml:"value"`
}

// WireValue is the serialized form of a Value.
// Exactly one of the shape fields must be set.
type WireValue struct {
	Text    *string     `json:"text,omitempty" yaml:"text,omitempty"`
	Int     *int64      `json:"int,omitempty" yaml:"int,omitempty"`
	Decimal *string     `json:"decimal,omitempty" yaml:"decimal,omitempty"`
	Bool    *bool       `json:"bool,omitempty" yaml:"bool,omitempty"`
	Symbol  *string     `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	List    []WireValue `json:"list,omitempty" yaml:"list,omitempty"`
	Map     []WireEntry `json:"map,omitempty" yaml:"map,omitempty"`
	Span    Span        `json:"span" yaml:"span"`
}

// WireEntry is one key/value pair of a serialized map value.
type WireEntry struct {
	Key     string    `json:"key" yaml:"key"`
	KeySpan Span      `json:"key_span" yaml:"key_span"`
	Value   WireValue `json:"value" yaml:"value"`
}

// DecodeProgramJSON decodes a wire document, rejecting unknown fields.
func DecodeProgramJSON(data []byte) (*Program, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var w WireProgram
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("decode program JSON: %w", err)
	}
	return w.Program()
}

// DecodeProgramYAML decodes a wire document, rejecting unknown fields.
func DecodeProgramYAML(data []byte) (*Program, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var w WireProgram
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("decode program YAML: %w", err)
	}
	return w.Program()
}

// Program converts the wire document into an untyped Program.
func (w WireProgram) Program() (*Program, error) {
	p := &Program{Source: w.Source, Calls: make([]Call, 0, len(w.Calls))}
	for i, wc := range w.Calls {
		if wc.Verb == "" {
			return nil, fmt.Errorf("calls[%d]: verb is required", i)
		}
		call := Call{Verb: wc.Verb, VerbSpan: wc.VerbSpan, Span: wc.Span}
		if call.Span.IsZero() {
			call.Span = wc.VerbSpan
		}
		for j, wa := range wc.Args {
			if wa.Key == "" {
				return nil, fmt.Errorf("calls[%d].args[%d]: key is required", i, j)
			}
			v, err := wa.Value.Value()
			if err != nil {
				return nil, fmt.Errorf("calls[%d].args[%d] (%s): %w", i, j, wa.Key, err)
			}
			call.Args = append(call.Args, Arg{Key: wa.Key, KeySpan: wa.KeySpan, Value: v})
		}
		p.Calls = append(p.Calls, call)
	}
	return p, nil
}

// Value converts a wire value into its untyped Value.
func (w WireValue) Value() (Value, error) {
	set := 0
	for _, present := range []bool{
		w.Text != nil, w.Int != nil, w.Decimal != nil, w.Bool != nil,
		w.Symbol != nil, w.List != nil, w.Map != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("value must set exactly one of text, int, decimal, bool, symbol, list, map (got %d)", set)
	}

	switch {
	case w.Text != nil:
		return TextLit{Val: *w.Text, At: w.Span}, nil
	case w.Int != nil:
		return IntLit{Val: *w.Int, At: w.Span}, nil
	case w.Decimal != nil:
		return DecimalLit{Text: *w.Decimal, At: w.Span}, nil
	case w.Bool != nil:
		return BoolLit{Val: *w.Bool, At: w.Span}, nil
	case w.Symbol != nil:
		return SymbolRef{Name: *w.Symbol, At: w.Span}, nil
	case w.List != nil:
		items := make([]Value, len(w.List))
		for i, item := range w.List {
			v, err := item.Value()
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			items[i] = v
		}
		return ListLit{Items: items, At: w.Span}, nil
	default:
		entries := make([]MapEntry, len(w.Map))
		for i, e := range w.Map {
			v, err := e.Value.Value()
			if err != nil {
				return nil, fmt.Errorf("map[%q]: %w", e.Key, err)
			}
			entries[i] = MapEntry{Key: e.Key, KeySpan: e.KeySpan, Value: v}
		}
		return MapLit{Entries: entries, At: w.Span}, nil
	}
}
