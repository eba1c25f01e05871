package ir

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON.
// It accepts the generic document shapes built by ProgramDoc:
// map[string]any, []any, string, int, int64 and bool.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping, U+2028/U+2029 written literally
//  3. Strings are NFC normalized
//  4. No floats and no null
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		writeCanonicalString(buf, val)
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareKeysRFC8785)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeCanonicalString escapes only quote, backslash and control characters.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range norm.NFC.String(s) {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
// Go's default string comparison uses UTF-8 bytes, which orders differently
// for characters outside the BMP.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// ProgramDoc converts a typed program into a generic document suitable for
// MarshalCanonical and for JSON output.
func ProgramDoc(p *TypedProgram) map[string]any {
	calls := make([]any, len(p.Calls))
	for i := range p.Calls {
		calls[i] = callDoc(&p.Calls[i])
	}
	return map[string]any{
		"ir_version": IRVersion,
		"calls":      calls,
	}
}

func callDoc(c *TypedCall) map[string]any {
	args := make([]any, len(c.Args))
	for i, a := range c.Args {
		args[i] = argDoc(a)
	}
	doc := map[string]any{
		"verb":      c.Verb.Name,
		"verb_span": spanDoc(c.VerbSpan),
		"span":      spanDoc(c.Span),
		"args":      args,
	}
	if c.Capture != nil {
		doc["capture"] = map[string]any{
			"name": c.Capture.Name,
			"kind": c.Capture.Kind,
			"span": spanDoc(c.Capture.Span),
		}
	}
	return doc
}

func argDoc(a TypedArg) map[string]any {
	return map[string]any{
		"name":       a.Name,
		"key_span":   spanDoc(a.KeySpan),
		"provenance": a.Provenance.String(),
		"value":      ValueDoc(a.Value),
	}
}

func spanDoc(s Span) map[string]any {
	return map[string]any{
		"start":  s.Start,
		"end":    s.End,
		"line":   s.Line,
		"column": s.Column,
	}
}

// ValueDoc converts one typed value into a generic document.
func ValueDoc(v TypedValue) map[string]any {
	doc := map[string]any{"span": spanDoc(v.Span())}
	switch tv := v.(type) {
	case TextValue:
		doc["type"], doc["value"] = "text", tv.Val
	case IdentifierValue:
		doc["type"], doc["value"] = "identifier", tv.Val.String()
	case WholeValue:
		doc["type"], doc["value"] = "whole", tv.Val
	case DecimalValue:
		doc["type"], doc["value"] = "decimal", tv.Val.Text('f')
	case DateValue:
		doc["type"], doc["value"] = "date", tv.Val.Format(DateLayout)
	case BoolValue:
		doc["type"], doc["value"] = "boolean", tv.Val
	case ReferenceValue:
		doc["type"], doc["value"], doc["ref_kind"] = "reference", tv.Code, tv.RefKind
	case EnumValue:
		doc["type"], doc["value"] = "enum", tv.Val
	case SymbolValue:
		doc["type"], doc["value"] = "symbol", tv.Name
		if tv.Kind != "" {
			doc["kind"] = tv.Kind
		}
	case SequenceValue:
		items := make([]any, len(tv.Items))
		for i, item := range tv.Items {
			items[i] = ValueDoc(item)
		}
		doc["type"], doc["value"] = "list", items
	case StructureValue:
		fields := make([]any, len(tv.Fields))
		for i, f := range tv.Fields {
			fields[i] = argDoc(f)
		}
		doc["type"], doc["value"] = "struct", fields
	default:
		doc["type"], doc["value"] = "unknown", fmt.Sprintf("%T", v)
	}
	return doc
}
