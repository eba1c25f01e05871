package catalog

import (
	"fmt"
	"strings"

	"github.com/roach88/verbcheck/internal/ir"
)

// ParseType parses a type expression as written in a catalog:
//
//	text | identifier | whole | decimal | date | boolean | symbol
//	ref(kind) | enum(a|b|c) | list(T) | alt(T|U) | struct
//
// "struct" takes its fields from the argument's declared fields, so
// list(struct) describes a list of structures. Fields declared on a type
// that never mentions struct are an error.
func ParseType(expr string, fields []ir.ArgumentSpec) (ir.Type, error) {
	p := &typeParser{fields: fields}
	t, err := p.parse(strings.TrimSpace(expr))
	if err != nil {
		return ir.Type{}, fmt.Errorf("type %q: %w", expr, err)
	}
	if len(fields) > 0 && !p.usedFields {
		return ir.Type{}, fmt.Errorf("type %q: fields are only allowed on struct types", expr)
	}
	return t, nil
}

type typeParser struct {
	fields     []ir.ArgumentSpec
	usedFields bool
}

var simpleTypes = map[string]func() ir.Type{
	"text":       ir.Text,
	"identifier": ir.Identifier,
	"whole":      ir.WholeNumber,
	"decimal":    ir.DecimalNumber,
	"date":       ir.CalendarDate,
	"boolean":    ir.Boolean,
	"symbol":     ir.SessionSymbol,
}

func (p *typeParser) parse(s string) (ir.Type, error) {
	if s == "" {
		return ir.Type{}, fmt.Errorf("empty type")
	}
	head, inner, hasArgs, err := splitCall(s)
	if err != nil {
		return ir.Type{}, err
	}

	if ctor, ok := simpleTypes[head]; ok {
		if hasArgs {
			return ir.Type{}, fmt.Errorf("%s takes no parameters", head)
		}
		return ctor(), nil
	}

	switch head {
	case "struct":
		if hasArgs {
			return ir.Type{}, fmt.Errorf("struct takes no parameters; declare fields instead")
		}
		if len(p.fields) == 0 {
			return ir.Type{}, fmt.Errorf("struct needs fields")
		}
		p.usedFields = true
		return ir.Structure(p.fields...), nil
	case "ref":
		kind := strings.TrimSpace(inner)
		if !hasArgs || kind == "" {
			return ir.Type{}, fmt.Errorf("ref needs a kind, as in ref(role)")
		}
		if strings.ContainsAny(kind, "()| ") {
			return ir.Type{}, fmt.Errorf("invalid reference kind %q", kind)
		}
		return ir.Reference(kind), nil
	case "enum":
		if !hasArgs {
			return ir.Type{}, fmt.Errorf("enum needs values, as in enum(open|closed)")
		}
		parts := splitTop(inner)
		values := make([]string, 0, len(parts))
		for _, v := range parts {
			v = strings.TrimSpace(v)
			if v == "" {
				return ir.Type{}, fmt.Errorf("enum has an empty value")
			}
			values = append(values, v)
		}
		return ir.Enumeration(values...), nil
	case "list":
		if !hasArgs {
			return ir.Type{}, fmt.Errorf("list needs an element type, as in list(text)")
		}
		elem, err := p.parse(strings.TrimSpace(inner))
		if err != nil {
			return ir.Type{}, fmt.Errorf("list element: %w", err)
		}
		return ir.Sequence(elem), nil
	case "alt":
		if !hasArgs {
			return ir.Type{}, fmt.Errorf("alt needs options, as in alt(symbol|identifier)")
		}
		parts := splitTop(inner)
		if len(parts) < 2 {
			return ir.Type{}, fmt.Errorf("alt needs at least two options")
		}
		options := make([]ir.Type, 0, len(parts))
		for _, part := range parts {
			o, err := p.parse(strings.TrimSpace(part))
			if err != nil {
				return ir.Type{}, fmt.Errorf("alt option: %w", err)
			}
			options = append(options, o)
		}
		return ir.Alternative(options...), nil
	default:
		return ir.Type{}, fmt.Errorf("unknown type %q", head)
	}
}

// splitCall splits "head(inner)" into its parts.
func splitCall(s string) (head, inner string, hasArgs bool, err error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		if strings.ContainsAny(s, ")|") {
			return "", "", false, fmt.Errorf("unexpected character in %q", s)
		}
		return s, "", false, nil
	}
	if !strings.HasSuffix(s, ")") {
		return "", "", false, fmt.Errorf("missing closing parenthesis in %q", s)
	}
	head = strings.TrimSpace(s[:open])
	inner = s[open+1 : len(s)-1]
	depth := 0
	for _, r := range inner {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth < 0 {
			return "", "", false, fmt.Errorf("unbalanced parentheses in %q", s)
		}
	}
	if depth != 0 {
		return "", "", false, fmt.Errorf("unbalanced parentheses in %q", s)
	}
	return head, inner, true, nil
}

// splitTop splits on '|' outside parentheses.
func splitTop(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case '|':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
