package catalog

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/verbcheck/internal/ir"
)

// VerbDecl is a verb as authored in a CUE or YAML catalog file.
// Loosely typed fields (required, default value, rule bounds) accept the
// scalar shapes either format decodes to.
type VerbDecl struct {
	Name        string           `json:"name" yaml:"name"`
	Domain      string           `json:"domain,omitempty" yaml:"domain,omitempty"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Examples    []string         `json:"examples,omitempty" yaml:"examples,omitempty"`
	Produces    string           `json:"produces,omitempty" yaml:"produces,omitempty"`
	Args        []ArgDecl        `json:"args,omitempty" yaml:"args,omitempty"`
	Constraints []ConstraintDecl `json:"constraints,omitempty" yaml:"constraints,omitempty"`

	// Source locates the declaration for defect reports.
	Source string `json:"-" yaml:"-"`
}

// ArgDecl is one declared argument or structure field.
//
// Required is false/true or one of
//
//	{if_equals: {arg: kind, value: company}}
//	{if_provided: from-date}
//	{unless_provided: entity-id}
type ArgDecl struct {
	Name        string       `json:"name" yaml:"name"`
	Type        string       `json:"type" yaml:"type"`
	Required    any          `json:"required,omitempty" yaml:"required,omitempty"`
	Default     *DefaultDecl `json:"default,omitempty" yaml:"default,omitempty"`
	Rules       []RuleDecl   `json:"rules,omitempty" yaml:"rules,omitempty"`
	Fields      []ArgDecl    `json:"fields,omitempty" yaml:"fields,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
}

// DefaultDecl names a runtime context key, a static value, or both.
type DefaultDecl struct {
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
	Value   any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// RuleDecl is a validation rule. Kind is range, length, pattern,
// date-range or not-empty. Date bounds are YYYY-MM-DD, "today", or
// "today+N" / "today-N".
type RuleDecl struct {
	Kind        string `json:"kind" yaml:"kind"`
	Min         any    `json:"min,omitempty" yaml:"min,omitempty"`
	Max         any    `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern     string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	After       string `json:"after,omitempty" yaml:"after,omitempty"`
	Before      string `json:"before,omitempty" yaml:"before,omitempty"`
}

// ConstraintDecl is a cross-argument constraint. Kind is exactly-one,
// at-least-one, requires, excludes, conditional-required or less-than.
type ConstraintDecl struct {
	Kind    string   `json:"kind" yaml:"kind"`
	Args    []string `json:"args,omitempty" yaml:"args,omitempty"`
	When    string   `json:"when,omitempty" yaml:"when,omitempty"`
	Equals  any      `json:"equals,omitempty" yaml:"equals,omitempty"`
	Then    string   `json:"then,omitempty" yaml:"then,omitempty"`
	Lesser  string   `json:"lesser,omitempty" yaml:"lesser,omitempty"`
	Greater string   `json:"greater,omitempty" yaml:"greater,omitempty"`
}

var ruleKinds = map[string]ir.RuleKind{
	"range":      ir.RuleRange,
	"length":     ir.RuleLength,
	"pattern":    ir.RulePattern,
	"date-range": ir.RuleDateRange,
	"not-empty":  ir.RuleNotEmpty,
}

var constraintKinds = map[string]ir.ConstraintKind{
	"exactly-one":          ir.ConstraintExactlyOne,
	"at-least-one":         ir.ConstraintAtLeastOne,
	"requires":             ir.ConstraintRequires,
	"excludes":             ir.ConstraintExcludes,
	"conditional-required": ir.ConstraintConditionalRequired,
	"less-than":            ir.ConstraintLessThan,
}

// Definition converts the declaration. The domain defaults to the part of
// the name before the first dot. Conversion problems are returned as
// defects alongside a best-effort definition.
func (d VerbDecl) Definition() (ir.VerbDefinition, []Defect) {
	def := ir.VerbDefinition{
		Name:        d.Name,
		Domain:      d.Domain,
		Description: d.Description,
		Examples:    d.Examples,
	}
	if def.Domain == "" {
		if dot := strings.IndexByte(d.Name, '.'); dot > 0 {
			def.Domain = d.Name[:dot]
		}
	}
	if d.Produces != "" {
		def.Produces = &ir.Produces{Kind: d.Produces}
	}

	var defects []Defect
	add := func(field, code, format string, a ...any) {
		defects = append(defects, Defect{Verb: d.Name, Field: field, Code: code, Message: fmt.Sprintf(format, a...)})
	}

	def.Args = convertArgs(d.Args, "args", add)

	for i, c := range d.Constraints {
		field := fmt.Sprintf("constraints[%d]", i)
		kind, ok := constraintKinds[c.Kind]
		if !ok {
			add(field, ErrMalformedRule, "unknown constraint kind %q (want one of %s)", c.Kind, keysOf(constraintKinds))
			continue
		}
		var equals string
		if c.Equals != nil {
			equals = scalarText(c.Equals)
		}
		def.Constraints = append(def.Constraints, ir.CrossConstraint{
			Kind:    kind,
			Args:    c.Args,
			If:      c.When,
			Then:    c.Then,
			Equals:  equals,
			Lesser:  c.Lesser,
			Greater: c.Greater,
		})
	}
	return def, defects
}

type addFunc func(field, code, format string, a ...any)

func convertArgs(decls []ArgDecl, prefix string, add addFunc) []ir.ArgumentSpec {
	if len(decls) == 0 {
		return nil
	}
	args := make([]ir.ArgumentSpec, len(decls))
	for i, a := range decls {
		field := fmt.Sprintf("%s[%d]", prefix, i)
		spec := ir.ArgumentSpec{Name: a.Name, Description: a.Description}

		fields := convertArgs(a.Fields, field+".fields", add)
		t, err := ParseType(a.Type, fields)
		if err != nil {
			add(field+".type", ErrInvalidType, "%v", err)
		}
		spec.Type = t

		req, err := requiredOf(a.Required)
		if err != nil {
			add(field+".required", ErrMalformedRule, "%v", err)
		}
		spec.Required = req

		if a.Default != nil {
			spec.Default = &ir.DefaultSpec{ContextKey: a.Default.Context}
			if a.Default.Value != nil {
				lit, err := literalOf(a.Default.Value)
				if err != nil {
					add(field+".default", ErrDefaultMismatch, "%v", err)
				}
				spec.Default.Literal = lit
			}
		}

		for j, r := range a.Rules {
			rule, code, err := ruleOf(r)
			if err != nil {
				add(fmt.Sprintf("%s.rules[%d]", field, j), code, "%v", err)
				continue
			}
			spec.Rules = append(spec.Rules, rule)
		}
		args[i] = spec
	}
	return args
}

func requiredOf(v any) (ir.RequiredRule, error) {
	switch r := v.(type) {
	case nil:
		return ir.Optional(), nil
	case bool:
		if r {
			return ir.Always(), nil
		}
		return ir.Optional(), nil
	case map[string]any:
		if len(r) != 1 {
			return ir.Optional(), fmt.Errorf("required must have exactly one of if_equals, if_provided, unless_provided")
		}
		for key, val := range r {
			switch key {
			case "if_equals":
				m, ok := val.(map[string]any)
				if !ok {
					return ir.Optional(), fmt.Errorf("if_equals must be {arg, value}")
				}
				arg, _ := m["arg"].(string)
				if arg == "" || m["value"] == nil {
					return ir.Optional(), fmt.Errorf("if_equals must be {arg, value}")
				}
				return ir.IfEquals(arg, scalarText(m["value"])), nil
			case "if_provided":
				arg, _ := val.(string)
				if arg == "" {
					return ir.Optional(), fmt.Errorf("if_provided must name an argument")
				}
				return ir.IfProvided(arg), nil
			case "unless_provided":
				arg, _ := val.(string)
				if arg == "" {
					return ir.Optional(), fmt.Errorf("unless_provided must name an argument")
				}
				return ir.UnlessProvided(arg), nil
			default:
				return ir.Optional(), fmt.Errorf("unknown required condition %q", key)
			}
		}
	}
	return ir.Optional(), fmt.Errorf("required must be a boolean or a condition, got %T", v)
}

func ruleOf(r RuleDecl) (ir.ValidationRule, string, error) {
	kind, ok := ruleKinds[r.Kind]
	if !ok {
		return ir.ValidationRule{}, ErrMalformedRule,
			fmt.Errorf("unknown rule kind %q (want one of %s)", r.Kind, keysOf(ruleKinds))
	}
	rule := ir.ValidationRule{Kind: kind, Pattern: r.Pattern, Description: r.Description}

	var err error
	switch kind {
	case ir.RuleRange:
		if r.Min != nil {
			if rule.Min, err = decimalOf(r.Min); err != nil {
				return rule, ErrInvalidBounds, fmt.Errorf("min: %w", err)
			}
		}
		if r.Max != nil {
			if rule.Max, err = decimalOf(r.Max); err != nil {
				return rule, ErrInvalidBounds, fmt.Errorf("max: %w", err)
			}
		}
	case ir.RuleLength:
		if r.Min != nil {
			if rule.MinLen, err = intOf(r.Min); err != nil {
				return rule, ErrInvalidBounds, fmt.Errorf("min: %w", err)
			}
		}
		if r.Max != nil {
			if rule.MaxLen, err = intOf(r.Max); err != nil {
				return rule, ErrInvalidBounds, fmt.Errorf("max: %w", err)
			}
		}
	case ir.RuleDateRange:
		if r.After != "" {
			if rule.After, err = ParseDateBound(r.After); err != nil {
				return rule, ErrInvalidBounds, fmt.Errorf("after: %w", err)
			}
		}
		if r.Before != "" {
			if rule.Before, err = ParseDateBound(r.Before); err != nil {
				return rule, ErrInvalidBounds, fmt.Errorf("before: %w", err)
			}
		}
	}
	return rule, "", nil
}

// ParseDateBound parses "today", "today+N", "today-N" or a YYYY-MM-DD date.
func ParseDateBound(s string) (*ir.DateBound, error) {
	s = strings.TrimSpace(s)
	if s == "today" {
		return &ir.DateBound{Kind: ir.DateToday}, nil
	}
	if rest, ok := strings.CutPrefix(s, "today"); ok {
		days, err := strconv.Atoi(rest)
		if err != nil || (rest[0] != '+' && rest[0] != '-') {
			return nil, fmt.Errorf("invalid relative date %q", s)
		}
		return &ir.DateBound{Kind: ir.DateDaysFromToday, Days: days}, nil
	}
	if s == "" {
		return nil, fmt.Errorf("empty date bound")
	}
	return &ir.DateBound{Kind: ir.DateLiteral, Date: s}, nil
}

// literalOf converts a decoded scalar or list into an untyped literal.
func literalOf(v any) (ir.Value, error) {
	switch x := v.(type) {
	case string:
		return ir.TextLit{Val: x}, nil
	case bool:
		return ir.BoolLit{Val: x}, nil
	case int:
		return ir.IntLit{Val: int64(x)}, nil
	case int64:
		return ir.IntLit{Val: x}, nil
	case uint64:
		return ir.IntLit{Val: int64(x)}, nil
	case float64:
		return ir.DecimalLit{Text: strconv.FormatFloat(x, 'f', -1, 64)}, nil
	case *big.Int:
		if !x.IsInt64() {
			return nil, fmt.Errorf("default %s is out of range", x)
		}
		return ir.IntLit{Val: x.Int64()}, nil
	case []any:
		items := make([]ir.Value, len(x))
		for i, item := range x {
			lit, err := literalOf(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = lit
		}
		return ir.ListLit{Items: items}, nil
	default:
		return nil, fmt.Errorf("unsupported default value of type %T", v)
	}
}

func decimalOf(v any) (*apd.Decimal, error) {
	switch x := v.(type) {
	case int:
		return apd.New(int64(x), 0), nil
	case int64:
		return apd.New(x, 0), nil
	case uint64:
		d, _, err := apd.NewFromString(strconv.FormatUint(x, 10))
		return d, err
	case float64:
		d, _, err := apd.NewFromString(strconv.FormatFloat(x, 'f', -1, 64))
		return d, err
	case string:
		d, _, err := apd.NewFromString(x)
		return d, err
	case fmt.Stringer:
		d, _, err := apd.NewFromString(x.String())
		return d, err
	default:
		return nil, fmt.Errorf("not a number: %v", v)
	}
}

func intOf(v any) (*int, error) {
	var n int
	switch x := v.(type) {
	case int:
		n = x
	case int64:
		n = int(x)
	case uint64:
		n = int(x)
	case float64:
		if x != float64(int(x)) {
			return nil, fmt.Errorf("not a whole number: %v", x)
		}
		n = int(x)
	default:
		return nil, fmt.Errorf("not a whole number: %v", v)
	}
	return &n, nil
}

// scalarText renders a decoded scalar the way TextOf renders a typed value.
func scalarText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func keysOf[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
