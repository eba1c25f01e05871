package catalog

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/roach88/verbcheck/internal/ir"
)

// checkVerb runs the load-time checks on one definition and compiles its
// patterns in place. Returns all defects found (does not fail-fast).
func checkVerb(def *ir.VerbDefinition) []Defect {
	var defects []Defect
	add := func(field, code, format string, args ...any) {
		defects = append(defects, Defect{
			Verb:    def.Name,
			Field:   field,
			Code:    code,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if strings.TrimSpace(def.Name) == "" {
		add("name", ErrMissingName, "verb name is required")
	}
	if strings.TrimSpace(def.Domain) == "" {
		add("domain", ErrMissingName, "domain is required")
	}
	if def.Produces != nil && strings.TrimSpace(def.Produces.Kind) == "" {
		add("produces", ErrInvalidProduces, "produces must name an identifier kind")
	}

	defects = append(defects, checkArgs(def.Name, "args", def.Args)...)

	declared := make(map[string]*ir.ArgumentSpec, len(def.Args))
	for i := range def.Args {
		if _, dup := declared[def.Args[i].Name]; !dup {
			declared[def.Args[i].Name] = &def.Args[i]
		}
	}
	for i, c := range def.Constraints {
		field := fmt.Sprintf("constraints[%d]", i)
		if msg := constraintShape(c); msg != "" {
			add(field, ErrMalformedRule, "%s", msg)
			continue
		}
		missing := false
		for _, name := range c.Referenced() {
			if _, ok := declared[name]; !ok {
				add(field, ErrUnknownArgumentRef, "constraint names undeclared argument '%s'", name)
				missing = true
			}
		}
		if c.Kind == ir.ConstraintLessThan && !missing {
			lt, gt := declared[c.Lesser].Type, declared[c.Greater].Type
			if !orderable(lt, gt) {
				add(field, ErrMalformedRule, "'%s' (%s) and '%s' (%s) cannot be compared",
					c.Lesser, lt.Describe(), c.Greater, gt.Describe())
			}
		}
	}
	return defects
}

// checkArgs checks one argument list: the verb's own or a structure's fields.
func checkArgs(verb, prefix string, args []ir.ArgumentSpec) []Defect {
	var defects []Defect
	add := func(field, code, format string, a ...any) {
		defects = append(defects, Defect{Verb: verb, Field: field, Code: code, Message: fmt.Sprintf(format, a...)})
	}

	position := make(map[string]int, len(args))
	for i, a := range args {
		field := fmt.Sprintf("%s[%d]", prefix, i)
		switch {
		case strings.TrimSpace(a.Name) == "":
			add(field, ErrMissingName, "argument name is required")
			continue
		case a.Name == ir.CaptureKeyword:
			add(field, ErrReservedKeyword, "'%s' is reserved for symbol capture", a.Name)
		}
		if _, dup := position[a.Name]; dup {
			add(field, ErrDuplicateArgument, "argument '%s' is declared more than once", a.Name)
			continue
		}
		position[a.Name] = i
	}

	for i := range args {
		a := &args[i]
		field := fmt.Sprintf("%s[%d]", prefix, i)

		defects = append(defects, checkType(verb, field, a.Type)...)

		switch a.Required.Kind {
		case ir.RequiredNever, ir.RequiredAlways:
		case ir.RequiredIfEquals, ir.RequiredIfProvided, ir.RequiredUnlessProvided:
			at, ok := position[a.Required.Arg]
			switch {
			case !ok:
				add(field+".required", ErrUnknownArgumentRef, "required rule names undeclared argument '%s'", a.Required.Arg)
			case at >= i:
				if dep, reads := a.Required.DependsOnValue(); reads {
					add(field+".required", ErrForwardDependency,
						"'%s' is %s, but '%s' is not declared before it", a.Name, a.Required, dep)
				}
			}
		default:
			add(field+".required", ErrMalformedRule, "unknown required rule")
		}

		if a.Default != nil {
			switch {
			case a.Default.ContextKey == "" && a.Default.Literal == nil:
				add(field+".default", ErrDefaultMismatch, "default needs a context key or a value")
			case a.Default.Literal != nil && !literalFits(a.Type, a.Default.Literal):
				add(field+".default", ErrDefaultMismatch, "default value does not fit type %s", a.Type)
			}
		}

		for j := range a.Rules {
			defects = append(defects, checkRule(verb, fmt.Sprintf("%s.rules[%d]", field, j), a.Type, &a.Rules[j])...)
		}
	}
	return defects
}

func checkType(verb, field string, t ir.Type) []Defect {
	typeField := field + ".type"
	bad := func(format string, a ...any) []Defect {
		return []Defect{{Verb: verb, Field: typeField, Code: ErrInvalidType, Message: fmt.Sprintf(format, a...)}}
	}

	switch t.Kind {
	case ir.KindText, ir.KindIdentifier, ir.KindWholeNumber, ir.KindDecimalNumber,
		ir.KindCalendarDate, ir.KindBoolean, ir.KindSessionSymbol:
		return nil
	case ir.KindReference:
		if t.RefKind == "" {
			return bad("reference type needs a kind")
		}
		return nil
	case ir.KindEnumeration:
		if len(t.Values) == 0 {
			return bad("enumeration needs at least one value")
		}
		sorted := slices.Clone(t.Values)
		slices.Sort(sorted)
		if len(slices.Compact(sorted)) != len(t.Values) {
			return bad("enumeration values must be distinct")
		}
		return nil
	case ir.KindSequence:
		if t.Elem == nil {
			return bad("list type needs an element type")
		}
		return checkType(verb, field, *t.Elem)
	case ir.KindStructure:
		if len(t.Fields) == 0 {
			return bad("structure type needs fields")
		}
		return checkArgs(verb, field+".fields", t.Fields)
	case ir.KindAlternative:
		if len(t.Options) < 2 {
			return bad("alternative needs at least two options")
		}
		var defects []Defect
		for _, o := range t.Options {
			defects = append(defects, checkType(verb, field, o)...)
		}
		return defects
	default:
		return bad("type is not set")
	}
}

func checkRule(verb, field string, t ir.Type, r *ir.ValidationRule) []Defect {
	var defects []Defect
	add := func(code, format string, a ...any) {
		defects = append(defects, Defect{Verb: verb, Field: field, Code: code, Message: fmt.Sprintf(format, a...)})
	}

	if _, known := ruleTypes[r.Kind]; !known {
		add(ErrMalformedRule, "unknown rule kind")
		return defects
	}
	if !ruleApplies(r.Kind, t) {
		add(ErrMalformedRule, "%s rule does not apply to %s values", r.Kind, t.Describe())
	}

	switch r.Kind {
	case ir.RuleRange:
		if r.Min == nil && r.Max == nil {
			add(ErrInvalidBounds, "range needs min or max")
		} else if r.Min != nil && r.Max != nil && r.Min.Cmp(r.Max) > 0 {
			add(ErrInvalidBounds, "range min %s is greater than max %s", r.Min, r.Max)
		}
	case ir.RuleLength:
		switch {
		case r.MinLen == nil && r.MaxLen == nil:
			add(ErrInvalidBounds, "length needs min or max")
		case (r.MinLen != nil && *r.MinLen < 0) || (r.MaxLen != nil && *r.MaxLen < 0):
			add(ErrInvalidBounds, "length bounds must not be negative")
		case r.MinLen != nil && r.MaxLen != nil && *r.MinLen > *r.MaxLen:
			add(ErrInvalidBounds, "length min %d is greater than max %d", *r.MinLen, *r.MaxLen)
		}
	case ir.RulePattern:
		if r.Pattern == "" {
			add(ErrInvalidPattern, "pattern is empty")
			break
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			add(ErrInvalidPattern, "pattern does not compile: %v", err)
			break
		}
		r.Regexp = re
	case ir.RuleDateRange:
		if r.After == nil && r.Before == nil {
			add(ErrInvalidBounds, "date range needs after or before")
			break
		}
		after, okA := literalDate(r.After)
		before, okB := literalDate(r.Before)
		if okA && okB && after.After(before) {
			add(ErrInvalidBounds, "date range %s is after %s", r.After, r.Before)
		}
		for _, b := range []*ir.DateBound{r.After, r.Before} {
			if b != nil && b.Kind == ir.DateLiteral {
				if _, err := time.Parse(ir.DateLayout, b.Date); err != nil {
					add(ErrInvalidBounds, "date bound %q is not YYYY-MM-DD", b.Date)
				}
			}
		}
	}
	return defects
}

var ruleTypes = map[ir.RuleKind][]ir.Kind{
	ir.RuleRange:     {ir.KindWholeNumber, ir.KindDecimalNumber},
	ir.RuleLength:    {ir.KindText, ir.KindReference, ir.KindEnumeration, ir.KindSequence},
	ir.RulePattern:   {ir.KindText, ir.KindReference, ir.KindEnumeration, ir.KindIdentifier},
	ir.RuleDateRange: {ir.KindCalendarDate},
	ir.RuleNotEmpty:  {ir.KindText, ir.KindReference, ir.KindEnumeration, ir.KindSequence},
}

// ruleApplies reports whether a rule can check values of type t.
// For an alternative it is enough that one option qualifies.
func ruleApplies(kind ir.RuleKind, t ir.Type) bool {
	if t.Kind == ir.KindAlternative {
		for _, o := range t.Options {
			if ruleApplies(kind, o) {
				return true
			}
		}
		return false
	}
	return slices.Contains(ruleTypes[kind], t.Kind)
}

func literalDate(b *ir.DateBound) (time.Time, bool) {
	if b == nil || b.Kind != ir.DateLiteral {
		return time.Time{}, false
	}
	d, err := time.Parse(ir.DateLayout, b.Date)
	return d, err == nil
}

func constraintShape(c ir.CrossConstraint) string {
	switch c.Kind {
	case ir.ConstraintExactlyOne, ir.ConstraintAtLeastOne:
		if len(c.Args) < 2 {
			return "constraint needs at least two arguments"
		}
	case ir.ConstraintRequires, ir.ConstraintExcludes:
		if c.If == "" || c.Then == "" {
			return "constraint needs 'when' and 'then'"
		}
	case ir.ConstraintConditionalRequired:
		if c.If == "" || c.Then == "" || c.Equals == "" {
			return "constraint needs 'when', 'equals' and 'then'"
		}
	case ir.ConstraintLessThan:
		if c.Lesser == "" || c.Greater == "" {
			return "constraint needs 'lesser' and 'greater'"
		}
	default:
		return "unknown constraint kind"
	}
	return ""
}

func orderable(a, b ir.Type) bool {
	numeric := func(t ir.Type) bool {
		return t.Kind == ir.KindWholeNumber || t.Kind == ir.KindDecimalNumber
	}
	if numeric(a) && numeric(b) {
		return true
	}
	return a.Kind == ir.KindCalendarDate && b.Kind == ir.KindCalendarDate
}

// literalFits reports whether a static default can be accepted by t
// without consulting any collaborator.
func literalFits(t ir.Type, v ir.Value) bool {
	switch t.Kind {
	case ir.KindText:
		_, ok := v.(ir.TextLit)
		return ok
	case ir.KindIdentifier:
		s, ok := v.(ir.TextLit)
		if !ok {
			return false
		}
		_, err := uuid.Parse(s.Val)
		return err == nil
	case ir.KindWholeNumber:
		_, ok := v.(ir.IntLit)
		return ok
	case ir.KindDecimalNumber:
		switch lit := v.(type) {
		case ir.IntLit:
			return true
		case ir.DecimalLit:
			_, _, err := apd.NewFromString(lit.Text)
			return err == nil
		}
		return false
	case ir.KindCalendarDate:
		s, ok := v.(ir.TextLit)
		if !ok {
			return false
		}
		_, err := time.Parse(ir.DateLayout, s.Val)
		return err == nil
	case ir.KindBoolean:
		_, ok := v.(ir.BoolLit)
		return ok
	case ir.KindReference:
		s, ok := v.(ir.TextLit)
		return ok && s.Val != ""
	case ir.KindEnumeration:
		s, ok := v.(ir.TextLit)
		return ok && slices.Contains(t.Values, s.Val)
	case ir.KindSequence:
		list, ok := v.(ir.ListLit)
		if !ok || t.Elem == nil {
			return false
		}
		for _, item := range list.Items {
			if !literalFits(*t.Elem, item) {
				return false
			}
		}
		return true
	case ir.KindAlternative:
		for _, o := range t.Options {
			if literalFits(o, v) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
