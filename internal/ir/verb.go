package ir

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// CaptureKeyword is the reserved argument keyword that binds a call's
// result to a session symbol, as in (cbu.create :name "Acme" :as @acme).
const CaptureKeyword = "as"

// VerbDefinition is the schema of one verb. Immutable once loaded into a catalog.
type VerbDefinition struct {
	Name        string            `json:"name"`   // "domain.verb", unique in a catalog
	Domain      string            `json:"domain"` // "cbu", "entity", ...
	Args        []ArgumentSpec    `json:"args"`   // evaluation order
	Constraints []CrossConstraint `json:"constraints,omitempty"`
	Produces    *Produces         `json:"produces,omitempty"`
	Description string            `json:"description,omitempty"`
	Examples    []string          `json:"examples,omitempty"`
}

// Arg returns the argument spec with the given keyword.
func (v *VerbDefinition) Arg(name string) (*ArgumentSpec, bool) {
	for i := range v.Args {
		if v.Args[i].Name == name {
			return &v.Args[i], true
		}
	}
	return nil, false
}

// ArgNames returns the declared keywords in declaration order.
func (v *VerbDefinition) ArgNames() []string {
	names := make([]string, len(v.Args))
	for i, a := range v.Args {
		names[i] = a.Name
	}
	return names
}

// Produces describes the identifier a successful call yields.
type Produces struct {
	Kind string `json:"kind"` // identifier-kind bound to a captured symbol
}

// ArgumentSpec is the schema of one keyword argument (or structure field).
type ArgumentSpec struct {
	Name        string           `json:"name"`
	Type        Type             `json:"type"`
	Required    RequiredRule     `json:"required"`
	Default     *DefaultSpec     `json:"default,omitempty"`
	Rules       []ValidationRule `json:"rules,omitempty"`
	Description string           `json:"description,omitempty"`
}

// RequiredKind tags the variant held by a RequiredRule.
type RequiredKind int

const (
	RequiredNever RequiredKind = iota // optional
	RequiredAlways
	RequiredIfEquals
	RequiredIfProvided
	RequiredUnlessProvided
)

// RequiredRule decides whether an absent argument is an error.
type RequiredRule struct {
	Kind  RequiredKind `json:"kind"`
	Arg   string       `json:"arg,omitempty"`   // the argument the rule looks at
	Value string       `json:"value,omitempty"` // IfEquals only
}

// Always returns a rule that always requires the argument.
func Always() RequiredRule { return RequiredRule{Kind: RequiredAlways} }

// Optional returns a rule that never requires the argument.
func Optional() RequiredRule { return RequiredRule{Kind: RequiredNever} }

// IfEquals requires the argument when arg's typed value equals value.
func IfEquals(arg, value string) RequiredRule {
	return RequiredRule{Kind: RequiredIfEquals, Arg: arg, Value: value}
}

// IfProvided requires the argument when arg was supplied.
func IfProvided(arg string) RequiredRule { return RequiredRule{Kind: RequiredIfProvided, Arg: arg} }

// UnlessProvided requires the argument when arg was not supplied.
func UnlessProvided(arg string) RequiredRule {
	return RequiredRule{Kind: RequiredUnlessProvided, Arg: arg}
}

// DependsOnValue reports the argument whose typed value the rule reads.
// Presence-only rules read the provided-keyword index instead and return false.
func (r RequiredRule) DependsOnValue() (string, bool) {
	if r.Kind == RequiredIfEquals {
		return r.Arg, true
	}
	return "", false
}

// String explains the rule in DSL terms.
func (r RequiredRule) String() string {
	switch r.Kind {
	case RequiredAlways:
		return "always required"
	case RequiredIfEquals:
		return fmt.Sprintf("required when '%s' is '%s'", r.Arg, r.Value)
	case RequiredIfProvided:
		return fmt.Sprintf("required when '%s' is provided", r.Arg)
	case RequiredUnlessProvided:
		return fmt.Sprintf("required unless '%s' is provided", r.Arg)
	default:
		return "optional"
	}
}

// DefaultSpec supplies a value for an absent argument.
// The runtime context key is tried first, then the static literal.
type DefaultSpec struct {
	ContextKey string `json:"context_key,omitempty"`
	Literal    Value  `json:"-"`
}

// RuleKind tags the variant held by a ValidationRule.
type RuleKind int

const (
	RuleRange RuleKind = iota + 1
	RuleLength
	RulePattern
	RuleDateRange
	RuleNotEmpty
)

var ruleNames = map[RuleKind]string{
	RuleRange:     "range",
	RuleLength:    "length",
	RulePattern:   "pattern",
	RuleDateRange: "date-range",
	RuleNotEmpty:  "not-empty",
}

// String returns the catalog name of the rule kind.
func (k RuleKind) String() string {
	if name, ok := ruleNames[k]; ok {
		return name
	}
	return "unknown"
}

// ValidationRule is a named check applied to a successfully typed value.
type ValidationRule struct {
	Kind RuleKind `json:"kind"`

	// Range: inclusive numeric bounds.
	Min *apd.Decimal `json:"min,omitempty"`
	Max *apd.Decimal `json:"max,omitempty"`

	// Length: inclusive rune (or element) count bounds.
	MinLen *int `json:"min_len,omitempty"`
	MaxLen *int `json:"max_len,omitempty"`

	// Pattern: regular expression and a human description of it.
	Pattern     string         `json:"pattern,omitempty"`
	Description string         `json:"description,omitempty"`
	Regexp      *regexp.Regexp `json:"-"` // compiled by the catalog

	// DateRange: inclusive date bounds.
	After  *DateBound `json:"after,omitempty"`
	Before *DateBound `json:"before,omitempty"`
}

// DateBoundKind tags the variant held by a DateBound.
type DateBoundKind int

const (
	DateLiteral DateBoundKind = iota + 1
	DateToday
	DateDaysFromToday
)

// DateBound is one end of a DateRange rule.
type DateBound struct {
	Kind DateBoundKind `json:"kind"`
	Date string        `json:"date,omitempty"` // YYYY-MM-DD, DateLiteral only
	Days int           `json:"days,omitempty"` // DateDaysFromToday only, may be negative
}

// String renders the bound as written in a catalog.
func (b DateBound) String() string {
	switch b.Kind {
	case DateToday:
		return "today"
	case DateDaysFromToday:
		return fmt.Sprintf("today%+d", b.Days)
	default:
		return b.Date
	}
}

// ConstraintKind tags the variant held by a CrossConstraint.
type ConstraintKind int

const (
	ConstraintExactlyOne ConstraintKind = iota + 1
	ConstraintAtLeastOne
	ConstraintRequires
	ConstraintExcludes
	ConstraintConditionalRequired
	ConstraintLessThan
)

// CrossConstraint is an invariant spanning several arguments of one call.
type CrossConstraint struct {
	Kind ConstraintKind `json:"kind"`

	// ExactlyOne, AtLeastOne.
	Args []string `json:"args,omitempty"`

	// Requires, Excludes, ConditionalRequired: when If is present
	// (and equals Equals, for ConditionalRequired) Then is required/forbidden.
	If     string `json:"if,omitempty"`
	Then   string `json:"then,omitempty"`
	Equals string `json:"equals,omitempty"`

	// LessThan: Lesser must compare strictly below Greater when both are present.
	Lesser  string `json:"lesser,omitempty"`
	Greater string `json:"greater,omitempty"`
}

// Referenced returns every argument name the constraint mentions.
func (c CrossConstraint) Referenced() []string {
	var names []string
	names = append(names, c.Args...)
	for _, n := range []string{c.If, c.Then, c.Lesser, c.Greater} {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}

// String explains the constraint in DSL terms.
func (c CrossConstraint) String() string {
	switch c.Kind {
	case ConstraintExactlyOne:
		return "exactly one of " + quoteList(c.Args) + " must be provided"
	case ConstraintAtLeastOne:
		return "at least one of " + quoteList(c.Args) + " must be provided"
	case ConstraintRequires:
		return fmt.Sprintf("'%s' requires '%s'", c.If, c.Then)
	case ConstraintExcludes:
		return fmt.Sprintf("'%s' and '%s' cannot both be provided", c.If, c.Then)
	case ConstraintConditionalRequired:
		return fmt.Sprintf("'%s' is required when '%s' is '%s'", c.Then, c.If, c.Equals)
	case ConstraintLessThan:
		return fmt.Sprintf("'%s' must be less than '%s'", c.Lesser, c.Greater)
	default:
		return "unknown constraint"
	}
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, ", ")
}
