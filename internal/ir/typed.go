package ir

import (
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
)

// DateLayout is the only accepted CalendarDate format.
const DateLayout = "2006-01-02"

// Origin ties a typed value back to what produced it.
// Source is nil for values that came from a default or the runtime context.
type Origin struct {
	At       Span  // copied unchanged from Source
	Source   Value // the untyped value that was accepted
	Accepted *Type // the type node that accepted it
}

// Span returns the span of the originating untyped value.
func (o Origin) Span() Span { return o.At }

func (Origin) typedValue() {}

// TypedValue is a sealed interface over values that passed type checking.
type TypedValue interface {
	Span() Span
	typedValue()
}

// TextValue is an accepted Text value.
type TextValue struct {
	Origin
	Val string
}

// IdentifierValue is an accepted Identifier value.
type IdentifierValue struct {
	Origin
	Val uuid.UUID
}

// WholeValue is an accepted WholeNumber value.
type WholeValue struct {
	Origin
	Val int64
}

// DecimalValue is an accepted DecimalNumber value.
type DecimalValue struct {
	Origin
	Val *apd.Decimal
}

// DateValue is an accepted CalendarDate value (UTC midnight).
type DateValue struct {
	Origin
	Val time.Time
}

// BoolValue is an accepted Boolean value.
type BoolValue struct {
	Origin
	Val bool
}

// ReferenceValue is a code confirmed to exist in a reference table.
type ReferenceValue struct {
	Origin
	RefKind string
	Code    string
}

// EnumValue is an accepted Enumeration member.
type EnumValue struct {
	Origin
	Val string
}

// SymbolValue is a session symbol that is known to the symbol table.
type SymbolValue struct {
	Origin
	Name string // without "@"
	Kind string // identifier-kind of the defining call, empty for captures
}

// SequenceValue is an accepted Sequence; each item keeps its own span.
type SequenceValue struct {
	Origin
	Items []TypedValue
}

// StructureValue is an accepted Structure.
type StructureValue struct {
	Origin
	Fields []TypedArg
}

// Field returns the named field of a structure value.
func (s StructureValue) Field(name string) (TypedArg, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return TypedArg{}, false
}

// TextOf returns the textual form of a scalar typed value, as compared
// by IfEquals and ConditionalRequired. Composite values have none.
func TextOf(v TypedValue) (string, bool) {
	switch tv := v.(type) {
	case TextValue:
		return tv.Val, true
	case EnumValue:
		return tv.Val, true
	case ReferenceValue:
		return tv.Code, true
	case SymbolValue:
		return tv.Name, true
	case IdentifierValue:
		return tv.Val.String(), true
	case WholeValue:
		return strconv.FormatInt(tv.Val, 10), true
	case DecimalValue:
		return tv.Val.Text('f'), true
	case DateValue:
		return tv.Val.Format(DateLayout), true
	case BoolValue:
		return strconv.FormatBool(tv.Val), true
	default:
		return "", false
	}
}

// Provenance records how an argument obtained its value.
type Provenance int

const (
	Supplied Provenance = iota
	Defaulted
	ContextInjected
)

// String returns the provenance name used in JSON output.
func (p Provenance) String() string {
	switch p {
	case Defaulted:
		return "defaulted"
	case ContextInjected:
		return "context"
	default:
		return "supplied"
	}
}

// TypedArg is one argument (or structure field) of a validated call.
type TypedArg struct {
	Name       string
	KeySpan    Span // zero for defaulted and context-injected values
	Value      TypedValue
	Provenance Provenance
}

// Capture records that a call binds a new session symbol.
type Capture struct {
	Name string // without "@"
	Kind string // identifier-kind from the verb's produces descriptor
	Span Span   // span of the @symbol token
}

// TypedCall is a call bound to its resolved verb definition.
type TypedCall struct {
	Verb     *VerbDefinition
	VerbSpan Span
	Span     Span
	Args     []TypedArg // declaration order
	Capture  *Capture
}

// Arg returns the typed argument with the given name.
func (c *TypedCall) Arg(name string) (TypedArg, bool) {
	for _, a := range c.Args {
		if a.Name == name {
			return a, true
		}
	}
	return TypedArg{}, false
}

// TypedProgram is the validated program in source order.
type TypedProgram struct {
	Calls []TypedCall
}
