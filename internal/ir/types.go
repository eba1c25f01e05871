package ir

import "strings"

// Kind tags the variant held by a Type.
// The variant set is closed; code that switches on Kind covers every case.
type Kind int

const (
	KindInvalid Kind = iota
	KindText
	KindIdentifier
	KindWholeNumber
	KindDecimalNumber
	KindCalendarDate
	KindBoolean
	KindReference
	KindEnumeration
	KindSessionSymbol
	KindSequence
	KindStructure
	KindAlternative
)

var kindNames = map[Kind]string{
	KindInvalid:       "invalid",
	KindText:          "text",
	KindIdentifier:    "identifier",
	KindWholeNumber:   "whole number",
	KindDecimalNumber: "decimal number",
	KindCalendarDate:  "date",
	KindBoolean:       "boolean",
	KindReference:     "reference",
	KindEnumeration:   "enumeration",
	KindSessionSymbol: "session symbol",
	KindSequence:      "list",
	KindStructure:     "structure",
	KindAlternative:   "alternative",
}

// String returns the DSL-facing name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// Type describes the shape a value must have.
// It is a tagged union: only the fields belonging to Kind are meaningful.
type Type struct {
	Kind Kind `json:"kind"`

	// RefKind names the lookup table for KindReference.
	RefKind string `json:"ref_kind,omitempty"`

	// Values lists the allowed codes for KindEnumeration.
	Values []string `json:"values,omitempty"`

	// Elem is the element type for KindSequence.
	Elem *Type `json:"elem,omitempty"`

	// Fields are the named sub-specs for KindStructure.
	Fields []ArgumentSpec `json:"fields,omitempty"`

	// Options are the accepted alternatives for KindAlternative, tried in order.
	Options []Type `json:"options,omitempty"`
}

// Text returns the Text type.
func Text() Type { return Type{Kind: KindText} }

// Identifier returns the Identifier type.
func Identifier() Type { return Type{Kind: KindIdentifier} }

// WholeNumber returns the WholeNumber type.
func WholeNumber() Type { return Type{Kind: KindWholeNumber} }

// DecimalNumber returns the DecimalNumber type.
func DecimalNumber() Type { return Type{Kind: KindDecimalNumber} }

// CalendarDate returns the CalendarDate type.
func CalendarDate() Type { return Type{Kind: KindCalendarDate} }

// Boolean returns the Boolean type.
func Boolean() Type { return Type{Kind: KindBoolean} }

// SessionSymbol returns the SessionSymbol type.
func SessionSymbol() Type { return Type{Kind: KindSessionSymbol} }

// Reference returns a Reference type for the given lookup table.
func Reference(kind string) Type { return Type{Kind: KindReference, RefKind: kind} }

// Enumeration returns an Enumeration type with the allowed values.
func Enumeration(values ...string) Type { return Type{Kind: KindEnumeration, Values: values} }

// Sequence returns a Sequence type of elem.
func Sequence(elem Type) Type { return Type{Kind: KindSequence, Elem: &elem} }

// Structure returns a Structure type with the given fields.
func Structure(fields ...ArgumentSpec) Type { return Type{Kind: KindStructure, Fields: fields} }

// Alternative returns a type accepting any of options.
func Alternative(options ...Type) Type { return Type{Kind: KindAlternative, Options: options} }

// String renders the type in catalog expression syntax, e.g. "list(ref(role))".
func (t Type) String() string {
	switch t.Kind {
	case KindText:
		return "text"
	case KindIdentifier:
		return "identifier"
	case KindWholeNumber:
		return "whole"
	case KindDecimalNumber:
		return "decimal"
	case KindCalendarDate:
		return "date"
	case KindBoolean:
		return "boolean"
	case KindSessionSymbol:
		return "symbol"
	case KindReference:
		return "ref(" + t.RefKind + ")"
	case KindEnumeration:
		return "enum(" + strings.Join(t.Values, "|") + ")"
	case KindSequence:
		if t.Elem == nil {
			return "list(?)"
		}
		return "list(" + t.Elem.String() + ")"
	case KindStructure:
		return "struct"
	case KindAlternative:
		parts := make([]string, len(t.Options))
		for i, o := range t.Options {
			parts[i] = o.String()
		}
		return "alt(" + strings.Join(parts, "|") + ")"
	default:
		return "invalid"
	}
}

// Describe renders the type for diagnostics, e.g. "reference to role".
func (t Type) Describe() string {
	switch t.Kind {
	case KindReference:
		return t.RefKind + " code"
	case KindEnumeration:
		return "one of " + strings.Join(t.Values, ", ")
	case KindSequence:
		if t.Elem == nil {
			return "list"
		}
		return "list of " + t.Elem.Describe()
	case KindAlternative:
		parts := make([]string, len(t.Options))
		for i, o := range t.Options {
			parts[i] = o.Describe()
		}
		return strings.Join(parts, " or ")
	default:
		return t.Kind.String()
	}
}
