package catalog

import (
	"fmt"
	"strings"
)

// Catalog defect codes (E101-E119). A defect is a load-time authoring
// error; a catalog with defects is never built.
const (
	ErrDuplicateVerb      = "E101" // verb name declared twice
	ErrDuplicateArgument  = "E102" // argument keyword declared twice in one verb
	ErrInvalidType        = "E103" // malformed or unresolvable type expression
	ErrForwardDependency  = "E104" // rule reads an argument declared at or after it
	ErrUnknownArgumentRef = "E105" // rule or constraint names an undeclared argument
	ErrInvalidPattern     = "E106" // pattern rule does not compile
	ErrDefaultMismatch    = "E107" // static default does not fit the declared type
	ErrInvalidProduces    = "E108" // produces descriptor without a kind
	ErrReservedKeyword    = "E109" // argument uses the capture keyword
	ErrInvalidBounds      = "E110" // inverted or unparseable range/length/date bounds
	ErrMissingName        = "E111" // verb without name or domain
	ErrMalformedRule      = "E112" // unknown rule/constraint kind or rule not applicable to the type
)

// Defect is one catalog-authoring error.
type Defect struct {
	Verb    string `json:"verb"`
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Source  string `json:"source,omitempty"` // file or file:line:col the verb was declared in
}

// Error implements the error interface.
func (d Defect) Error() string {
	var b strings.Builder
	if d.Source != "" {
		b.WriteString(d.Source)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "[%s] %s", d.Code, d.Verb)
	if d.Field != "" {
		b.WriteString(" ")
		b.WriteString(d.Field)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// DefectError is returned when a catalog fails its load-time checks.
// All defects are collected; none short-circuits the others.
type DefectError struct {
	Defects []Defect
}

func (e *DefectError) Error() string {
	switch len(e.Defects) {
	case 0:
		return "catalog has defects"
	case 1:
		return "catalog has 1 defect: " + e.Defects[0].Error()
	default:
		return fmt.Sprintf("catalog has %d defects: %s (and %d more)",
			len(e.Defects), e.Defects[0].Error(), len(e.Defects)-1)
	}
}

// Codes returns the defect codes in report order.
func (e *DefectError) Codes() []string {
	codes := make([]string, len(e.Defects))
	for i, d := range e.Defects {
		codes[i] = d.Code
	}
	return codes
}
