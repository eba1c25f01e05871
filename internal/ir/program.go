package ir

// Program is the untyped tree produced by the external parser.
// No type resolution, reference lookup or symbol resolution has happened yet.
type Program struct {
	Source string // original text, used only for rendering diagnostics
	Calls  []Call
}

// Call is one verb invocation in source order.
type Call struct {
	Verb     string
	VerbSpan Span
	Span     Span // whole call
	Args     []Arg
}

// Arg is one keyword argument as written.
type Arg struct {
	Key     string
	KeySpan Span
	Value   Value
}

// ValueKind names the syntactic shape of an untyped value.
type ValueKind string

const (
	ValueText    ValueKind = "text"
	ValueInt     ValueKind = "integer"
	ValueDecimal ValueKind = "decimal"
	ValueBool    ValueKind = "boolean"
	ValueSymbol  ValueKind = "symbol"
	ValueList    ValueKind = "list"
	ValueMap     ValueKind = "map"
)

// Value is a sealed interface over untyped literal shapes.
// Only TextLit, IntLit, DecimalLit, BoolLit, SymbolRef, ListLit and MapLit implement it.
type Value interface {
	Span() Span
	Kind() ValueKind
	untypedValue()
}

// TextLit is a quoted string literal.
type TextLit struct {
	Val string
	At  Span
}

// IntLit is an integer literal.
type IntLit struct {
	Val int64
	At  Span
}

// DecimalLit is a decimal literal kept exactly as written.
type DecimalLit struct {
	Text string
	At   Span
}

// BoolLit is true or false.
type BoolLit struct {
	Val bool
	At  Span
}

// SymbolRef is a session symbol token such as @acme. Name excludes the "@".
type SymbolRef struct {
	Name string
	At   Span
}

// ListLit is a bracketed list of values.
type ListLit struct {
	Items []Value
	At    Span
}

// MapLit is a nested key/value structure. Entry order is preserved.
type MapLit struct {
	Entries []MapEntry
	At      Span
}

// MapEntry is one key/value pair inside a MapLit.
type MapEntry struct {
	Key     string
	KeySpan Span
	Value   Value
}

func (v TextLit) Span() Span    { return v.At }
func (v IntLit) Span() Span     { return v.At }
func (v DecimalLit) Span() Span { return v.At }
func (v BoolLit) Span() Span    { return v.At }
func (v SymbolRef) Span() Span  { return v.At }
func (v ListLit) Span() Span    { return v.At }
func (v MapLit) Span() Span     { return v.At }

func (TextLit) Kind() ValueKind    { return ValueText }
func (IntLit) Kind() ValueKind     { return ValueInt }
func (DecimalLit) Kind() ValueKind { return ValueDecimal }
func (BoolLit) Kind() ValueKind    { return ValueBool }
func (SymbolRef) Kind() ValueKind  { return ValueSymbol }
func (ListLit) Kind() ValueKind    { return ValueList }
func (MapLit) Kind() ValueKind     { return ValueMap }

func (TextLit) untypedValue()    {}
func (IntLit) untypedValue()     {}
func (DecimalLit) untypedValue() {}
func (BoolLit) untypedValue()    {}
func (SymbolRef) untypedValue()  {}
func (ListLit) untypedValue()    {}
func (MapLit) untypedValue()     {}
