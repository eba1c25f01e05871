package testutil

import (
	"strconv"
	"strings"

	"github.com/roach88/verbcheck/internal/ir"
)

// ProgramBuilder renders calls as DSL source and records the exact span of
// every token it writes, the way the external parser would.
//
//	p := testutil.NewProgram().
//		Call("cbu.create", testutil.Kw("name", testutil.Text("Acme")), testutil.As("acme")).
//		Call("party.link", testutil.Kw("target", testutil.Sym("acme")))
//
// Output is deterministic: the same calls always yield the same source and spans.
type ProgramBuilder struct {
	w     writer
	calls []ir.Call
}

// NewProgram returns an empty builder.
func NewProgram() *ProgramBuilder {
	return &ProgramBuilder{w: writer{line: 1, col: 1}}
}

// Lit is a value the builder can write.
type Lit interface {
	write(w *writer) ir.Value
}

// KV is one keyword argument or map entry.
type KV struct {
	Key   string
	Value Lit
}

// Kw pairs a keyword with a value.
func Kw(key string, v Lit) KV { return KV{Key: key, Value: v} }

// As is the capture argument ":as @name".
func As(name string) KV { return KV{Key: ir.CaptureKeyword, Value: Sym(name)} }

// Call appends "(verb :k v ...)" on its own line.
func (p *ProgramBuilder) Call(verb string, args ...KV) *ProgramBuilder {
	if len(p.calls) > 0 {
		p.w.put("\n")
	}
	start := p.w.pos()
	p.w.put("(")
	verbStart := p.w.pos()
	p.w.put(verb)
	call := ir.Call{Verb: verb, VerbSpan: p.w.span(verbStart)}

	for _, a := range args {
		p.w.put(" ")
		call.Args = append(call.Args, p.w.arg(a))
	}
	p.w.put(")")
	call.Span = p.w.span(start)
	p.calls = append(p.calls, call)
	return p
}

// Program returns the built program. The builder can keep growing.
func (p *ProgramBuilder) Program() *ir.Program {
	calls := make([]ir.Call, len(p.calls))
	copy(calls, p.calls)
	return &ir.Program{Source: p.w.b.String() + "\n", Calls: calls}
}

// Source returns the text written so far.
func (p *ProgramBuilder) Source() string {
	return p.w.b.String() + "\n"
}

type text string

// Text is a quoted string literal.
func Text(s string) Lit { return text(s) }

func (t text) write(w *writer) ir.Value {
	start := w.pos()
	w.put(strconv.Quote(string(t)))
	return ir.TextLit{Val: string(t), At: w.span(start)}
}

type integer int64

// Int is an integer literal.
func Int(n int64) Lit { return integer(n) }

func (n integer) write(w *writer) ir.Value {
	start := w.pos()
	w.put(strconv.FormatInt(int64(n), 10))
	return ir.IntLit{Val: int64(n), At: w.span(start)}
}

type decimal string

// Dec is a decimal literal written exactly as given.
func Dec(s string) Lit { return decimal(s) }

func (d decimal) write(w *writer) ir.Value {
	start := w.pos()
	w.put(string(d))
	return ir.DecimalLit{Text: string(d), At: w.span(start)}
}

type boolean bool

// Bool is true or false.
func Bool(b bool) Lit { return boolean(b) }

func (b boolean) write(w *writer) ir.Value {
	start := w.pos()
	w.put(strconv.FormatBool(bool(b)))
	return ir.BoolLit{Val: bool(b), At: w.span(start)}
}

type symbol string

// Sym is a session symbol reference written as "@name".
func Sym(name string) Lit { return symbol(name) }

func (s symbol) write(w *writer) ir.Value {
	start := w.pos()
	w.put("@" + string(s))
	return ir.SymbolRef{Name: string(s), At: w.span(start)}
}

type list []Lit

// List is a bracketed list.
func List(items ...Lit) Lit { return list(items) }

func (l list) write(w *writer) ir.Value {
	start := w.pos()
	w.put("[")
	items := make([]ir.Value, len(l))
	for i, item := range l {
		if i > 0 {
			w.put(" ")
		}
		items[i] = item.write(w)
	}
	w.put("]")
	return ir.ListLit{Items: items, At: w.span(start)}
}

type mapping []KV

// Map is a nested "{:k v ...}" structure.
func Map(entries ...KV) Lit { return mapping(entries) }

func (m mapping) write(w *writer) ir.Value {
	start := w.pos()
	w.put("{")
	entries := make([]ir.MapEntry, len(m))
	for i, kv := range m {
		if i > 0 {
			w.put(" ")
		}
		a := w.arg(kv)
		entries[i] = ir.MapEntry{Key: a.Key, KeySpan: a.KeySpan, Value: a.Value}
	}
	w.put("}")
	return ir.MapLit{Entries: entries, At: w.span(start)}
}

// writer tracks byte offset, line and column while appending text.
type writer struct {
	b    strings.Builder
	line int
	col  int
}

type position struct {
	offset, line, col int
}

func (w *writer) pos() position {
	return position{offset: w.b.Len(), line: w.line, col: w.col}
}

func (w *writer) span(from position) ir.Span {
	return ir.Span{Start: from.offset, End: w.b.Len(), Line: from.line, Column: from.col}
}

func (w *writer) put(s string) {
	for _, r := range s {
		if r == '\n' {
			w.line++
			w.col = 1
			continue
		}
		w.col++
	}
	w.b.WriteString(s)
}

func (w *writer) arg(kv KV) ir.Arg {
	keyStart := w.pos()
	w.put(":" + kv.Key)
	keySpan := w.span(keyStart)
	w.put(" ")
	return ir.Arg{Key: kv.Key, KeySpan: keySpan, Value: kv.Value.write(w)}
}
