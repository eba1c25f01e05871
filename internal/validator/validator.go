// Package validator checks an untyped program against the verb catalog.
//
// Validation is a pure function of the catalog, the reference cache, the
// runtime environment and the program: it performs no I/O, never stops at
// the first problem, and processes calls strictly in source order so that a
// symbol is visible only to calls after the one that captures it.
//
// On success it returns the typed program and its symbol table. On failure
// it returns a *diag.Report listing every diagnostic in source order.
package validator

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/verbcheck/internal/diag"
	"github.com/roach88/verbcheck/internal/ir"
	"github.com/roach88/verbcheck/internal/suggest"
	"github.com/roach88/verbcheck/internal/symbols"
)

// Catalog resolves verb names. *catalog.Catalog implements it.
type Catalog interface {
	Lookup(name string) (*ir.VerbDefinition, bool)
	SuggestSimilar(name string, limit int) []string
}

// ReferenceCache answers lookup-table membership for Reference types.
// Implementations must be read-only snapshots for the duration of a call.
type ReferenceCache interface {
	Exists(kind, code string) bool
	Suggest(kind, code string, limit int) []string
}

// Environment supplies context values for DefaultSpec resolution.
type Environment interface {
	Get(key string) (ir.TypedValue, bool)
}

// DefaultReferenceSuggestLimit caps suggestions for an unknown reference code.
const DefaultReferenceSuggestLimit = 5

// Validator is immutable after New and safe for concurrent use.
type Validator struct {
	catalog         Catalog
	refs            ReferenceCache
	env             Environment
	today           time.Time
	suggestLimit    int
	refSuggestLimit int
	logger          *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithReferences sets the reference cache. Without one every reference
// code is unknown.
func WithReferences(refs ReferenceCache) Option {
	return func(v *Validator) { v.refs = refs }
}

// WithEnvironment sets the runtime environment used for context defaults.
func WithEnvironment(env Environment) Option {
	return func(v *Validator) { v.env = env }
}

// WithToday fixes the date that relative date bounds are computed from.
// Without it the current UTC date at the start of each validation is used.
func WithToday(today time.Time) Option {
	return func(v *Validator) { v.today = truncateDay(today) }
}

// WithSuggestLimit sets how many verb, argument, enumeration and symbol
// suggestions are attached to a diagnostic.
func WithSuggestLimit(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.suggestLimit = n
		}
	}
}

// WithReferenceSuggestLimit sets how many reference codes are suggested.
func WithReferenceSuggestLimit(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.refSuggestLimit = n
		}
	}
}

// WithLogger sets the logger. The validator logs at Debug level only.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// New returns a Validator over cat.
func New(cat Catalog, opts ...Option) *Validator {
	v := &Validator{
		catalog:         cat,
		refs:            noReferences{},
		env:             noEnvironment{},
		suggestLimit:    suggest.DefaultLimit,
		refSuggestLimit: DefaultReferenceSuggestLimit,
		logger:          slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.refs == nil {
		v.refs = noReferences{}
	}
	if v.env == nil {
		v.env = noEnvironment{}
	}
	return v
}

// Validated is the success result of a validation.
type Validated struct {
	Program *ir.TypedProgram
	Symbols *symbols.Table
}

// ErrNilProgram is returned when Validate is given no program.
var ErrNilProgram = errors.New("validator: nil program")

// Validate checks every call of p in source order. A program with
// diagnostics returns a nil result and a *diag.Report error.
func (v *Validator) Validate(p *ir.Program) (*Validated, error) {
	if p == nil {
		return nil, ErrNilProgram
	}
	if v.catalog == nil {
		return nil, fmt.Errorf("validator: no catalog")
	}

	today := v.today
	if today.IsZero() {
		today = truncateDay(time.Now())
	}
	r := &run{
		v:      v,
		today:  today,
		report: &diag.Report{},
		table:  symbols.New(),
	}

	typed := &ir.TypedProgram{Calls: make([]ir.TypedCall, 0, len(p.Calls))}
	for i := range p.Calls {
		if call, ok := r.checkCall(&p.Calls[i]); ok {
			typed.Calls = append(typed.Calls, call)
		}
	}

	v.logger.Debug("validated program",
		"calls", len(p.Calls),
		"symbols", r.table.Len(),
		"diagnostics", r.report.Len())

	if r.report.Len() > 0 {
		return nil, r.report
	}
	return &Validated{Program: typed, Symbols: r.table}, nil
}

// run is the state of one validation. It is never shared.
type run struct {
	v      *Validator
	today  time.Time
	report *diag.Report
	table  *symbols.Table
}

func (r *run) add(d diag.Diagnostic) {
	r.report.Add(d)
}

// silently runs fn with diagnostics captured in a scratch report, which it
// returns. Used to try alternatives and static defaults.
func (r *run) silently(fn func()) *diag.Report {
	saved := r.report
	scratch := &diag.Report{}
	r.report = scratch
	defer func() { r.report = saved }()
	fn()
	return scratch
}

// checkCall runs the per-call steps: verb lookup, argument walk,
// constraints, unknown keywords, then capture. ok is false when the call
// produced diagnostics.
func (r *run) checkCall(call *ir.Call) (ir.TypedCall, bool) {
	before := r.report.Len()

	def, found := r.v.catalog.Lookup(call.Verb)
	if !found {
		r.add(diag.Diagnostic{
			Code:    diag.UnknownVerb,
			Message: fmt.Sprintf("unknown verb '%s'", call.Verb),
			Span:    call.VerbSpan,
			Hint:    diag.Suggest(r.v.catalog.SuggestSimilar(call.Verb, r.v.suggestLimit)),
		})
		r.placeholderCapture(call)
		return ir.TypedCall{}, false
	}

	args, capture := r.indexArgs(call.Args, call.Verb, true)

	w := &argWalk{
		run:    r,
		specs:  def.Args,
		given:  args,
		anchor: call.VerbSpan,
	}
	typedArgs := w.walk()
	r.checkConstraints(def, w, call.VerbSpan)
	r.checkUnknownKeywords(def.Args, call.Args, unknownArgMessage(def.Name), true)

	out := ir.TypedCall{
		Verb:     def,
		VerbSpan: call.VerbSpan,
		Span:     call.Span,
		Args:     typedArgs,
	}
	if capture != nil {
		out.Capture = r.defineCapture(def, call, capture)
	}
	return out, r.report.Len() == before
}

// indexArgs maps keywords to their first occurrence, reporting repeats.
// When allowCapture is set, the capture keyword is split off.
func (r *run) indexArgs(args []ir.Arg, owner string, allowCapture bool) (map[string]*ir.Arg, *ir.Arg) {
	index := make(map[string]*ir.Arg, len(args))
	var capture *ir.Arg
	for i := range args {
		a := &args[i]
		if allowCapture && a.Key == ir.CaptureKeyword {
			if capture == nil {
				capture = a
			} else {
				r.add(repeatedKeyword(a, owner))
			}
			continue
		}
		if _, dup := index[a.Key]; dup {
			r.add(repeatedKeyword(a, owner))
			continue
		}
		index[a.Key] = a
	}
	return index, capture
}

func repeatedKeyword(a *ir.Arg, owner string) diag.Diagnostic {
	return diag.Diagnostic{
		Code:    diag.UnknownArgument,
		Message: fmt.Sprintf("argument '%s' is given more than once in '%s'", a.Key, owner),
		Span:    a.KeySpan,
	}
}

// checkUnknownKeywords reports keywords that match no spec, with
// suggestions drawn only from the specs' own names.
func (r *run) checkUnknownKeywords(specs []ir.ArgumentSpec, args []ir.Arg, message func(string) string, skipCapture bool) {
	names := make([]string, len(specs))
	declared := make(map[string]bool, len(specs))
	for i, s := range specs {
		names[i] = s.Name
		declared[s.Name] = true
	}
	for _, a := range args {
		if declared[a.Key] || (skipCapture && a.Key == ir.CaptureKeyword) {
			continue
		}
		r.add(diag.Diagnostic{
			Code:    diag.UnknownArgument,
			Message: message(a.Key),
			Span:    a.KeySpan,
			Hint:    diag.Suggest(suggest.Rank(a.Key, names, r.v.suggestLimit)),
		})
	}
}

func unknownArgMessage(verb string) func(string) string {
	return func(key string) string {
		return fmt.Sprintf("unknown argument '%s' for verb '%s'", key, verb)
	}
}

// defineCapture binds the captured symbol. The symbol is defined even when
// other arguments of the call failed, so later references do not cascade.
func (r *run) defineCapture(def *ir.VerbDefinition, call *ir.Call, capture *ir.Arg) *ir.Capture {
	if def.Produces == nil {
		r.add(diag.Diagnostic{
			Code:    diag.UnknownArgument,
			Message: fmt.Sprintf("verb '%s' produces nothing to capture with ':%s'", def.Name, ir.CaptureKeyword),
			Span:    capture.KeySpan,
		})
		return nil
	}
	sym, ok := capture.Value.(ir.SymbolRef)
	if !ok {
		r.add(diag.Diagnostic{
			Code:    diag.TypeMismatch,
			Message: fmt.Sprintf("argument '%s': expected session symbol, got %s", ir.CaptureKeyword, describeValue(capture.Value)),
			Span:    capture.Value.Span(),
		})
		return nil
	}

	if !r.define(sym, def.Produces.Kind, call) {
		return nil
	}
	return &ir.Capture{Name: sym.Name, Kind: def.Produces.Kind, Span: sym.At}
}

// define binds sym to the call, reporting a second definition of a name.
func (r *run) define(sym ir.SymbolRef, kind string, call *ir.Call) bool {
	err := r.table.Define(sym.Name, kind, call.Span, call.Verb)
	if err == nil {
		return true
	}
	var dup *symbols.AlreadyDefinedError
	if errors.As(err, &dup) {
		first := dup.First
		r.add(diag.Diagnostic{
			Code:    diag.DuplicateSymbol,
			Message: fmt.Sprintf("symbol '@%s' is already defined", sym.Name),
			Span:    sym.At,
			Related: &first,
		})
	}
	return false
}

// placeholderCapture defines the symbol captured by an unknown verb, so the
// unknown verb is reported once instead of again at every reference.
func (r *run) placeholderCapture(call *ir.Call) {
	for _, a := range call.Args {
		if a.Key != ir.CaptureKeyword {
			continue
		}
		if sym, ok := a.Value.(ir.SymbolRef); ok {
			r.define(sym, "", call)
		}
		return
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type noReferences struct{}

func (noReferences) Exists(string, string) bool           { return false }
func (noReferences) Suggest(string, string, int) []string { return nil }

type noEnvironment struct{}

func (noEnvironment) Get(string) (ir.TypedValue, bool) { return nil, false }
