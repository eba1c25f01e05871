package validator

import (
	"fmt"

	"github.com/roach88/verbcheck/internal/diag"
	"github.com/roach88/verbcheck/internal/ir"
)

// argWalk evaluates one argument list in declaration order: a call's
// arguments or the fields of one structure value.
type argWalk struct {
	run    *run
	specs  []ir.ArgumentSpec
	given  map[string]*ir.Arg
	anchor ir.Span // where missing arguments are reported
	path   string  // "" for a call, "owners[1]" inside a structure

	values map[string]ir.TypedValue // typed so far, defaults included
}

func (w *argWalk) label(name string) string {
	if w.path == "" {
		return name
	}
	return w.path + "." + name
}

// walk types every supplied argument, resolves defaults for absent ones,
// and reports absent required arguments. Later specs see the typed values
// of earlier ones.
func (w *argWalk) walk() []ir.TypedArg {
	w.values = make(map[string]ir.TypedValue, len(w.specs))
	var out []ir.TypedArg

	for i := range w.specs {
		spec := &w.specs[i]
		label := w.label(spec.Name)

		if arg, ok := w.given[spec.Name]; ok {
			tv, ok := w.run.typeValue(&spec.Type, arg.Value, label)
			if !ok {
				continue
			}
			w.run.applyRules(spec, tv, label)
			w.values[spec.Name] = tv
			out = append(out, ir.TypedArg{
				Name:       spec.Name,
				KeySpan:    arg.KeySpan,
				Value:      tv,
				Provenance: ir.Supplied,
			})
			continue
		}

		if tv, prov, ok := w.run.resolveDefault(spec, label); ok {
			w.values[spec.Name] = tv
			out = append(out, ir.TypedArg{Name: spec.Name, Value: tv, Provenance: prov})
			continue
		}
		if w.required(spec.Required) {
			w.run.add(missingRequired(spec, label, w.anchor))
		}
	}
	return out
}

// required evaluates a RequiredRule against what has been seen so far.
func (w *argWalk) required(rule ir.RequiredRule) bool {
	switch rule.Kind {
	case ir.RequiredAlways:
		return true
	case ir.RequiredIfEquals:
		tv, ok := w.values[rule.Arg]
		if !ok {
			return false
		}
		s, ok := ir.TextOf(tv)
		return ok && s == rule.Value
	case ir.RequiredIfProvided:
		return w.present(rule.Arg)
	case ir.RequiredUnlessProvided:
		return !w.present(rule.Arg)
	default:
		return false
	}
}

// present reports whether an argument was supplied (whether or not it
// typed) or received a default.
func (w *argWalk) present(name string) bool {
	if _, ok := w.given[name]; ok {
		return true
	}
	_, ok := w.values[name]
	return ok
}

func missingRequired(spec *ir.ArgumentSpec, label string, at ir.Span) diag.Diagnostic {
	msg := fmt.Sprintf("missing required argument '%s'", label)
	if spec.Required.Kind != ir.RequiredAlways {
		msg += " (" + spec.Required.String() + ")"
	}
	d := diag.Diagnostic{Code: diag.MissingRequired, Message: msg, Span: at}
	if spec.Default != nil && spec.Default.ContextKey != "" {
		d.Hint = diag.Note("no value for '%s' in the runtime context", spec.Default.ContextKey)
	}
	return d
}

// resolveDefault tries the runtime context key, then the static literal.
func (r *run) resolveDefault(spec *ir.ArgumentSpec, label string) (ir.TypedValue, ir.Provenance, bool) {
	d := spec.Default
	if d == nil {
		return nil, ir.Supplied, false
	}

	if d.ContextKey != "" {
		if tv, ok := r.v.env.Get(d.ContextKey); ok {
			if typedFits(&spec.Type, tv) {
				return reorigin(tv, ir.Origin{Accepted: &spec.Type}), ir.ContextInjected, true
			}
			r.v.logger.Debug("context value does not fit argument type",
				"key", d.ContextKey, "argument", label, "type", spec.Type.String())
		}
	}

	if d.Literal != nil {
		var tv ir.TypedValue
		var ok bool
		scratch := r.silently(func() {
			tv, ok = r.typeValue(&spec.Type, d.Literal, label)
		})
		if ok && scratch.Len() == 0 {
			return tv, ir.Defaulted, true
		}
		r.v.logger.Debug("static default rejected", "argument", label, "diagnostics", scratch.Len())
	}
	return nil, ir.Supplied, false
}

// typeStructure walks the entries of a map literal against a structure's
// fields, the same way a call's arguments are walked.
func (r *run) typeStructure(t *ir.Type, m ir.MapLit, label string) (ir.TypedValue, bool) {
	before := r.report.Len()

	args := make([]ir.Arg, len(m.Entries))
	for i, e := range m.Entries {
		args[i] = ir.Arg{Key: e.Key, KeySpan: e.KeySpan, Value: e.Value}
	}
	given, _ := r.indexArgs(args, label, false)

	w := &argWalk{run: r, specs: t.Fields, given: given, anchor: m.At, path: label}
	fields := w.walk()
	r.checkUnknownKeywords(t.Fields, args, func(key string) string {
		return fmt.Sprintf("unknown field '%s' in '%s'", key, label)
	}, false)

	if r.report.Len() != before {
		return nil, false
	}
	return ir.StructureValue{
		Origin: ir.Origin{At: m.At, Source: m, Accepted: t},
		Fields: fields,
	}, true
}
