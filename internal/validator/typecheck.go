package validator

import (
	"fmt"
	"slices"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/roach88/verbcheck/internal/diag"
	"github.com/roach88/verbcheck/internal/ir"
	"github.com/roach88/verbcheck/internal/suggest"
)

// typeValue checks v against t and returns the typed value. Every failure
// is reported before returning false.
func (r *run) typeValue(t *ir.Type, v ir.Value, label string) (ir.TypedValue, bool) {
	origin := ir.Origin{At: v.Span(), Source: v, Accepted: t}

	switch t.Kind {
	case ir.KindText:
		if s, ok := v.(ir.TextLit); ok {
			return ir.TextValue{Origin: origin, Val: s.Val}, true
		}

	case ir.KindIdentifier:
		if s, ok := v.(ir.TextLit); ok {
			id, err := uuid.Parse(s.Val)
			if err != nil {
				r.mismatch(t, v, label)
				return nil, false
			}
			return ir.IdentifierValue{Origin: origin, Val: id}, true
		}

	case ir.KindWholeNumber:
		if n, ok := v.(ir.IntLit); ok {
			return ir.WholeValue{Origin: origin, Val: n.Val}, true
		}

	case ir.KindDecimalNumber:
		switch n := v.(type) {
		case ir.IntLit:
			return ir.DecimalValue{Origin: origin, Val: apd.New(n.Val, 0)}, true
		case ir.DecimalLit:
			d, _, err := apd.NewFromString(n.Text)
			if err != nil || d.Form != apd.Finite {
				r.mismatch(t, v, label)
				return nil, false
			}
			return ir.DecimalValue{Origin: origin, Val: d}, true
		}

	case ir.KindCalendarDate:
		if s, ok := v.(ir.TextLit); ok {
			d, err := time.Parse(ir.DateLayout, s.Val)
			if err != nil {
				r.mismatch(t, v, label)
				return nil, false
			}
			return ir.DateValue{Origin: origin, Val: d}, true
		}

	case ir.KindBoolean:
		if b, ok := v.(ir.BoolLit); ok {
			return ir.BoolValue{Origin: origin, Val: b.Val}, true
		}

	case ir.KindReference:
		if s, ok := v.(ir.TextLit); ok {
			return r.typeReference(t, s, origin, label)
		}

	case ir.KindEnumeration:
		if s, ok := v.(ir.TextLit); ok {
			if slices.Contains(t.Values, s.Val) {
				return ir.EnumValue{Origin: origin, Val: s.Val}, true
			}
			r.add(diag.Diagnostic{
				Code:    diag.ValidationFailed,
				Message: fmt.Sprintf("argument '%s': '%s' is not one of %s", label, s.Val, joinValues(t.Values)),
				Span:    s.At,
				Hint:    diag.Suggest(suggest.Rank(s.Val, t.Values, r.v.suggestLimit)),
			})
			return nil, false
		}

	case ir.KindSessionSymbol:
		if sym, ok := v.(ir.SymbolRef); ok {
			return r.typeSymbol(sym, origin, label)
		}

	case ir.KindSequence:
		if list, ok := v.(ir.ListLit); ok {
			return r.typeSequence(t, list, origin, label)
		}

	case ir.KindStructure:
		if m, ok := v.(ir.MapLit); ok {
			return r.typeStructure(t, m, label)
		}

	case ir.KindAlternative:
		return r.typeAlternative(t, v, label)
	}

	r.mismatch(t, v, label)
	return nil, false
}

func (r *run) mismatch(t *ir.Type, v ir.Value, label string) {
	r.add(diag.Diagnostic{
		Code:    diag.TypeMismatch,
		Message: fmt.Sprintf("argument '%s': expected %s, got %s", label, expectation(t), describeValue(v)),
		Span:    v.Span(),
	})
}

func (r *run) typeReference(t *ir.Type, s ir.TextLit, origin ir.Origin, label string) (ir.TypedValue, bool) {
	if r.v.refs.Exists(t.RefKind, s.Val) {
		return ir.ReferenceValue{Origin: origin, RefKind: t.RefKind, Code: s.Val}, true
	}
	r.add(diag.Diagnostic{
		Code:    diag.ValidationFailed,
		Message: fmt.Sprintf("argument '%s': unknown %s code '%s'", label, t.RefKind, s.Val),
		Span:    s.At,
		Hint:    diag.Suggest(r.v.refs.Suggest(t.RefKind, s.Val, r.v.refSuggestLimit)),
	})
	return nil, false
}

// typeSymbol resolves a reference against symbols captured by earlier calls.
func (r *run) typeSymbol(sym ir.SymbolRef, origin ir.Origin, label string) (ir.TypedValue, bool) {
	if entry, ok := r.table.Lookup(sym.Name); ok {
		return ir.SymbolValue{Origin: origin, Name: sym.Name, Kind: entry.Kind}, true
	}

	d := diag.Diagnostic{
		Code:    diag.UndefinedSymbol,
		Message: fmt.Sprintf("undefined symbol '@%s' in argument '%s'", sym.Name, label),
		Span:    sym.At,
	}
	known := r.table.KnownNames()
	if len(known) == 0 {
		d.Hint = diag.Note("no symbols are defined before this call")
	} else {
		d.Hint = diag.Suggest(atNames(suggest.Rank(sym.Name, known, r.v.suggestLimit)))
		if d.Hint == nil {
			d.Hint = &diag.Hint{}
		}
		d.Hint.Note = "defined so far: " + joinValues(atNames(known))
	}
	r.add(d)
	return nil, false
}

// typeSequence types every item, reporting each failing item by index.
func (r *run) typeSequence(t *ir.Type, list ir.ListLit, origin ir.Origin, label string) (ir.TypedValue, bool) {
	items := make([]ir.TypedValue, 0, len(list.Items))
	ok := true
	for i, item := range list.Items {
		tv, itemOK := r.typeValue(t.Elem, item, fmt.Sprintf("%s[%d]", label, i))
		if !itemOK {
			ok = false
			continue
		}
		items = append(items, tv)
	}
	if !ok {
		return nil, false
	}
	return ir.SequenceValue{Origin: origin, Items: items}, true
}

// typeAlternative tries each option in order and commits to the first
// that accepts v. When none does, the diagnostics of the first option
// whose shape matches are reported; without one, a single mismatch.
func (r *run) typeAlternative(t *ir.Type, v ir.Value, label string) (ir.TypedValue, bool) {
	var firstShaped *diag.Report
	for i := range t.Options {
		opt := &t.Options[i]
		var tv ir.TypedValue
		var ok bool
		scratch := r.silently(func() {
			tv, ok = r.typeValue(opt, v, label)
		})
		if ok && scratch.Len() == 0 {
			return tv, true
		}
		if firstShaped == nil && shapeMatches(opt, v) {
			firstShaped = scratch
		}
	}

	if firstShaped != nil && firstShaped.Len() > 0 {
		for _, d := range firstShaped.Diagnostics {
			r.add(d)
		}
		return nil, false
	}
	r.mismatch(t, v, label)
	return nil, false
}

// shapeMatches reports whether v has the literal shape t consumes,
// regardless of whether its content is acceptable.
func shapeMatches(t *ir.Type, v ir.Value) bool {
	switch t.Kind {
	case ir.KindText, ir.KindIdentifier, ir.KindCalendarDate, ir.KindReference, ir.KindEnumeration:
		return v.Kind() == ir.ValueText
	case ir.KindWholeNumber:
		return v.Kind() == ir.ValueInt
	case ir.KindDecimalNumber:
		return v.Kind() == ir.ValueInt || v.Kind() == ir.ValueDecimal
	case ir.KindBoolean:
		return v.Kind() == ir.ValueBool
	case ir.KindSessionSymbol:
		return v.Kind() == ir.ValueSymbol
	case ir.KindSequence:
		return v.Kind() == ir.ValueList
	case ir.KindStructure:
		return v.Kind() == ir.ValueMap
	case ir.KindAlternative:
		for i := range t.Options {
			if shapeMatches(&t.Options[i], v) {
				return true
			}
		}
	}
	return false
}

// typedFits reports whether an already typed context value satisfies t.
func typedFits(t *ir.Type, tv ir.TypedValue) bool {
	switch v := tv.(type) {
	case ir.TextValue:
		return t.Kind == ir.KindText ||
			(t.Kind == ir.KindEnumeration && slices.Contains(t.Values, v.Val))
	case ir.IdentifierValue:
		return t.Kind == ir.KindIdentifier
	case ir.WholeValue:
		return t.Kind == ir.KindWholeNumber
	case ir.DecimalValue:
		return t.Kind == ir.KindDecimalNumber
	case ir.DateValue:
		return t.Kind == ir.KindCalendarDate
	case ir.BoolValue:
		return t.Kind == ir.KindBoolean
	case ir.ReferenceValue:
		return t.Kind == ir.KindReference && t.RefKind == v.RefKind
	case ir.EnumValue:
		return t.Kind == ir.KindEnumeration && slices.Contains(t.Values, v.Val)
	case ir.SequenceValue:
		if t.Kind != ir.KindSequence || t.Elem == nil {
			break
		}
		for _, item := range v.Items {
			if !typedFits(t.Elem, item) {
				return false
			}
		}
		return true
	}
	if t.Kind == ir.KindAlternative {
		for i := range t.Options {
			if typedFits(&t.Options[i], tv) {
				return true
			}
		}
	}
	return false
}

// reorigin replaces the origin of a context value. Enumeration members
// supplied as plain text become EnumValues.
func reorigin(tv ir.TypedValue, o ir.Origin) ir.TypedValue {
	switch v := tv.(type) {
	case ir.TextValue:
		if o.Accepted != nil && o.Accepted.Kind == ir.KindEnumeration {
			return ir.EnumValue{Origin: o, Val: v.Val}
		}
		v.Origin = o
		return v
	case ir.IdentifierValue:
		v.Origin = o
		return v
	case ir.WholeValue:
		v.Origin = o
		return v
	case ir.DecimalValue:
		v.Origin = o
		return v
	case ir.DateValue:
		v.Origin = o
		return v
	case ir.BoolValue:
		v.Origin = o
		return v
	case ir.ReferenceValue:
		v.Origin = o
		return v
	case ir.EnumValue:
		v.Origin = o
		return v
	case ir.SequenceValue:
		v.Origin = o
		return v
	default:
		return tv
	}
}
