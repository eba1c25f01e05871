package validator

import (
	"fmt"

	"github.com/roach88/verbcheck/internal/diag"
	"github.com/roach88/verbcheck/internal/ir"
)

// checkConstraints evaluates the verb's cross-argument constraints after
// the argument walk. Violations are reported at the verb.
func (r *run) checkConstraints(def *ir.VerbDefinition, w *argWalk, at ir.Span) {
	for _, c := range def.Constraints {
		if msg, ok := w.satisfies(c); !ok {
			r.add(diag.Diagnostic{Code: diag.ConstraintViolation, Message: msg, Span: at})
		}
	}
}

// satisfies evaluates one constraint, returning the violation message.
// Presence counts supplied keywords as well as defaulted values.
func (w *argWalk) satisfies(c ir.CrossConstraint) (string, bool) {
	switch c.Kind {
	case ir.ConstraintExactlyOne:
		given := w.presentOf(c.Args)
		switch len(given) {
		case 1:
			return "", true
		case 0:
			return c.String(), false
		default:
			return fmt.Sprintf("%s (got %s)", c.String(), quoteNames(given)), false
		}

	case ir.ConstraintAtLeastOne:
		if len(w.presentOf(c.Args)) == 0 {
			return c.String(), false
		}

	case ir.ConstraintRequires:
		if w.present(c.If) && !w.present(c.Then) {
			return c.String(), false
		}

	case ir.ConstraintExcludes:
		if w.present(c.If) && w.present(c.Then) {
			return c.String(), false
		}

	case ir.ConstraintConditionalRequired:
		tv, ok := w.values[c.If]
		if !ok {
			return "", true
		}
		if s, ok := ir.TextOf(tv); ok && s == c.Equals && !w.present(c.Then) {
			return c.String(), false
		}

	case ir.ConstraintLessThan:
		lo, okLo := w.values[c.Lesser]
		hi, okHi := w.values[c.Greater]
		if !okLo || !okHi {
			return "", true
		}
		if cmp, ok := compareValues(lo, hi); ok && cmp >= 0 {
			a, _ := ir.TextOf(lo)
			b, _ := ir.TextOf(hi)
			return fmt.Sprintf("%s (got %s and %s)", c.String(), a, b), false
		}
	}
	return "", true
}

func (w *argWalk) presentOf(names []string) []string {
	var out []string
	for _, n := range names {
		if w.present(n) {
			out = append(out, n)
		}
	}
	return out
}

// compareValues orders two numbers or two dates.
func compareValues(a, b ir.TypedValue) (int, bool) {
	if da, ok := a.(ir.DateValue); ok {
		if db, ok := b.(ir.DateValue); ok {
			return da.Val.Compare(db.Val), true
		}
		return 0, false
	}
	na, okA := numberOf(a)
	nb, okB := numberOf(b)
	if !okA || !okB {
		return 0, false
	}
	return na.Cmp(nb), true
}
