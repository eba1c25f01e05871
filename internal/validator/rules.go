package validator

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/verbcheck/internal/diag"
	"github.com/roach88/verbcheck/internal/ir"
)

// applyRules runs every rule of spec against a supplied value. Each
// failing rule is its own diagnostic; a failure does not stop later rules.
func (r *run) applyRules(spec *ir.ArgumentSpec, tv ir.TypedValue, label string) {
	for i := range spec.Rules {
		msg, failed := r.checkRule(&spec.Rules[i], tv)
		if !failed {
			continue
		}
		r.add(diag.Diagnostic{
			Code:    diag.ValidationFailed,
			Message: fmt.Sprintf("argument '%s': %s", label, msg),
			Span:    tv.Span(),
		})
	}
}

// checkRule returns a failure message when rule rejects tv. Rules that do
// not apply to the value's type pass.
func (r *run) checkRule(rule *ir.ValidationRule, tv ir.TypedValue) (string, bool) {
	switch rule.Kind {
	case ir.RuleRange:
		n, ok := numberOf(tv)
		if !ok {
			return "", false
		}
		if (rule.Min != nil && n.Cmp(rule.Min) < 0) || (rule.Max != nil && n.Cmp(rule.Max) > 0) {
			return fmt.Sprintf("%s (got %s)", boundsText("must be", rule.Min, rule.Max), n.Text('f')), true
		}

	case ir.RuleLength:
		n, ok := lengthOf(tv)
		if !ok {
			return "", false
		}
		if (rule.MinLen != nil && n < *rule.MinLen) || (rule.MaxLen != nil && n > *rule.MaxLen) {
			return fmt.Sprintf("%s (got %d)", boundsText("length must be", intDecimal(rule.MinLen), intDecimal(rule.MaxLen)), n), true
		}

	case ir.RulePattern:
		s, ok := ir.TextOf(tv)
		if !ok {
			return "", false
		}
		re := rule.Regexp
		if re == nil {
			var err error
			if re, err = regexp.Compile(rule.Pattern); err != nil {
				return "", false
			}
		}
		if !re.MatchString(s) {
			if rule.Description != "" {
				return fmt.Sprintf("'%s' is not %s", s, rule.Description), true
			}
			return fmt.Sprintf("'%s' does not match pattern %s", s, rule.Pattern), true
		}

	case ir.RuleDateRange:
		d, ok := tv.(ir.DateValue)
		if !ok {
			return "", false
		}
		if rule.After != nil {
			if bound, ok := r.resolveBound(rule.After); ok && d.Val.Before(bound) {
				return fmt.Sprintf("must be on or after %s (got %s)", boundText(rule.After, bound), d.Val.Format(ir.DateLayout)), true
			}
		}
		if rule.Before != nil {
			if bound, ok := r.resolveBound(rule.Before); ok && d.Val.After(bound) {
				return fmt.Sprintf("must be on or before %s (got %s)", boundText(rule.Before, bound), d.Val.Format(ir.DateLayout)), true
			}
		}

	case ir.RuleNotEmpty:
		if isEmpty(tv) {
			return "must not be empty", true
		}
	}
	return "", false
}

func (r *run) resolveBound(b *ir.DateBound) (time.Time, bool) {
	switch b.Kind {
	case ir.DateToday:
		return r.today, true
	case ir.DateDaysFromToday:
		return r.today.AddDate(0, 0, b.Days), true
	case ir.DateLiteral:
		t, err := time.Parse(ir.DateLayout, b.Date)
		return t, err == nil
	default:
		return time.Time{}, false
	}
}

func boundText(b *ir.DateBound, resolved time.Time) string {
	if b.Kind == ir.DateLiteral {
		return b.Date
	}
	return fmt.Sprintf("%s (%s)", b, resolved.Format(ir.DateLayout))
}

func boundsText(prefix string, lo, hi *apd.Decimal) string {
	switch {
	case lo != nil && hi != nil:
		return fmt.Sprintf("%s between %s and %s", prefix, lo.Text('f'), hi.Text('f'))
	case lo != nil:
		return fmt.Sprintf("%s at least %s", prefix, lo.Text('f'))
	default:
		return fmt.Sprintf("%s at most %s", prefix, hi.Text('f'))
	}
}

func intDecimal(n *int) *apd.Decimal {
	if n == nil {
		return nil
	}
	return apd.New(int64(*n), 0)
}

func numberOf(tv ir.TypedValue) (*apd.Decimal, bool) {
	switch v := tv.(type) {
	case ir.WholeValue:
		return apd.New(v.Val, 0), true
	case ir.DecimalValue:
		return v.Val, v.Val != nil
	default:
		return nil, false
	}
}

// lengthOf counts runes for textual values and items for sequences.
func lengthOf(tv ir.TypedValue) (int, bool) {
	switch v := tv.(type) {
	case ir.TextValue:
		return utf8.RuneCountInString(v.Val), true
	case ir.EnumValue:
		return utf8.RuneCountInString(v.Val), true
	case ir.ReferenceValue:
		return utf8.RuneCountInString(v.Code), true
	case ir.SequenceValue:
		return len(v.Items), true
	default:
		return 0, false
	}
}

func isEmpty(tv ir.TypedValue) bool {
	switch v := tv.(type) {
	case ir.TextValue:
		return strings.TrimSpace(v.Val) == ""
	case ir.EnumValue:
		return v.Val == ""
	case ir.ReferenceValue:
		return v.Code == ""
	case ir.SequenceValue:
		return len(v.Items) == 0
	default:
		return false
	}
}
