package validator

import (
	"fmt"
	"strings"

	"github.com/roach88/verbcheck/internal/ir"
)

// describeValue names an untyped value the way it was written.
func describeValue(v ir.Value) string {
	switch lit := v.(type) {
	case ir.TextLit:
		return fmt.Sprintf("text '%s'", lit.Val)
	case ir.IntLit:
		return fmt.Sprintf("integer %d", lit.Val)
	case ir.DecimalLit:
		return "decimal " + lit.Text
	case ir.BoolLit:
		return fmt.Sprintf("boolean %t", lit.Val)
	case ir.SymbolRef:
		return "symbol '@" + lit.Name + "'"
	case ir.ListLit:
		return fmt.Sprintf("list of %d item(s)", len(lit.Items))
	case ir.MapLit:
		return "map"
	default:
		return "nothing"
	}
}

// expectation is the "expected ..." half of a type mismatch.
func expectation(t *ir.Type) string {
	switch t.Kind {
	case ir.KindCalendarDate:
		return "date (YYYY-MM-DD)"
	case ir.KindIdentifier:
		return "identifier (UUID)"
	default:
		return t.Describe()
	}
}

func joinValues(values []string) string {
	return strings.Join(values, ", ")
}

func atNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "@" + n
	}
	return out
}

func quoteNames(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, ", ")
}
