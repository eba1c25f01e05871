package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Text(), "text"},
		{WholeNumber(), "whole"},
		{Reference("role"), "ref(role)"},
		{Enumeration("open", "closed"), "enum(open|closed)"},
		{Sequence(Reference("role")), "list(ref(role))"},
		{Alternative(SessionSymbol(), Identifier()), "alt(symbol|identifier)"},
		{Structure(), "struct"},
		{Type{}, "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestTypeDescribe(t *testing.T) {
	assert.Equal(t, "role code", Reference("role").Describe())
	assert.Equal(t, "one of open, closed", Enumeration("open", "closed").Describe())
	assert.Equal(t, "list of whole number", Sequence(WholeNumber()).Describe())
	assert.Equal(t, "session symbol or identifier", Alternative(SessionSymbol(), Identifier()).Describe())
	assert.Equal(t, "date", CalendarDate().Describe())
}

func TestRequiredRule(t *testing.T) {
	assert.Equal(t, "optional", Optional().String())
	assert.Equal(t, "always required", Always().String())
	assert.Equal(t, "required when 'kind' is 'company'", IfEquals("kind", "company").String())
	assert.Equal(t, "required when 'from' is provided", IfProvided("from").String())
	assert.Equal(t, "required unless 'id' is provided", UnlessProvided("id").String())

	arg, ok := IfEquals("kind", "company").DependsOnValue()
	assert.True(t, ok)
	assert.Equal(t, "kind", arg)

	_, ok = IfProvided("from").DependsOnValue()
	assert.False(t, ok)
}

func TestCrossConstraintString(t *testing.T) {
	tests := []struct {
		c    CrossConstraint
		want string
	}{
		{CrossConstraint{Kind: ConstraintAtLeastOne, Args: []string{"from-id", "to-id"}}, "at least one of 'from-id', 'to-id' must be provided"},
		{CrossConstraint{Kind: ConstraintExactlyOne, Args: []string{"a", "b"}}, "exactly one of 'a', 'b' must be provided"},
		{CrossConstraint{Kind: ConstraintRequires, If: "a", Then: "b"}, "'a' requires 'b'"},
		{CrossConstraint{Kind: ConstraintExcludes, If: "x", Then: "y"}, "'x' and 'y' cannot both be provided"},
		{CrossConstraint{Kind: ConstraintConditionalRequired, If: "kind", Equals: "trust", Then: "trustee"}, "'trustee' is required when 'kind' is 'trust'"},
		{CrossConstraint{Kind: ConstraintLessThan, Lesser: "from", Greater: "to"}, "'from' must be less than 'to'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.c.String())
	}

	c := CrossConstraint{Kind: ConstraintLessThan, Lesser: "from", Greater: "to"}
	assert.Equal(t, []string{"from", "to"}, c.Referenced())
}

func TestDateBoundString(t *testing.T) {
	assert.Equal(t, "today", DateBound{Kind: DateToday}.String())
	assert.Equal(t, "today+30", DateBound{Kind: DateDaysFromToday, Days: 30}.String())
	assert.Equal(t, "today-7", DateBound{Kind: DateDaysFromToday, Days: -7}.String())
	assert.Equal(t, "2020-01-01", DateBound{Kind: DateLiteral, Date: "2020-01-01"}.String())
}

func TestVerbDefinitionArg(t *testing.T) {
	v := &VerbDefinition{Name: "case.open", Args: []ArgumentSpec{{Name: "title"}, {Name: "priority"}}}

	spec, ok := v.Arg("priority")
	assert.True(t, ok)
	assert.Equal(t, "priority", spec.Name)

	_, ok = v.Arg("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"title", "priority"}, v.ArgNames())
}

func TestTextOf(t *testing.T) {
	s, ok := TextOf(EnumValue{Val: "company"})
	assert.True(t, ok)
	assert.Equal(t, "company", s)

	s, ok = TextOf(BoolValue{Val: true})
	assert.True(t, ok)
	assert.Equal(t, "true", s)

	s, ok = TextOf(WholeValue{Val: 12})
	assert.True(t, ok)
	assert.Equal(t, "12", s)

	_, ok = TextOf(SequenceValue{})
	assert.False(t, ok)
}
