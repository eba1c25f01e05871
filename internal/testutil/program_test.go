package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/verbcheck/internal/diag"
	"github.com/roach88/verbcheck/internal/ir"
)

func TestProgramBuilderSource(t *testing.T) {
	p := NewProgram().
		Call("cbu.create", Kw("name", Text("Acme")), Kw("client-type", Text("fund")), As("acme")).
		Call("ubo.register",
			Kw("cbu", Sym("acme")),
			Kw("owners", List(Map(Kw("entity", Sym("e1")), Kw("percentage", Dec("60.5"))))),
		).
		Program()

	want := "(cbu.create :name \"Acme\" :client-type \"fund\" :as @acme)\n" +
		"(ubo.register :cbu @acme :owners [{:entity @e1 :percentage 60.5}])\n"
	assert.Equal(t, want, p.Source)
	require.Len(t, p.Calls, 2)
}

func TestProgramBuilderSpans(t *testing.T) {
	p := NewProgram().
		Call("case.open", Kw("title", Text("Fraud review")), Kw("copies", Int(3)), Kw("urgent", Bool(true))).
		Call("party.link", Kw("target", Sym("case")), Kw("roles", List(Text("UBO"), Text("Director")))).
		Program()

	slice := func(s ir.Span) string { return p.Source[s.Start:s.End] }

	first := p.Calls[0]
	assert.Equal(t, "case.open", slice(first.VerbSpan))
	assert.Equal(t, ir.Span{Start: 1, End: 10, Line: 1, Column: 2}, first.VerbSpan)
	assert.Equal(t, ":title", slice(first.Args[0].KeySpan))
	assert.Equal(t, `"Fraud review"`, slice(first.Args[0].Value.Span()))
	assert.Equal(t, "3", slice(first.Args[1].Value.Span()))
	assert.Equal(t, "true", slice(first.Args[2].Value.Span()))
	assert.Equal(t, `(case.open :title "Fraud review" :copies 3 :urgent true)`, slice(first.Span))

	second := p.Calls[1]
	assert.Equal(t, 2, second.VerbSpan.Line)
	assert.Equal(t, "@case", slice(second.Args[0].Value.Span()))

	roles := second.Args[1].Value.(ir.ListLit)
	assert.Equal(t, `["UBO" "Director"]`, slice(roles.At))
	assert.Equal(t, `"Director"`, slice(roles.Items[1].Span()))
}

func TestProgramBuilderSpansAgreeWithLocate(t *testing.T) {
	p := NewProgram().
		Call("case.open", Kw("title", Text("Überprüfung"))).
		Call("party.link", Kw("target", Sym("case")), Kw("role", Text("Director"))).
		Program()

	for _, call := range p.Calls {
		for _, a := range call.Args {
			span := a.Value.Span()
			offsetsOnly := ir.Span{Start: span.Start, End: span.End}
			assert.Equal(t,
				diag.Position{Line: span.Line, Column: span.Column},
				diag.Locate(offsetsOnly, p.Source),
				"argument %s", a.Key)
		}
	}
}

func TestProgramBuilderIsDeterministic(t *testing.T) {
	build := func() *ir.Program {
		return NewProgram().Call("cbu.create", Kw("name", Text("Acme")), As("acme")).Program()
	}
	assert.Equal(t, build(), build())
}

func TestFixtures(t *testing.T) {
	cat := Catalog(t)
	assert.Equal(t, []string{"case", "cbu", "doc", "edge", "entity", "party", "screening", "ubo"}, cat.Domains())

	refs := References(t)
	assert.True(t, refs.Exists("jurisdiction", "LU"))
	assert.True(t, refs.Exists("role", "Director"))

	v, ok := Environment().Get("current-country")
	require.True(t, ok)
	assert.Equal(t, ir.ReferenceValue{RefKind: "jurisdiction", Code: "LU"}, v)

	assert.NotEmpty(t, OnboardingYAML())
}
