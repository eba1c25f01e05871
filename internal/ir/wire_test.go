package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wireJSON = `{
  "source": "(cbu.create :name \"Acme\" :as @acme)",
  "calls": [
    {
      "verb": "cbu.create",
      "verb_span": {"start": 1, "end": 11, "line": 1, "column": 2},
      "span": {"start": 0, "end": 35, "line": 1, "column": 1},
      "args": [
        {"key": "name", "key_span": {"start": 12, "end": 17, "line": 1, "column": 13},
         "value": {"text": "Acme", "span": {"start": 18, "end": 24, "line": 1, "column": 19}}},
        {"key": "as", "key_span": {"start": 25, "end": 28, "line": 1, "column": 26},
         "value": {"symbol": "acme", "span": {"start": 29, "end": 34, "line": 1, "column": 30}}}
      ]
    }
  ]
}`

func TestDecodeProgramJSON(t *testing.T) {
	p, err := DecodeProgramJSON([]byte(wireJSON))
	require.NoError(t, err)

	require.Len(t, p.Calls, 1)
	call := p.Calls[0]
	assert.Equal(t, "cbu.create", call.Verb)
	assert.Equal(t, Span{Start: 1, End: 11, Line: 1, Column: 2}, call.VerbSpan)
	require.Len(t, call.Args, 2)

	name, ok := call.Args[0].Value.(TextLit)
	require.True(t, ok)
	assert.Equal(t, "Acme", name.Val)
	assert.Equal(t, Span{Start: 18, End: 24, Line: 1, Column: 19}, name.Span())

	sym, ok := call.Args[1].Value.(SymbolRef)
	require.True(t, ok)
	assert.Equal(t, "acme", sym.Name)
	assert.Equal(t, ValueSymbol, sym.Kind())
}

func TestDecodeProgramJSONRejectsUnknownFields(t *testing.T) {
	_, err := DecodeProgramJSON([]byte(`{"calls": [], "extra": 1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode program JSON")
}

func TestDecodeProgramYAML(t *testing.T) {
	doc := `
calls:
  - verb: edge.create
    verb_span: {start: 1, end: 12, line: 1, column: 2}
    args:
      - key: percentage
        key_span: {start: 13, end: 24}
        value: {decimal: "25.5", span: {start: 25, end: 29}}
      - key: tags
        value:
          list:
            - {text: a}
            - {int: 3}
          span: {start: 30, end: 40}
      - key: owner
        value:
          map:
            - key: flag
              value: {bool: true}
`
	p, err := DecodeProgramYAML([]byte(doc))
	require.NoError(t, err)
	require.Len(t, p.Calls, 1)

	call := p.Calls[0]
	assert.Equal(t, call.VerbSpan, call.Span, "call span defaults to verb span")

	dec, ok := call.Args[0].Value.(DecimalLit)
	require.True(t, ok)
	assert.Equal(t, "25.5", dec.Text)

	list, ok := call.Args[1].Value.(ListLit)
	require.True(t, ok)
	require.Len(t, list.Items, 2)
	assert.Equal(t, ValueText, list.Items[0].Kind())
	assert.Equal(t, IntLit{Val: 3}, list.Items[1])

	m, ok := call.Args[2].Value.(MapLit)
	require.True(t, ok)
	require.Len(t, m.Entries, 1)
	assert.Equal(t, "flag", m.Entries[0].Key)
	assert.Equal(t, BoolLit{Val: true}, m.Entries[0].Value)
}

func TestDecodeProgramYAMLRejectsUnknownFields(t *testing.T) {
	_, err := DecodeProgramYAML([]byte("calls:\n  - verb: a.b\n    argz: []\n"))
	require.Error(t, err)
}

func TestWireValueExactlyOneShape(t *testing.T) {
	text := "x"
	n := int64(1)

	_, err := WireValue{}.Value()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 0")

	_, err = WireValue{Text: &text, Int: &n}.Value()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 2")
}

func TestWireProgramRequiresVerbAndKey(t *testing.T) {
	_, err := WireProgram{Calls: []WireCall{{}}}.Program()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calls[0]: verb is required")

	text := "x"
	_, err = WireProgram{Calls: []WireCall{{
		Verb: "a.b",
		Args: []WireArg{{Value: WireValue{Text: &text}}},
	}}}.Program()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calls[0].args[0]: key is required")
}

func TestWireNestedErrorPath(t *testing.T) {
	_, err := WireProgram{Calls: []WireCall{{
		Verb: "a.b",
		Args: []WireArg{{Key: "tags", Value: WireValue{List: []WireValue{{}}}}},
	}}}.Program()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calls[0].args[0] (tags): list[0]")
}

func TestSpanString(t *testing.T) {
	assert.Equal(t, "3:7", Span{Line: 3, Column: 7}.String())
	assert.Equal(t, "@4-9", Span{Start: 4, End: 9}.String())
	assert.True(t, Span{}.IsZero())
	assert.False(t, Span{End: 1}.IsZero())
}
