package ir

import (
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"b": 1, "a": "x", "c": []any{true, int64(2)}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":[true,2]}`, string(got))
}

func TestMarshalCanonicalUTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D..., which sort before U+FB01.
	got, err := MarshalCanonical(map[string]any{"ﬁ": 1, "\U0001F600": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"ﬁ\":1}", string(got))
}

func TestMarshalCanonicalEscaping(t *testing.T) {
	got, err := MarshalCanonical("a\"b\\c\n<\u0001>")
	require.NoError(t, err)
	assert.Equal(t, `"a\"b\\c\n<\u0001>"`, string(got))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	decomposed := "e\u0301"
	got, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(got))
}

func TestMarshalCanonicalRejects(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"f": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `["f"]`)

	_, err = MarshalCanonical(struct{}{})
	assert.Error(t, err)
}

func sampleTypedProgram() *TypedProgram {
	verb := &VerbDefinition{Name: "cbu.create", Domain: "cbu", Produces: &Produces{Kind: "cbu"}}
	d, _, _ := apd.NewFromString("25.50")
	id := uuid.MustParse("6f1c2d3e-4b5a-4c6d-8e9f-0a1b2c3d4e5f")
	return &TypedProgram{Calls: []TypedCall{{
		Verb:     verb,
		VerbSpan: Span{Start: 1, End: 11, Line: 1, Column: 2},
		Span:     Span{Start: 0, End: 60, Line: 1, Column: 1},
		Args: []TypedArg{
			{Name: "name", Value: TextValue{Origin: Origin{At: Span{Start: 18, End: 24}}, Val: "Acme"}},
			{Name: "id", Value: IdentifierValue{Val: id}},
			{Name: "share", Value: DecimalValue{Val: d}},
			{Name: "since", Value: DateValue{Val: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)}},
			{Name: "jurisdiction", Value: ReferenceValue{RefKind: "jurisdiction", Code: "LU"}, Provenance: ContextInjected},
			{Name: "tags", Value: SequenceValue{Items: []TypedValue{EnumValue{Val: "a"}, WholeValue{Val: 7}}}, Provenance: Defaulted},
		},
		Capture: &Capture{Name: "acme", Kind: "cbu", Span: Span{Start: 29, End: 34}},
	}}}
}

func TestProgramDocShape(t *testing.T) {
	doc := ProgramDoc(sampleTypedProgram())
	assert.Equal(t, IRVersion, doc["ir_version"])

	calls := doc["calls"].([]any)
	require.Len(t, calls, 1)
	call := calls[0].(map[string]any)
	assert.Equal(t, "cbu.create", call["verb"])
	assert.Equal(t, map[string]any{"name": "acme", "kind": "cbu", "span": spanDoc(Span{Start: 29, End: 34})}, call["capture"])

	args := call["args"].([]any)
	share := args[2].(map[string]any)["value"].(map[string]any)
	assert.Equal(t, "decimal", share["type"])
	assert.Equal(t, "25.50", share["value"])

	since := args[3].(map[string]any)["value"].(map[string]any)
	assert.Equal(t, "2024-01-31", since["value"])

	juris := args[4].(map[string]any)
	assert.Equal(t, "context", juris["provenance"])
	assert.Equal(t, "jurisdiction", juris["value"].(map[string]any)["ref_kind"])
}

func TestFingerprintStable(t *testing.T) {
	a, err := Fingerprint(sampleTypedProgram())
	require.NoError(t, err)
	b, err := Fingerprint(sampleTypedProgram())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprintChangesWithContent(t *testing.T) {
	p := sampleTypedProgram()
	before, err := Fingerprint(p)
	require.NoError(t, err)

	p.Calls[0].Args[0].Value = TextValue{Val: "Acme Corp"}
	after, err := Fingerprint(p)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestHashWithDomainSeparates(t *testing.T) {
	assert.NotEqual(t, hashWithDomain("a", []byte("bc")), hashWithDomain("ab", []byte("c")))
}
