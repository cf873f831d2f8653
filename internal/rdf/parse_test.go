package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTerm(t *testing.T) {
	prefixes := Prefixes{"ex": "http://example.org/"}

	tests := []struct {
		name string
		in   string
		want Term
	}{
		{"iri", "<http://example.org/a>", IRI("http://example.org/a")},
		{"prefixed", "ex:alice", IRI("http://example.org/alice")},
		{"default prefix", "foaf:name", IRI("http://xmlns.com/foaf/0.1/name")},
		{"bnode", "_:b0", BNode("b0")},
		{"plain literal", `"Bob"`, NewLiteral("Bob")},
		{"lang literal", `"Bob"@EN-us`, Literal{Lexical: "Bob", Datatype: LangString, Lang: "en-US"}},
		{"typed literal", `"42"^^xsd:int`, NewTypedLiteral("42", XSDInt)},
		{"typed literal full iri", `"1"^^<http://www.w3.org/2001/XMLSchema#boolean>`, NewTypedLiteral("1", XSDBoolean)},
		{"escaped quote", `"say \"hi\""`, NewLiteral(`say "hi"`)},
		{"integer", "42", NewTypedLiteral("42", XSDInteger)},
		{"negative integer", "-7", NewTypedLiteral("-7", XSDInteger)},
		{"decimal", "4.5", NewTypedLiteral("4.5", XSDDecimal)},
		{"double", "4.5e1", NewTypedLiteral("4.5e1", XSDDouble)},
		{"boolean", "true", NewTypedLiteral("true", XSDBoolean)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTerm(tt.in, prefixes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTerm_Errors(t *testing.T) {
	for _, in := range []string{"", "<http://unterminated", `"open`, `"x"@`, "?x", "nope:thing", "_:", `"x"^^"y"`} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTerm(in, nil)
			assert.Error(t, err)
		})
	}
}

func TestParseVar(t *testing.T) {
	name, err := ParseVar(" ?person ")
	require.NoError(t, err)
	assert.Equal(t, "person", name)

	name, err = ParseVar("$x")
	require.NoError(t, err)
	assert.Equal(t, "x", name)

	_, err = ParseVar("person")
	assert.Error(t, err)
}

func TestTermString_RoundTrip(t *testing.T) {
	terms := []Term{
		IRI("http://example.org/a"),
		BNode("n1"),
		NewLiteral("line\nbreak"),
		NewLangLiteral("chat", "fr"),
		NewTypedLiteral("2.5", XSDDecimal),
	}
	for _, term := range terms {
		parsed, err := ParseTerm(term.String(), nil)
		require.NoError(t, err, term.String())
		assert.True(t, Equal(term, parsed), "%s != %s", term, parsed)
	}
}

func TestIRI_LocalName(t *testing.T) {
	assert.Equal(t, "name", IRI("http://xmlns.com/foaf/0.1/name").LocalName())
	assert.Equal(t, "string", XSDString.LocalName())
	assert.Equal(t, "isbn", IRI("urn:isbn").LocalName())
}

func TestCanonicalLang(t *testing.T) {
	assert.Equal(t, "en-US", CanonicalLang("EN-us"))
	assert.Equal(t, "de", CanonicalLang("de"))
	assert.Equal(t, "", CanonicalLang(""))
}
