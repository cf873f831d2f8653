package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlsql/internal/rdf"
)

const peopleData = `
prefixes:
  ex: http://example.org/
triples:
  - [ex:alice, foaf:name, '"Alice"']
  - [ex:alice, foaf:age, 30]
  - [ex:alice, foaf:knows, ex:bob]
  - [ex:bob, foaf:name, '"Bob"@en']
  - {s: ex:bob, p: foaf:age, o: 12}
  - {s: ex:bob, p: foaf:nick, o: '"bobby"', g: ex:nicknames}
`

func TestLoadYAML(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	n, err := s.LoadYAML(ctx, strings.NewReader(peopleData))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM triples").Scan(&count))
	assert.Equal(t, 6, count)

	_, ok, err := s.LookupNode(ctx, rdf.NewTypedLiteral("30", rdf.XSDInteger))
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = s.LookupNode(ctx, rdf.NewLangLiteral("Bob", "en"))
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = s.LookupNode(ctx, rdf.IRI("http://example.org/nicknames"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoadYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"short row", "triples:\n  - [foaf:a, foaf:b]\n", "needs 3 or 4 terms"},
		{"unknown prefix", "triples:\n  - [nope:a, foaf:b, foaf:c]\n", "triple 1: subject"},
		{"literal subject", "triples:\n  - ['\"x\"', foaf:b, foaf:c]\n", "subject must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := createTestStore(t)
			_, err := s.LoadYAML(context.Background(), strings.NewReader(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadYAML_Empty(t *testing.T) {
	s := createTestStore(t)

	n, err := s.LoadYAML(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, n)
}
