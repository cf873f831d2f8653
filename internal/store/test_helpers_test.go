package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlsql/internal/rdf"
)

const foaf = "http://xmlns.com/foaf/0.1/"

// createTestStore opens an in-memory SQLite store.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite3, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustIntern(t *testing.T, s *Store, term rdf.Term) int64 {
	t.Helper()
	id, err := s.InternNode(context.Background(), term)
	require.NoError(t, err)
	return id
}

func mustAdd(t *testing.T, s *Store, subj, pred, obj rdf.Term) int64 {
	t.Helper()
	id, err := s.AddTriple(context.Background(), subj, pred, obj, nil)
	require.NoError(t, err)
	return id
}
