package store

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlsql/internal/algebra"
	"github.com/roach88/sparqlsql/internal/querysql"
	"github.com/roach88/sparqlsql/internal/rdf"
	"github.com/roach88/sparqlsql/internal/valuetype"
)

const ex = "http://example.org/"

func loadedStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	_, err := s.LoadYAML(context.Background(), strings.NewReader(peopleData))
	require.NoError(t, err)
	return s
}

func pattern(s, p, o string) *algebra.StatementPattern {
	return algebra.NewPattern(algebra.V(s), algebra.Const(iriTerm(p)), algebra.V(o))
}

func project(arg algebra.TupleExpr, names ...string) *algebra.Projection {
	elems := make([]algebra.ProjectionElem, len(names))
	for i, n := range names {
		elems[i] = algebra.ProjectionElem{Source: n, Target: n}
	}
	return &algebra.Projection{Arg: arg, Elems: elems}
}

func compileFor(t *testing.T, s *Store, tree algebra.TupleExpr) *querysql.Translation {
	t.Helper()
	c := querysql.New(s.Dialect(),
		querysql.WithResolver(s.Resolver(context.Background())),
		querysql.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	tr, ok, err := c.Compile(tree)
	require.NoError(t, err)
	require.True(t, ok)
	return tr
}

func TestSelect_FilterOnValue(t *testing.T) {
	s := loadedStore(t)
	tree := project(&algebra.Filter{
		Arg: &algebra.Join{
			Left:  pattern("p", "name", "n"),
			Right: pattern("p", "age", "a"),
		},
		Condition: &algebra.Compare{
			Left:  algebra.V("a"),
			Right: algebra.C(rdf.NewTypedLiteral("18", rdf.XSDInteger)),
			Op:    algebra.GT,
		},
	}, "n")

	got, err := s.Select(context.Background(), compileFor(t, s, tree))
	require.NoError(t, err)
	assert.Equal(t, []Binding{{"n": rdf.NewLiteral("Alice")}}, got)
}

func TestSelect_ValueReadVariable(t *testing.T) {
	s := loadedStore(t)
	tree := project(&algebra.Filter{
		Arg: pattern("p", "name", "n"),
		Condition: &algebra.Compare{
			Left:  algebra.V("n"),
			Right: algebra.C(rdf.NewLiteral("Alice")),
			Op:    algebra.NE,
		},
	}, "p", "n")

	tr := compileFor(t, s, tree)
	require.NotEmpty(t, tr.Columns["n"].IDAlias)

	got, err := s.Select(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, []Binding{{
		"p": rdf.IRI(ex + "bob"),
		"n": rdf.NewLangLiteral("Bob", "en"),
	}}, got)
}

func TestSelect_Optional(t *testing.T) {
	s := loadedStore(t)
	tree := project(&algebra.LeftJoin{
		Left:  pattern("p", "name", "n"),
		Right: pattern("p", "knows", "f"),
	}, "p", "f")

	got, err := s.Select(context.Background(), compileFor(t, s, tree))
	require.NoError(t, err)
	assert.ElementsMatch(t, []Binding{
		{"p": rdf.IRI(ex + "alice"), "f": rdf.IRI(ex + "bob")},
		{"p": rdf.IRI(ex + "bob")},
	}, got)
}

func TestSelect_SkipsDeleted(t *testing.T) {
	s := loadedStore(t)
	ctx := context.Background()

	n, err := s.DeleteTriple(ctx, rdf.IRI(ex+"alice"), iriTerm("knows"), rdf.IRI(ex+"bob"), nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, err := s.Select(ctx, compileFor(t, s, project(pattern("p", "knows", "f"), "p", "f")))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestSelect_DialectMismatch(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Select(context.Background(), &querysql.Translation{SQL: "SELECT 1", Dialect: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiled for postgres")
}

func mockStore(t *testing.T, driver string) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s, err := OpenDB(driver, db)
	require.NoError(t, err)
	return s, mock
}

func TestSelect_MaterialisesRows(t *testing.T) {
	s, mock := mockStore(t, DriverSQLite3)
	tr := &querysql.Translation{
		SQL:       "SELECT V1, V2, V2_ltype FROM somewhere",
		Dialect:   "sqlite",
		Variables: []string{"p", "x"},
		Columns: map[string]querysql.Column{
			"p": {Alias: "V1", Type: valuetype.Node},
			"x": {Alias: "V2", Type: valuetype.Decimal, TypeAlias: "V2_ltype"},
		},
	}

	mock.ExpectQuery(regexp.QuoteMeta(tr.SQL)).WillReturnRows(
		sqlmock.NewRows([]string{"V1", "V2", "V2_ltype"}).
			AddRow(int64(1), 1.98, nil).
			AddRow(nil, 2.5, int64(2)))
	nodeQuery := regexp.QuoteMeta("SELECT ntype, svalue, ltype, lang FROM nodes WHERE id = ?")
	mock.ExpectQuery(nodeQuery).WithArgs(int64(1)).WillReturnRows(
		sqlmock.NewRows([]string{"ntype", "svalue", "ltype", "lang"}).
			AddRow("uri", ex+"alice", nil, nil))
	mock.ExpectQuery(nodeQuery).WithArgs(int64(2)).WillReturnRows(
		sqlmock.NewRows([]string{"ntype", "svalue", "ltype", "lang"}).
			AddRow("uri", string(rdf.XSDDouble), nil, nil))

	got, err := s.Select(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, []Binding{
		{"p": rdf.IRI(ex + "alice"), "x": rdf.NewTypedLiteral("1.98", rdf.XSDDecimal)},
		{"x": rdf.NewTypedLiteral("2.5", rdf.XSDDouble)},
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelect_QueryError(t *testing.T) {
	s, mock := mockStore(t, DriverSQLite3)
	mock.ExpectQuery("SELECT 1").WillReturnError(sql.ErrConnDone)

	_, err := s.Select(context.Background(), &querysql.Translation{SQL: "SELECT 1", Dialect: "sqlite"})
	require.ErrorIs(t, err, sql.ErrConnDone)
}

func TestLookupNode_PostgresPlaceholders(t *testing.T) {
	s, mock := mockStore(t, DriverPostgres)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM nodes WHERE ntype = $1 AND svalue = $2 ORDER BY id LIMIT 1")).
		WithArgs("uri", foaf+"name").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, ok, err := s.LookupNode(context.Background(), iriTerm("name"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInternNode_PostgresReturningID(t *testing.T) {
	s, mock := mockStore(t, DriverPostgres)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM nodes WHERE ntype = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`(?s)INSERT INTO nodes .*VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8\) RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	id, err := s.InternNode(context.Background(), iriTerm("name"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	require.NoError(t, mock.ExpectationsWereMet())
}
