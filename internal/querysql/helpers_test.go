package querysql

import (
	"io"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlsql/internal/algebra"
	"github.com/roach88/sparqlsql/internal/dialect"
	"github.com/roach88/sparqlsql/internal/rdf"
)

const foaf = "http://xmlns.com/foaf/0.1/"

func iri(local string) *algebra.Var {
	return algebra.Const(rdf.IRI(foaf + local))
}

func pattern(s, p, o string) *algebra.StatementPattern {
	return algebra.NewPattern(algebra.V(s), iri(p), algebra.V(o))
}

func project(arg algebra.TupleExpr, names ...string) *algebra.Projection {
	elems := make([]algebra.ProjectionElem, len(names))
	for i, n := range names {
		elems[i] = algebra.ProjectionElem{Source: n, Target: n}
	}
	return &algebra.Projection{Arg: arg, Elems: elems}
}

func str(lex string) *algebra.ValueConstant {
	return algebra.C(rdf.NewLiteral(lex))
}

func integer(lex string) *algebra.ValueConstant {
	return algebra.C(rdf.NewTypedLiteral(lex, rdf.XSDInteger))
}

func decimal(lex string) *algebra.ValueConstant {
	return algebra.C(rdf.NewTypedLiteral(lex, rdf.XSDDecimal))
}

func newCompiler(t *testing.T, name string, opts ...Option) *Compiler {
	t.Helper()
	d, err := dialect.Named(name)
	require.NoError(t, err)
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(d, opts...)
}

func mustCompile(t *testing.T, c *Compiler, tree algebra.TupleExpr) *Translation {
	t.Helper()
	tr, ok, err := c.Compile(tree)
	require.NoError(t, err)
	require.True(t, ok, "expected a native translation")
	return tr
}

func assertGolden(t *testing.T, name, sql string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"))
	g.Assert(t, name, []byte(sql))
}

type mapResolver map[rdf.Term]int64

func (m mapResolver) LookupNode(t rdf.Term) (int64, bool) {
	id, ok := m[t]
	return id, ok
}
