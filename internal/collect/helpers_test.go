package collect

import (
	"testing"

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

func integer(lex string) *algebra.ValueConstant {
	return algebra.C(rdf.NewTypedLiteral(lex, rdf.XSDInteger))
}

func decimal(lex string) *algebra.ValueConstant {
	return algebra.C(rdf.NewTypedLiteral(lex, rdf.XSDDecimal))
}

func str(lex string) *algebra.ValueConstant {
	return algebra.C(rdf.NewLiteral(lex))
}

func call(fn string, args ...algebra.ValueExpr) *algebra.FunctionCall {
	return &algebra.FunctionCall{URI: rdf.FN + fn, Args: args}
}

func mustDialect(t *testing.T, name string) *dialect.Dialect {
	t.Helper()
	d, err := dialect.Named(name)
	require.NoError(t, err)
	return d
}
