package collect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/sparqlsql/internal/algebra"
	"github.com/roach88/sparqlsql/internal/valuetype"
)

func TestFindValueNeeds_PatternOnly(t *testing.T) {
	reg := mustDialect(t, "sqlite")

	needs := FindValueNeeds(pattern("p", "name", "name"), reg)

	assert.Empty(t, needs.Names())
	assert.False(t, needs.Needed("name"))
}

func TestFindValueNeeds_FilterEquality(t *testing.T) {
	reg := mustDialect(t, "sqlite")
	tree := &algebra.Filter{
		Arg:       pattern("p", "name", "name"),
		Condition: &algebra.Compare{Left: algebra.V("name"), Right: str("Bob"), Op: algebra.EQ},
	}

	needs := FindValueNeeds(tree, reg)

	assert.True(t, needs.Needed("name"))
	assert.Equal(t, valuetype.String, needs.Type("name"))
	assert.False(t, needs.Needed("p"))
}

func TestFindValueNeeds_NumericComparison(t *testing.T) {
	reg := mustDialect(t, "sqlite")
	tree := &algebra.Filter{
		Arg:       pattern("p", "age", "age"),
		Condition: &algebra.Compare{Left: algebra.V("age"), Right: integer("18"), Op: algebra.GT},
	}

	needs := FindValueNeeds(tree, reg)

	assert.Equal(t, valuetype.Int, needs.Type("age"))
}

func TestFindValueNeeds_OrderBy(t *testing.T) {
	reg := mustDialect(t, "sqlite")
	tree := &algebra.Order{
		Arg:   pattern("p", "name", "name"),
		Elems: []algebra.OrderElem{{Expr: algebra.V("name"), Ascending: true}},
	}

	needs := FindValueNeeds(tree, reg)

	assert.True(t, needs.Needed("name"))
	assert.Equal(t, valuetype.Node, needs.Type("name"))
}

func TestFindValueNeeds_IdentityChecks(t *testing.T) {
	reg := mustDialect(t, "sqlite")
	tree := &algebra.Filter{
		Arg: &algebra.Join{Left: pattern("p", "knows", "a"), Right: pattern("p", "knows", "b")},
		Condition: &algebra.And{
			Left:  &algebra.Bound{Arg: algebra.V("a")},
			Right: &algebra.Not{Arg: &algebra.SameTerm{Left: algebra.V("a"), Right: algebra.V("b")}},
		},
	}

	needs := FindValueNeeds(tree, reg)

	assert.Empty(t, needs.Names(), "BOUND and SAMETERM work on node ids")
}

func TestFindValueNeeds_Extensions(t *testing.T) {
	reg := mustDialect(t, "sqlite")
	tree := &algebra.Extension{
		Arg: pattern("p", "name", "x"),
		Elems: []algebra.ExtensionElem{
			{Name: "alias", Expr: algebra.V("p")},
			{Name: "upper", Expr: call("upper-case", algebra.V("x"))},
		},
	}

	needs := FindValueNeeds(tree, reg)

	assert.False(t, needs.Needed("p"), "a plain rebinding keeps the node id")
	assert.True(t, needs.Needed("x"))
	assert.Equal(t, valuetype.String, needs.Type("x"))
}

func TestFindValueNeeds_Aggregates(t *testing.T) {
	reg := mustDialect(t, "postgres")
	tree := &algebra.Group{
		Arg:          &algebra.Join{Left: pattern("p", "age", "age"), Right: pattern("p", "knows", "q")},
		BindingNames: []string{"p"},
		Elems: []algebra.GroupElem{
			{Name: "total", Operator: &algebra.Sum{Arg: algebra.V("age")}},
			{Name: "friends", Operator: &algebra.Count{Arg: algebra.V("q")}},
		},
	}

	needs := FindValueNeeds(tree, reg)

	assert.Equal(t, valuetype.Double, needs.Type("age"))
	assert.False(t, needs.Needed("p"), "GROUP BY keys group on node ids")
	assert.Equal(t, []string{"age", "q"}, needs.Names())
}

func TestFindValueNeeds_StopsAtSubselect(t *testing.T) {
	reg := mustDialect(t, "sqlite")
	sub := &algebra.Projection{
		Arg: &algebra.Filter{
			Arg:       pattern("p", "name", "name"),
			Condition: &algebra.Compare{Left: algebra.V("name"), Right: str("Bob"), Op: algebra.EQ},
		},
		Elems: []algebra.ProjectionElem{{Source: "p", Target: "p"}},
	}
	tree := &algebra.Projection{
		Arg:   &algebra.Join{Left: pattern("p", "age", "age"), Right: sub},
		Elems: []algebra.ProjectionElem{{Source: "age", Target: "age"}},
	}

	needs := FindValueNeeds(tree, reg)

	assert.False(t, needs.Needed("name"))
}

func TestFindValueNeeds_FirstTypeWins(t *testing.T) {
	reg := mustDialect(t, "sqlite")
	tree := &algebra.Order{
		Arg: &algebra.Filter{
			Arg:       pattern("p", "name", "name"),
			Condition: &algebra.Compare{Left: algebra.V("name"), Right: str("Bob"), Op: algebra.NE},
		},
		Elems: []algebra.OrderElem{{Expr: algebra.V("name"), Ascending: true}},
	}

	needs := FindValueNeeds(tree, reg)

	assert.Equal(t, valuetype.String, needs.Type("name"))
}
