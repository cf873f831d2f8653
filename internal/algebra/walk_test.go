package algebra

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/sparqlsql/internal/rdf"
)

func TestChildren_SkipsNilSlots(t *testing.T) {
	p := NewPattern(V("s"), Const(rdf.IRI("http://xmlns.com/foaf/0.1/name")), V("o"))

	kids := Children(p)

	assert.Len(t, kids, 3, "nil context must not be returned")
}

func TestChildren_LeftJoinCondition(t *testing.T) {
	lj := &LeftJoin{
		Left:  NewPattern(V("a"), V("p"), V("b")),
		Right: NewPattern(V("b"), V("q"), V("c")),
	}
	assert.Len(t, Children(lj), 2)

	lj.Condition = &Bound{Arg: V("c")}
	assert.Len(t, Children(lj), 3)
}

func TestWalk_PreOrderAndPrune(t *testing.T) {
	tree := &Filter{
		Arg:       NewPattern(V("s"), V("p"), V("o")),
		Condition: &Compare{Left: V("o"), Right: C(rdf.NewTypedLiteral("4", rdf.XSDInteger)), Op: GT},
	}

	var kinds []string
	Walk(tree, func(n Node) bool {
		switch n.(type) {
		case *Filter:
			kinds = append(kinds, "filter")
		case *StatementPattern:
			kinds = append(kinds, "pattern")
			return false
		case *Compare:
			kinds = append(kinds, "compare")
		case *Var:
			kinds = append(kinds, "var")
		case *ValueConstant:
			kinds = append(kinds, "const")
		}
		return true
	})

	assert.Equal(t, []string{"filter", "pattern", "compare", "var", "const"}, kinds)
}

func TestVars_FirstOccurrenceOrder(t *testing.T) {
	tree := &Join{
		Left:  NewPattern(V("p"), Const(rdf.IRI("http://xmlns.com/foaf/0.1/name")), V("name")),
		Right: NewPattern(V("p"), Const(rdf.IRI("http://xmlns.com/foaf/0.1/age")), V("age")),
	}

	assert.Equal(t, []string{"p", "name", "age"}, Vars(tree))
}

func TestVars_SkipsAnonymous(t *testing.T) {
	tree := NewPattern(&Var{Name: "_anon_b0", Anonymous: true}, V("p"), V("o"))

	assert.Equal(t, []string{"p", "o"}, Vars(tree))
}

func TestIsAggregate(t *testing.T) {
	assert.True(t, IsAggregate(&Count{}))
	assert.True(t, IsAggregate(&GroupConcat{Arg: V("x")}))
	assert.False(t, IsAggregate(V("x")))
	assert.False(t, IsAggregate(&Str{Arg: V("x")}))
}
