package collect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/sparqlsql/internal/algebra"
)

func TestFindSlice_Default(t *testing.T) {
	limit, offset := FindSlice(pattern("p", "name", "name"))

	assert.Equal(t, int64(-1), limit)
	assert.Equal(t, int64(-1), offset)
}

func TestFindSlice_AboveRootProjection(t *testing.T) {
	tree := &algebra.Slice{
		Limit:  10,
		Offset: 20,
		Arg: &algebra.Distinct{Arg: &algebra.Projection{
			Arg:   pattern("p", "name", "name"),
			Elems: []algebra.ProjectionElem{{Source: "name", Target: "name"}},
		}},
	}

	limit, offset := FindSlice(tree)

	assert.Equal(t, int64(10), limit)
	assert.Equal(t, int64(20), offset)
}

func TestFindSlice_StopsAtNestedProjection(t *testing.T) {
	sub := &algebra.Projection{
		Arg:   &algebra.Slice{Arg: pattern("p", "knows", "q"), Limit: 1, Offset: -1},
		Elems: []algebra.ProjectionElem{{Source: "p", Target: "p"}},
	}
	tree := &algebra.Projection{
		Arg:   &algebra.Join{Left: pattern("p", "name", "name"), Right: sub},
		Elems: []algebra.ProjectionElem{{Source: "name", Target: "name"}},
	}

	limit, offset := FindSlice(tree)

	assert.Equal(t, int64(-1), limit, "the subselect's LIMIT belongs to the subselect")
	assert.Equal(t, int64(-1), offset)
}

func TestFindSlice_StopsAtUnion(t *testing.T) {
	tree := &algebra.Join{
		Left: pattern("p", "name", "name"),
		Right: &algebra.Union{
			Left:  &algebra.Slice{Arg: pattern("p", "knows", "x"), Limit: 3, Offset: -1},
			Right: pattern("p", "interest", "x"),
		},
	}

	limit, _ := FindSlice(tree)

	assert.Equal(t, int64(-1), limit)
}

func TestFindDistinct(t *testing.T) {
	body := pattern("p", "name", "name")

	assert.False(t, FindDistinct(body))
	assert.True(t, FindDistinct(&algebra.Distinct{Arg: body}))
	assert.True(t, FindDistinct(&algebra.Reduced{Arg: body}))
}

func TestFindGroup(t *testing.T) {
	tree := &algebra.Projection{
		Arg: &algebra.Group{
			Arg:          pattern("p", "age", "age"),
			BindingNames: []string{"p"},
			Elems:        []algebra.GroupElem{{Name: "total", Operator: &algebra.Sum{Arg: algebra.V("age")}}},
		},
		Elems: []algebra.ProjectionElem{{Source: "p", Target: "p"}, {Source: "total", Target: "total"}},
	}

	g := FindGroup(tree)

	assert.True(t, g.Found)
	assert.Equal(t, []string{"p"}, g.BindingNames)
	assert.Equal(t, []string{"total"}, g.Names())
}

func TestFindGroup_NotFound(t *testing.T) {
	g := FindGroup(pattern("p", "name", "name"))

	assert.False(t, g.Found)
	assert.Empty(t, g.Elems)
}

func TestFindOrder(t *testing.T) {
	elems := []algebra.OrderElem{{Expr: algebra.V("name"), Ascending: false}}
	tree := &algebra.Projection{
		Arg:   &algebra.Order{Arg: pattern("p", "name", "name"), Elems: elems},
		Elems: []algebra.ProjectionElem{{Source: "name", Target: "name"}},
	}

	assert.Equal(t, elems, FindOrder(tree))
}

func TestFindOrder_OnlyInScope(t *testing.T) {
	tree := &algebra.Union{
		Left:  &algebra.Projection{Arg: &algebra.Order{Arg: pattern("p", "name", "n"), Elems: []algebra.OrderElem{{Expr: algebra.V("n"), Ascending: true}}}},
		Right: pattern("p", "nick", "n"),
	}
	join := &algebra.Join{Left: pattern("p", "age", "a"), Right: tree}

	assert.Empty(t, FindOrder(join))
}

func TestFindExtensions_DropsSelfAlias(t *testing.T) {
	tree := &algebra.Extension{
		Arg: &algebra.Extension{
			Arg:   pattern("p", "name", "x"),
			Elems: []algebra.ExtensionElem{{Name: "upper", Expr: call("upper-case", algebra.V("x"))}},
		},
		Elems: []algebra.ExtensionElem{
			{Name: "x", Expr: algebra.V("x")},
			{Name: "y", Expr: algebra.V("x")},
		},
	}

	elems := FindExtensions(tree)

	var names []string
	for _, e := range elems {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"upper", "y"}, names, "inner extension first, ?x := ?x elided")
}

func TestFindPatterns_StopsAtBoundaries(t *testing.T) {
	tree := &algebra.Join{
		Left: pattern("p", "name", "name"),
		Right: &algebra.Filter{
			Arg:       pattern("p", "age", "age"),
			Condition: &algebra.Exists{Subquery: pattern("p", "knows", "q")},
		},
	}

	assert.Len(t, FindPatterns(tree), 2)
}
