package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/sparqlsql/internal/algebra"
	"github.com/roach88/sparqlsql/internal/valuetype"
)

// namer hands out table and column aliases. One namer is shared by every
// scope of a compilation so aliases never collide across subqueries.
type namer struct {
	counters map[string]int
}

func newNamer() *namer {
	return &namer{counters: map[string]int{}}
}

// next returns prefix followed by the next number for that prefix.
func (n *namer) next(prefix string) string {
	n.counters[prefix]++
	return fmt.Sprintf("%s%d", prefix, n.counters[prefix])
}

type kind int

const (
	// nodeKind variables hold node ids.
	nodeKind kind = iota
	// valueKind variables hold a computed SQL value.
	valueKind
)

// Variable is a query variable as seen by one scope.
type Variable struct {
	Name  string
	Alias string
	kind  kind

	// Exprs lists every expression the variable is bound to, first binding
	// first. Later bindings are constrained equal to the first.
	Exprs []string

	// Nodes is the alias of the nodes row holding the variable's value, set
	// when some expression consumes the value rather than the id.
	Nodes string

	// Type is the value class for value variables.
	Type valuetype.ValueType

	// LiteralType and LiteralLang hold the datatype id and language tag of
	// a value variable, copied from its literal donor. Empty when unknown.
	LiteralType string
	LiteralLang string

	anonymous bool
	fragment  *Fragment

	// nullable is set for exports a nested scope may leave unbound, such
	// as a union column padded with NULL in one branch.
	nullable bool
	// member is the subquery the variable was first bound by, if any.
	member subquery
}

// IDExpr is the node id of a node variable.
func (v *Variable) IDExpr() string {
	if v.Nodes != "" {
		return v.Nodes + ".id"
	}
	return v.Exprs[0]
}

// nodeColumn reads col of the variable's node, through the nodes join when
// there is one and a correlated lookup otherwise.
func (v *Variable) nodeColumn(col string) string {
	if v.Nodes != "" {
		return v.Nodes + "." + col
	}
	return fmt.Sprintf("(SELECT %s FROM nodes WHERE id = %s)", col, v.Exprs[0])
}

// member is one relation in a fragment's FROM list.
type member interface {
	from() string
}

type nodesJoin struct {
	column string
	alias  string
}

func renderNodesJoins(base string, joins []nodesJoin) string {
	if len(joins) == 0 {
		return base
	}
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(base)
	for _, j := range joins {
		fmt.Fprintf(&b, " INNER JOIN nodes AS %s ON %s = %s.id", j.alias, j.column, j.alias)
	}
	b.WriteString(")")
	return b.String()
}

// Pattern is one triples row of the query.
type Pattern struct {
	Name   string
	Source *algebra.StatementPattern
	joins  []nodesJoin
}

func (p *Pattern) from() string {
	return renderNodesJoins("triples AS "+p.Name, p.joins)
}

func (p *Pattern) column(col string) string {
	return p.Name + "." + col
}

// Placement says where a fragment's conditions are rendered.
type Placement int

const (
	// PlaceJoin renders conditions in the ON clause of a LEFT JOIN.
	PlaceJoin Placement = iota
	// PlaceWhere renders conditions in WHERE.
	PlaceWhere
	// PlaceHaving renders filter conditions in HAVING; structural
	// conditions stay in WHERE.
	PlaceHaving
)

func (p Placement) String() string {
	switch p {
	case PlaceJoin:
		return "JOIN"
	case PlaceWhere:
		return "WHERE"
	case PlaceHaving:
		return "HAVING"
	}
	return fmt.Sprintf("Placement(%d)", int(p))
}

// Fragment is a group of relations joined together with their conditions.
// The first fragment of a scope is inner joined; every other fragment is
// attached with a LEFT JOIN.
type Fragment struct {
	Placement Placement
	Optional  bool

	members []member
	// conds are structural: deleted rows, constants, dataset restrictions
	// and equality between repeated variables.
	conds []string
	// filters and having are rendered once the variable table is complete.
	filters []algebra.ValueExpr
	having  []algebra.ValueExpr
}

func (f *Fragment) add(m member) {
	f.members = append(f.members, m)
}

// fromList renders the fragment's members. Inner joins inside a LEFT JOIN
// are spelled INNER JOIN ... ON TRUE so the ON clause binds to the outer
// join.
func (f *Fragment) fromList() string {
	parts := make([]string, len(f.members))
	for i, m := range f.members {
		parts[i] = m.from()
	}
	if f.Optional {
		if len(parts) == 1 {
			return parts[0]
		}
		var b strings.Builder
		b.WriteString("(")
		b.WriteString(parts[0])
		for _, p := range parts[1:] {
			b.WriteString(" INNER JOIN ")
			b.WriteString(p)
			b.WriteString(" ON TRUE")
		}
		b.WriteString(")")
		return b.String()
	}
	return strings.Join(parts, " CROSS JOIN ")
}
