package algebra

import "github.com/roach88/sparqlsql/internal/rdf"

// Node is any algebra node.
type Node interface {
	algebraNode()
}

// TupleExpr is a node producing a set of solutions.
//
// This is a sealed interface - only types in this package implement it.
type TupleExpr interface {
	Node
	tupleExpr()
}

// Scope distinguishes default-graph patterns from GRAPH patterns.
type Scope int

const (
	DefaultContexts Scope = iota
	NamedContexts
)

// StatementPattern matches triples. Each slot is a Var that is either free
// or bound to a constant. A nil Context means "any graph" in default scope.
type StatementPattern struct {
	Subject   *Var
	Predicate *Var
	Object    *Var
	Context   *Var
	Scope     Scope
}

// Slots returns the non-nil pattern slots in subject, predicate, object,
// context order together with their column names.
func (p *StatementPattern) Slots() []Slot {
	slots := make([]Slot, 0, 4)
	for _, s := range []Slot{
		{Column: "subject", Var: p.Subject},
		{Column: "predicate", Var: p.Predicate},
		{Column: "object", Var: p.Object},
		{Column: "context", Var: p.Context},
	} {
		if s.Var != nil {
			slots = append(slots, s)
		}
	}
	return slots
}

// Slot is one position of a statement pattern.
type Slot struct {
	Column string
	Var    *Var
}

// Join is an inner join of two tuple expressions.
type Join struct {
	Left  TupleExpr
	Right TupleExpr
}

// LeftJoin is a SPARQL OPTIONAL. Condition may be nil.
type LeftJoin struct {
	Left      TupleExpr
	Right     TupleExpr
	Condition ValueExpr
}

// Union concatenates the solutions of both sides.
type Union struct {
	Left  TupleExpr
	Right TupleExpr
}

// ProjectionElem selects Source under the name Target.
type ProjectionElem struct {
	Source string
	Target string
}

// Projection restricts the solution to the listed variables. A Projection
// below the root is a nested SELECT.
type Projection struct {
	Arg   TupleExpr
	Elems []ProjectionElem
}

// Names returns the projected (target) variable names in order.
func (p *Projection) Names() []string {
	names := make([]string, len(p.Elems))
	for i, e := range p.Elems {
		names[i] = e.Target
	}
	return names
}

// MultiProjection is produced for CONSTRUCT templates.
type MultiProjection struct {
	Arg         TupleExpr
	Projections [][]ProjectionElem
}

// ExtensionElem binds Name to the value of Expr (BIND or SELECT expression).
type ExtensionElem struct {
	Name string
	Expr ValueExpr
}

// Extension adds computed bindings to each solution.
type Extension struct {
	Arg   TupleExpr
	Elems []ExtensionElem
}

// Filter removes solutions for which Condition is not true.
type Filter struct {
	Arg       TupleExpr
	Condition ValueExpr
}

// GroupElem binds Name to an aggregate over each group.
type GroupElem struct {
	Name     string
	Operator ValueExpr
}

// Group partitions solutions by the values of BindingNames.
type Group struct {
	Arg          TupleExpr
	BindingNames []string
	Elems        []GroupElem
}

// OrderElem is one sort key.
type OrderElem struct {
	Expr      ValueExpr
	Ascending bool
}

// Order sorts solutions.
type Order struct {
	Arg   TupleExpr
	Elems []OrderElem
}

// Slice applies OFFSET and LIMIT. A negative value means absent.
type Slice struct {
	Arg    TupleExpr
	Offset int64
	Limit  int64
}

// Distinct removes duplicate solutions.
type Distinct struct {
	Arg TupleExpr
}

// Reduced permits but does not require duplicate removal.
type Reduced struct {
	Arg TupleExpr
}

// Service evaluates Arg at a remote endpoint.
type Service struct {
	Arg        TupleExpr
	ServiceRef *Var
	Silent     bool
}

// Difference is SPARQL MINUS.
type Difference struct {
	Left  TupleExpr
	Right TupleExpr
}

// Intersection keeps solutions present on both sides.
type Intersection struct {
	Left  TupleExpr
	Right TupleExpr
}

// ArbitraryLengthPath is a property path with * or + repetition.
type ArbitraryLengthPath struct {
	Subject   *Var
	Path      TupleExpr
	Object    *Var
	Context   *Var
	MinLength int64
}

// ZeroLengthPath matches a node to itself.
type ZeroLengthPath struct {
	Subject *Var
	Object  *Var
	Context *Var
}

// DescribeOperator wraps a DESCRIBE query.
type DescribeOperator struct {
	Arg TupleExpr
}

// SingletonSet is the single empty solution, e.g. WHERE {}.
type SingletonSet struct{}

// EmptySet has no solutions.
type EmptySet struct{}

func (*StatementPattern) algebraNode()    {}
func (*Join) algebraNode()                {}
func (*LeftJoin) algebraNode()            {}
func (*Union) algebraNode()               {}
func (*Projection) algebraNode()          {}
func (*MultiProjection) algebraNode()     {}
func (*Extension) algebraNode()           {}
func (*Filter) algebraNode()              {}
func (*Group) algebraNode()               {}
func (*Order) algebraNode()               {}
func (*Slice) algebraNode()               {}
func (*Distinct) algebraNode()            {}
func (*Reduced) algebraNode()             {}
func (*Service) algebraNode()             {}
func (*Difference) algebraNode()          {}
func (*Intersection) algebraNode()        {}
func (*ArbitraryLengthPath) algebraNode() {}
func (*ZeroLengthPath) algebraNode()      {}
func (*DescribeOperator) algebraNode()    {}
func (*SingletonSet) algebraNode()        {}
func (*EmptySet) algebraNode()            {}

func (*StatementPattern) tupleExpr()    {}
func (*Join) tupleExpr()                {}
func (*LeftJoin) tupleExpr()            {}
func (*Union) tupleExpr()               {}
func (*Projection) tupleExpr()          {}
func (*MultiProjection) tupleExpr()     {}
func (*Extension) tupleExpr()           {}
func (*Filter) tupleExpr()              {}
func (*Group) tupleExpr()               {}
func (*Order) tupleExpr()               {}
func (*Slice) tupleExpr()               {}
func (*Distinct) tupleExpr()            {}
func (*Reduced) tupleExpr()             {}
func (*Service) tupleExpr()             {}
func (*Difference) tupleExpr()          {}
func (*Intersection) tupleExpr()        {}
func (*ArbitraryLengthPath) tupleExpr() {}
func (*ZeroLengthPath) tupleExpr()      {}
func (*DescribeOperator) tupleExpr()    {}
func (*SingletonSet) tupleExpr()        {}
func (*EmptySet) tupleExpr()            {}

// NewPattern is a convenience constructor for a default-graph pattern.
func NewPattern(s, p, o *Var) *StatementPattern {
	return &StatementPattern{Subject: s, Predicate: p, Object: o}
}

// Const returns an anonymous Var bound to a constant, the way parsers
// represent constants in pattern positions.
func Const(t rdf.Term) *Var {
	return &Var{Name: "_const_" + t.String(), Value: t, Anonymous: true}
}
