package algebra

import "github.com/roach88/sparqlsql/internal/rdf"

// ValueExpr is a node producing a single value per solution.
//
// This is a sealed interface - only types in this package implement it.
type ValueExpr interface {
	Node
	valueExpr()
}

// Var references a variable. A Var with a non-nil Value is a constant in a
// pattern position; Anonymous marks variables introduced by the parser
// (blank nodes, constants) that are never projected.
type Var struct {
	Name      string
	Value     rdf.Term
	Anonymous bool
}

// V is shorthand for a named, unbound variable.
func V(name string) *Var { return &Var{Name: name} }

// HasValue reports whether the variable is bound to a constant.
func (v *Var) HasValue() bool { return v != nil && v.Value != nil }

// ValueConstant is a literal or IRI inside an expression.
type ValueConstant struct {
	Value rdf.Term
}

// C is shorthand for a constant expression.
func C(t rdf.Term) *ValueConstant { return &ValueConstant{Value: t} }

// CompareOp is a comparison operator.
type CompareOp string

const (
	EQ CompareOp = "="
	NE CompareOp = "!="
	LT CompareOp = "<"
	LE CompareOp = "<="
	GT CompareOp = ">"
	GE CompareOp = ">="
)

// Compare compares two values.
type Compare struct {
	Left  ValueExpr
	Right ValueExpr
	Op    CompareOp
}

// MathOp is an arithmetic operator.
type MathOp string

const (
	Plus     MathOp = "+"
	Minus    MathOp = "-"
	Multiply MathOp = "*"
	Divide   MathOp = "/"
)

// MathExpr is a binary arithmetic expression.
type MathExpr struct {
	Left  ValueExpr
	Right ValueExpr
	Op    MathOp
}

// And is logical conjunction.
type And struct{ Left, Right ValueExpr }

// Or is logical disjunction.
type Or struct{ Left, Right ValueExpr }

// Not is logical negation.
type Not struct{ Arg ValueExpr }

// FunctionCall invokes a function by URI, e.g. fn:upper-case for UCASE.
type FunctionCall struct {
	URI  string
	Args []ValueExpr
}

// Str is STR(arg).
type Str struct{ Arg ValueExpr }

// Lang is LANG(arg).
type Lang struct{ Arg ValueExpr }

// Datatype is DATATYPE(arg).
type Datatype struct{ Arg ValueExpr }

// Label is the lexical form of a literal.
type Label struct{ Arg ValueExpr }

// LocalName is the local part of an IRI.
type LocalName struct{ Arg ValueExpr }

// Regex is REGEX(arg, pattern, flags). Flags may be nil.
type Regex struct {
	Arg     ValueExpr
	Pattern ValueExpr
	Flags   ValueExpr
}

// Like is a SQL-style LIKE match used by some parsers for STRSTARTS-like
// rewrites.
type Like struct {
	Arg           ValueExpr
	Pattern       string
	CaseSensitive bool
}

// LangMatches is LANGMATCHES(tag, range).
type LangMatches struct{ Left, Right ValueExpr }

// Bound is BOUND(?var).
type Bound struct{ Arg *Var }

// IsURI is isIRI(arg).
type IsURI struct{ Arg ValueExpr }

// IsBNode is isBlank(arg).
type IsBNode struct{ Arg ValueExpr }

// IsLiteral is isLiteral(arg).
type IsLiteral struct{ Arg ValueExpr }

// SameTerm is sameTerm(left, right).
type SameTerm struct{ Left, Right ValueExpr }

// If is IF(condition, result, alternative).
type If struct {
	Condition   ValueExpr
	Result      ValueExpr
	Alternative ValueExpr
}

// Coalesce is COALESCE(args...).
type Coalesce struct{ Args []ValueExpr }

// Exists is EXISTS { subquery }, NOT EXISTS being Not(Exists).
type Exists struct{ Subquery TupleExpr }

// Count is COUNT([DISTINCT] arg); a nil Arg means COUNT(*).
type Count struct {
	Arg      ValueExpr
	Distinct bool
}

// Sum is SUM([DISTINCT] arg).
type Sum struct {
	Arg      ValueExpr
	Distinct bool
}

// Avg is AVG([DISTINCT] arg).
type Avg struct {
	Arg      ValueExpr
	Distinct bool
}

// Min is MIN(arg).
type Min struct{ Arg ValueExpr }

// Max is MAX(arg).
type Max struct{ Arg ValueExpr }

// Sample is SAMPLE(arg).
type Sample struct{ Arg ValueExpr }

// GroupConcat is GROUP_CONCAT([DISTINCT] arg; SEPARATOR=sep).
type GroupConcat struct {
	Arg       ValueExpr
	Separator string
	Distinct  bool
}

// IsAggregate reports whether e is an aggregate operator.
func IsAggregate(e ValueExpr) bool {
	switch e.(type) {
	case *Count, *Sum, *Avg, *Min, *Max, *Sample, *GroupConcat:
		return true
	}
	return false
}

func (*Var) algebraNode()           {}
func (*ValueConstant) algebraNode() {}
func (*Compare) algebraNode()       {}
func (*MathExpr) algebraNode()      {}
func (*And) algebraNode()           {}
func (*Or) algebraNode()            {}
func (*Not) algebraNode()           {}
func (*FunctionCall) algebraNode()  {}
func (*Str) algebraNode()           {}
func (*Lang) algebraNode()          {}
func (*Datatype) algebraNode()      {}
func (*Label) algebraNode()         {}
func (*LocalName) algebraNode()     {}
func (*Regex) algebraNode()         {}
func (*Like) algebraNode()          {}
func (*LangMatches) algebraNode()   {}
func (*Bound) algebraNode()         {}
func (*IsURI) algebraNode()         {}
func (*IsBNode) algebraNode()       {}
func (*IsLiteral) algebraNode()     {}
func (*SameTerm) algebraNode()      {}
func (*If) algebraNode()            {}
func (*Coalesce) algebraNode()      {}
func (*Exists) algebraNode()        {}
func (*Count) algebraNode()         {}
func (*Sum) algebraNode()           {}
func (*Avg) algebraNode()           {}
func (*Min) algebraNode()           {}
func (*Max) algebraNode()           {}
func (*Sample) algebraNode()        {}
func (*GroupConcat) algebraNode()   {}

func (*Var) valueExpr()           {}
func (*ValueConstant) valueExpr() {}
func (*Compare) valueExpr()       {}
func (*MathExpr) valueExpr()      {}
func (*And) valueExpr()           {}
func (*Or) valueExpr()            {}
func (*Not) valueExpr()           {}
func (*FunctionCall) valueExpr()  {}
func (*Str) valueExpr()           {}
func (*Lang) valueExpr()          {}
func (*Datatype) valueExpr()      {}
func (*Label) valueExpr()         {}
func (*LocalName) valueExpr()     {}
func (*Regex) valueExpr()         {}
func (*Like) valueExpr()          {}
func (*LangMatches) valueExpr()   {}
func (*Bound) valueExpr()         {}
func (*IsURI) valueExpr()         {}
func (*IsBNode) valueExpr()       {}
func (*IsLiteral) valueExpr()     {}
func (*SameTerm) valueExpr()      {}
func (*If) valueExpr()            {}
func (*Coalesce) valueExpr()      {}
func (*Exists) valueExpr()        {}
func (*Count) valueExpr()         {}
func (*Sum) valueExpr()           {}
func (*Avg) valueExpr()           {}
func (*Min) valueExpr()           {}
func (*Max) valueExpr()           {}
func (*Sample) valueExpr()        {}
func (*GroupConcat) valueExpr()   {}
