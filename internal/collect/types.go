package collect

import (
	"github.com/roach88/sparqlsql/internal/algebra"
	"github.com/roach88/sparqlsql/internal/dialect"
	"github.com/roach88/sparqlsql/internal/rdf"
	"github.com/roach88/sparqlsql/internal/valuetype"
)

// TermType returns the value type a constant term is compared as. IRIs and
// blank nodes are Node; literals follow their datatype, unknown datatypes
// being compared by lexical form.
func TermType(t rdf.Term) valuetype.ValueType {
	lit, ok := t.(rdf.Literal)
	if !ok {
		return valuetype.Node
	}
	switch lit.Datatype {
	case rdf.XSDInteger, rdf.XSDInt, rdf.XSDLong, rdf.XSDShort, rdf.XSDByte:
		return valuetype.Int
	case rdf.XSDDecimal:
		return valuetype.Decimal
	case rdf.XSDDouble, rdf.XSDFloat:
		return valuetype.Double
	case rdf.XSDBoolean:
		return valuetype.Bool
	case rdf.XSDDateTime, rdf.XSDDate:
		return valuetype.Date
	}
	return valuetype.String
}

// TypeOf returns the value type expr produces. computed maps the names of
// extension and aggregate variables to their own types; any other unbound
// variable is a Node. TypeOf never fails: incompatible operands surface
// when the caller coerces them through OperandTypes.
func TypeOf(expr algebra.ValueExpr, reg dialect.Registry, computed map[string]valuetype.ValueType) valuetype.ValueType {
	switch e := expr.(type) {
	case *algebra.Var:
		if e.HasValue() {
			return TermType(e.Value)
		}
		if t, ok := computed[e.Name]; ok {
			return t
		}
		return valuetype.Node
	case *algebra.ValueConstant:
		return TermType(e.Value)
	case *algebra.Compare, *algebra.And, *algebra.Or, *algebra.Not,
		*algebra.Bound, *algebra.IsURI, *algebra.IsBNode, *algebra.IsLiteral,
		*algebra.SameTerm, *algebra.LangMatches, *algebra.Regex, *algebra.Like,
		*algebra.Exists:
		return valuetype.Bool
	case *algebra.MathExpr:
		t, err := FindOperandTypes(e, reg, computed).Coerce()
		if err != nil || t == valuetype.Node {
			return valuetype.Double
		}
		if e.Op == algebra.Divide && t == valuetype.Int {
			return valuetype.Decimal
		}
		return t
	case *algebra.FunctionCall:
		if f, err := reg.Lookup(e.URI); err == nil {
			return f.Returns
		}
		return valuetype.String
	case *algebra.Str, *algebra.Lang, *algebra.Label, *algebra.LocalName,
		*algebra.Datatype, *algebra.GroupConcat:
		return valuetype.String
	case *algebra.If:
		t, err := valuetype.Coerce(TypeOf(e.Result, reg, computed), TypeOf(e.Alternative, reg, computed))
		if err != nil {
			return valuetype.String
		}
		return t
	case *algebra.Coalesce:
		types := make([]valuetype.ValueType, len(e.Args))
		for i, a := range e.Args {
			types[i] = TypeOf(a, reg, computed)
		}
		t, err := valuetype.CoerceAll(types)
		if err != nil {
			return valuetype.String
		}
		return t
	case *algebra.Count:
		return valuetype.Int
	case *algebra.Sum:
		return numericOr(TypeOf(e.Arg, reg, computed), valuetype.Double)
	case *algebra.Avg:
		if TypeOf(e.Arg, reg, computed) == valuetype.Decimal {
			return valuetype.Decimal
		}
		return valuetype.Double
	case *algebra.Min:
		return orderable(TypeOf(e.Arg, reg, computed))
	case *algebra.Max:
		return orderable(TypeOf(e.Arg, reg, computed))
	case *algebra.Sample:
		return TypeOf(e.Arg, reg, computed)
	}
	return valuetype.Node
}

func numericOr(t, fallback valuetype.ValueType) valuetype.ValueType {
	if t.IsNumeric() {
		return t
	}
	return fallback
}

// orderable maps an untyped MIN/MAX argument to Double; typed arguments keep
// their type.
func orderable(t valuetype.ValueType) valuetype.ValueType {
	if t == valuetype.Node {
		return valuetype.Double
	}
	return t
}

// OperandTypes holds the value type of each syntactic operand of one
// expression.
type OperandTypes struct {
	Types []valuetype.ValueType
}

// Coerce folds the operand types into one common type.
func (o *OperandTypes) Coerce() (valuetype.ValueType, error) {
	return valuetype.CoerceAll(o.Types)
}

// FindOperandTypes types the operands of a comparison, arithmetic
// expression or function call. Any other expression is its own single
// operand.
func FindOperandTypes(expr algebra.ValueExpr, reg dialect.Registry, computed map[string]valuetype.ValueType) *OperandTypes {
	var operands []algebra.ValueExpr
	switch e := expr.(type) {
	case *algebra.Compare:
		operands = []algebra.ValueExpr{e.Left, e.Right}
	case *algebra.MathExpr:
		operands = []algebra.ValueExpr{e.Left, e.Right}
	case *algebra.FunctionCall:
		operands = e.Args
	default:
		operands = []algebra.ValueExpr{expr}
	}

	ot := &OperandTypes{Types: make([]valuetype.ValueType, len(operands))}
	for i, op := range operands {
		ot.Types[i] = TypeOf(op, reg, computed)
	}
	return ot
}

// ComputedTypes types the extension and aggregate variables of a scope.
// Extensions are typed in evaluation order so later bindings may refer to
// earlier ones.
func ComputedTypes(t algebra.TupleExpr, reg dialect.Registry) map[string]valuetype.ValueType {
	computed := map[string]valuetype.ValueType{}
	for _, g := range FindGroup(t).Elems {
		computed[g.Name] = TypeOf(g.Operator, reg, computed)
	}
	for _, e := range FindExtensions(t) {
		computed[e.Name] = TypeOf(e.Expr, reg, computed)
	}
	return computed
}

// FindLiteralDonor returns the variable whose literal datatype and language
// a computed value inherits: the right-most variable of expr, looking into a
// function call only when the function returns a string. Any other
// construct has no donor.
func FindLiteralDonor(expr algebra.ValueExpr, reg dialect.Registry) *algebra.Var {
	switch e := expr.(type) {
	case *algebra.Var:
		if e.HasValue() {
			return nil
		}
		return e
	case *algebra.FunctionCall:
		f, err := reg.Lookup(e.URI)
		if err != nil || f.Returns != valuetype.String {
			return nil
		}
		for i := len(e.Args) - 1; i >= 0; i-- {
			if v := FindLiteralDonor(e.Args[i], reg); v != nil {
				return v
			}
		}
	}
	return nil
}
