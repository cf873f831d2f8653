package collect

import (
	"github.com/roach88/sparqlsql/internal/algebra"
	"github.com/roach88/sparqlsql/internal/dialect"
	"github.com/roach88/sparqlsql/internal/rdf"
)

// Supported reports whether t can be translated natively for d.
func Supported(t algebra.Node, d *dialect.Dialect) bool {
	ok, _ := SupportReport(t, d, d)
	return ok
}

// SupportReport walks the whole tree, nested subqueries included, and
// returns false with the first node that has no faithful SQL translation.
// Function support is answered by reg, which is usually d itself.
func SupportReport(t algebra.Node, d *dialect.Dialect, reg dialect.Registry) (bool, algebra.Node) {
	var offender algebra.Node
	algebra.Walk(t, func(n algebra.Node) bool {
		if offender != nil {
			return false
		}
		if !supportedNode(n, d, reg) {
			offender = n
			return false
		}
		return true
	})
	return offender == nil, offender
}

func supportedNode(n algebra.Node, d *dialect.Dialect, reg dialect.Registry) bool {
	switch n := n.(type) {
	case *algebra.ArbitraryLengthPath, *algebra.ZeroLengthPath, *algebra.Service,
		*algebra.MultiProjection, *algebra.Difference, *algebra.Intersection,
		*algebra.Sample, *algebra.DescribeOperator, *algebra.Datatype,
		*algebra.EmptySet:
		return false
	case *algebra.Count:
		return d.Arrays
	case *algebra.GroupConcat:
		return d.GroupConcat != ""
	case *algebra.LocalName:
		return d.LocalName != ""
	case *algebra.Regex:
		return regexSupported(n, d)
	case *algebra.LangMatches:
		_, ok := ConstantString(n.Right)
		return ok
	case *algebra.FunctionCall:
		if !reg.Supports(n.URI) {
			return false
		}
		if f, err := reg.Lookup(n.URI); err == nil && !f.Accepts(len(n.Args)) {
			return false
		}
	case *algebra.Join:
		return !(ContainsOptional(n.Left) && ContainsOptional(n.Right))
	case *algebra.LeftJoin:
		// an optional inside an optional would be flattened into a LEFT
		// JOIN correlated with the outer bindings
		return !ContainsOptional(n.Right)
	}
	return true
}

func regexSupported(r *algebra.Regex, d *dialect.Dialect) bool {
	if r.Flags == nil {
		return d.Regex != ""
	}
	flags, ok := ConstantString(r.Flags)
	switch {
	case !ok:
		return false
	case flags == "":
		return d.Regex != ""
	case flags == "i":
		return d.RegexNoCase != ""
	}
	return false
}

// ConstantString returns the lexical form of a literal constant.
func ConstantString(e algebra.ValueExpr) (string, bool) {
	var term rdf.Term
	switch c := e.(type) {
	case *algebra.ValueConstant:
		term = c.Value
	case *algebra.Var:
		term = c.Value
	}
	lit, ok := term.(rdf.Literal)
	if !ok {
		return "", false
	}
	return lit.Lexical, true
}

// ContainsOptional reports whether t has a LeftJoin in the same scope.
// Unions and projections compile as their own scopes, so they never do.
func ContainsOptional(t algebra.TupleExpr) bool {
	switch t.(type) {
	case *algebra.Union, *algebra.Projection:
		return false
	}
	found := false
	walkScope(t, func(n algebra.Node) bool {
		if _, ok := n.(*algebra.LeftJoin); ok {
			found = true
		}
		return !found
	})
	return found
}
