package collect

import (
	"github.com/roach88/sparqlsql/internal/algebra"
	"github.com/roach88/sparqlsql/internal/dialect"
	"github.com/roach88/sparqlsql/internal/valuetype"
)

// ValueNeeds records the variables whose value, not just their node id, is
// consumed in a scope, together with the first concrete value type each was
// consumed as.
type ValueNeeds struct {
	types map[string]valuetype.ValueType
	order []string
}

// Needed reports whether name must be joined to the nodes table.
func (n ValueNeeds) Needed(name string) bool {
	_, ok := n.types[name]
	return ok
}

// Type is the value type name is consumed as; Node when the consumer only
// needs the row (ntype, lang, ordering columns) rather than one typed column.
func (n ValueNeeds) Type(name string) valuetype.ValueType {
	if t, ok := n.types[name]; ok {
		return t
	}
	return valuetype.Node
}

// Names returns the value-needed variables in first-use order.
func (n ValueNeeds) Names() []string {
	return n.order
}

type needFinder struct {
	reg      dialect.Registry
	computed map[string]valuetype.ValueType
	needs    ValueNeeds
}

// FindValueNeeds walks the scope of t and collects value-needed variables.
// A variable counts only while nested inside a value-consuming construct:
// comparisons, arithmetic, functions and accessors, regex and like,
// boolean connectives, conditionals, aggregates and ORDER BY keys. Pattern
// slots, SAMETERM and BOUND compare node ids and never need a value.
func FindValueNeeds(t algebra.TupleExpr, reg dialect.Registry) ValueNeeds {
	f := &needFinder{
		reg:      reg,
		computed: ComputedTypes(t, reg),
		needs:    ValueNeeds{types: map[string]valuetype.ValueType{}},
	}

	walkScope(t, func(n algebra.Node) bool {
		switch n := n.(type) {
		case *algebra.Filter:
			f.condition(n.Condition)
		case *algebra.LeftJoin:
			if n.Condition != nil {
				f.condition(n.Condition)
			}
		case *algebra.Extension:
			for _, e := range n.Elems {
				f.visit(e.Expr, valuetype.Node, 0)
			}
		case *algebra.Group:
			for _, e := range n.Elems {
				f.visit(e.Operator, valuetype.Node, 0)
			}
		case *algebra.Order:
			for _, e := range n.Elems {
				f.visit(e.Expr, valuetype.Node, 1)
			}
		}
		return true
	})
	return f.needs
}

// condition visits a filter condition. A bare variable used as a condition
// is consumed for its boolean value.
func (f *needFinder) condition(e algebra.ValueExpr) {
	f.visit(e, valuetype.Bool, 0)
}

func (f *needFinder) mark(v *algebra.Var, want valuetype.ValueType) {
	if v == nil || v.HasValue() {
		return
	}
	t, seen := f.needs.types[v.Name]
	if !seen {
		f.needs.order = append(f.needs.order, v.Name)
		f.needs.types[v.Name] = want
		return
	}
	if t == valuetype.Node && want != valuetype.Node {
		f.needs.types[v.Name] = want
	}
}

func (f *needFinder) typeOf(e algebra.ValueExpr) valuetype.ValueType {
	return TypeOf(e, f.reg, f.computed)
}

func (f *needFinder) visit(expr algebra.ValueExpr, want valuetype.ValueType, depth int) {
	switch e := expr.(type) {
	case nil:
		return
	case *algebra.Var:
		if depth > 0 || want == valuetype.Bool {
			f.mark(e, want)
		}
	case *algebra.ValueConstant, *algebra.Exists, *algebra.Bound:
		// constants carry no variable; EXISTS compiles its own scope;
		// BOUND tests the node id
	case *algebra.SameTerm:
		f.visit(e.Left, valuetype.Node, 0)
		f.visit(e.Right, valuetype.Node, 0)
	case *algebra.Compare:
		t, err := FindOperandTypes(e, f.reg, f.computed).Coerce()
		if err != nil {
			t = valuetype.Node
		}
		f.visit(e.Left, t, depth+1)
		f.visit(e.Right, t, depth+1)
	case *algebra.MathExpr:
		t := f.typeOf(e)
		f.visit(e.Left, t, depth+1)
		f.visit(e.Right, t, depth+1)
	case *algebra.And:
		f.visit(e.Left, valuetype.Bool, depth+1)
		f.visit(e.Right, valuetype.Bool, depth+1)
	case *algebra.Or:
		f.visit(e.Left, valuetype.Bool, depth+1)
		f.visit(e.Right, valuetype.Bool, depth+1)
	case *algebra.Not:
		f.visit(e.Arg, valuetype.Bool, depth+1)
	case *algebra.FunctionCall:
		fn, err := f.reg.Lookup(e.URI)
		for i, a := range e.Args {
			want := valuetype.String
			if err == nil {
				want = fn.ArgType(i)
			}
			f.visit(a, want, depth+1)
		}
	case *algebra.Str:
		f.visit(e.Arg, valuetype.String, depth+1)
	case *algebra.Label:
		f.visit(e.Arg, valuetype.String, depth+1)
	case *algebra.LocalName:
		f.visit(e.Arg, valuetype.String, depth+1)
	case *algebra.Lang:
		f.visit(e.Arg, valuetype.Node, depth+1)
	case *algebra.Datatype:
		f.visit(e.Arg, valuetype.Node, depth+1)
	case *algebra.IsURI:
		f.visit(e.Arg, valuetype.Node, depth+1)
	case *algebra.IsBNode:
		f.visit(e.Arg, valuetype.Node, depth+1)
	case *algebra.IsLiteral:
		f.visit(e.Arg, valuetype.Node, depth+1)
	case *algebra.Regex:
		f.visit(e.Arg, valuetype.String, depth+1)
		f.visit(e.Pattern, valuetype.String, depth+1)
		f.visit(e.Flags, valuetype.String, depth+1)
	case *algebra.Like:
		f.visit(e.Arg, valuetype.String, depth+1)
	case *algebra.LangMatches:
		f.visit(e.Left, valuetype.String, depth+1)
		f.visit(e.Right, valuetype.String, depth+1)
	case *algebra.If:
		t := f.typeOf(e)
		f.visit(e.Condition, valuetype.Bool, depth+1)
		f.visit(e.Result, t, depth+1)
		f.visit(e.Alternative, t, depth+1)
	case *algebra.Coalesce:
		t := f.typeOf(e)
		for _, a := range e.Args {
			f.visit(a, t, depth+1)
		}
	case *algebra.Count:
		f.visit(e.Arg, valuetype.Node, depth+1)
	case *algebra.Sum:
		f.visit(e.Arg, f.typeOf(e), depth+1)
	case *algebra.Avg:
		f.visit(e.Arg, f.typeOf(e), depth+1)
	case *algebra.Min:
		f.visit(e.Arg, f.typeOf(e), depth+1)
	case *algebra.Max:
		f.visit(e.Arg, f.typeOf(e), depth+1)
	case *algebra.Sample:
		f.visit(e.Arg, valuetype.Node, depth+1)
	case *algebra.GroupConcat:
		f.visit(e.Arg, valuetype.String, depth+1)
	}
}
