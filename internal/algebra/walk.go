package algebra

// Children returns the direct child nodes of n in evaluation order.
// Nil slots are omitted.
func Children(n Node) []Node {
	var c children
	switch n := n.(type) {
	case *StatementPattern:
		c.vars(n.Subject, n.Predicate, n.Object, n.Context)
	case *Join:
		c.tuples(n.Left, n.Right)
	case *LeftJoin:
		c.tuples(n.Left, n.Right)
		c.values(n.Condition)
	case *Union:
		c.tuples(n.Left, n.Right)
	case *Projection:
		c.tuples(n.Arg)
	case *MultiProjection:
		c.tuples(n.Arg)
	case *Extension:
		c.tuples(n.Arg)
		for _, e := range n.Elems {
			c.values(e.Expr)
		}
	case *Filter:
		c.tuples(n.Arg)
		c.values(n.Condition)
	case *Group:
		c.tuples(n.Arg)
		for _, e := range n.Elems {
			c.values(e.Operator)
		}
	case *Order:
		c.tuples(n.Arg)
		for _, e := range n.Elems {
			c.values(e.Expr)
		}
	case *Slice:
		c.tuples(n.Arg)
	case *Distinct:
		c.tuples(n.Arg)
	case *Reduced:
		c.tuples(n.Arg)
	case *Service:
		c.vars(n.ServiceRef)
		c.tuples(n.Arg)
	case *Difference:
		c.tuples(n.Left, n.Right)
	case *Intersection:
		c.tuples(n.Left, n.Right)
	case *ArbitraryLengthPath:
		c.vars(n.Subject)
		c.tuples(n.Path)
		c.vars(n.Object, n.Context)
	case *ZeroLengthPath:
		c.vars(n.Subject, n.Object, n.Context)
	case *DescribeOperator:
		c.tuples(n.Arg)
	case *Compare:
		c.values(n.Left, n.Right)
	case *MathExpr:
		c.values(n.Left, n.Right)
	case *And:
		c.values(n.Left, n.Right)
	case *Or:
		c.values(n.Left, n.Right)
	case *Not:
		c.values(n.Arg)
	case *FunctionCall:
		c.values(n.Args...)
	case *Str:
		c.values(n.Arg)
	case *Lang:
		c.values(n.Arg)
	case *Datatype:
		c.values(n.Arg)
	case *Label:
		c.values(n.Arg)
	case *LocalName:
		c.values(n.Arg)
	case *Regex:
		c.values(n.Arg, n.Pattern, n.Flags)
	case *Like:
		c.values(n.Arg)
	case *LangMatches:
		c.values(n.Left, n.Right)
	case *Bound:
		c.vars(n.Arg)
	case *IsURI:
		c.values(n.Arg)
	case *IsBNode:
		c.values(n.Arg)
	case *IsLiteral:
		c.values(n.Arg)
	case *SameTerm:
		c.values(n.Left, n.Right)
	case *If:
		c.values(n.Condition, n.Result, n.Alternative)
	case *Coalesce:
		c.values(n.Args...)
	case *Exists:
		c.tuples(n.Subquery)
	case *Count:
		c.values(n.Arg)
	case *Sum:
		c.values(n.Arg)
	case *Avg:
		c.values(n.Arg)
	case *Min:
		c.values(n.Arg)
	case *Max:
		c.values(n.Arg)
	case *Sample:
		c.values(n.Arg)
	case *GroupConcat:
		c.values(n.Arg)
	}
	return c.nodes
}

// Walk visits n and its descendants depth-first, pre-order. When fn returns
// false the children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range Children(n) {
		Walk(child, fn)
	}
}

// Vars returns the names of the unbound, non-anonymous variables referenced
// anywhere below n, in first-occurrence order.
func Vars(n Node) []string {
	seen := map[string]bool{}
	var names []string
	Walk(n, func(node Node) bool {
		if v, ok := node.(*Var); ok && !v.HasValue() && !v.Anonymous && !seen[v.Name] {
			seen[v.Name] = true
			names = append(names, v.Name)
		}
		return true
	})
	return names
}

// children accumulates non-nil child nodes; typed nil pointers stored in
// interface fields are filtered out.
type children struct {
	nodes []Node
}

func (c *children) tuples(ts ...TupleExpr) {
	for _, t := range ts {
		if t != nil {
			c.nodes = append(c.nodes, t)
		}
	}
}

func (c *children) values(vs ...ValueExpr) {
	for _, v := range vs {
		if v == nil {
			continue
		}
		if vr, ok := v.(*Var); ok && vr == nil {
			continue
		}
		c.nodes = append(c.nodes, v)
	}
}

func (c *children) vars(vs ...*Var) {
	for _, v := range vs {
		if v != nil {
			c.nodes = append(c.nodes, v)
		}
	}
}
