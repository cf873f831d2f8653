package collect

import "github.com/roach88/sparqlsql/internal/algebra"

// walkScope visits root and every node in its query scope, pre-order.
// Returning false from fn skips the children of that node.
func walkScope(root algebra.Node, fn func(algebra.Node) bool) {
	var visit func(n algebra.Node, top bool)
	visit = func(n algebra.Node, top bool) {
		switch n.(type) {
		case *algebra.Projection:
			if !top {
				return
			}
		case *algebra.Union, *algebra.Exists:
			if n != root {
				return
			}
		}
		if !fn(n) {
			return
		}
		childTop := top && isModifier(n)
		for _, c := range algebra.Children(n) {
			visit(c, childTop)
		}
	}
	visit(root, true)
}

// isModifier reports whether n is a solution modifier that may sit above
// the scope's own projection.
func isModifier(n algebra.Node) bool {
	switch n.(type) {
	case *algebra.Slice, *algebra.Distinct, *algebra.Reduced, *algebra.Order:
		return true
	}
	return false
}

// FindSlice returns the limit and offset of the scope; -1 means absent.
func FindSlice(t algebra.TupleExpr) (limit, offset int64) {
	limit, offset = -1, -1
	walkScope(t, func(n algebra.Node) bool {
		if s, ok := n.(*algebra.Slice); ok {
			limit, offset = s.Limit, s.Offset
			return false
		}
		return limit < 0 && offset < 0
	})
	return limit, offset
}

// FindDistinct reports whether the scope removes duplicate solutions.
// REDUCED is treated as DISTINCT, which it permits.
func FindDistinct(t algebra.TupleExpr) bool {
	found := false
	walkScope(t, func(n algebra.Node) bool {
		switch n.(type) {
		case *algebra.Distinct, *algebra.Reduced:
			found = true
		}
		return !found
	})
	return found
}

// Grouping is the GROUP BY shape of a scope.
type Grouping struct {
	// Found is true when the scope aggregates, even without GROUP BY keys.
	Found        bool
	BindingNames []string
	Elems        []algebra.GroupElem
}

// Names returns the aggregate variable names.
func (g Grouping) Names() []string {
	names := make([]string, len(g.Elems))
	for i, e := range g.Elems {
		names[i] = e.Name
	}
	return names
}

// FindGroup returns the first Group in scope.
func FindGroup(t algebra.TupleExpr) Grouping {
	var g Grouping
	walkScope(t, func(n algebra.Node) bool {
		if grp, ok := n.(*algebra.Group); ok {
			g = Grouping{Found: true, BindingNames: grp.BindingNames, Elems: grp.Elems}
			return false
		}
		return !g.Found
	})
	return g
}

// FindOrder returns the sort keys of the first Order in scope.
func FindOrder(t algebra.TupleExpr) []algebra.OrderElem {
	var elems []algebra.OrderElem
	found := false
	walkScope(t, func(n algebra.Node) bool {
		if o, ok := n.(*algebra.Order); ok && !found {
			elems, found = o.Elems, true
		}
		return !found
	})
	return elems
}

// FindExtensions returns the computed bindings of the scope in evaluation
// order, innermost Extension first. Self-aliases (?x := ?x) are dropped.
func FindExtensions(t algebra.TupleExpr) []algebra.ExtensionElem {
	var exts []*algebra.Extension
	walkScope(t, func(n algebra.Node) bool {
		if e, ok := n.(*algebra.Extension); ok {
			exts = append(exts, e)
		}
		return true
	})

	var elems []algebra.ExtensionElem
	for i := len(exts) - 1; i >= 0; i-- {
		for _, e := range exts[i].Elems {
			if v, ok := e.Expr.(*algebra.Var); ok && !v.HasValue() && v.Name == e.Name {
				continue
			}
			elems = append(elems, e)
		}
	}
	return elems
}

// FindPatterns returns the statement patterns of the scope in visit order.
func FindPatterns(t algebra.TupleExpr) []*algebra.StatementPattern {
	var patterns []*algebra.StatementPattern
	walkScope(t, func(n algebra.Node) bool {
		if p, ok := n.(*algebra.StatementPattern); ok {
			patterns = append(patterns, p)
		}
		return true
	})
	return patterns
}
