package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/sparqlsql/internal/algebra"
	"github.com/roach88/sparqlsql/internal/collect"
	"github.com/roach88/sparqlsql/internal/rdf"
	"github.com/roach88/sparqlsql/internal/valuetype"
)

// builder compiles one scope: the root query, a subquery, a union branch
// or the body of an EXISTS.
type builder struct {
	c     *Compiler
	names *namer
	root  algebra.TupleExpr
	// outer is the enclosing scope of an EXISTS body. Variables bound
	// there are correlated, not rebound.
	outer *builder

	proj     *algebra.Projection
	needs    collect.ValueNeeds
	computed map[string]valuetype.ValueType
	group    collect.Grouping
	order    []algebra.OrderElem
	limit    int64
	offset   int64
	distinct bool

	fragments []*Fragment
	cur       *Fragment
	patterns  []*Pattern
	vars      map[string]*Variable
	varOrder  []string
}

func newBuilder(c *Compiler, names *namer, root algebra.TupleExpr) *builder {
	b := &builder{
		c:        c,
		names:    names,
		root:     root,
		proj:     findProjection(root),
		needs:    collect.FindValueNeeds(root, c.registry),
		computed: collect.ComputedTypes(root, c.registry),
		group:    collect.FindGroup(root),
		order:    collect.FindOrder(root),
		distinct: collect.FindDistinct(root),
		vars:     map[string]*Variable{},
	}
	b.limit, b.offset = collect.FindSlice(root)
	b.cur = &Fragment{Placement: PlaceWhere}
	b.fragments = []*Fragment{b.cur}
	return b
}

// findProjection returns the projection of the scope rooted at t, looking
// through solution modifiers only.
func findProjection(t algebra.TupleExpr) *algebra.Projection {
	for {
		switch n := t.(type) {
		case *algebra.Projection:
			return n
		case *algebra.Slice:
			t = n.Arg
		case *algebra.Distinct:
			t = n.Arg
		case *algebra.Reduced:
			t = n.Arg
		case *algebra.Order:
			t = n.Arg
		default:
			return nil
		}
	}
}

// reachesGroup reports whether t is a Group seen through extensions and
// orderings. A filter over such a tree constrains aggregates.
func reachesGroup(t algebra.TupleExpr) bool {
	for {
		switch n := t.(type) {
		case *algebra.Group:
			return true
		case *algebra.Extension:
			t = n.Arg
		case *algebra.Order:
			t = n.Arg
		default:
			return false
		}
	}
}

// prepare collects the scope's fragments and resolves computed variables.
func (b *builder) prepare() error {
	if err := b.visit(b.root); err != nil {
		return err
	}
	return b.resolveComputed()
}

// build compiles a nested scope, leaving the select list open.
func (b *builder) build() (*scopeSQL, error) {
	if err := b.prepare(); err != nil {
		return nil, err
	}
	tail, err := b.tail()
	if err != nil {
		return nil, err
	}
	return &scopeSQL{distinct: b.distinct, exports: b.exports(), tail: tail}, nil
}

func (b *builder) visit(t algebra.TupleExpr) error {
	if p := findProjection(t); p != nil && p != b.proj {
		return b.addSubQuery(t)
	}

	switch n := t.(type) {
	case *algebra.StatementPattern:
		return b.addPattern(n)
	case *algebra.Join:
		first, second := n.Left, n.Right
		if collect.ContainsOptional(first) && !collect.ContainsOptional(second) {
			first, second = second, first
		}
		if err := b.visit(first); err != nil {
			return err
		}
		return b.visit(second)
	case *algebra.LeftJoin:
		if err := b.visit(n.Left); err != nil {
			return err
		}
		saved := b.cur
		b.cur = &Fragment{Placement: PlaceJoin, Optional: true}
		b.fragments = append(b.fragments, b.cur)
		if n.Condition != nil {
			b.cur.filters = append(b.cur.filters, n.Condition)
		}
		err := b.visit(n.Right)
		b.cur = saved
		return err
	case *algebra.Filter:
		if b.cur == b.fragments[0] && reachesGroup(n.Arg) {
			b.cur.Placement = PlaceHaving
			b.cur.having = append(b.cur.having, n.Condition)
		} else {
			b.cur.filters = append(b.cur.filters, n.Condition)
		}
		return b.visit(n.Arg)
	case *algebra.Union:
		return b.addUnion(n)
	case *algebra.Projection:
		return b.visit(n.Arg)
	case *algebra.Extension:
		return b.visit(n.Arg)
	case *algebra.Group:
		return b.visit(n.Arg)
	case *algebra.Order:
		return b.visit(n.Arg)
	case *algebra.Slice:
		return b.visit(n.Arg)
	case *algebra.Distinct:
		return b.visit(n.Arg)
	case *algebra.Reduced:
		return b.visit(n.Arg)
	case *algebra.SingletonSet:
		return nil
	}
	return invalidTree(t, "unexpected %T in query body", t)
}

func (b *builder) addPattern(sp *algebra.StatementPattern) error {
	p := &Pattern{Name: b.names.next("P"), Source: sp}
	b.patterns = append(b.patterns, p)
	b.cur.add(p)
	b.cur.conds = append(b.cur.conds, p.column("deleted")+" = false")

	for _, slot := range sp.Slots() {
		col := p.column(slot.Column)
		if term, ok := b.constant(slot.Var); ok {
			b.cur.conds = append(b.cur.conds, col+" = "+b.nodeID(term))
			continue
		}
		err := b.bindNode(slot.Var.Name, "", col, slot.Var.Anonymous, false, p.Name, func(j nodesJoin) {
			p.joins = append(p.joins, j)
		})
		if err != nil {
			return err
		}
	}

	if graphs := b.c.dataset.graphs(sp.Scope); len(graphs) > 0 {
		ids := make([]string, len(graphs))
		for i, g := range graphs {
			ids[i] = b.nodeID(g)
		}
		b.cur.conds = append(b.cur.conds, fmt.Sprintf("%s IN (%s)", p.column("context"), strings.Join(ids, ", ")))
	}
	return nil
}

// bindNode records that variable name is bound to the node id expr. A
// repeated binding is constrained equal to the first one in the current
// fragment. alias may name the variable's SQL alias; empty asks the namer.
// A nullable binding may not be joined on: an unbound value is compatible
// with every binding, which plain equality cannot express.
func (b *builder) bindNode(name, alias, expr string, anonymous, nullable bool, owner string, join func(nodesJoin)) error {
	if v, ok := b.vars[name]; ok {
		if v.kind == nodeKind {
			if v.nullable || nullable {
				return fmt.Errorf("%w: join on possibly unbound variable %s", errDecline, name)
			}
			b.cur.conds = append(b.cur.conds, v.Exprs[0]+" = "+expr)
			v.Exprs = append(v.Exprs, expr)
		}
		return nil
	}

	if alias == "" {
		alias = b.names.next("V")
	}
	v := &Variable{
		Name:      name,
		Alias:     alias,
		kind:      nodeKind,
		Exprs:     []string{expr},
		Type:      b.needs.Type(name),
		anonymous: anonymous,
		fragment:  b.cur,
		nullable:  nullable,
	}
	if b.needs.Needed(name) {
		v.Nodes = owner + "_" + alias
		join(nodesJoin{column: expr, alias: v.Nodes})
	}
	if b.outer != nil {
		if ov := b.outer.lookup(name); ov != nil && ov.kind == nodeKind {
			if ov.nullable || nullable {
				return fmt.Errorf("%w: correlation on possibly unbound variable %s", errDecline, name)
			}
			b.cur.conds = append(b.cur.conds, ov.IDExpr()+" = "+expr)
		}
	}
	b.define(v)
	return nil
}

func (b *builder) define(v *Variable) {
	if _, ok := b.vars[v.Name]; !ok {
		b.varOrder = append(b.varOrder, v.Name)
	}
	b.vars[v.Name] = v
}

// lookup finds a variable in this scope or an enclosing EXISTS scope.
func (b *builder) lookup(name string) *Variable {
	for s := b; s != nil; s = s.outer {
		if v, ok := s.vars[name]; ok {
			return v
		}
	}
	return nil
}

// constant returns the term a pattern variable is fixed to, either by the
// tree itself or by a pre-binding.
func (b *builder) constant(v *algebra.Var) (rdf.Term, bool) {
	if v.HasValue() {
		return v.Value, true
	}
	if v.Anonymous {
		return nil, false
	}
	t, ok := b.c.bindings[v.Name]
	return t, ok
}

func (b *builder) addSubQuery(t algebra.TupleExpr) error {
	name := b.names.next("S")
	nb := newBuilder(b.c, b.names, t)
	s, err := nb.build()
	if err != nil {
		return err
	}
	sq := &SubQuery{Name: name, sql: s.render(b.c.dialect, s.exports), cols: s.exports}
	b.cur.add(sq)
	return b.bindExports(sq)
}

func (b *builder) addUnion(u *algebra.Union) error {
	name := b.names.next("U")
	left, err := newBuilder(b.c, b.names, u.Left).build()
	if err != nil {
		return err
	}
	right, err := newBuilder(b.c, b.names, u.Right).build()
	if err != nil {
		return err
	}

	l, r, ok := reconcile(left.exports, right.exports)
	if !ok {
		return fmt.Errorf("%w: union branches disagree on variable shape", errDecline)
	}
	cols := make([]export, len(l))
	for i := range l {
		cols[i] = l[i]
		if cols[i].null {
			cols[i] = r[i]
		}
		cols[i].nullable = l[i].null || r[i].null || l[i].nullable || r[i].nullable
	}

	un := &Union{
		Name:  name,
		left:  left.render(b.c.dialect, l),
		right: right.render(b.c.dialect, r),
		cols:  cols,
	}
	b.cur.add(un)
	return b.bindExports(un)
}

// bindExports makes the variables of a nested scope visible here.
func (b *builder) bindExports(sq subquery) error {
	for _, ex := range sq.exports() {
		if ex.kind == nodeKind {
			if err := b.bindNode(ex.Name, ex.Alias, ex.Expr, false, ex.nullable, sq.alias(), sq.joinNodes); err != nil {
				return err
			}
			continue
		}
		if v, ok := b.vars[ex.Name]; ok {
			if v.nullable || ex.nullable {
				return fmt.Errorf("%w: join on possibly unbound variable %s", errDecline, ex.Name)
			}
			continue
		}
		b.define(&Variable{
			Name:        ex.Name,
			Alias:       ex.Alias,
			kind:        valueKind,
			Exprs:       []string{ex.Expr},
			Type:        ex.Type,
			LiteralType: ex.LType,
			LiteralLang: ex.Lang,
			fragment:    b.cur,
			nullable:    ex.nullable,
		})
	}
	return nil
}

// resolveComputed defines aggregates, then extensions innermost first.
func (b *builder) resolveComputed() error {
	for _, g := range b.group.Elems {
		if err := b.compute(g.Name, g.Operator); err != nil {
			return err
		}
	}
	for _, e := range collect.FindExtensions(b.root) {
		if err := b.compute(e.Name, e.Expr); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) compute(name string, e algebra.ValueExpr) error {
	if src, ok := e.(*algebra.Var); ok && !src.HasValue() {
		if v := b.lookup(src.Name); v != nil {
			renamed := *v
			renamed.Name = name
			renamed.Alias = b.names.next("V")
			b.define(&renamed)
			return nil
		}
	}

	t := b.computed[name]
	sql, err := b.expr(e, t)
	if err != nil {
		return fmt.Errorf("compute %s: %w", name, err)
	}
	v := &Variable{
		Name:     name,
		Alias:    b.names.next("V"),
		kind:     valueKind,
		Exprs:    []string{sql},
		Type:     t,
		fragment: b.fragments[0],
	}
	if donor := collect.FindLiteralDonor(e, b.c.registry); donor != nil {
		if dv := b.lookup(donor.Name); dv != nil {
			if dv.kind == nodeKind {
				v.LiteralType = dv.nodeColumn("ltype")
				v.LiteralLang = dv.nodeColumn("lang")
			} else {
				v.LiteralType = dv.LiteralType
				v.LiteralLang = dv.LiteralLang
			}
		}
	}
	b.define(v)
	return nil
}

// projected lists the scope's output variables: the projection when there
// is one, otherwise every named variable in binding order.
func (b *builder) projected() []algebra.ProjectionElem {
	if b.proj != nil {
		return b.proj.Elems
	}
	var elems []algebra.ProjectionElem
	for _, name := range b.varOrder {
		if b.vars[name].anonymous {
			continue
		}
		elems = append(elems, algebra.ProjectionElem{Source: name, Target: name})
	}
	return elems
}

// exports lists a nested scope's output. Node variables are exported as
// ids whatever their use inside the scope.
func (b *builder) exports() []export {
	var out []export
	used := map[string]bool{}
	for _, el := range b.projected() {
		v := b.vars[el.Source]
		if v == nil {
			out = append(out, export{Name: el.Target, Alias: b.names.next("V"), kind: nodeKind, null: true})
			continue
		}
		alias := v.Alias
		if used[alias] {
			alias = b.names.next("V")
		}
		used[alias] = true

		if v.kind == nodeKind {
			out = append(out, export{Name: el.Target, Alias: alias, kind: nodeKind, Type: valuetype.Node, Expr: v.IDExpr(), nullable: v.nullable})
			continue
		}
		out = append(out, export{
			Name:  el.Target,
			Alias: alias,
			kind:  valueKind,
			Type:  v.Type,
			Expr:  v.Exprs[0],
			LType: v.LiteralType,
			Lang:  v.LiteralLang,

			nullable: v.nullable,
		})
	}
	return out
}

// tail renders everything after the select list.
func (b *builder) tail() (string, error) {
	root := b.fragments[0]

	from, err := b.from()
	if err != nil {
		return "", err
	}
	where, err := b.conditions(root.conds, root.filters)
	if err != nil {
		return "", err
	}
	having, err := b.conditions(nil, root.having)
	if err != nil {
		return "", err
	}
	if from == "" && (len(where) > 0 || len(having) > 0) {
		from = "(SELECT 1 AS unit) AS " + b.names.next("R")
	}

	var sb strings.Builder
	if from != "" {
		sb.WriteString(" FROM ")
		sb.WriteString(from)
	}
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	if keys := b.groupKeys(); len(keys) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(keys, ", "))
	}
	if len(having) > 0 {
		sb.WriteString(" HAVING ")
		sb.WriteString(strings.Join(having, " AND "))
	}
	keys, err := b.orderKeys()
	if err != nil {
		return "", err
	}
	if len(keys) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(keys, ", "))
	}
	if limit := b.c.dialect.LimitClause(b.limit, b.offset); limit != "" {
		sb.WriteString(" ")
		sb.WriteString(limit)
	}
	return sb.String(), nil
}

// from renders the first fragment followed by one LEFT JOIN per optional
// fragment, in the order they were opened.
func (b *builder) from() (string, error) {
	base := b.fragments[0].fromList()

	var joins strings.Builder
	for _, f := range b.fragments[1:] {
		if len(f.members) == 0 {
			continue
		}
		conds, err := b.conditions(f.conds, f.filters)
		if err != nil {
			return "", err
		}
		on := "TRUE"
		if len(conds) > 0 {
			on = strings.Join(conds, " AND ")
		}
		fmt.Fprintf(&joins, " LEFT JOIN %s ON (%s)", f.fromList(), on)
	}

	if joins.Len() > 0 && base == "" {
		base = "(SELECT 1 AS unit) AS " + b.names.next("R")
	}
	return base + joins.String(), nil
}

func (b *builder) conditions(structural []string, filters []algebra.ValueExpr) ([]string, error) {
	out := append([]string(nil), structural...)
	for _, f := range filters {
		s, err := b.expr(f, valuetype.Bool)
		if err != nil {
			return nil, fmt.Errorf("compile filter: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}

// groupKeys groups on node ids, or on the expression of computed keys.
func (b *builder) groupKeys() []string {
	var keys []string
	for _, name := range b.group.BindingNames {
		v := b.vars[name]
		if v == nil {
			continue
		}
		if v.kind == nodeKind {
			keys = append(keys, v.IDExpr())
		} else {
			keys = append(keys, v.Exprs[0])
		}
	}
	return keys
}

// orderKeys sorts untyped node variables by numeric, date and string
// value in turn.
func (b *builder) orderKeys() ([]string, error) {
	var keys []string
	for _, el := range b.order {
		dir := " ASC"
		if !el.Ascending {
			dir = " DESC"
		}
		if v, ok := el.Expr.(*algebra.Var); ok && !v.HasValue() {
			if lv := b.lookup(v.Name); lv != nil && lv.kind == nodeKind {
				if lv.Type == valuetype.Node {
					keys = append(keys,
						lv.nodeColumn("dvalue")+dir,
						lv.nodeColumn("tvalue")+dir,
						lv.nodeColumn("svalue")+dir)
				} else {
					keys = append(keys, lv.nodeColumn(readColumn(lv.Type))+dir)
				}
				continue
			}
		}
		t := collect.TypeOf(el.Expr, b.c.registry, b.computed)
		s, err := b.expr(el.Expr, t)
		if err != nil {
			return nil, fmt.Errorf("compile order: %w", err)
		}
		keys = append(keys, s+dir)
	}
	return keys, nil
}
