package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/sparqlsql/internal/algebra"
	"github.com/roach88/sparqlsql/internal/collect"
	"github.com/roach88/sparqlsql/internal/rdf"
	"github.com/roach88/sparqlsql/internal/valuetype"
)

// expr renders e as SQL producing a value of type want.
func (b *builder) expr(e algebra.ValueExpr, want valuetype.ValueType) (string, error) {
	sql, have, err := b.eval(e, want)
	if err != nil {
		return "", err
	}
	return b.convert(sql, have, want), nil
}

func (b *builder) convert(sql string, have, want valuetype.ValueType) string {
	d := b.c.dialect
	switch {
	case have == want, want == valuetype.Node, have == valuetype.Node:
		return sql
	case want == valuetype.String:
		return d.Cast(valuetype.String, sql)
	case want.IsNumeric() && have.IsNumeric():
		return sql
	case want.IsNumeric(), want == valuetype.Date:
		return d.Cast(want, sql)
	}
	return sql
}

func (b *builder) typeOf(e algebra.ValueExpr) valuetype.ValueType {
	return collect.TypeOf(e, b.c.registry, b.computed)
}

func coercionError(n algebra.Node, err error) error {
	return &TranslationError{Code: CodeCoercion, Message: err.Error(), Node: n, Err: err}
}

// eval renders e and reports the type of the rendered expression.
func (b *builder) eval(expr algebra.ValueExpr, want valuetype.ValueType) (string, valuetype.ValueType, error) {
	d := b.c.dialect

	switch e := expr.(type) {
	case *algebra.Var:
		return b.variable(e, want)

	case *algebra.ValueConstant:
		return b.literal(e.Value, want)

	case *algebra.Compare:
		t, err := collect.FindOperandTypes(e, b.c.registry, b.computed).Coerce()
		if err != nil {
			return "", 0, coercionError(e, err)
		}
		if t == valuetype.Node && e.Op != algebra.EQ && e.Op != algebra.NE {
			t = valuetype.Double
		}
		l, r, err := b.pair(e.Left, e.Right, t)
		if err != nil {
			return "", 0, err
		}
		op := string(e.Op)
		if e.Op == algebra.NE {
			op = "<>"
		}
		return fmt.Sprintf("(%s %s %s)", l, op, r), valuetype.Bool, nil

	case *algebra.MathExpr:
		t, err := collect.FindOperandTypes(e, b.c.registry, b.computed).Coerce()
		if err != nil {
			return "", 0, coercionError(e, err)
		}
		if t == valuetype.Node {
			t = valuetype.Double
		}
		if !t.IsNumeric() {
			return "", 0, coercionError(e, fmt.Errorf("arithmetic on %s values", t))
		}
		l, r, err := b.pair(e.Left, e.Right, t)
		if err != nil {
			return "", 0, err
		}
		if e.Op == algebra.Divide && t == valuetype.Int {
			l, t = d.Cast(valuetype.Decimal, l), valuetype.Decimal
		}
		return fmt.Sprintf("(%s %s %s)", l, e.Op, r), t, nil

	case *algebra.And:
		l, r, err := b.pair(e.Left, e.Right, valuetype.Bool)
		if err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("(%s AND %s)", l, r), valuetype.Bool, nil

	case *algebra.Or:
		l, r, err := b.pair(e.Left, e.Right, valuetype.Bool)
		if err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("(%s OR %s)", l, r), valuetype.Bool, nil

	case *algebra.Not:
		s, err := b.expr(e.Arg, valuetype.Bool)
		if err != nil {
			return "", 0, err
		}
		return "NOT " + s, valuetype.Bool, nil

	case *algebra.FunctionCall:
		return b.function(e)

	case *algebra.Str:
		s, err := b.expr(e.Arg, valuetype.String)
		return s, valuetype.String, err

	case *algebra.Label:
		s, err := b.expr(e.Arg, valuetype.String)
		return s, valuetype.String, err

	case *algebra.Lang:
		return b.lang(e.Arg), valuetype.String, nil

	case *algebra.LocalName:
		s, err := b.expr(e.Arg, valuetype.String)
		if err != nil {
			return "", 0, err
		}
		out, ok := d.LocalNameExpr(s)
		if !ok {
			return "", 0, invalidTree(e, "dialect %s has no local name template", d.Name)
		}
		return out, valuetype.String, nil

	case *algebra.IsURI:
		return fmt.Sprintf("(%s = %s)", b.nodeType(e.Arg), d.Quote(rdf.TypeURI)), valuetype.Bool, nil

	case *algebra.IsBNode:
		return fmt.Sprintf("(%s = %s)", b.nodeType(e.Arg), d.Quote(rdf.TypeBNode)), valuetype.Bool, nil

	case *algebra.IsLiteral:
		return fmt.Sprintf("(%s NOT IN (%s, %s))", b.nodeType(e.Arg), d.Quote(rdf.TypeURI), d.Quote(rdf.TypeBNode)), valuetype.Bool, nil

	case *algebra.Bound:
		return b.bound(e.Arg), valuetype.Bool, nil

	case *algebra.SameTerm:
		l, r, err := b.pair(e.Left, e.Right, valuetype.Node)
		if err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("(%s = %s)", l, r), valuetype.Bool, nil

	case *algebra.Regex:
		arg, pattern, err := b.pair(e.Arg, e.Pattern, valuetype.String)
		if err != nil {
			return "", 0, err
		}
		flags := ""
		if e.Flags != nil {
			flags, _ = collect.ConstantString(e.Flags)
		}
		out, ok := d.RegexExpr(arg, pattern, flags == "i")
		if !ok {
			return "", 0, invalidTree(e, "dialect %s cannot match regex flags %q", d.Name, flags)
		}
		return out, valuetype.Bool, nil

	case *algebra.Like:
		arg, err := b.expr(e.Arg, valuetype.String)
		if err != nil {
			return "", 0, err
		}
		if e.CaseSensitive {
			return fmt.Sprintf("(%s LIKE %s)", arg, d.Quote(e.Pattern)), valuetype.Bool, nil
		}
		return fmt.Sprintf("(LOWER(%s) LIKE %s)", arg, d.Quote(strings.ToLower(e.Pattern))), valuetype.Bool, nil

	case *algebra.LangMatches:
		tag, err := b.expr(e.Left, valuetype.String)
		if err != nil {
			return "", 0, err
		}
		rng, ok := collect.ConstantString(e.Right)
		if !ok {
			return "", 0, invalidTree(e, "language range must be a constant")
		}
		if rng == "*" {
			return fmt.Sprintf("(%s <> '')", tag), valuetype.Bool, nil
		}
		rng = strings.ToLower(rng)
		return fmt.Sprintf("(LOWER(%s) = %s OR LOWER(%s) LIKE %s)", tag, d.Quote(rng), tag, d.Quote(rng+"-%")), valuetype.Bool, nil

	case *algebra.If:
		t := b.typeOf(e)
		cond, err := b.expr(e.Condition, valuetype.Bool)
		if err != nil {
			return "", 0, err
		}
		then, alt, err := b.pair(e.Result, e.Alternative, t)
		if err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("CASE WHEN %s THEN %s ELSE %s END", cond, then, alt), t, nil

	case *algebra.Coalesce:
		t := b.typeOf(e)
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			s, err := b.expr(a, t)
			if err != nil {
				return "", 0, err
			}
			args[i] = s
		}
		return "COALESCE(" + strings.Join(args, ", ") + ")", t, nil

	case *algebra.Exists:
		s, err := b.exists(e)
		return s, valuetype.Bool, err

	case *algebra.Count:
		if e.Arg == nil {
			return "COUNT(*)", valuetype.Int, nil
		}
		arg, err := b.expr(e.Arg, valuetype.Node)
		if err != nil {
			return "", 0, err
		}
		return "COUNT(" + distinct(e.Distinct) + arg + ")", valuetype.Int, nil

	case *algebra.Sum:
		return b.aggregate("SUM", e, e.Arg, e.Distinct)

	case *algebra.Avg:
		return b.aggregate("AVG", e, e.Arg, e.Distinct)

	case *algebra.Min:
		return b.aggregate("MIN", e, e.Arg, false)

	case *algebra.Max:
		return b.aggregate("MAX", e, e.Arg, false)

	case *algebra.GroupConcat:
		arg, err := b.expr(e.Arg, valuetype.String)
		if err != nil {
			return "", 0, err
		}
		out, ok := d.GroupConcatExpr(distinct(e.Distinct)+arg, d.Quote(e.Separator))
		if !ok {
			return "", 0, invalidTree(e, "dialect %s has no group concat template", d.Name)
		}
		return out, valuetype.String, nil
	}

	return "", 0, invalidTree(expr, "no SQL rendering for %T", expr)
}

func distinct(on bool) string {
	if on {
		return "DISTINCT "
	}
	return ""
}

func (b *builder) pair(l, r algebra.ValueExpr, t valuetype.ValueType) (string, string, error) {
	ls, err := b.expr(l, t)
	if err != nil {
		return "", "", err
	}
	rs, err := b.expr(r, t)
	if err != nil {
		return "", "", err
	}
	return ls, rs, nil
}

func (b *builder) aggregate(fn string, e, arg algebra.ValueExpr, dist bool) (string, valuetype.ValueType, error) {
	t := b.typeOf(e)
	s, err := b.expr(arg, t)
	if err != nil {
		return "", 0, err
	}
	return fn + "(" + distinct(dist) + s + ")", t, nil
}

func (b *builder) function(e *algebra.FunctionCall) (string, valuetype.ValueType, error) {
	f, err := b.c.registry.Lookup(e.URI)
	if err != nil {
		return "", 0, &TranslationError{Code: CodeMissingFunction, Message: e.URI, Node: e, Err: err}
	}
	if !f.Accepts(len(e.Args)) {
		return "", 0, invalidTree(e, "function %s called with %d arguments", e.URI, len(e.Args))
	}
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		s, err := b.expr(a, f.ArgType(i))
		if err != nil {
			return "", 0, err
		}
		args[i] = s
	}
	return f.Render(args), f.Returns, nil
}

// variable reads a variable as want: node variables switch between the id
// and the value column, computed variables have a single value.
func (b *builder) variable(e *algebra.Var, want valuetype.ValueType) (string, valuetype.ValueType, error) {
	if term, ok := b.constant(e); ok {
		return b.literal(term, want)
	}
	v := b.lookup(e.Name)
	switch {
	case v == nil:
		return "NULL", want, nil
	case v.kind == valueKind:
		return v.Exprs[0], v.Type, nil
	case want == valuetype.Node:
		return v.IDExpr(), valuetype.Node, nil
	}
	return v.nodeColumn(readColumn(want)), want, nil
}

// literal renders a constant as a SQL value of type want, or as a node id
// when want is Node.
func (b *builder) literal(t rdf.Term, want valuetype.ValueType) (string, valuetype.ValueType, error) {
	d := b.c.dialect
	if want == valuetype.Node {
		return b.nodeID(t), valuetype.Node, nil
	}

	lexical := lexicalForm(t)
	switch {
	case want.IsNumeric():
		if n, ok := sqlNumber(lexical); ok {
			return n, want, nil
		}
		return "NULL", want, nil
	case want == valuetype.Bool:
		switch lexical {
		case "true", "1":
			return "TRUE", valuetype.Bool, nil
		case "false", "0":
			return "FALSE", valuetype.Bool, nil
		}
		return "NULL", valuetype.Bool, nil
	case want == valuetype.Date:
		tm, ok := rdf.ParseDate(lexical)
		if !ok {
			return "NULL", valuetype.Date, nil
		}
		return d.Cast(valuetype.Date, d.Quote(d.FormatDate(tm))), valuetype.Date, nil
	}
	return d.Quote(lexical), valuetype.String, nil
}

func lexicalForm(t rdf.Term) string {
	switch t := t.(type) {
	case rdf.IRI:
		return string(t)
	case rdf.BNode:
		return string(t)
	case rdf.Literal:
		return t.Lexical
	}
	return ""
}

// sqlNumber accepts decimal and exponent notation, not NaN or Inf.
func sqlNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "", false
	}
	if strings.ContainsAny(strings.ToLower(s), "nix") {
		return "", false
	}
	return s, true
}

// nodeID renders the node id of a constant term.
func (b *builder) nodeID(t rdf.Term) string {
	if b.c.resolver != nil {
		if id, ok := b.c.resolver.LookupNode(t); ok {
			return strconv.FormatInt(id, 10)
		}
		return "-1"
	}

	q := b.c.dialect.Quote
	lit, ok := t.(rdf.Literal)
	if !ok {
		return fmt.Sprintf("(SELECT id FROM nodes WHERE ntype = %s AND svalue = %s)", q(rdf.NodeType(t)), q(lexicalForm(t)))
	}
	s := fmt.Sprintf("(SELECT id FROM nodes WHERE ntype = %s AND svalue = %s AND ltype = %s",
		q(rdf.NodeType(lit)), q(lit.Lexical), b.nodeID(rdf.LiteralDatatype(lit)))
	if lit.Lang != "" {
		s += " AND lang = " + q(lit.Lang)
	}
	return s + ")"
}

func (b *builder) lang(arg algebra.ValueExpr) string {
	d := b.c.dialect
	switch a := arg.(type) {
	case *algebra.Var:
		if term, ok := b.constant(a); ok {
			return b.lang(algebra.C(term))
		}
		v := b.lookup(a.Name)
		switch {
		case v == nil:
			return "''"
		case v.kind == nodeKind:
			return "COALESCE(" + v.nodeColumn("lang") + ", '')"
		case v.LiteralLang != "":
			return "COALESCE(" + v.LiteralLang + ", '')"
		}
	case *algebra.ValueConstant:
		if lit, ok := a.Value.(rdf.Literal); ok {
			return d.Quote(lit.Lang)
		}
	}
	return "''"
}

// nodeType renders the ntype of arg. Computed values are literals.
func (b *builder) nodeType(arg algebra.ValueExpr) string {
	d := b.c.dialect
	switch a := arg.(type) {
	case *algebra.Var:
		if term, ok := b.constant(a); ok {
			return d.Quote(rdf.NodeType(term))
		}
		if v := b.lookup(a.Name); v != nil && v.kind == nodeKind {
			return v.nodeColumn("ntype")
		}
	case *algebra.ValueConstant:
		return d.Quote(rdf.NodeType(a.Value))
	}
	return d.Quote(rdf.TypeString)
}

func (b *builder) bound(arg *algebra.Var) string {
	if _, ok := b.constant(arg); ok {
		return "TRUE"
	}
	v := b.lookup(arg.Name)
	switch {
	case v == nil:
		return "FALSE"
	case v.kind == nodeKind:
		return "(" + v.IDExpr() + " IS NOT NULL)"
	}
	return "(" + v.Exprs[0] + " IS NOT NULL)"
}

// exists compiles the body of an EXISTS in a nested scope correlated with
// this one.
func (b *builder) exists(e *algebra.Exists) (string, error) {
	nb := newBuilder(b.c, b.names, e.Subquery)
	nb.outer = b
	if err := nb.prepare(); err != nil {
		return "", err
	}
	tail, err := nb.tail()
	if err != nil {
		return "", err
	}
	return "EXISTS (SELECT 1" + tail + ")", nil
}
