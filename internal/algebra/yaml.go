package algebra

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sparqlsql/internal/rdf"
)

// DecodeError reports a malformed algebra document.
type DecodeError struct {
	Line    int
	Message string
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Document is a decoded algebra YAML document.
type Document struct {
	Prefixes rdf.Prefixes
	Query    TupleExpr
}

type document struct {
	Prefixes map[string]string `yaml:"prefixes"`
	Query    yaml.Node         `yaml:"query"`
}

// DecodeYAML decodes a YAML algebra document. See the package docs for the
// document shape.
func DecodeYAML(data []byte) (*Document, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &DecodeError{Message: err.Error()}
	}
	if doc.Query.Kind == 0 {
		return nil, &DecodeError{Message: "missing query"}
	}
	prefixes := rdf.Prefixes(doc.Prefixes)
	q, err := DecodeNode(&doc.Query, prefixes)
	if err != nil {
		return nil, err
	}
	return &Document{Prefixes: prefixes, Query: q}, nil
}

// DecodeNode decodes a tuple expression from an already parsed YAML node.
func DecodeNode(n *yaml.Node, prefixes rdf.Prefixes) (TupleExpr, error) {
	d := &decoder{prefixes: prefixes}
	return d.tuple(n)
}

type decoder struct {
	prefixes rdf.Prefixes
}

func errorf(n *yaml.Node, format string, args ...any) error {
	return &DecodeError{Line: n.Line, Message: fmt.Sprintf(format, args...)}
}

// single returns the key and value of a one-entry mapping.
func single(n *yaml.Node) (string, *yaml.Node, error) {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return "", nil, errorf(n, "expected a mapping with exactly one operator key")
	}
	return n.Content[0].Value, n.Content[1], nil
}

// field returns the value of key in mapping n, or nil.
func field(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func (d *decoder) tuple(n *yaml.Node) (TupleExpr, error) {
	if n.Kind == yaml.ScalarNode {
		switch n.Value {
		case "singleton":
			return &SingletonSet{}, nil
		case "empty":
			return &EmptySet{}, nil
		}
		return nil, errorf(n, "unknown tuple expression %q", n.Value)
	}

	op, body, err := single(n)
	if err != nil {
		return nil, err
	}

	switch op {
	case "pattern":
		return d.pattern(body)
	case "bgp":
		if body.Kind != yaml.SequenceNode || len(body.Content) == 0 {
			return nil, errorf(body, "bgp expects a non-empty list of patterns")
		}
		return d.leftDeep(body, func(item *yaml.Node) (TupleExpr, error) { return d.pattern(item) }, func(l, r TupleExpr) TupleExpr {
			return &Join{Left: l, Right: r}
		})
	case "join":
		return d.leftDeep(body, d.tuple, func(l, r TupleExpr) TupleExpr { return &Join{Left: l, Right: r} })
	case "union":
		return d.leftDeep(body, d.tuple, func(l, r TupleExpr) TupleExpr { return &Union{Left: l, Right: r} })
	case "minus":
		return d.leftDeep(body, d.tuple, func(l, r TupleExpr) TupleExpr { return &Difference{Left: l, Right: r} })
	case "intersection":
		return d.leftDeep(body, d.tuple, func(l, r TupleExpr) TupleExpr { return &Intersection{Left: l, Right: r} })
	case "optional":
		return d.optional(body)
	case "projection":
		return d.projection(body)
	case "extension":
		return d.extension(body)
	case "filter":
		arg, err := d.arg(body)
		if err != nil {
			return nil, err
		}
		cond, err := d.requiredValue(body, "condition")
		if err != nil {
			return nil, err
		}
		return &Filter{Arg: arg, Condition: cond}, nil
	case "group":
		return d.group(body)
	case "order":
		return d.order(body)
	case "slice":
		return d.slice(body)
	case "distinct":
		arg, err := d.tuple(body)
		if err != nil {
			return nil, err
		}
		return &Distinct{Arg: arg}, nil
	case "reduced":
		arg, err := d.tuple(body)
		if err != nil {
			return nil, err
		}
		return &Reduced{Arg: arg}, nil
	case "describe":
		arg, err := d.tuple(body)
		if err != nil {
			return nil, err
		}
		return &DescribeOperator{Arg: arg}, nil
	case "service":
		arg, err := d.arg(body)
		if err != nil {
			return nil, err
		}
		ref, err := d.slotField(body, "endpoint")
		if err != nil {
			return nil, err
		}
		return &Service{Arg: arg, ServiceRef: ref}, nil
	case "path":
		return d.path(body)
	case "zero-length-path":
		slots, err := d.slots(body, 2, 3)
		if err != nil {
			return nil, err
		}
		p := &ZeroLengthPath{Subject: slots[0], Object: slots[1]}
		if len(slots) == 3 {
			p.Context = slots[2]
		}
		return p, nil
	case "multi-projection":
		arg, err := d.arg(body)
		if err != nil {
			return nil, err
		}
		return &MultiProjection{Arg: arg}, nil
	}
	return nil, errorf(n, "unknown tuple operator %q", op)
}

func (d *decoder) leftDeep(n *yaml.Node, item func(*yaml.Node) (TupleExpr, error), combine func(l, r TupleExpr) TupleExpr) (TupleExpr, error) {
	if n.Kind != yaml.SequenceNode || len(n.Content) < 1 {
		return nil, errorf(n, "expected a non-empty list")
	}
	var result TupleExpr
	for i, c := range n.Content {
		t, err := item(c)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			result = t
			continue
		}
		result = combine(result, t)
	}
	return result, nil
}

func (d *decoder) arg(n *yaml.Node) (TupleExpr, error) {
	a := field(n, "arg")
	if a == nil {
		return nil, errorf(n, "missing arg")
	}
	return d.tuple(a)
}

func (d *decoder) pattern(n *yaml.Node) (TupleExpr, error) {
	slots, err := d.slots(n, 3, 4)
	if err != nil {
		return nil, err
	}
	p := &StatementPattern{Subject: slots[0], Predicate: slots[1], Object: slots[2]}
	if len(slots) == 4 {
		p.Context = slots[3]
		p.Scope = NamedContexts
	}
	return p, nil
}

func (d *decoder) slots(n *yaml.Node, minLen, maxLen int) ([]*Var, error) {
	if n.Kind != yaml.SequenceNode || len(n.Content) < minLen || len(n.Content) > maxLen {
		return nil, errorf(n, "expected %d to %d pattern slots", minLen, maxLen)
	}
	vars := make([]*Var, len(n.Content))
	for i, c := range n.Content {
		v, err := d.slot(c)
		if err != nil {
			return nil, err
		}
		vars[i] = v
	}
	return vars, nil
}

func (d *decoder) slotField(n *yaml.Node, key string) (*Var, error) {
	f := field(n, key)
	if f == nil {
		return nil, errorf(n, "missing %s", key)
	}
	return d.slot(f)
}

// slot decodes a pattern position: a variable or a constant.
func (d *decoder) slot(n *yaml.Node) (*Var, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, errorf(n, "pattern slot must be a scalar")
	}
	if rdf.IsVar(n.Value) {
		name, _ := rdf.ParseVar(n.Value)
		return V(name), nil
	}
	if strings.HasPrefix(n.Value, "_:") {
		// blank nodes in patterns act as non-projectable variables
		return &Var{Name: "_anon_" + n.Value[2:], Anonymous: true}, nil
	}
	t, err := rdf.ParseTerm(n.Value, d.prefixes)
	if err != nil {
		return nil, errorf(n, "%v", err)
	}
	return Const(t), nil
}

func (d *decoder) optional(n *yaml.Node) (TupleExpr, error) {
	l, r := field(n, "left"), field(n, "right")
	if l == nil || r == nil {
		return nil, errorf(n, "optional needs left and right")
	}
	left, err := d.tuple(l)
	if err != nil {
		return nil, err
	}
	right, err := d.tuple(r)
	if err != nil {
		return nil, err
	}
	lj := &LeftJoin{Left: left, Right: right}
	if c := field(n, "condition"); c != nil {
		if lj.Condition, err = d.value(c); err != nil {
			return nil, err
		}
	}
	return lj, nil
}

func (d *decoder) projection(n *yaml.Node) (TupleExpr, error) {
	arg, err := d.arg(n)
	if err != nil {
		return nil, err
	}
	vars := field(n, "vars")
	if vars == nil || vars.Kind != yaml.SequenceNode {
		return nil, errorf(n, "projection needs a vars list")
	}
	p := &Projection{Arg: arg}
	for _, v := range vars.Content {
		source, target, _ := strings.Cut(strings.TrimSpace(v.Value), " AS ")
		source = strings.TrimPrefix(strings.TrimSpace(source), "?")
		target = strings.TrimPrefix(strings.TrimSpace(target), "?")
		if target == "" {
			target = source
		}
		if source == "" {
			return nil, errorf(v, "empty projection variable")
		}
		p.Elems = append(p.Elems, ProjectionElem{Source: source, Target: target})
	}
	return p, nil
}

func (d *decoder) extension(n *yaml.Node) (TupleExpr, error) {
	arg, err := d.arg(n)
	if err != nil {
		return nil, err
	}
	elems := field(n, "elems")
	if elems == nil || elems.Kind != yaml.SequenceNode {
		return nil, errorf(n, "extension needs an elems list")
	}
	ext := &Extension{Arg: arg}
	for _, e := range elems.Content {
		name, expr, err := d.binding(e, "expr")
		if err != nil {
			return nil, err
		}
		ext.Elems = append(ext.Elems, ExtensionElem{Name: name, Expr: expr})
	}
	return ext, nil
}

func (d *decoder) binding(n *yaml.Node, exprKey string) (string, ValueExpr, error) {
	v := field(n, "var")
	if v == nil {
		return "", nil, errorf(n, "binding needs var")
	}
	expr, err := d.requiredValue(n, exprKey)
	if err != nil {
		return "", nil, err
	}
	return strings.TrimPrefix(v.Value, "?"), expr, nil
}

func (d *decoder) group(n *yaml.Node) (TupleExpr, error) {
	arg, err := d.arg(n)
	if err != nil {
		return nil, err
	}
	g := &Group{Arg: arg}
	if by := field(n, "by"); by != nil {
		for _, b := range by.Content {
			g.BindingNames = append(g.BindingNames, strings.TrimPrefix(b.Value, "?"))
		}
	}
	if elems := field(n, "elems"); elems != nil {
		for _, e := range elems.Content {
			name, expr, err := d.binding(e, "agg")
			if err != nil {
				return nil, err
			}
			if !IsAggregate(expr) {
				return nil, errorf(e, "group element %s is not an aggregate", name)
			}
			g.Elems = append(g.Elems, GroupElem{Name: name, Operator: expr})
		}
	}
	return g, nil
}

func (d *decoder) order(n *yaml.Node) (TupleExpr, error) {
	arg, err := d.arg(n)
	if err != nil {
		return nil, err
	}
	by := field(n, "by")
	if by == nil || by.Kind != yaml.SequenceNode {
		return nil, errorf(n, "order needs a by list")
	}
	o := &Order{Arg: arg}
	for _, b := range by.Content {
		asc := true
		exprNode := b
		if b.Kind == yaml.MappingNode {
			if desc := field(b, "desc"); desc != nil {
				asc, exprNode = false, desc
			} else if a := field(b, "asc"); a != nil {
				exprNode = a
			}
		}
		expr, err := d.value(exprNode)
		if err != nil {
			return nil, err
		}
		o.Elems = append(o.Elems, OrderElem{Expr: expr, Ascending: asc})
	}
	return o, nil
}

func (d *decoder) slice(n *yaml.Node) (TupleExpr, error) {
	arg, err := d.arg(n)
	if err != nil {
		return nil, err
	}
	s := &Slice{Arg: arg, Offset: -1, Limit: -1}
	if l := field(n, "limit"); l != nil {
		if s.Limit, err = strconv.ParseInt(l.Value, 10, 64); err != nil {
			return nil, errorf(l, "invalid limit %q", l.Value)
		}
	}
	if o := field(n, "offset"); o != nil {
		if s.Offset, err = strconv.ParseInt(o.Value, 10, 64); err != nil {
			return nil, errorf(o, "invalid offset %q", o.Value)
		}
	}
	return s, nil
}

func (d *decoder) path(n *yaml.Node) (TupleExpr, error) {
	subj, err := d.slotField(n, "subject")
	if err != nil {
		return nil, err
	}
	obj, err := d.slotField(n, "object")
	if err != nil {
		return nil, err
	}
	p := field(n, "path")
	if p == nil {
		return nil, errorf(n, "path needs a path expression")
	}
	inner, err := d.tuple(p)
	if err != nil {
		return nil, err
	}
	alp := &ArbitraryLengthPath{Subject: subj, Object: obj, Path: inner}
	if m := field(n, "min"); m != nil {
		if alp.MinLength, err = strconv.ParseInt(m.Value, 10, 64); err != nil {
			return nil, errorf(m, "invalid min %q", m.Value)
		}
	}
	return alp, nil
}

func (d *decoder) requiredValue(n *yaml.Node, key string) (ValueExpr, error) {
	f := field(n, key)
	if f == nil {
		return nil, errorf(n, "missing %s", key)
	}
	return d.value(f)
}

func (d *decoder) value(n *yaml.Node) (ValueExpr, error) {
	if n.Kind == yaml.ScalarNode {
		if rdf.IsVar(n.Value) {
			name, _ := rdf.ParseVar(n.Value)
			return V(name), nil
		}
		t, err := rdf.ParseTerm(n.Value, d.prefixes)
		if err != nil {
			return nil, errorf(n, "%v", err)
		}
		return C(t), nil
	}

	op, body, err := single(n)
	if err != nil {
		return nil, err
	}

	switch op {
	case "eq", "ne", "lt", "le", "gt", "ge":
		args, err := d.values(body, 2, 2)
		if err != nil {
			return nil, err
		}
		return &Compare{Left: args[0], Right: args[1], Op: compareOps[op]}, nil
	case "add", "sub", "mul", "div":
		args, err := d.values(body, 2, -1)
		if err != nil {
			return nil, err
		}
		result := args[0]
		for _, a := range args[1:] {
			result = &MathExpr{Left: result, Right: a, Op: mathOps[op]}
		}
		return result, nil
	case "and", "or":
		args, err := d.values(body, 2, -1)
		if err != nil {
			return nil, err
		}
		result := args[0]
		for _, a := range args[1:] {
			if op == "and" {
				result = &And{Left: result, Right: a}
			} else {
				result = &Or{Left: result, Right: a}
			}
		}
		return result, nil
	case "not":
		arg, err := d.value(body)
		if err != nil {
			return nil, err
		}
		return &Not{Arg: arg}, nil
	case "call":
		return d.call(body)
	case "str", "lang", "datatype", "label", "localname", "isuri", "isbnode", "isliteral":
		arg, err := d.value(body)
		if err != nil {
			return nil, err
		}
		return unaryOps[op](arg), nil
	case "bound":
		name, err := rdf.ParseVar(body.Value)
		if err != nil {
			return nil, errorf(body, "%v", err)
		}
		return &Bound{Arg: V(name)}, nil
	case "regex":
		args, err := d.values(body, 2, 3)
		if err != nil {
			return nil, err
		}
		r := &Regex{Arg: args[0], Pattern: args[1]}
		if len(args) == 3 {
			r.Flags = args[2]
		}
		return r, nil
	case "like":
		arg, err := d.requiredValue(body, "arg")
		if err != nil {
			return nil, err
		}
		pattern := field(body, "pattern")
		if pattern == nil {
			return nil, errorf(body, "like needs a pattern")
		}
		l := &Like{Arg: arg, Pattern: pattern.Value, CaseSensitive: true}
		if cs := field(body, "case-sensitive"); cs != nil {
			l.CaseSensitive = cs.Value == "true"
		}
		return l, nil
	case "langmatches", "sameterm":
		args, err := d.values(body, 2, 2)
		if err != nil {
			return nil, err
		}
		if op == "langmatches" {
			return &LangMatches{Left: args[0], Right: args[1]}, nil
		}
		return &SameTerm{Left: args[0], Right: args[1]}, nil
	case "if":
		args, err := d.values(body, 3, 3)
		if err != nil {
			return nil, err
		}
		return &If{Condition: args[0], Result: args[1], Alternative: args[2]}, nil
	case "coalesce":
		args, err := d.values(body, 1, -1)
		if err != nil {
			return nil, err
		}
		return &Coalesce{Args: args}, nil
	case "exists":
		sub, err := d.tuple(body)
		if err != nil {
			return nil, err
		}
		return &Exists{Subquery: sub}, nil
	case "count", "sum", "avg", "min", "max", "sample", "group_concat":
		return d.aggregate(op, body)
	}
	return nil, errorf(n, "unknown value operator %q", op)
}

func (d *decoder) values(n *yaml.Node, minLen, maxLen int) ([]ValueExpr, error) {
	if n.Kind != yaml.SequenceNode || len(n.Content) < minLen || (maxLen >= 0 && len(n.Content) > maxLen) {
		return nil, errorf(n, "wrong number of operands")
	}
	out := make([]ValueExpr, len(n.Content))
	for i, c := range n.Content {
		v, err := d.value(c)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (d *decoder) call(n *yaml.Node) (ValueExpr, error) {
	fn := field(n, "fn")
	if fn == nil {
		return nil, errorf(n, "call needs fn")
	}
	uri := fn.Value
	if t, err := rdf.ParseTerm(uri, d.prefixes); err == nil {
		if iri, ok := t.(rdf.IRI); ok {
			uri = string(iri)
		}
	}
	call := &FunctionCall{URI: uri}
	if args := field(n, "args"); args != nil {
		vs, err := d.values(args, 0, -1)
		if err != nil {
			return nil, err
		}
		call.Args = vs
	}
	return call, nil
}

// aggregate accepts either the bare argument or an options mapping with an
// "arg" key: {arg: ?x, distinct: true, separator: ", "}.
func (d *decoder) aggregate(op string, n *yaml.Node) (ValueExpr, error) {
	argNode, distinct, separator := n, false, " "
	if n.Kind == yaml.MappingNode && field(n, "arg") != nil {
		argNode = field(n, "arg")
		if dn := field(n, "distinct"); dn != nil {
			distinct = dn.Value == "true"
		}
		if sn := field(n, "separator"); sn != nil {
			separator = sn.Value
		}
	}

	if op == "count" && argNode.Kind == yaml.ScalarNode && argNode.Value == "*" {
		return &Count{Distinct: distinct}, nil
	}
	arg, err := d.value(argNode)
	if err != nil {
		return nil, err
	}

	switch op {
	case "count":
		return &Count{Arg: arg, Distinct: distinct}, nil
	case "sum":
		return &Sum{Arg: arg, Distinct: distinct}, nil
	case "avg":
		return &Avg{Arg: arg, Distinct: distinct}, nil
	case "min":
		return &Min{Arg: arg}, nil
	case "max":
		return &Max{Arg: arg}, nil
	case "sample":
		return &Sample{Arg: arg}, nil
	default:
		return &GroupConcat{Arg: arg, Separator: separator, Distinct: distinct}, nil
	}
}

var compareOps = map[string]CompareOp{"eq": EQ, "ne": NE, "lt": LT, "le": LE, "gt": GT, "ge": GE}

var mathOps = map[string]MathOp{"add": Plus, "sub": Minus, "mul": Multiply, "div": Divide}

var unaryOps = map[string]func(ValueExpr) ValueExpr{
	"str":       func(a ValueExpr) ValueExpr { return &Str{Arg: a} },
	"lang":      func(a ValueExpr) ValueExpr { return &Lang{Arg: a} },
	"datatype":  func(a ValueExpr) ValueExpr { return &Datatype{Arg: a} },
	"label":     func(a ValueExpr) ValueExpr { return &Label{Arg: a} },
	"localname": func(a ValueExpr) ValueExpr { return &LocalName{Arg: a} },
	"isuri":     func(a ValueExpr) ValueExpr { return &IsURI{Arg: a} },
	"isbnode":   func(a ValueExpr) ValueExpr { return &IsBNode{Arg: a} },
	"isliteral": func(a ValueExpr) ValueExpr { return &IsLiteral{Arg: a} },
}
