package querysql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/sparqlsql/internal/dialect"
	"github.com/roach88/sparqlsql/internal/valuetype"
)

// export is a variable a nested scope hands to its parent. Node exports
// are a single id column; value exports carry the value plus its literal
// type and language columns.
type export struct {
	Name  string
	Alias string
	kind  kind
	Type  valuetype.ValueType
	Expr  string
	LType string
	Lang  string
	null  bool

	// nullable marks a column that is NULL in some rows of the scope
	nullable bool
}

func (e export) columns() []string {
	if e.kind == valueKind {
		return []string{e.Alias, e.Alias + "_lang", e.Alias + "_ltype"}
	}
	return []string{e.Alias}
}

func (e export) selectItems(d *dialect.Dialect) []string {
	expr, ltype, lang := e.Expr, e.LType, e.Lang
	if e.null {
		if e.kind == nodeKind {
			expr = d.Cast(valuetype.Int, "NULL")
		} else {
			expr = d.Cast(e.Type, "NULL")
		}
		ltype = d.Cast(valuetype.Int, "NULL")
		lang = d.Cast(valuetype.String, "NULL")
	}
	if e.kind == nodeKind {
		return []string{expr + " AS " + e.Alias}
	}
	if ltype == "" {
		ltype = "NULL"
	}
	if lang == "" {
		lang = "NULL"
	}
	return []string{
		expr + " AS " + e.Alias,
		ltype + " AS " + e.Alias + "_ltype",
		lang + " AS " + e.Alias + "_lang",
	}
}

// qualified is the export as its parent sees it through table alias t.
func (e export) qualified(t string) export {
	q := export{Name: e.Name, Alias: e.Alias, kind: e.kind, Type: e.Type, Expr: t + "." + e.Alias, nullable: e.nullable || e.null}
	if e.kind == valueKind {
		q.LType = t + "." + e.Alias + "_ltype"
		q.Lang = t + "." + e.Alias + "_lang"
	}
	return q
}

// scopeSQL is a compiled scope whose select list is not yet rendered, so a
// union can rename its exports before the branch text is produced.
type scopeSQL struct {
	distinct bool
	exports  []export
	tail     string
}

func (s *scopeSQL) render(d *dialect.Dialect, exports []export) string {
	var items []string
	for _, e := range exports {
		items = append(items, e.selectItems(d)...)
	}
	if len(items) == 0 {
		items = []string{"1 AS unit"}
	}
	head := "SELECT "
	if s.distinct {
		head = "SELECT DISTINCT "
	}
	return head + strings.Join(items, ", ") + s.tail
}

type subquery interface {
	member
	alias() string
	exports() []export
	joinNodes(j nodesJoin)
}

// SubQuery is a nested SELECT with its own projection.
type SubQuery struct {
	Name  string
	sql   string
	cols  []export
	joins []nodesJoin
}

func (s *SubQuery) alias() string { return s.Name }

func (s *SubQuery) from() string {
	return renderNodesJoins(fmt.Sprintf("(%s) AS %s", s.sql, s.Name), s.joins)
}

func (s *SubQuery) exports() []export {
	out := make([]export, len(s.cols))
	for i, c := range s.cols {
		out[i] = c.qualified(s.Name)
	}
	return out
}

func (s *SubQuery) joinNodes(j nodesJoin) { s.joins = append(s.joins, j) }

// Union is a UNION ALL of two reconciled branches.
type Union struct {
	Name  string
	left  string
	right string
	cols  []export
	joins []nodesJoin
}

func (u *Union) alias() string { return u.Name }

// Columns returns the union's column aliases in the order both branches
// select them.
func (u *Union) Columns() []string {
	var cols []string
	for _, c := range u.cols {
		cols = append(cols, c.columns()...)
	}
	if len(cols) == 0 {
		cols = []string{"unit"}
	}
	sort.Strings(cols)
	return cols
}

func (u *Union) from() string {
	cols := strings.Join(u.Columns(), ", ")
	base := fmt.Sprintf("(SELECT %s FROM (%s) AS %s_L UNION ALL SELECT %s FROM (%s) AS %s_R) AS %s",
		cols, u.left, u.Name, cols, u.right, u.Name, u.Name)
	return renderNodesJoins(base, u.joins)
}

func (u *Union) exports() []export {
	out := make([]export, len(u.cols))
	for i, c := range u.cols {
		out[i] = c.qualified(u.Name)
	}
	return out
}

func (u *Union) joinNodes(j nodesJoin) { u.joins = append(u.joins, j) }

// reconcile aligns the exports of two union branches. Both results list the
// same names in the same order under shared aliases: the alias of a name's
// first occurrence wins, and a name missing from one branch is padded with
// a NULL of the same shape. ok is false when a name is a node id in one
// branch and a computed value in the other, or the two values share no
// type.
func reconcile(left, right []export) (l, r []export, ok bool) {
	lm := make(map[string]export, len(left))
	for _, e := range left {
		lm[e.Name] = e
	}
	rm := make(map[string]export, len(right))
	for _, e := range right {
		rm[e.Name] = e
	}

	names := make([]string, 0, len(left)+len(right))
	for _, e := range left {
		names = append(names, e.Name)
	}
	for _, e := range right {
		if _, dup := lm[e.Name]; !dup {
			names = append(names, e.Name)
		}
	}

	for _, name := range names {
		le, inL := lm[name]
		re, inR := rm[name]
		switch {
		case inL && inR:
			if le.kind != re.kind {
				return nil, nil, false
			}
			if le.kind == valueKind {
				t, err := valuetype.Coerce(le.Type, re.Type)
				if err != nil {
					return nil, nil, false
				}
				le.Type, re.Type = t, t
			}
			re.Alias = le.Alias
		case inL:
			re = padding(le)
		default:
			le = padding(re)
		}
		l = append(l, le)
		r = append(r, re)
	}
	return l, r, true
}

func padding(e export) export {
	return export{Name: e.Name, Alias: e.Alias, kind: e.kind, Type: e.Type, null: true}
}
