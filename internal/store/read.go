package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/sparqlsql/internal/querysql"
	"github.com/roach88/sparqlsql/internal/rdf"
	"github.com/roach88/sparqlsql/internal/valuetype"
)

var _ querysql.NodeResolver = (*Resolver)(nil)

// Binding is one solution: projected variable name to term. Unbound
// variables are absent.
type Binding map[string]rdf.Term

// Select runs a compiled query and materialises its rows in result order.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Select(ctx context.Context, tr *querysql.Translation) ([]Binding, error) {
	if tr.Dialect != s.dialect.Name {
		return nil, fmt.Errorf("select: query compiled for %s, store is %s", tr.Dialect, s.dialect.Name)
	}

	rows, err := s.db.QueryContext(ctx, tr.SQL)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	// postgres folds unquoted aliases to lower case
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[strings.ToLower(n)] = i
	}

	var raw [][]any
	for rows.Next() {
		vals := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		raw = append(raw, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	// node lookups need the connection the result set holds
	rows.Close()

	cache := &nodeCache{s: s, terms: map[int64]rdf.Term{}}
	out := make([]Binding, 0, len(raw))
	for _, vals := range raw {
		get := func(alias string) any {
			if i, ok := index[strings.ToLower(alias)]; ok && alias != "" {
				return vals[i]
			}
			return nil
		}
		b := Binding{}
		for _, name := range tr.Variables {
			col, ok := tr.Columns[name]
			if !ok {
				continue
			}
			t, err := s.term(ctx, cache, col, get)
			if err != nil {
				return nil, fmt.Errorf("variable %s: %w", name, err)
			}
			if t != nil {
				b[name] = t
			}
		}
		out = append(out, b)
	}
	return out, nil
}

// term decodes one projected column into a term, nil when unbound.
func (s *Store) term(ctx context.Context, cache *nodeCache, col querysql.Column, get func(string) any) (rdf.Term, error) {
	if col.Type == valuetype.Node || col.IDAlias != "" {
		alias := col.Alias
		if col.IDAlias != "" {
			alias = col.IDAlias
		}
		id, ok, err := asInt64(get(alias))
		if err != nil || !ok {
			return nil, err
		}
		return cache.get(ctx, id)
	}

	v := get(col.Alias)
	if v == nil {
		return nil, nil
	}
	lex, err := s.lexicalValue(v, col.Type)
	if err != nil {
		return nil, err
	}

	if lang := asString(get(col.LangAlias)); lang != "" {
		return rdf.NewLangLiteral(lex, lang), nil
	}
	datatype := defaultDatatype(col.Type)
	if id, ok, err := asInt64(get(col.TypeAlias)); err != nil {
		return nil, err
	} else if ok {
		dt, err := cache.get(ctx, id)
		if err != nil {
			return nil, err
		}
		if iri, ok := dt.(rdf.IRI); ok {
			datatype = iri
		}
	}
	return rdf.NewTypedLiteral(lex, datatype), nil
}

func defaultDatatype(t valuetype.ValueType) rdf.IRI {
	switch t {
	case valuetype.Int:
		return rdf.XSDInteger
	case valuetype.Decimal:
		return rdf.XSDDecimal
	case valuetype.Double:
		return rdf.XSDDouble
	case valuetype.Date:
		return rdf.XSDDateTime
	case valuetype.Bool:
		return rdf.XSDBoolean
	}
	return rdf.XSDString
}

// lexicalValue renders a driver value as the lexical form of a t literal.
func (s *Store) lexicalValue(v any, t valuetype.ValueType) (string, error) {
	switch t {
	case valuetype.Int:
		switch n := v.(type) {
		case int64:
			return strconv.FormatInt(n, 10), nil
		case float64:
			return strconv.FormatInt(int64(n), 10), nil
		}
	case valuetype.Decimal, valuetype.Double:
		switch n := v.(type) {
		case int64:
			return strconv.FormatInt(n, 10), nil
		case float64:
			return strconv.FormatFloat(n, 'f', -1, 64), nil
		}
	case valuetype.Bool:
		switch b := v.(type) {
		case bool:
			return strconv.FormatBool(b), nil
		case int64:
			return strconv.FormatBool(b != 0), nil
		}
		if str := asString(v); str == "1" || str == "0" {
			return strconv.FormatBool(str == "1"), nil
		}
	case valuetype.Date:
		switch ts := v.(type) {
		case time.Time:
			return ts.UTC().Format(time.RFC3339), nil
		}
		if ts, ok := rdf.ParseDate(asString(v)); ok {
			return ts.Format(time.RFC3339), nil
		}
	}

	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	case time.Time:
		return x.UTC().Format(time.RFC3339), nil
	}
	return "", fmt.Errorf("unexpected %T value", v)
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	}
	return ""
}

// asInt64 reads a node id. Some drivers return integers as text.
func asInt64(v any) (int64, bool, error) {
	switch x := v.(type) {
	case nil:
		return 0, false, nil
	case int64:
		return x, true, nil
	case int32:
		return int64(x), true, nil
	case float64:
		return int64(x), true, nil
	case []byte:
		n, err := strconv.ParseInt(string(x), 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("node id %q: %w", x, err)
		}
		return n, true, nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("node id %q: %w", x, err)
		}
		return n, true, nil
	}
	return 0, false, fmt.Errorf("unexpected node id %T", v)
}
