// Package querysql translates SPARQL algebra trees into a single SQL SELECT
// over the nodes/triples schema.
//
// A Compiler answers one of three ways: a Translation, "not supported"
// (ok == false, the caller routes the query to its own evaluator), or a
// *TranslationError for trees that passed the support check but could not
// be rendered.
package querysql

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/roach88/sparqlsql/internal/algebra"
	"github.com/roach88/sparqlsql/internal/collect"
	"github.com/roach88/sparqlsql/internal/dialect"
	"github.com/roach88/sparqlsql/internal/rdf"
	"github.com/roach88/sparqlsql/internal/valuetype"
)

// NodeResolver maps constant terms to node ids at compile time. ok is
// false for terms the store has never seen.
type NodeResolver interface {
	LookupNode(t rdf.Term) (id int64, ok bool)
}

// Dataset restricts which graphs patterns match. Empty lists leave the
// corresponding patterns unrestricted.
type Dataset struct {
	Default []rdf.IRI
	Named   []rdf.IRI
}

func (ds *Dataset) graphs(scope algebra.Scope) []rdf.IRI {
	if ds == nil {
		return nil
	}
	if scope == algebra.NamedContexts {
		return ds.Named
	}
	return ds.Default
}

// Column describes how one projected variable is read from a result row.
type Column struct {
	// Alias holds the value, or the node id when Type is Node.
	Alias string
	Type  valuetype.ValueType
	// IDAlias holds the node id of a value-read pattern variable.
	IDAlias string
	// TypeAlias and LangAlias hold the literal datatype id and language.
	TypeAlias string
	LangAlias string
}

// Translation is a compiled query.
type Translation struct {
	SQL       string
	Dialect   string
	Columns   map[string]Column
	Variables []string
	Limit     int64
	Offset    int64
	Distinct  bool
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithBindings pre-binds variables to constant terms.
func WithBindings(b map[string]rdf.Term) Option {
	return func(c *Compiler) { c.bindings = maps.Clone(b) }
}

// WithDataset restricts patterns to the given graphs.
func WithDataset(ds Dataset) Option {
	return func(c *Compiler) { c.dataset = &ds }
}

// WithResolver resolves constants to node ids instead of inline lookups.
func WithResolver(r NodeResolver) Option {
	return func(c *Compiler) { c.resolver = r }
}

// WithLogger sets the logger used for routing decisions.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// WithRegistry overrides the function registry. By default the dialect's
// own function table is used.
func WithRegistry(r dialect.Registry) Option {
	return func(c *Compiler) { c.registry = r }
}

// Compiler translates algebra trees for one dialect. It is not modified
// by Compile and may be shared between goroutines.
type Compiler struct {
	dialect  *dialect.Dialect
	registry dialect.Registry
	bindings map[string]rdf.Term
	dataset  *Dataset
	resolver NodeResolver
	logger   *slog.Logger
}

// New creates a Compiler for d.
func New(d *dialect.Dialect, opts ...Option) *Compiler {
	c := &Compiler{
		dialect:  d,
		registry: d,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dialect returns the target dialect.
func (c *Compiler) Dialect() *dialect.Dialect {
	return c.dialect
}

// Compile translates tree. ok is false when the tree needs a feature the
// dialect cannot express; the caller should evaluate it another way.
func (c *Compiler) Compile(tree algebra.TupleExpr) (*Translation, bool, error) {
	if tree == nil {
		return nil, false, invalidTree(nil, "nil tree")
	}

	if ok, offender := collect.SupportReport(tree, c.dialect, c.registry); !ok {
		c.logger.Debug("query not natively translatable",
			"dialect", c.dialect.Name,
			"node", fmt.Sprintf("%T", offender))
		return nil, false, nil
	}

	b := newBuilder(c, newNamer(), tree)
	tr, err := b.translate()
	if errors.Is(err, errDecline) {
		c.logger.Debug("query not natively translatable",
			"dialect", c.dialect.Name,
			"reason", err.Error())
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return tr, true, nil
}

// translate compiles the root scope with the full projection.
func (b *builder) translate() (*Translation, error) {
	if err := b.prepare(); err != nil {
		return nil, err
	}

	items, cols, names := b.projection()
	tail, err := b.tail()
	if err != nil {
		return nil, err
	}

	head := "SELECT "
	if b.distinct {
		head = "SELECT DISTINCT "
	}
	if len(items) == 0 {
		items = []string{"1 AS unit"}
	}

	return &Translation{
		SQL:       head + strings.Join(items, ", ") + tail,
		Dialect:   b.c.dialect.Name,
		Columns:   cols,
		Variables: names,
		Limit:     b.limit,
		Offset:    b.offset,
		Distinct:  b.distinct,
	}, nil
}

// projection renders the root select list.
func (b *builder) projection() ([]string, map[string]Column, []string) {
	var items []string
	cols := map[string]Column{}
	var names []string
	used := map[string]bool{}

	for _, el := range b.projected() {
		v := b.vars[el.Source]
		alias := ""
		if v != nil && !used[v.Alias] {
			alias = v.Alias
		} else {
			alias = b.names.next("V")
		}
		used[alias] = true
		names = append(names, el.Target)

		switch {
		case v == nil && b.c.bindings[el.Source] != nil:
			items = append(items, b.nodeID(b.c.bindings[el.Source])+" AS "+alias)
			cols[el.Target] = Column{Alias: alias, Type: valuetype.Node}
		case v == nil:
			items = append(items, "NULL AS "+alias)
			cols[el.Target] = Column{Alias: alias, Type: valuetype.Node}
		case v.kind == valueKind:
			items = append(items, v.Exprs[0]+" AS "+alias)
			col := Column{Alias: alias, Type: v.Type}
			if v.LiteralType != "" {
				col.TypeAlias = alias + "_ltype"
				items = append(items, v.LiteralType+" AS "+col.TypeAlias)
			}
			if v.LiteralLang != "" {
				col.LangAlias = alias + "_lang"
				items = append(items, v.LiteralLang+" AS "+col.LangAlias)
			}
			cols[el.Target] = col
		case v.Nodes != "" && v.Type != valuetype.Node:
			col := Column{
				Alias:     alias,
				Type:      v.Type,
				IDAlias:   alias + "_id",
				TypeAlias: alias + "_ltype",
				LangAlias: alias + "_lang",
			}
			items = append(items,
				v.nodeColumn(readColumn(v.Type))+" AS "+alias,
				v.IDExpr()+" AS "+col.IDAlias,
				v.nodeColumn("ltype")+" AS "+col.TypeAlias,
				v.nodeColumn("lang")+" AS "+col.LangAlias)
			cols[el.Target] = col
		default:
			items = append(items, v.IDExpr()+" AS "+alias)
			cols[el.Target] = Column{Alias: alias, Type: valuetype.Node}
		}
	}
	return items, cols, names
}

// readColumn is the nodes column a value of type t is read from. Every
// numeric literal has dvalue filled, so numerics share it.
func readColumn(t valuetype.ValueType) string {
	if t.IsNumeric() {
		return "dvalue"
	}
	return t.Column()
}
