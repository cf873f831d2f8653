package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/sparqlsql/internal/rdf"
)

// ErrNodeNotFound is returned by Node for ids with no row.
var ErrNodeNotFound = errors.New("node not found")

// InternNode returns the id of t, inserting it when the store has not seen
// it. Literals intern their datatype IRI first and reference it in ltype.
//
// Interning is lookup-then-insert; concurrent writers interning the same
// new term may create two rows. SQLite stores avoid this with their single
// connection.
func (s *Store) InternNode(ctx context.Context, t rdf.Term) (int64, error) {
	if t == nil {
		return 0, fmt.Errorf("intern node: nil term")
	}

	var ltype sql.NullInt64
	if lit, ok := t.(rdf.Literal); ok {
		dt, err := s.InternNode(ctx, rdf.LiteralDatatype(lit))
		if err != nil {
			return 0, err
		}
		ltype = sql.NullInt64{Int64: dt, Valid: true}
	}

	id, ok, err := s.lookup(ctx, t, ltype)
	if err != nil {
		return 0, fmt.Errorf("intern node: %w", err)
	}
	if ok {
		return id, nil
	}

	row := s.marshalNode(t)
	id, err = s.insert(ctx, `
		INSERT INTO nodes (ntype, svalue, ivalue, dvalue, tvalue, bvalue, ltype, lang)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ntype, row.svalue, row.ivalue, row.dvalue, row.tvalue, row.bvalue, ltype, row.lang)
	if err != nil {
		return 0, fmt.Errorf("intern node %s: %w", t, err)
	}
	return id, nil
}

// LookupNode returns the id of t without inserting it.
func (s *Store) LookupNode(ctx context.Context, t rdf.Term) (int64, bool, error) {
	if t == nil {
		return 0, false, nil
	}
	var ltype sql.NullInt64
	if lit, ok := t.(rdf.Literal); ok {
		dt, found, err := s.LookupNode(ctx, rdf.LiteralDatatype(lit))
		if err != nil || !found {
			return 0, false, err
		}
		ltype = sql.NullInt64{Int64: dt, Valid: true}
	}
	id, ok, err := s.lookup(ctx, t, ltype)
	if err != nil {
		return 0, false, fmt.Errorf("lookup node: %w", err)
	}
	return id, ok, nil
}

func (s *Store) lookup(ctx context.Context, t rdf.Term, ltype sql.NullInt64) (int64, bool, error) {
	query := "SELECT id FROM nodes WHERE ntype = ? AND svalue = ?"
	args := []any{rdf.NodeType(t), lexical(t)}
	if lit, ok := t.(rdf.Literal); ok {
		query += " AND ltype = ?"
		args = append(args, ltype.Int64)
		if lit.Lang != "" {
			query += " AND lang = ?"
			args = append(args, lit.Lang)
		} else {
			query += " AND lang IS NULL"
		}
	}
	query += " ORDER BY id LIMIT 1"

	var id int64
	err := s.queryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// Node returns the term stored under id.
func (s *Store) Node(ctx context.Context, id int64) (rdf.Term, error) {
	var (
		ntype, svalue string
		ltype         sql.NullInt64
		lang          sql.NullString
	)
	err := s.queryRow(ctx, "SELECT ntype, svalue, ltype, lang FROM nodes WHERE id = ?", id).
		Scan(&ntype, &svalue, &ltype, &lang)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read node %d: %w", id, ErrNodeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read node %d: %w", id, err)
	}

	var datatype rdf.IRI
	if ltype.Valid && ltype.Int64 != id {
		dt, err := s.Node(ctx, ltype.Int64)
		if err != nil {
			return nil, err
		}
		iri, ok := dt.(rdf.IRI)
		if !ok {
			return nil, fmt.Errorf("read node %d: datatype %d is not an IRI", id, ltype.Int64)
		}
		datatype = iri
	}
	return unmarshalNode(ntype, svalue, datatype, lang)
}

// nodeCache memoises Node lookups while materialising one result set.
type nodeCache struct {
	s     *Store
	terms map[int64]rdf.Term
}

func (c *nodeCache) get(ctx context.Context, id int64) (rdf.Term, error) {
	if t, ok := c.terms[id]; ok {
		return t, nil
	}
	t, err := c.s.Node(ctx, id)
	if err != nil {
		return nil, err
	}
	c.terms[id] = t
	return t, nil
}

// Resolver adapts the store to querysql.NodeResolver. Lookup errors are
// reported as unknown terms.
func (s *Store) Resolver(ctx context.Context) *Resolver {
	return &Resolver{ctx: ctx, s: s}
}

// Resolver resolves constant terms to node ids at compile time.
type Resolver struct {
	ctx context.Context
	s   *Store
}

// LookupNode implements querysql.NodeResolver.
func (r *Resolver) LookupNode(t rdf.Term) (int64, bool) {
	id, ok, err := r.s.LookupNode(r.ctx, t)
	if err != nil {
		return 0, false
	}
	return id, ok
}
