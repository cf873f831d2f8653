package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/sparqlsql/internal/rdf"
)

// Quad is one statement. A nil Graph is the default graph.
type Quad struct {
	Subject   rdf.Term
	Predicate rdf.Term
	Object    rdf.Term
	Graph     rdf.Term
}

func (q Quad) validate() error {
	switch q.Subject.(type) {
	case rdf.IRI, rdf.BNode:
	default:
		return fmt.Errorf("subject must be an IRI or blank node, got %v", q.Subject)
	}
	if _, ok := q.Predicate.(rdf.IRI); !ok {
		return fmt.Errorf("predicate must be an IRI, got %v", q.Predicate)
	}
	if q.Object == nil {
		return fmt.Errorf("object is required")
	}
	switch q.Graph.(type) {
	case nil, rdf.IRI, rdf.BNode:
	default:
		return fmt.Errorf("graph must be an IRI or blank node, got %v", q.Graph)
	}
	return nil
}

// AddTriple stores s p o in graph c (nil for the default graph) and
// returns the triple id. Adding a statement that is already live returns
// the existing id.
func (s *Store) AddTriple(ctx context.Context, subj, pred, obj, c rdf.Term) (int64, error) {
	q := Quad{Subject: subj, Predicate: pred, Object: obj, Graph: c}
	if err := q.validate(); err != nil {
		return 0, fmt.Errorf("add triple: %w", err)
	}

	ids := make([]int64, 3)
	for i, t := range []rdf.Term{subj, pred, obj} {
		id, err := s.InternNode(ctx, t)
		if err != nil {
			return 0, fmt.Errorf("add triple: %w", err)
		}
		ids[i] = id
	}
	var graph sql.NullInt64
	if c != nil {
		id, err := s.InternNode(ctx, c)
		if err != nil {
			return 0, fmt.Errorf("add triple: %w", err)
		}
		graph = sql.NullInt64{Int64: id, Valid: true}
	}

	id, ok, err := s.liveTriple(ctx, ids, graph)
	if err != nil {
		return 0, fmt.Errorf("add triple: %w", err)
	}
	if ok {
		return id, nil
	}

	id, err = s.insert(ctx, `
		INSERT INTO triples (subject, predicate, object, context, deleted, inferred)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ids[0], ids[1], ids[2], graph, false, false)
	if err != nil {
		return 0, fmt.Errorf("add triple: %w", err)
	}
	return id, nil
}

func (s *Store) liveTriple(ctx context.Context, ids []int64, graph sql.NullInt64) (int64, bool, error) {
	query := "SELECT id FROM triples WHERE subject = ? AND predicate = ? AND object = ? AND deleted = ?"
	args := []any{ids[0], ids[1], ids[2], false}
	if graph.Valid {
		query += " AND context = ?"
		args = append(args, graph.Int64)
	} else {
		query += " AND context IS NULL"
	}

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

// DeleteTriple marks the live statement s p o in graph c deleted and
// returns the number of rows affected. Rows are kept with deletedAt set.
func (s *Store) DeleteTriple(ctx context.Context, subj, pred, obj, c rdf.Term) (int64, error) {
	terms := []rdf.Term{subj, pred, obj}
	if c != nil {
		terms = append(terms, c)
	}
	ids := make([]int64, len(terms))
	for i, t := range terms {
		id, ok, err := s.LookupNode(ctx, t)
		if err != nil {
			return 0, fmt.Errorf("delete triple: %w", err)
		}
		if !ok {
			return 0, nil
		}
		ids[i] = id
	}

	query := `UPDATE triples SET deleted = ?, deletedAt = CURRENT_TIMESTAMP
		WHERE subject = ? AND predicate = ? AND object = ? AND deleted = ?`
	args := []any{true, ids[0], ids[1], ids[2], false}
	if c != nil {
		query += " AND context = ?"
		args = append(args, ids[3])
	} else {
		query += " AND context IS NULL"
	}

	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete triple: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete triple: %w", err)
	}
	return n, nil
}
