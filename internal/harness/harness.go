package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"

	"github.com/roach88/sparqlsql/internal/algebra"
	"github.com/roach88/sparqlsql/internal/dialect"
	"github.com/roach88/sparqlsql/internal/querysql"
	"github.com/roach88/sparqlsql/internal/rdf"
	"github.com/roach88/sparqlsql/internal/sqlcheck"
	"github.com/roach88/sparqlsql/internal/store"
)

// Harness runs scenarios against one store.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory SQLite database for isolation.
//
// Execution flow:
//  1. Create fresh in-memory database and load the scenario data
//  2. Decode the algebra tree
//  3. Compile for the scenario's dialect and check the SQL grammar
//  4. Execute sqlite translations and collect rows
//  5. Compare against the expect clause
//
// The returned error is for harness failures (bad data, broken store);
// unmet expectations are reported on the Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(store.DriverSQLite3, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, s *Scenario) (*Result, error) {
	prefixes := maps.Clone(rdf.DefaultPrefixes)
	maps.Copy(prefixes, s.Prefixes)

	if _, err := h.store.Load(ctx, &store.DataFile{Prefixes: s.Prefixes, Triples: s.Data}); err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}

	tree, err := algebra.DecodeNode(&s.Query, prefixes)
	if err != nil {
		return nil, fmt.Errorf("decode query: %w", err)
	}

	d, err := dialect.Named(s.Dialect)
	if err != nil {
		return nil, err
	}
	opts := []querysql.Option{querysql.WithLogger(h.logger)}
	if d.Name == h.store.Dialect().Name {
		opts = append(opts, querysql.WithResolver(h.store.Resolver(ctx)))
	}
	tr, native, err := querysql.New(d, opts...).Compile(tree)

	result := NewResult()
	result.Native = native
	if err != nil {
		checkError(result, s.Expect, err)
		return result, nil
	}
	if s.Expect.Error != "" {
		result.AddError(fmt.Sprintf("expected error containing %q, compiled without error", s.Expect.Error))
	}
	checkNative(result, s.Expect, native)
	if !native {
		return result, nil
	}

	result.SQL = tr.SQL
	if err := sqlcheck.Check(d.Name, tr.SQL); err != nil {
		result.AddError(err.Error())
	}
	checkSQL(result, s.Expect, tr.SQL)

	if d.Name != h.store.Dialect().Name {
		return result, nil
	}
	bindings, err := h.store.Select(ctx, tr)
	if err != nil {
		result.AddError(fmt.Sprintf("execute: %v", err))
		return result, nil
	}
	result.Rows = renderRows(bindings)
	if s.Expect.Rows != nil {
		checkRows(result, s.Expect.Rows, result.Rows, s.Expect.Ordered)
	}
	return result, nil
}

// renderRows converts bindings to term syntax.
func renderRows(bindings []store.Binding) []Row {
	rows := make([]Row, len(bindings))
	for i, b := range bindings {
		row := Row{}
		for name, t := range b {
			row[name] = t.String()
		}
		rows[i] = row
	}
	return rows
}

// RunAll runs every scenario and returns the results by name.
func RunAll(scenarios []*Scenario) (map[string]*Result, error) {
	results := make(map[string]*Result, len(scenarios))
	for _, s := range scenarios {
		r, err := Run(s)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		results[s.Name] = r
	}
	return results, nil
}

// Summary renders a one-line description of r.
func Summary(name string, r *Result) string {
	if r.Pass {
		return "PASS " + name
	}
	return "FAIL " + name + ": " + strings.Join(r.Errors, "; ")
}
