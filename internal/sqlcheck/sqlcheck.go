// Package sqlcheck validates generated SQL against a real grammar for each
// target engine without needing a running server.
//
// postgres text is parsed with libpg_query, mysql text with the vitess
// derived sqlparser, and sqlite text is prepared with EXPLAIN against an
// in-memory database holding the store schema.
package sqlcheck

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	pg_query "github.com/pganalyze/pg_query_go/v5"
	"github.com/xwb1989/sqlparser"

	"github.com/roach88/sparqlsql/internal/store"
)

// Error reports SQL the dialect's grammar rejected.
type Error struct {
	Dialect string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s SQL: %v", e.Dialect, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Check validates query for the named builtin dialect.
func Check(dialectName, query string) error {
	var err error
	switch dialectName {
	case "postgres":
		_, err = pg_query.Parse(query)
	case "mysql":
		_, err = sqlparser.Parse(query)
	case "sqlite":
		err = explainSQLite(query)
	default:
		return fmt.Errorf("no SQL checker for dialect %q", dialectName)
	}
	if err != nil {
		return &Error{Dialect: dialectName, Err: err}
	}
	return nil
}

// sqliteDB is the shared schema-only database EXPLAIN runs against.
var sqliteDB = sync.OnceValues(func() (*store.Store, error) {
	return store.Open(store.DriverSQLite, ":memory:")
})

func explainSQLite(query string) error {
	s, err := sqliteDB()
	if err != nil {
		return fmt.Errorf("open check database: %w", err)
	}
	rows, err := s.DB().QueryContext(context.Background(), "EXPLAIN "+query)
	if err != nil {
		return err
	}
	return closeRows(rows)
}

func closeRows(rows *sql.Rows) error {
	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
