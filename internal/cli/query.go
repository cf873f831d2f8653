package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/sparqlsql/internal/algebra"
	"github.com/roach88/sparqlsql/internal/metrics"
	"github.com/roach88/sparqlsql/internal/querysql"
	"github.com/roach88/sparqlsql/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	StoreOptions
}

// QueryResult is the materialised answer to a query.
type QueryResult struct {
	SQL       string              `json:"sql"`
	Variables []string            `json:"variables"`
	Rows      []map[string]string `json:"rows"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query --db <dsn> <query.yaml>",
		Short: "Compile an algebra document and run it against a store",
		Long: `Compile an algebra document for the store's dialect, with constants
resolved to node ids, execute it and print the solutions.

Exit codes:
  0 - Query executed
  1 - Translation or execution error
  2 - Command error (unreadable input, database unavailable)
  3 - The query is not natively translatable; evaluate it elsewhere

Examples:
  sparqlsql query --db people.db adults.yaml
  sparqlsql query --db people.db --format json adults.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	opts.register(cmd)
	return cmd
}

func runQuery(opts *QueryOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := opts.formatter(cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "read query", err)
	}
	doc, err := algebra.DecodeYAML(data)
	if err != nil {
		_ = f.Error(ErrCodeDecode, err.Error(), map[string]string{"file": path})
		return WrapExitError(ExitCommandError, "decode query", err)
	}

	st, err := opts.open()
	if err != nil {
		return err
	}
	defer st.Close()

	d, err := opts.dialect(st.Dialect().Name)
	if err != nil {
		return WrapExitError(ExitCommandError, "dialect", err)
	}
	compiler := querysql.New(d,
		querysql.WithLogger(opts.log()),
		querysql.WithResolver(st.Resolver(ctx)))

	start := time.Now()
	tr, native, err := compiler.Compile(doc.Query)
	opts.meter().ObserveTranslation(d.Name, metrics.Outcome(native, err), time.Since(start))
	if err != nil {
		_ = f.Error(ErrCodeTranslation, err.Error(), nil)
		return WrapExitError(ExitFailure, "translate", err)
	}
	if !native {
		msg := fmt.Sprintf("query is not natively translatable for %s", d.Name)
		_ = f.Error(ErrCodeNotTranslatable, msg, nil)
		return NewExitError(ExitNotTranslatable, msg)
	}
	opts.log().Debug("executing", "sql", tr.SQL)

	bindings, err := st.Select(ctx, tr)
	if err != nil {
		_ = f.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "execute", err)
	}
	opts.meter().ObserveRows(len(bindings))

	result := QueryResult{SQL: tr.SQL, Variables: tr.Variables, Rows: renderBindings(bindings)}
	return f.Success(result, queryText(result))
}

func renderBindings(bindings []store.Binding) []map[string]string {
	rows := make([]map[string]string, len(bindings))
	for i, b := range bindings {
		row := make(map[string]string, len(b))
		for name, t := range b {
			row[name] = t.String()
		}
		rows[i] = row
	}
	return rows
}

// queryText renders solutions as tab-separated lines under a ?var header.
// Unbound variables print as empty cells.
func queryText(r QueryResult) string {
	var b strings.Builder
	header := make([]string, len(r.Variables))
	for i, v := range r.Variables {
		header[i] = "?" + v
	}
	b.WriteString(strings.Join(header, "\t"))
	for _, row := range r.Rows {
		cells := make([]string, len(r.Variables))
		for i, v := range r.Variables {
			cells[i] = row[v]
		}
		b.WriteByte('\n')
		b.WriteString(strings.Join(cells, "\t"))
	}
	fmt.Fprintf(&b, "\n(%d row(s))", len(r.Rows))
	return b.String()
}
