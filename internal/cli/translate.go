package cli

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/sparqlsql/internal/algebra"
	"github.com/roach88/sparqlsql/internal/metrics"
	"github.com/roach88/sparqlsql/internal/querysql"
	"github.com/roach88/sparqlsql/internal/sqlcheck"
)

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	Dialect string
	Check   bool
	Jobs    int
}

// TranslateResult is the outcome for one input file.
type TranslateResult struct {
	File      string                `json:"file"`
	Native    bool                  `json:"native"`
	SQL       string                `json:"sql,omitempty"`
	Variables []string              `json:"variables,omitempty"`
	Columns   map[string]ColumnInfo `json:"columns,omitempty"`
	Error     string                `json:"error,omitempty"`

	code int
}

// ColumnInfo describes where a projected variable is read from.
type ColumnInfo struct {
	Alias     string `json:"alias"`
	Type      string `json:"type"`
	IDAlias   string `json:"id_alias,omitempty"`
	TypeAlias string `json:"type_alias,omitempty"`
	LangAlias string `json:"lang_alias,omitempty"`
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate <query.yaml>...",
		Short: "Compile algebra documents to SQL",
		Long: `Compile one or more YAML algebra documents to SQL for a dialect.

Files are compiled concurrently; results are printed in argument order.

Exit codes:
  0 - Every file compiled to SQL
  1 - A translation error, or --check rejected the generated SQL
  2 - Command error (unreadable or malformed input)
  3 - A query is not natively translatable for the dialect

Examples:
  sparqlsql translate query.yaml
  sparqlsql translate --dialect postgres --check queries/*.yaml
  sparqlsql translate --dialects extra.cue --dialect duckdb query.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dialect, "dialect", "sqlite", "target SQL dialect")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "parse the generated SQL with the dialect's checker")
	cmd.Flags().IntVar(&opts.Jobs, "jobs", runtime.NumCPU(), "files compiled concurrently")

	return cmd
}

func runTranslate(opts *TranslateOptions, files []string, cmd *cobra.Command) error {
	d, err := opts.dialect(opts.Dialect)
	if err != nil {
		return WrapExitError(ExitCommandError, "dialect", err)
	}
	compiler := querysql.New(d, querysql.WithLogger(opts.log()))
	m := opts.meter()

	results := make([]TranslateResult, len(files))
	eg, ctx := errgroup.WithContext(cmd.Context())
	eg.SetLimit(max(opts.Jobs, 1))
	for i, file := range files {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				results[i] = translateFile(compiler, m, file, opts.Check)
				return nil
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return WrapExitError(ExitCommandError, "translate", err)
	}

	for _, r := range results {
		opts.log().Debug("translated", "file", r.File, "native", r.Native, "error", r.Error)
	}

	f := opts.formatter(cmd)
	if err := f.Success(results, translateText(results)); err != nil {
		return err
	}
	return translateExit(results)
}

func translateFile(c *querysql.Compiler, m *metrics.Metrics, path string, check bool) TranslateResult {
	r := TranslateResult{File: path}

	data, err := os.ReadFile(path)
	if err != nil {
		r.Error, r.code = err.Error(), ExitCommandError
		return r
	}
	doc, err := algebra.DecodeYAML(data)
	if err != nil {
		r.Error, r.code = fmt.Sprintf("decode: %v", err), ExitCommandError
		return r
	}

	start := time.Now()
	tr, native, err := c.Compile(doc.Query)
	m.ObserveTranslation(c.Dialect().Name, metrics.Outcome(native, err), time.Since(start))
	if err != nil {
		r.Error, r.code = err.Error(), ExitFailure
		return r
	}
	if !native {
		r.code = ExitNotTranslatable
		return r
	}

	r.Native = true
	r.SQL = tr.SQL
	r.Variables = tr.Variables
	r.Columns = columnInfo(tr.Columns)
	if check {
		if err := sqlcheck.Check(tr.Dialect, tr.SQL); err != nil {
			r.Error, r.code = err.Error(), ExitFailure
		}
	}
	return r
}

func columnInfo(cols map[string]querysql.Column) map[string]ColumnInfo {
	out := make(map[string]ColumnInfo, len(cols))
	for name, c := range cols {
		out[name] = ColumnInfo{
			Alias:     c.Alias,
			Type:      c.Type.String(),
			IDAlias:   c.IDAlias,
			TypeAlias: c.TypeAlias,
			LangAlias: c.LangAlias,
		}
	}
	return out
}

func translateText(results []TranslateResult) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "-- %s\n", r.File)
		switch {
		case r.SQL != "":
			b.WriteString(r.SQL)
			b.WriteString(";\n")
			names := make([]string, 0, len(r.Columns))
			for n := range r.Columns {
				names = append(names, n)
			}
			sort.Strings(names)
			for _, n := range names {
				c := r.Columns[n]
				fmt.Fprintf(&b, "-- ?%s = %s (%s)\n", n, c.Alias, c.Type)
			}
			if r.Error != "" {
				fmt.Fprintf(&b, "-- check failed: %s\n", r.Error)
			}
		case r.Error != "":
			fmt.Fprintf(&b, "-- error: %s\n", r.Error)
		default:
			b.WriteString("-- not translatable\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// translateExit picks the most severe outcome: command errors, then
// translation failures, then fallbacks.
func translateExit(results []TranslateResult) error {
	counts := map[int]int{}
	for _, r := range results {
		counts[r.code]++
	}
	switch {
	case counts[ExitCommandError] > 0:
		return NewExitError(ExitCommandError, fmt.Sprintf("%d file(s) could not be read", counts[ExitCommandError]))
	case counts[ExitFailure] > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) failed to translate", counts[ExitFailure]))
	case counts[ExitNotTranslatable] > 0:
		return NewExitError(ExitNotTranslatable, fmt.Sprintf("%d file(s) not natively translatable", counts[ExitNotTranslatable]))
	}
	return nil
}
