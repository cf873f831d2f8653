package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sparqlsql/internal/store"
)

// StoreOptions are the database flags shared by load and query.
type StoreOptions struct {
	DB     string
	Driver string
}

func (s *StoreOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.DB, "db", "", "database DSN (file path for SQLite)")
	cmd.Flags().StringVar(&s.Driver, "driver", store.DriverSQLite3, "database driver (sqlite3|sqlite|postgres|mysql)")
	_ = cmd.MarkFlagRequired("db")
}

func (s *StoreOptions) open() (*store.Store, error) {
	st, err := store.Open(s.Driver, s.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open store", err)
	}
	return st, nil
}

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	StoreOptions
}

// LoadResult reports what a load added.
type LoadResult struct {
	Files   int `json:"files"`
	Triples int `json:"triples"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load --db <dsn> <data.yaml>...",
		Short: "Load YAML data files into a store",
		Long: `Load YAML data files into a store, creating the schema if needed.

Data files list prefixes and triples:

  prefixes:
    ex: http://example.org/
  triples:
    - [ex:alice, foaf:name, '"Alice"']
    - [ex:alice, foaf:age, 30, ex:people]

Examples:
  sparqlsql load --db people.db people.yaml
  sparqlsql load --driver postgres --db postgres://localhost/rdf people.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args, cmd)
		},
	}

	opts.register(cmd)
	return cmd
}

func runLoad(opts *LoadOptions, files []string, cmd *cobra.Command) error {
	st, err := opts.open()
	if err != nil {
		return err
	}
	defer st.Close()

	result := LoadResult{}
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "open data file", err)
		}
		n, err := st.LoadYAML(cmd.Context(), f)
		f.Close()
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("load %s", path), err)
		}
		opts.log().Debug("loaded data file", "file", path, "triples", n)
		result.Files++
		result.Triples += n
	}

	text := fmt.Sprintf("Loaded %d triple(s) from %d file(s)", result.Triples, result.Files)
	return opts.formatter(cmd).Success(result, text)
}
