package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/sparqlsql/internal/dialect"
	"github.com/roach88/sparqlsql/internal/metrics"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string   // "json" | "text"
	Dialects    []string // extra CUE dialect files
	MetricsFile string

	traceID string
	logger  *slog.Logger
	metrics *metrics.Metrics
	set     *dialect.Set
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sparqlsql CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sparqlsql",
		Short: "Compile SPARQL algebra to SQL",
		Long: `sparqlsql translates SPARQL algebra trees into single SQL statements
over a nodes/triples store, and runs them against SQLite, PostgreSQL or
MySQL databases.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			opts.setup(cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log debug output to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringSliceVar(&opts.Dialects, "dialects", nil, "extra CUE dialect profile files")
	cmd.PersistentFlags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	cmd.AddCommand(NewTranslateCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewDialectsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Execute runs the command line and returns the process exit code.
// Metrics are written even when the command fails.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if opts.MetricsFile != "" && opts.metrics != nil {
		if werr := opts.metrics.WriteTextfile(opts.MetricsFile); werr != nil {
			fmt.Fprintf(stderr, "Error: %v\n", werr)
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return GetExitCode(err)
}

// setup installs the invocation's trace id, logger and metrics.
func (o *RootOptions) setup(stderr io.Writer) {
	o.traceID = uuid.Must(uuid.NewV7()).String()
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})).
		With("trace_id", o.traceID)
	o.metrics = metrics.New()
}

// log returns the configured logger. Commands built without the root
// command log nowhere.
func (o *RootOptions) log() *slog.Logger {
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.logger
}

func (o *RootOptions) meter() *metrics.Metrics {
	if o.metrics == nil {
		o.metrics = metrics.New()
	}
	return o.metrics
}

// dialect returns the named profile from the builtin set unified with
// any --dialects files.
func (o *RootOptions) dialect(name string) (*dialect.Dialect, error) {
	set, err := o.dialectSet()
	if err != nil {
		return nil, err
	}
	return set.Get(name)
}

func (o *RootOptions) dialectSet() (*dialect.Set, error) {
	if o.set != nil {
		return o.set, nil
	}
	set, err := dialect.Load(o.Dialects...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load dialects", err)
	}
	o.set = set
	return set, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout(), TraceID: o.traceID}
}
