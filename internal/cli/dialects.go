package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sparqlsql/internal/dialect"
)

// DialectInfo summarises one dialect profile.
type DialectInfo struct {
	Name        string   `json:"name"`
	Driver      string   `json:"driver"`
	Count       bool     `json:"count"`
	Regex       bool     `json:"regex"`
	GroupConcat bool     `json:"group_concat"`
	LocalName   bool     `json:"local_name"`
	Functions   []string `json:"functions"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List dialect profiles and their capabilities",
		Long: `List the builtin dialect profiles, plus any added with --dialects,
with the constructs and functions each can translate natively.

Examples:
  sparqlsql dialects
  sparqlsql dialects --dialects duckdb.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := rootOpts.dialectSet()
			if err != nil {
				return err
			}
			infos := make([]DialectInfo, 0, len(set.Names()))
			for _, name := range set.Names() {
				d, err := set.Get(name)
				if err != nil {
					return err
				}
				infos = append(infos, describeDialect(d))
			}
			return rootOpts.formatter(cmd).Success(infos, dialectsText(infos))
		},
	}
}

func describeDialect(d *dialect.Dialect) DialectInfo {
	info := DialectInfo{
		Name:        d.Name,
		Driver:      d.Driver,
		Count:       d.Arrays,
		Regex:       d.Regex != "",
		GroupConcat: d.GroupConcat != "",
		LocalName:   d.LocalName != "",
		Functions:   []string{},
	}
	for uri, f := range d.Functions {
		if f.Supported {
			info.Functions = append(info.Functions, uri)
		}
	}
	sort.Strings(info.Functions)
	return info
}

func dialectsText(infos []DialectInfo) string {
	var b strings.Builder
	for i, d := range infos {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s (driver %s)\n", d.Name, d.Driver)
		fmt.Fprintf(&b, "  count=%t regex=%t group_concat=%t local_name=%t\n",
			d.Count, d.Regex, d.GroupConcat, d.LocalName)
		fmt.Fprintf(&b, "  %d native function(s)", len(d.Functions))
	}
	return b.String()
}
