// Command sparqlsql compiles SPARQL algebra to SQL and runs it against a
// triple store.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/roach88/sparqlsql/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
