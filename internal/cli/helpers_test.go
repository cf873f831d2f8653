package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const namesQuery = `
query:
  projection:
    vars: [p, n]
    arg:
      pattern: ["?p", "foaf:name", "?n"]
`

const adultsQuery = `
query:
  projection:
    vars: [p]
    arg:
      filter:
        condition: {ge: ["?a", 18]}
        arg:
          pattern: ["?p", "foaf:age", "?a"]
`

const serviceQuery = `
query:
  service:
    endpoint: <http://example.org/sparql>
    arg:
      pattern: ["?p", "foaf:name", "?n"]
`

const coercionQuery = `
query:
  extension:
    elems:
      - {var: x, expr: {add: ['"a"', 1]}}
    arg:
      pattern: ["?p", "foaf:name", "?n"]
`

const peopleData = `
prefixes:
  ex: http://example.org/
triples:
  - [ex:alice, foaf:name, '"Alice"']
  - [ex:alice, foaf:age, 30]
  - [ex:bob, foaf:name, '"Bob"']
  - [ex:bob, foaf:age, 12]
`

// writeFile writes content to name under dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
