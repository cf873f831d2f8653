package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadedDB loads peopleData into a fresh SQLite file and returns its path.
func loadedDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "people.db")
	data := writeFile(t, dir, "people.yaml", peopleData)

	out, err := execute(NewLoadCommand(&RootOptions{Format: "text"}), "--db", db, data)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 4 triple(s) from 1 file(s)")
	return db
}

func TestLoadCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", peopleData)
	b := writeFile(t, dir, "b.yaml", "triples:\n  - [foaf:x, foaf:knows, foaf:y]\n")

	out, err := execute(NewLoadCommand(&RootOptions{Format: "json"}), "--db", filepath.Join(dir, "x.db"), a, b)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   LoadResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, LoadResult{Files: 2, Triples: 5}, resp.Data)
}

func TestLoadCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "triples:\n  - ['\"lit\"', foaf:name, '\"x\"']\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing db flag", []string{bad}, `required flag(s) "db" not set`},
		{"missing file", []string{"--db", filepath.Join(dir, "x.db"), filepath.Join(dir, "nope.yaml")}, "open data file"},
		{"invalid triple", []string{"--db", filepath.Join(dir, "x.db"), bad}, "subject must be an IRI or blank node"},
		{"unknown driver", []string{"--db", "x", "--driver", "oracle", bad}, "open store"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(NewLoadCommand(&RootOptions{Format: "text"}), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestQueryCommand_Text(t *testing.T) {
	db := loadedDB(t)
	query := writeFile(t, t.TempDir(), "adults.yaml", adultsQuery)

	out, err := execute(NewQueryCommand(&RootOptions{Format: "text"}), "--db", db, query)
	require.NoError(t, err)
	assert.Equal(t, "?p\n<http://example.org/alice>\n(1 row(s))\n", out)
}

func TestQueryCommand_JSON(t *testing.T) {
	db := loadedDB(t)
	query := writeFile(t, t.TempDir(), "names.yaml", namesQuery)

	out, err := execute(NewQueryCommand(&RootOptions{Format: "json"}), "--db", db, query)
	require.NoError(t, err)

	var resp struct {
		Data QueryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.ElementsMatch(t, []string{"p", "n"}, resp.Data.Variables)
	assert.ElementsMatch(t, []map[string]string{
		{"p": "<http://example.org/alice>", "n": `"Alice"`},
		{"p": "<http://example.org/bob>", "n": `"Bob"`},
	}, resp.Data.Rows)
}

func TestQueryCommand_UnknownPredicateMatchesNothing(t *testing.T) {
	db := loadedDB(t)
	query := writeFile(t, t.TempDir(), "knows.yaml", `
query:
  projection:
    vars: [p]
    arg:
      pattern: ["?p", "foaf:knows", "?q"]
`)

	out, err := execute(NewQueryCommand(&RootOptions{Format: "text"}), "--db", db, query)
	require.NoError(t, err)
	assert.Equal(t, "?p\n(0 row(s))\n", out)
}

func TestQueryCommand_NotTranslatable(t *testing.T) {
	db := loadedDB(t)
	query := writeFile(t, t.TempDir(), "service.yaml", serviceQuery)

	out, err := execute(NewQueryCommand(&RootOptions{Format: "text"}), "--db", db, query)
	require.Error(t, err)
	assert.Equal(t, ExitNotTranslatable, GetExitCode(err))
	assert.Contains(t, out, "Error [E_NOT_TRANSLATABLE]")
}

func TestQueryCommand_TranslationError(t *testing.T) {
	db := loadedDB(t)
	query := writeFile(t, t.TempDir(), "coercion.yaml", coercionQuery)

	out, err := execute(NewQueryCommand(&RootOptions{Format: "json"}), "--db", db, query)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeTranslation, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "COERCION")
}

func TestQueryCommand_DecodeError(t *testing.T) {
	query := writeFile(t, t.TempDir(), "bad.yaml", "prefixes: {}\n")

	_, err := execute(NewQueryCommand(&RootOptions{Format: "text"}), "--db", filepath.Join(t.TempDir(), "x.db"), query)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "missing query")
}
