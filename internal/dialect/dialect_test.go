package dialect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlsql/internal/rdf"
	"github.com/roach88/sparqlsql/internal/valuetype"
)

func TestBuiltin_Names(t *testing.T) {
	set, err := Builtin()
	require.NoError(t, err)

	assert.Equal(t, []string{"mysql", "postgres", "sqlite"}, set.Names())
}

func TestBuiltin_Capabilities(t *testing.T) {
	tests := []struct {
		name     string
		driver   string
		arrays   bool
		regex    bool
		limitAll string
	}{
		{name: "sqlite", driver: "sqlite3", arrays: false, regex: false, limitAll: "LIMIT -1"},
		{name: "postgres", driver: "postgres", arrays: true, regex: true, limitAll: "LIMIT ALL"},
		{name: "mysql", driver: "mysql", arrays: false, regex: true, limitAll: "LIMIT 18446744073709551615"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Named(tt.name)
			require.NoError(t, err)

			assert.Equal(t, tt.name, d.Name)
			assert.Equal(t, tt.driver, d.Driver)
			assert.Equal(t, tt.arrays, d.Arrays)
			assert.Equal(t, tt.regex, d.Regex != "")
			assert.Equal(t, tt.limitAll, d.LimitAll)
			assert.True(t, d.Supports(rdf.FN+"upper-case"))
		})
	}
}

func TestNamed_Unknown(t *testing.T) {
	_, err := Named("oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dialect")
}

func TestFunction_Defaults(t *testing.T) {
	d, err := Named("sqlite")
	require.NoError(t, err)

	f, err := d.Lookup(rdf.FN + "upper-case")
	require.NoError(t, err)
	assert.Equal(t, valuetype.String, f.Returns)
	assert.Equal(t, []valuetype.ValueType{valuetype.String}, f.Args)
	assert.True(t, f.Supported)
	assert.False(t, f.Variadic)
	assert.Equal(t, "UPPER(V1.svalue)", f.Render([]string{"V1.svalue"}))

	length, err := d.Lookup(rdf.FN + "string-length")
	require.NoError(t, err)
	assert.Equal(t, valuetype.Int, length.Returns)
}

func TestFunction_DeclaredButUnsupported(t *testing.T) {
	d, err := Named("sqlite")
	require.NoError(t, err)

	assert.False(t, d.Supports(rdf.FN+"replace"))
	_, err = d.Lookup(rdf.FN + "replace")
	assert.NoError(t, err, "declared functions resolve even when unsupported")
}

func TestFunction_Variadic(t *testing.T) {
	d, err := Named("sqlite")
	require.NoError(t, err)

	f, err := d.Lookup(rdf.FN + "concat")
	require.NoError(t, err)
	assert.True(t, f.Accepts(3))
	assert.Equal(t, "(a || b || c)", f.Render([]string{"a", "b", "c"}))

	sub, err := d.Lookup(rdf.FN + "substring")
	require.NoError(t, err)
	assert.Equal(t, valuetype.String, sub.ArgType(0))
	assert.Equal(t, valuetype.Int, sub.ArgType(1))
	assert.Equal(t, valuetype.Int, sub.ArgType(5))
}

func TestFunction_EscapedPercent(t *testing.T) {
	d, err := Named("sqlite")
	require.NoError(t, err)

	f, err := d.Lookup(rdf.FN + "year-from-dateTime")
	require.NoError(t, err)
	assert.Equal(t, "CAST(strftime('%Y', x) AS INTEGER)", f.Render([]string{"x"}))
}

func TestLookup_Unknown(t *testing.T) {
	d, err := Named("postgres")
	require.NoError(t, err)

	_, err = d.Lookup("http://example.org/fn")
	require.ErrorIs(t, err, ErrUnknownFunction)
	assert.False(t, d.Supports("http://example.org/fn"))
}

func TestLimitClause(t *testing.T) {
	sqlite, err := Named("sqlite")
	require.NoError(t, err)
	mysql, err := Named("mysql")
	require.NoError(t, err)

	assert.Equal(t, "", sqlite.LimitClause(-1, -1))
	assert.Equal(t, "LIMIT 10", sqlite.LimitClause(10, -1))
	assert.Equal(t, "LIMIT 10 OFFSET 5", sqlite.LimitClause(10, 5))
	assert.Equal(t, "LIMIT -1 OFFSET 5", sqlite.LimitClause(-1, 5))
	assert.Equal(t, "LIMIT 18446744073709551615 OFFSET 5", mysql.LimitClause(-1, 5))
}

func TestCast(t *testing.T) {
	d, err := Named("postgres")
	require.NoError(t, err)

	assert.Equal(t, "CAST(x AS TEXT)", d.Cast(valuetype.String, "x"))
	assert.Equal(t, "x", d.Cast(valuetype.Bool, "x"), "no template leaves the expression alone")
}

func TestTemplates(t *testing.T) {
	pg, err := Named("postgres")
	require.NoError(t, err)
	sqlite, err := Named("sqlite")
	require.NoError(t, err)

	expr, ok := pg.RegexExpr("a", "'^B'", true)
	assert.True(t, ok)
	assert.Equal(t, "(a ~* '^B')", expr)

	_, ok = sqlite.RegexExpr("a", "'^B'", false)
	assert.False(t, ok)

	expr, ok = sqlite.GroupConcatExpr("V1.svalue", "' '")
	assert.True(t, ok)
	assert.Equal(t, "GROUP_CONCAT(V1.svalue, ' ')", expr)

	_, ok = sqlite.LocalNameExpr("x")
	assert.False(t, ok)
}

func TestLoad_UserDialect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "duck.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
dialects: duck: {
	driver:   "duckdb"
	arrays:   true
	limitAll: "LIMIT ALL"
	functions: "http://example.org/fn#twice": {template: "(2 * %[1]s)", args: ["double"], returns: "double"}
}
`), 0o644))

	set, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"duck", "mysql", "postgres", "sqlite"}, set.Names())

	d, err := set.Get("duck")
	require.NoError(t, err)
	f, err := d.Lookup("http://example.org/fn#twice")
	require.NoError(t, err)
	assert.Equal(t, valuetype.Double, f.Returns)
	assert.Equal(t, "(2 * x)", f.Render([]string{"x"}))
}

func TestLoad_InvalidUserDialect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
dialects: bad: {
	driver:   "x"
	limitAll: "LIMIT ALL"
	functions: "fn:thing": {template: "T(%[1]s)", returns: "blob"}
}
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)

	var le *LoadError
	assert.ErrorAs(t, err, &le)
}

func TestExpandFunctionURI(t *testing.T) {
	assert.Equal(t, rdf.FN+"upper-case", ExpandFunctionURI("fn:upper-case"))
	assert.Equal(t, string(rdf.XSDDouble), ExpandFunctionURI("xsd:double"))
	assert.Equal(t, "http://example.org/f", ExpandFunctionURI("http://example.org/f"))
}
