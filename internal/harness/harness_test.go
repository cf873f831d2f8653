package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixtures(t *testing.T) []*Scenario {
	t.Helper()
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)

	var out []*Scenario
	for _, p := range paths {
		s, err := LoadScenario(p)
		require.NoError(t, err, p)
		out = append(out, s)
	}
	return out
}

func TestRun_Scenarios(t *testing.T) {
	for _, s := range loadFixtures(t) {
		t.Run(s.Name, func(t *testing.T) {
			r, err := Run(s)
			require.NoError(t, err)
			assert.True(t, r.Pass, strings.Join(r.Errors, "\n"))
		})
	}
}

func TestRunWithGolden_Names(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/names.yaml")
	require.NoError(t, err)

	r, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, r.Pass, strings.Join(r.Errors, "\n"))
	assert.Len(t, r.Rows, 2)
}

func TestRun_ReportsUnmetExpectations(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: wrong
description: expectations that do not hold
prefixes:
  ex: http://example.org/
data:
  - [ex:alice, foaf:name, '"Alice"']
query:
  projection:
    vars: [p]
    arg:
      pattern: ["?p", "foaf:name", "?n"]
expect:
  native: true
  sql_contains: ["GROUP BY"]
  rows:
    - {p: "<http://example.org/bob>"}
`))
	require.NoError(t, err)

	r, err := Run(s)
	require.NoError(t, err)
	assert.False(t, r.Pass)
	require.Len(t, r.Errors, 2)
	assert.Contains(t, r.Errors[0], `SQL does not contain "GROUP BY"`)
	assert.Contains(t, r.Errors[1], "rows differ")
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: no_error
description: compiles fine although an error is expected
query:
  pattern: ["?s", "?p", "?o"]
expect:
  error: COERCION
`))
	require.NoError(t, err)

	r, err := Run(s)
	require.NoError(t, err)
	assert.False(t, r.Pass)
	assert.Contains(t, r.Errors[0], "compiled without error")
}

func TestRun_BadData(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: bad_data
description: literal subject
data:
  - ['"x"', foaf:name, '"A"']
query:
  pattern: ["?s", "?p", "?o"]
expect:
  native: true
`))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load data")
}

func TestRunAll(t *testing.T) {
	scenarios := loadFixtures(t)
	results, err := RunAll(scenarios)
	require.NoError(t, err)
	assert.Len(t, results, len(scenarios))

	for name, r := range results {
		assert.Equal(t, "PASS "+name, Summary(name, r))
	}
}
