package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sparqlsql/internal/store"
)

// Scenario is a translation test: data to load, an algebra tree to
// compile and what should come out.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dialect is the target dialect. Defaults to sqlite, the only one
	// scenarios can execute against.
	Dialect string `yaml:"dialect,omitempty"`

	// Prefixes are shared by Data and Query.
	Prefixes map[string]string `yaml:"prefixes,omitempty"`

	// Data is loaded into a fresh in-memory store before compiling.
	Data []store.Triple `yaml:"data,omitempty"`

	// Query is the algebra tree in the YAML form algebra.DecodeNode reads.
	Query yaml.Node `yaml:"query"`

	Expect Expect `yaml:"expect"`
}

// Expect lists the scenario's expectations. Unset fields are not checked.
type Expect struct {
	// Native is whether the tree must compile to SQL (true) or be routed
	// elsewhere (false).
	Native *bool `yaml:"native,omitempty"`

	// SQLContains are substrings the generated SQL must contain.
	SQLContains []string `yaml:"sql_contains,omitempty"`

	// Rows are the expected solutions. Values use term syntax; an absent
	// key is an unbound variable.
	Rows []Row `yaml:"rows,omitempty"`

	// Ordered compares Rows positionally instead of as a multiset.
	Ordered bool `yaml:"ordered,omitempty"`

	// Error is a substring of the expected compile error.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches typos like "expects:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if scenario.Dialect == "" {
		scenario.Dialect = "sqlite"
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and consistent.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Query.Kind == 0 {
		return fmt.Errorf("query is required")
	}

	e := s.Expect
	if e.Native == nil && len(e.SQLContains) == 0 && e.Rows == nil && e.Error == "" {
		return fmt.Errorf("expect must check at least one of native, sql_contains, rows, error")
	}
	if e.Error != "" && (e.Rows != nil || len(e.SQLContains) > 0) {
		return fmt.Errorf("expect.error cannot be combined with rows or sql_contains")
	}
	if e.Native != nil && !*e.Native && (e.Rows != nil || len(e.SQLContains) > 0) {
		return fmt.Errorf("a non-native scenario has no SQL or rows to check")
	}
	if e.Rows != nil && s.Dialect != "sqlite" {
		return fmt.Errorf("rows can only be checked for the sqlite dialect, got %s", s.Dialect)
	}

	for i, t := range s.Data {
		if t.S == "" || t.P == "" || t.O == "" {
			return fmt.Errorf("data[%d]: s, p and o are required", i)
		}
	}
	return nil
}
