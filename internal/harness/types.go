package harness

// Row is one solution rendered for comparison: variable name to the term
// in the syntax of rdf.ParseTerm.
type Row map[string]string

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Native reports whether the query compiled to SQL.
	Native bool `json:"native"`

	// SQL is the generated statement, empty when not native.
	SQL string `json:"sql,omitempty"`

	// Rows holds the solutions when the query was executed.
	Rows []Row `json:"rows,omitempty"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
