package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expectations match.
	Pass bool `json:"pass"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Where, From and Statement are the translated SQL. They are empty when
	// the filter failed to compile.
	Where     string `json:"where,omitempty"`
	From      string `json:"from,omitempty"`
	Statement string `json:"statement,omitempty"`

	// Params lists the runtime parameter names in placeholder order and
	// Args their bound values.
	Params []string `json:"params,omitempty"`
	Args   []any    `json:"args,omitempty"`

	// UsedPaths lists the property paths the filter reads in the outer query.
	UsedPaths []string `json:"used_paths,omitempty"`

	// IDs are the selected record ids. Nil unless the scenario executed
	// the filter.
	IDs []string `json:"ids,omitempty"`

	// CompileError is the compile error message, if any.
	CompileError string `json:"compile_error,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
