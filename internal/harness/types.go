package harness

import (
	"github.com/roach88/bayesq/internal/engine"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every query matched its expectation and every assertion held.
	Pass bool `json:"pass"`

	// Queries holds one result per scenario query, in scenario order.
	Queries []QueryResult `json:"queries"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// QueryResult is the outcome of one scenario query.
type QueryResult struct {
	Name string `json:"name"`
	Kind string `json:"kind"`

	// Probability is valid only when ErrorCode and Err are empty.
	Probability float64 `json:"probability"`

	// ErrorCode is the code of the evaluation error, if any.
	ErrorCode string `json:"error,omitempty"`

	// Err is the error text when the query failed.
	Err string `json:"error_message,omitempty"`

	// Trace holds the tracer events the query produced, in order.
	Trace []engine.TraceEvent `json:"trace"`

	// Pass reports whether the query matched its expectation.
	Pass bool `json:"pass"`

	// Message explains a mismatch.
	Message string `json:"message,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Queries: []QueryResult{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Query returns the result of the named query.
func (r *Result) Query(name string) (QueryResult, bool) {
	for _, q := range r.Queries {
		if q.Name == name {
			return q, true
		}
	}
	return QueryResult{}, false
}
