package harness

import (
	"github.com/u-ask/uask-dom-sub000/internal/engine"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace holds every rule firing in execution order.
	Trace []engine.Firing `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Participant is the executed history.
	Participant survey.Participant `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []engine.Firing{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Interview returns the executed interview with id.
func (r *Result) Interview(id string) (survey.Interview, bool) {
	idx := r.Participant.IndexOf(id)
	if idx < 0 {
		return survey.Interview{}, false
	}
	return r.Participant.Interviews[idx], true
}
