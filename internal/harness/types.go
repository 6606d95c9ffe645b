package harness

import (
	"github.com/roach88/storefront/internal/ir"
)

// TraceEvent is one command that reached the root reducer.
type TraceEvent struct {
	Seq     int64     `json:"seq"`
	Type    string    `json:"type"`
	Fields  ir.Object `json:"fields"`
	Changed bool      `json:"changed"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds the commands in dispatch order, including those
	// dispatched by effects.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final snapshot of every slice, keyed by slice name.
	State ir.Object `json:"state"`

	// Storage is the final content of the credential store.
	Storage map[string]string `json:"storage"`

	// Notified counts subscriber notification passes.
	Notified int `json:"notified"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		State:   ir.Object{},
		Storage: map[string]string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a command to the trace.
func (r *Result) AddTrace(typ string, fields ir.Object, changed bool) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     int64(len(r.Trace) + 1),
		Type:    typ,
		Fields:  fields,
		Changed: changed,
	})
}
