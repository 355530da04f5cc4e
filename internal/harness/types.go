package harness

import (
	"github.com/roach88/modelfilter/internal/queryir"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: the build behaved as expected and
	// every assertion held.
	Pass bool `json:"pass"`

	// TraceID labels the run in logs and snapshots.
	TraceID string `json:"trace_id"`

	// Groups are the built condition groups, in request order.
	// Nil when the build failed.
	Groups []queryir.ConditionGroup `json:"groups,omitempty"`

	// Formatted maps model id to its combined tree rendered by queryir.Format.
	Formatted map[string]string `json:"formatted,omitempty"`

	// Matches maps model id to the indices of the records its program selected.
	Matches map[string][]int `json:"matches,omitempty"`

	// Fingerprint is the content-addressed identity of Groups.
	Fingerprint string `json:"fingerprint,omitempty"`

	// ErrorCode and ErrorMessage describe a failed build.
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(traceID string) *Result {
	return &Result{
		Pass:      true,
		TraceID:   traceID,
		Formatted: make(map[string]string),
		Matches:   make(map[string][]int),
		Errors:    []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failed reports whether the build itself failed.
func (r *Result) Failed() bool {
	return r.ErrorCode != "" || r.ErrorMessage != ""
}

// Group returns the group built for modelID.
func (r *Result) Group(modelID string) (queryir.ConditionGroup, bool) {
	for _, g := range r.Groups {
		if g.ModelID == modelID {
			return g, true
		}
	}
	return queryir.ConditionGroup{}, false
}

// GroupOrder returns the model ids of the built groups, in order.
func (r *Result) GroupOrder() []string {
	order := make([]string, len(r.Groups))
	for i, g := range r.Groups {
		order[i] = g.ModelID
	}
	return order
}
