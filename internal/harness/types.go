package harness

// TraceEvent records one flow step and its outcome.
type TraceEvent struct {
	Seq    int64          `json:"seq"`
	Action string         `json:"action"`
	Args   map[string]any `json:"args,omitempty"`
	Case   string         `json:"case"`
	Result map[string]any `json:"result,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final run as a generic JSON document, for final_state
	// assertions.
	State map[string]any `json:"state,omitempty"`

	// Fingerprint is the fingerprint of the final run.
	Fingerprint string `json:"fingerprint"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  map[string]any{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event with the next sequence number.
func (r *Result) AddTrace(action string, args map[string]any, outcome string, result map[string]any) TraceEvent {
	ev := TraceEvent{
		Seq:    int64(len(r.Trace) + 1),
		Action: action,
		Args:   args,
		Case:   outcome,
		Result: result,
	}
	r.Trace = append(r.Trace, ev)
	return ev
}
