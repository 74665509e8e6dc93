package harness

// StepTrace records one executed step.
type StepTrace struct {
	Step    int    `json:"step"`
	Op      string `json:"op"`
	As      string `json:"as"`
	Outcome string `json:"outcome"` // "ok" or the error code

	// ID is the record the step minted or acted on, when it succeeded.
	ID    uint32 `json:"id,omitempty"`
	HasID bool   `json:"-"`

	// Events are the events the step emitted, in order.
	Events []EventTrace `json:"events,omitempty"`
}

// EventTrace is one emitted event.
type EventTrace struct {
	Seq     int64          `json:"seq"`
	Kind    string         `json:"kind"`
	Token   string         `json:"token"`
	Digest  string         `json:"digest"`
	Payload map[string]any `json:"payload"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step outcome and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains every step in order.
	Trace []StepTrace `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []StepTrace{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
