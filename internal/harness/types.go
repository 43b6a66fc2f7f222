package harness

import "github.com/roach88/ombu/internal/model"

// StepTrace records the outcome of one step.
type StepTrace struct {
	Index   int                    `json:"index"`
	Phase   string                 `json:"phase"` // "setup" or "step"
	Op      string                 `json:"op"`
	Sender  string                 `json:"sender"`
	Outcome string                 `json:"outcome"` // "ok" or the error code
	Result  map[string]interface{} `json:"result,omitempty"`
}

// OutcomeOK is the outcome of a successful step.
const OutcomeOK = "ok"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Steps traces setup and steps in execution order.
	Steps []StepTrace `json:"steps"`

	// Events is the persisted event log after the last step.
	Events []model.Event `json:"events"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepTrace{},
		Events: []model.Event{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
