package harness

import (
	"fmt"

	"github.com/roach88/jpqlc/internal/jpql"
)

// CaseResult is the outcome of one scenario case.
type CaseResult struct {
	Name    string       `json:"name"`
	Pass    bool         `json:"pass"`
	Outcome jpql.Outcome `json:"outcome"`
	Error   string       `json:"error,omitempty"` // why the case failed
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Pass indicates overall test success.
	// True if every case matched its expectation.
	Pass bool `json:"pass"`

	// Cases holds one entry per scenario case, in order.
	Cases []CaseResult `json:"cases"`

	// Errors contains one message per failed case.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario: scenario,
		Pass:     true,
		Cases:    []CaseResult{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a test scenario and returns the result.
//
// Cases never abort the scenario: a render failure is an outcome to compare,
// not an execution error. Run returns an error only for a nil scenario.
func Run(scenario *Scenario) (*Result, error) {
	if scenario == nil {
		return nil, fmt.Errorf("nil scenario")
	}

	result := NewResult(scenario.Name)
	for _, c := range scenario.Cases {
		cr := runCase(c)
		result.Cases = append(result.Cases, cr)
		if !cr.Pass {
			result.AddError(fmt.Sprintf("%s: %s", c.Name, cr.Error))
		}
	}
	return result, nil
}

func runCase(c Case) CaseResult {
	outcome := jpql.RenderDocument(c.Tree)
	cr := CaseResult{Name: c.Name, Outcome: outcome}

	if again := jpql.RenderDocument(c.Tree); again != outcome {
		cr.Error = fmt.Sprintf("rendering is not repeatable: %s then %s", describe(outcome), describe(again))
		return cr
	}

	switch {
	case c.Error != "":
		if outcome.ErrorKind != c.Error {
			cr.Error = fmt.Sprintf("expected error %s, got %s", c.Error, describe(outcome))
			return cr
		}
	case outcome.Failed():
		cr.Error = fmt.Sprintf("expected %q, got %s", c.Expect, describe(outcome))
		return cr
	case outcome.Output != c.Expect:
		cr.Error = fmt.Sprintf("expected %q, got %q", c.Expect, outcome.Output)
		return cr
	}

	cr.Pass = true
	return cr
}

func describe(o jpql.Outcome) string {
	if o.Failed() {
		return fmt.Sprintf("error %s (%s)", o.ErrorKind, o.ErrorMessage)
	}
	return fmt.Sprintf("%q", o.Output)
}
