package deploy

import (
	"fmt"

	"github.com/foodgram/foodgram/internal/core/release"
)

// =============================================================================
// Error Types
// =============================================================================

// StepError reports which release step failed.
type StepError struct {
	Step release.Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// NewStepError wraps err with the step it occurred in.
func NewStepError(step release.Step, err error) *StepError {
	return &StepError{Step: step, Err: err}
}
