package plan

import (
	"errors"
	"fmt"
)

var (
	ErrPlanNotFound = errors.New("plan not found")
	ErrStepNotFound = errors.New("step not found")

	// ErrPlanFrozen is returned when steps are added to or removed
	// from a plan that is no longer a draft.
	ErrPlanFrozen = errors.New("plan is no longer editable")

	// ErrNothingToConfirm is returned when confirm is called on a plan
	// that is not in draft.
	ErrNothingToConfirm = errors.New("nothing to confirm")

	// ErrDuplicateOrder is returned when a step is inserted with an
	// order value already taken within the plan.
	ErrDuplicateOrder = errors.New("step order already in use")
)

// InvalidTransitionError reports a status change the state machine
// does not allow.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Entity, e.From, e.To)
}

// IsInvalidTransition reports whether err wraps an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}

func newPlanTransitionError(from, to PlanStatus) error {
	return &InvalidTransitionError{Entity: "plan", From: from.String(), To: to.String()}
}

func newStepTransitionError(from, to StepStatus) error {
	return &InvalidTransitionError{Entity: "step", From: from.String(), To: to.String()}
}
