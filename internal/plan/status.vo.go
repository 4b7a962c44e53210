package plan

import "fmt"

// PlanStatus is the lifecycle state of a plan.
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusConfirmed PlanStatus = "confirmed"
	PlanStatusExecuting PlanStatus = "executing"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusCancelled PlanStatus = "cancelled"
)

var planTransitions = map[PlanStatus][]PlanStatus{
	PlanStatusDraft:     {PlanStatusConfirmed, PlanStatusCancelled},
	PlanStatusConfirmed: {PlanStatusExecuting, PlanStatusCancelled},
	PlanStatusExecuting: {PlanStatusCompleted, PlanStatusCancelled},
	PlanStatusCompleted: {},
	PlanStatusCancelled: {},
}

// NewPlanStatus validates a raw status string.
func NewPlanStatus(status string) (PlanStatus, error) {
	s := PlanStatus(status)
	if _, ok := planTransitions[s]; !ok {
		return "", fmt.Errorf("invalid plan status: %s", status)
	}
	return s, nil
}

// CanTransitionTo reports whether the transition is allowed.
func (s PlanStatus) CanTransitionTo(target PlanStatus) bool {
	for _, allowed := range planTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the plan can no longer change.
func (s PlanStatus) IsTerminal() bool {
	return len(planTransitions[s]) == 0
}

func (s PlanStatus) String() string {
	return string(s)
}

// StepStatus is the lifecycle state of a plan step.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusSearching StepStatus = "searching"
	StepStatusFound     StepStatus = "found"
	StepStatusBooked    StepStatus = "booked"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

var stepTransitions = map[StepStatus][]StepStatus{
	StepStatusPending:   {StepStatusSearching, StepStatusSkipped},
	StepStatusSearching: {StepStatusFound, StepStatusFailed},
	StepStatusFound:     {StepStatusBooked, StepStatusSkipped},
	StepStatusBooked:    {},
	StepStatusFailed:    {StepStatusSearching, StepStatusSkipped},
	StepStatusSkipped:   {},
}

// NewStepStatus validates a raw status string.
func NewStepStatus(status string) (StepStatus, error) {
	s := StepStatus(status)
	if _, ok := stepTransitions[s]; !ok {
		return "", fmt.Errorf("invalid step status: %s", status)
	}
	return s, nil
}

// CanTransitionTo reports whether the transition is allowed.
func (s StepStatus) CanTransitionTo(target StepStatus) bool {
	for _, allowed := range stepTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsSettled reports whether the step has reached a per-pass terminal
// status: nothing more will happen to it without a new user action.
func (s StepStatus) IsSettled() bool {
	return s == StepStatusBooked || s == StepStatusFailed || s == StepStatusSkipped
}

// IsRunnable reports whether an execution pass should dispatch the step.
func (s StepStatus) IsRunnable() bool {
	return s == StepStatusPending || s == StepStatusFailed
}

func (s StepStatus) String() string {
	return string(s)
}
