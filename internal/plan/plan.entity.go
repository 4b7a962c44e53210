package plan

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/travel-butler/trip-engine/internal/shared"
)

// Plan is one itinerary: an ordered set of bookable steps with
// aggregate metadata. All lifecycle transitions go through the
// orchestration engine; the presentation layer only reads snapshots.
type Plan struct {
	id             string
	title          string
	destination    string
	startDate      shared.TravelDate
	endDate        shared.TravelDate
	status         PlanStatus
	steps          []*Step
	estimatedTotal shared.Money
	cancelReason   string
	createdAt      time.Time
	updatedAt      time.Time
}

func NewPlan(title, destination, startDate, endDate string) (*Plan, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("the plan title cannot be empty")
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, fmt.Errorf("the plan destination cannot be empty")
	}

	start, err := shared.NewTravelDate(startDate)
	if err != nil {
		return nil, err
	}
	end, err := shared.NewTravelDate(endDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("the end date %s is before the start date %s", end, start)
	}

	now := time.Now()
	return &Plan{
		id:             uuid.NewString(),
		title:          title,
		destination:    destination,
		startDate:      start,
		endDate:        end,
		status:         PlanStatusDraft,
		estimatedTotal: shared.Zero("USD"),
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

func (p *Plan) ID() string                    { return p.id }
func (p *Plan) Title() string                 { return p.title }
func (p *Plan) Destination() string           { return p.destination }
func (p *Plan) StartDate() shared.TravelDate  { return p.startDate }
func (p *Plan) EndDate() shared.TravelDate    { return p.endDate }
func (p *Plan) Status() PlanStatus            { return p.status }
func (p *Plan) EstimatedTotal() shared.Money  { return p.estimatedTotal }
func (p *Plan) CancelReason() string          { return p.cancelReason }
func (p *Plan) CreatedAt() time.Time          { return p.createdAt }
func (p *Plan) UpdatedAt() time.Time          { return p.updatedAt }

// Steps returns the steps in ascending order. The slice is a copy but
// the steps themselves are live: mutating one mutates the plan.
func (p *Plan) Steps() []*Step {
	steps := make([]*Step, len(p.steps))
	copy(steps, p.steps)
	return steps
}

// StepByID finds a step by identifier.
func (p *Plan) StepByID(stepID string) (*Step, error) {
	for _, step := range p.steps {
		if step.ID() == stepID {
			return step, nil
		}
	}
	return nil, ErrStepNotFound
}

// NextOrder returns the order value a newly appended step should take.
func (p *Plan) NextOrder() int {
	if len(p.steps) == 0 {
		return 1
	}
	return p.steps[len(p.steps)-1].Order() + 1
}

// AddStep inserts a step. Steps can only be added while the plan is a
// draft; once confirmed, the step list and order are frozen.
func (p *Plan) AddStep(step *Step) error {
	if step == nil {
		return fmt.Errorf("the step cannot be nil")
	}
	if p.status != PlanStatusDraft {
		return ErrPlanFrozen
	}
	for _, existing := range p.steps {
		if existing.Order() == step.Order() {
			return fmt.Errorf("%w: %d", ErrDuplicateOrder, step.Order())
		}
	}

	p.steps = append(p.steps, step)
	sort.Slice(p.steps, func(i, j int) bool {
		return p.steps[i].Order() < p.steps[j].Order()
	})
	p.RecalculateTotal()
	p.touch()
	return nil
}

// RemoveStep deletes a step from a draft plan and renumbers the rest
// so that order values stay contiguous.
func (p *Plan) RemoveStep(stepID string) error {
	if p.status != PlanStatusDraft {
		return ErrPlanFrozen
	}

	index := -1
	for i, step := range p.steps {
		if step.ID() == stepID {
			index = i
			break
		}
	}
	if index == -1 {
		return ErrStepNotFound
	}

	p.steps = append(p.steps[:index], p.steps[index+1:]...)
	for i, step := range p.steps {
		step.order = i + 1
	}
	p.RecalculateTotal()
	p.touch()
	return nil
}

// RecalculateTotal recomputes the estimated total from the step
// prices. The total is always recomputed, never incrementally
// adjusted, so a lost update cannot leave it diverged.
func (p *Plan) RecalculateTotal() {
	total := shared.Zero("USD")
	for _, step := range p.steps {
		if sum, err := total.Add(step.EstimatedPrice()); err == nil {
			total = sum
		}
	}
	p.estimatedTotal = total
	p.touch()
}

// Confirm freezes the draft and marks the plan ready to execute.
func (p *Plan) Confirm() error {
	if p.status != PlanStatusDraft {
		return ErrNothingToConfirm
	}
	return p.transition(PlanStatusConfirmed)
}

// StartExecution moves a confirmed plan into executing.
func (p *Plan) StartExecution() error {
	return p.transition(PlanStatusExecuting)
}

// Complete finishes an execution pass. All steps must have settled;
// partial success still completes the plan.
func (p *Plan) Complete() error {
	if !p.AllStepsSettled() {
		return fmt.Errorf("cannot complete the plan: some steps are not settled")
	}
	return p.transition(PlanStatusCompleted)
}

// Cancel moves the plan to cancelled from any non-terminal status.
// Already confirmed bookings are not touched; cancelling those is an
// explicit provider-side operation tracked on the booking records.
func (p *Plan) Cancel(reason string) error {
	if err := p.transition(PlanStatusCancelled); err != nil {
		return err
	}
	p.cancelReason = reason
	return nil
}

func (p *Plan) transition(target PlanStatus) error {
	if !p.status.CanTransitionTo(target) {
		return newPlanTransitionError(p.status, target)
	}
	p.status = target
	p.touch()
	return nil
}

// AllStepsSettled reports whether every step reached a per-pass
// terminal status (booked, failed or skipped).
func (p *Plan) AllStepsSettled() bool {
	for _, step := range p.steps {
		if !step.IsSettled() {
			return false
		}
	}
	return true
}

// IsTerminal reports whether the plan is immutable history.
func (p *Plan) IsTerminal() bool {
	return p.status.IsTerminal()
}

func (p *Plan) touch() {
	p.updatedAt = time.Now()
}

// Clone returns a deep copy of the plan and its steps.
func (p *Plan) Clone() *Plan {
	clone := *p
	clone.steps = make([]*Step, len(p.steps))
	for i, step := range p.steps {
		clone.steps[i] = step.Clone()
	}
	return &clone
}
