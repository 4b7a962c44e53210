package infrastructure

import (
	"context"
	"fmt"
	"sync"

	"github.com/travel-butler/trip-engine/internal/plan"
)

// InMemoryPlanRepository stores deep copies of plans, keyed by id.
// Saves are validated against the stored snapshot so that illegal
// status jumps are rejected even if an entity was mutated in ways the
// entity methods would not allow.
type InMemoryPlanRepository struct {
	plans map[string]*plan.Plan
	mu    sync.RWMutex
}

func NewInMemoryPlanRepository() *InMemoryPlanRepository {
	return &InMemoryPlanRepository{
		plans: make(map[string]*plan.Plan),
	}
}

func (r *InMemoryPlanRepository) Save(ctx context.Context, p *plan.Plan) error {
	if p == nil {
		return fmt.Errorf("the plan cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, exists := r.plans[p.ID()]; exists {
		if err := validateAgainstStored(stored, p); err != nil {
			return err
		}
	}

	r.plans[p.ID()] = p.Clone()
	return nil
}

func (r *InMemoryPlanRepository) GetByID(ctx context.Context, planID string) (*plan.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.plans[planID]
	if !exists {
		return nil, plan.ErrPlanNotFound
	}
	return stored.Clone(), nil
}

func (r *InMemoryPlanRepository) List(ctx context.Context) ([]*plan.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plans := make([]*plan.Plan, 0, len(r.plans))
	for _, stored := range r.plans {
		plans = append(plans, stored.Clone())
	}
	return plans, nil
}

func (r *InMemoryPlanRepository) Delete(ctx context.Context, planID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plans[planID]; !exists {
		return plan.ErrPlanNotFound
	}
	delete(r.plans, planID)
	return nil
}

// validateAgainstStored rejects writes that would violate the status
// state machines or edit a frozen step list.
func validateAgainstStored(stored, incoming *plan.Plan) error {
	if stored.Status() != incoming.Status() &&
		!stored.Status().CanTransitionTo(incoming.Status()) {
		return &plan.InvalidTransitionError{
			Entity: "plan",
			From:   stored.Status().String(),
			To:     incoming.Status().String(),
		}
	}

	storedSteps := make(map[string]*plan.Step)
	for _, step := range stored.Steps() {
		storedSteps[step.ID()] = step
	}

	for _, step := range incoming.Steps() {
		previous, exists := storedSteps[step.ID()]
		if !exists {
			// New steps are only accepted while the plan is a draft.
			if stored.Status() != plan.PlanStatusDraft {
				return plan.ErrPlanFrozen
			}
			continue
		}
		if previous.Status() != step.Status() &&
			!previous.Status().CanTransitionTo(step.Status()) {
			return &plan.InvalidTransitionError{
				Entity: "step",
				From:   previous.Status().String(),
				To:     step.Status().String(),
			}
		}
		if stored.Status() != plan.PlanStatusDraft && isFrozenEdit(previous, step) {
			return plan.ErrPlanFrozen
		}
		delete(storedSteps, step.ID())
	}

	// Steps may only disappear while the plan is a draft.
	if len(storedSteps) > 0 && stored.Status() != plan.PlanStatusDraft {
		return plan.ErrPlanFrozen
	}

	return nil
}

// isFrozenEdit reports whether an itinerary field of an existing step
// changed. Settlement writes are not edits: status, result and error
// detail always pass, and a price recorded alongside a status change
// passes with them.
func isFrozenEdit(previous, incoming *plan.Step) bool {
	if previous.Title() != incoming.Title() ||
		previous.Description() != incoming.Description() ||
		previous.Notes() != incoming.Notes() ||
		previous.Type() != incoming.Type() ||
		previous.Order() != incoming.Order() ||
		previous.Date().String() != incoming.Date().String() ||
		previous.StartTime() != incoming.StartTime() ||
		previous.EndTime() != incoming.EndTime() ||
		locationEdited(previous.Location(), incoming.Location()) {
		return true
	}
	return previous.Status() == incoming.Status() &&
		!previous.EstimatedPrice().Equal(incoming.EstimatedPrice())
}

func locationEdited(previous, incoming *plan.Location) bool {
	if previous == nil || incoming == nil {
		return (previous == nil) != (incoming == nil)
	}
	return previous.Name() != incoming.Name() || previous.Address() != incoming.Address()
}
