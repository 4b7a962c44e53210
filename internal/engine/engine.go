package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/travel-butler/trip-engine/internal/booking"
	"github.com/travel-butler/trip-engine/internal/capability"
	"github.com/travel-butler/trip-engine/internal/chat"
	"github.com/travel-butler/trip-engine/internal/plan"
	"github.com/travel-butler/trip-engine/internal/shared/metrics"
)

// Engine is the single authority for plan lifecycle transitions and
// step execution sequencing. Everything else reads snapshots it
// produces.
type Engine struct {
	plans     plan.Repository
	bookings  booking.Repository
	invoker   capability.Invoker
	turns     chat.TurnRequester
	logger    *slog.Logger
	collector metrics.Collector

	events eventBus

	mu            sync.Mutex
	currentPlanID string
}

func NewEngine(
	plans plan.Repository,
	bookings booking.Repository,
	invoker capability.Invoker,
	turns chat.TurnRequester,
	logger *slog.Logger,
	collector metrics.Collector,
) *Engine {
	return &Engine{
		plans:     plans,
		bookings:  bookings,
		invoker:   invoker,
		turns:     turns,
		logger:    logger,
		collector: collector,
	}
}

// Subscribe registers a listener for step settlement events.
func (e *Engine) Subscribe(listener StepSettledListener) {
	e.events.subscribe(listener)
}

// RegisterItinerary stores a freshly generated plan and publishes it
// as the session's current itinerary. No booking provider is touched.
func (e *Engine) RegisterItinerary(ctx context.Context, p *plan.Plan) (*plan.Plan, error) {
	if p == nil {
		return nil, fmt.Errorf("the plan cannot be nil")
	}

	// Assign agents to steps that do not have one yet.
	for _, step := range p.Steps() {
		if step.Agent() == "" {
			step.SetAgent(string(capability.AgentForType(step.Type())))
		}
	}
	p.RecalculateTotal()

	if err := e.plans.Save(ctx, p); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.currentPlanID = p.ID()
	e.mu.Unlock()

	e.logger.Info("Itinerary registered",
		"plan_id", p.ID(),
		"title", p.Title(),
		"steps", len(p.Steps()),
		"total_usd", p.EstimatedTotal().Float64())

	return e.plans.GetByID(ctx, p.ID())
}

// OnItineraryGenerated reloads a plan after a successful
// itinerary-generation call and publishes it as current.
func (e *Engine) OnItineraryGenerated(ctx context.Context, planID string) (*plan.Plan, error) {
	p, err := e.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.currentPlanID = p.ID()
	e.mu.Unlock()

	return p, nil
}

// CurrentPlan returns the session's current itinerary.
func (e *Engine) CurrentPlan(ctx context.Context) (*plan.Plan, error) {
	e.mu.Lock()
	planID := e.currentPlanID
	e.mu.Unlock()

	if planID == "" {
		return nil, plan.ErrPlanNotFound
	}
	return e.plans.GetByID(ctx, planID)
}

// Confirm moves a draft plan to confirmed, asks the conversational
// layer to trigger execution, and moves to executing once that turn is
// acknowledged. Confirming a non-draft plan surfaces an error and
// leaves the plan untouched.
func (e *Engine) Confirm(ctx context.Context, planID string) (*plan.Plan, error) {
	p, err := e.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	if err := p.Confirm(); err != nil {
		return nil, err
	}
	if err := e.plans.Save(ctx, p); err != nil {
		return nil, err
	}

	e.logger.Info("Plan confirmed", "plan_id", planID)

	// Execution is always routed through a chat turn so the
	// conversational layer keeps the full turn history.
	if _, err := e.turns.RequestFollowUp(ctx, planID, "proceed with booking"); err != nil {
		e.logger.Warn("Follow-up turn failed, plan stays confirmed",
			"plan_id", planID,
			"error", err)
		return p, nil
	}

	if err := p.StartExecution(); err != nil {
		return nil, err
	}
	if err := e.plans.Save(ctx, p); err != nil {
		return nil, err
	}

	e.logger.Info("Plan execution started", "plan_id", planID)
	return p, nil
}

// HandleTurn inspects the tool invocations of a finished chat turn
// and advances plan state accordingly.
func (e *Engine) HandleTurn(ctx context.Context, result chat.TurnResult) error {
	for _, inv := range result.Invocations {
		if inv.Status != chat.InvocationStatusOK {
			continue
		}
		switch inv.Capability {
		case chat.CapabilityGenerateItinerary:
			if _, err := e.OnItineraryGenerated(ctx, inv.PlanID); err != nil {
				return err
			}
		case chat.CapabilityExecuteItinerary:
			if _, err := e.ExecutePass(ctx, inv.PlanID); err != nil {
				return err
			}
		}
	}
	return nil
}

// CompleteExecution finishes an execution pass once every step has
// settled. Partial success still completes the plan; the caller tells
// the user which steps failed.
func (e *Engine) CompleteExecution(ctx context.Context, planID string) (*plan.Plan, error) {
	p, err := e.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := p.Complete(); err != nil {
		return nil, err
	}
	if err := e.plans.Save(ctx, p); err != nil {
		return nil, err
	}

	e.logger.Info("Plan completed", "plan_id", planID)
	return p, nil
}

// Cancel moves the plan to cancelled. Calls already dispatched to the
// gateway settle normally; no further steps are dispatched once the
// cancellation is observed between dispatches.
func (e *Engine) Cancel(ctx context.Context, planID, reason string) (*plan.Plan, error) {
	p, err := e.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := p.Cancel(reason); err != nil {
		return nil, err
	}
	if err := e.plans.Save(ctx, p); err != nil {
		return nil, err
	}

	e.logger.Info("Plan cancelled", "plan_id", planID, "reason", reason)
	return p, nil
}

// SkipStep marks a step skipped on user request.
func (e *Engine) SkipStep(ctx context.Context, planID, stepID string) (*plan.Plan, error) {
	p, err := e.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	step, err := p.StepByID(stepID)
	if err != nil {
		return nil, err
	}
	if err := step.Skip(); err != nil {
		return nil, err
	}
	p.RecalculateTotal()
	if err := e.plans.Save(ctx, p); err != nil {
		return nil, err
	}

	e.events.publish(StepSettledEvent{
		PlanID:   p.ID(),
		StepID:   step.ID(),
		StepType: step.Type(),
		Status:   step.Status(),
		At:       time.Now(),
	})
	e.collector.RecordStepSettled(ctx, step.Type(), step.Status().String())

	e.maybeComplete(ctx, p)
	return e.plans.GetByID(ctx, planID)
}

// ApproveBooking applies the user's approval decision to a booking
// record that is awaiting approval, executing the booking if approved.
func (e *Engine) ApproveBooking(ctx context.Context, recordID string, approved bool) (*booking.Record, error) {
	record, err := e.bookings.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if !approved {
		if err := record.Cancel(); err != nil {
			return nil, err
		}
		if err := e.bookings.Save(ctx, record); err != nil {
			return nil, err
		}
		e.logger.Info("Booking rejected by user", "booking_id", recordID)
		return record, nil
	}

	if err := record.Approve(); err != nil {
		return nil, err
	}

	// The approved state is transient: it is consumed right away by
	// the booking call below.
	req := capability.Request{
		Tool:    record.Capability(),
		Agent:   capability.AgentForType(record.Type()),
		Payload: record.Payload(),
	}
	result, err := e.invoker.Invoke(ctx, req)
	if err != nil {
		if failErr := record.Fail(err.Error()); failErr != nil {
			return nil, failErr
		}
		if saveErr := e.bookings.Save(ctx, record); saveErr != nil {
			return nil, saveErr
		}
		return record, nil
	}

	if err := record.Confirm(providerRef(result.Data), result.Data); err != nil {
		return nil, err
	}
	if err := e.bookings.Save(ctx, record); err != nil {
		return nil, err
	}

	e.logger.Info("Booking confirmed after approval",
		"booking_id", recordID,
		"provider_ref", record.ProviderRef())

	// Book the owning step, if any, and complete the plan when this
	// was the last unsettled step.
	if record.StepID() != "" {
		if err := e.bookStepAfterApproval(ctx, record.StepID()); err != nil {
			e.logger.Warn("Failed to settle step after approval",
				"booking_id", recordID,
				"step_id", record.StepID(),
				"error", err)
		}
	}

	return record, nil
}

func (e *Engine) bookStepAfterApproval(ctx context.Context, stepID string) error {
	e.mu.Lock()
	planID := e.currentPlanID
	e.mu.Unlock()
	if planID == "" {
		return plan.ErrPlanNotFound
	}

	p, err := e.plans.GetByID(ctx, planID)
	if err != nil {
		return err
	}
	step, err := p.StepByID(stepID)
	if err != nil {
		return err
	}
	if err := step.Book(); err != nil {
		return err
	}
	p.RecalculateTotal()
	if err := e.plans.Save(ctx, p); err != nil {
		return err
	}

	e.events.publish(StepSettledEvent{
		PlanID:   p.ID(),
		StepID:   step.ID(),
		StepType: step.Type(),
		Status:   step.Status(),
		At:       time.Now(),
	})
	e.collector.RecordStepSettled(ctx, step.Type(), step.Status().String())

	e.maybeComplete(ctx, p)
	return nil
}

// maybeComplete completes an executing plan whose steps all settled.
func (e *Engine) maybeComplete(ctx context.Context, p *plan.Plan) {
	if p.Status() != plan.PlanStatusExecuting || !p.AllStepsSettled() {
		return
	}
	if _, err := e.CompleteExecution(ctx, p.ID()); err != nil {
		e.logger.Error("Failed to complete plan", "plan_id", p.ID(), "error", err)
	}
}

// Projection returns the read-only plan snapshot.
func (e *Engine) Projection(ctx context.Context, planID string) (*PlanProjection, error) {
	p, err := e.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	return ProjectPlan(p), nil
}

// ExecutionProjection returns the simplified progress snapshot.
func (e *Engine) ExecutionProjection(ctx context.Context, planID string) (*ExecutionProjection, error) {
	p, err := e.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	return ProjectExecution(p), nil
}

func providerRef(data map[string]interface{}) string {
	for _, key := range []string{"confirmation_id", "provider_ref", "booking_ref"} {
		if ref, ok := data[key].(string); ok && ref != "" {
			return ref
		}
	}
	return ""
}
