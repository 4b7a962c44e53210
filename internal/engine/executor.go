package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/travel-butler/trip-engine/internal/booking"
	"github.com/travel-butler/trip-engine/internal/capability"
	"github.com/travel-butler/trip-engine/internal/plan"
	"github.com/travel-butler/trip-engine/internal/shared"
	"golang.org/x/sync/errgroup"
)

// executionPass holds the shared state of one sweep over a plan's
// runnable steps. The mutex serializes plan mutation and persistence;
// capability calls run outside it.
type executionPass struct {
	plan *plan.Plan
	mu   sync.Mutex
}

// ExecutePass dispatches every runnable step (pending or failed) of a
// plan in ascending order. Steps assigned to the same agent are
// executed one at a time; steps with different agents run
// concurrently. Already settled steps are never re-dispatched, so
// re-running a fully booked plan performs zero capability calls.
func (e *Engine) ExecutePass(ctx context.Context, planID string) (*plan.Plan, error) {
	p, err := e.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	switch p.Status() {
	case plan.PlanStatusConfirmed:
		if err := p.StartExecution(); err != nil {
			return nil, err
		}
		if err := e.plans.Save(ctx, p); err != nil {
			return nil, err
		}
	case plan.PlanStatusExecuting, plan.PlanStatusCompleted:
		// Executing is the normal case; a completed plan may still be
		// swept again to retry failed steps.
	default:
		return nil, fmt.Errorf("cannot execute a %s plan", p.Status())
	}

	runnable := make([]*plan.Step, 0, len(p.Steps()))
	for _, step := range p.Steps() {
		if step.Status().IsRunnable() {
			runnable = append(runnable, step)
		}
	}
	if len(runnable) == 0 {
		e.logger.Debug("No runnable steps, nothing to dispatch", "plan_id", planID)
		return p, nil
	}

	e.logger.Info("Execution pass started",
		"plan_id", planID,
		"runnable_steps", len(runnable))

	pass := &executionPass{plan: p}

	// One FIFO queue and one worker per agent: the agent has at most
	// one in-flight request at any time.
	queues := make(map[string]chan *plan.Step)
	for _, step := range runnable {
		if _, exists := queues[step.Agent()]; !exists {
			queues[step.Agent()] = make(chan *plan.Step, len(runnable))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, queue := range queues {
		queue := queue
		g.Go(func() error {
			for step := range queue {
				e.executeStep(gctx, pass, step)
			}
			return nil
		})
	}

	// Dispatch in ascending order, observing cancellation between
	// dispatches. Calls already dispatched settle normally.
	for _, step := range runnable {
		if e.planCancelled(ctx, planID) {
			e.logger.Info("Cancellation observed, stopping dispatch", "plan_id", planID)
			break
		}
		queues[step.Agent()] <- step
	}
	for _, queue := range queues {
		close(queue)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	pass.mu.Lock()
	e.maybeComplete(ctx, pass.plan)
	pass.mu.Unlock()

	return e.plans.GetByID(ctx, planID)
}

// executeStep runs one step through its agent: search, then book when
// no approval is required. Failures are recorded as data on the step
// and its booking record; they never abort the pass.
func (e *Engine) executeStep(ctx context.Context, pass *executionPass, step *plan.Step) {
	spec := stepSpec(step)

	// An agent without tools cannot act on the step.
	if len(capability.ToolsForAgent(capability.AgentForType(step.Type()))) == 0 {
		pass.mu.Lock()
		defer pass.mu.Unlock()
		if err := step.Skip(); err != nil {
			e.logger.Error("Failed to skip step without agent tools",
				"step_id", step.ID(), "error", err)
			return
		}
		e.persistSettlement(ctx, pass, step)
		return
	}

	searchReq, err := capability.SearchRequestForStep(spec)
	if err != nil {
		e.settleFailure(ctx, pass, step, nil, err.Error())
		return
	}

	pass.mu.Lock()
	if err := step.StartSearch(); err != nil {
		pass.mu.Unlock()
		e.logger.Error("Step cannot start searching", "step_id", step.ID(), "error", err)
		return
	}
	e.savePlan(ctx, pass)
	pass.mu.Unlock()

	searchResult, err := e.invoker.Invoke(ctx, searchReq)
	if err != nil {
		e.settleFailure(ctx, pass, step, &searchReq, err.Error())
		return
	}

	if searchResult.Status == capability.ResultStatusAwaitingApproval {
		e.parkForApproval(ctx, pass, step, spec, searchResult.Data)
		return
	}

	bookReq, bookable := bookingRequest(spec, searchResult.Data)
	if !bookable {
		// Nothing to commit with a provider: the found result is the
		// completed action.
		e.settleBooked(ctx, pass, step, searchReq.Tool, searchResult.Data, searchResult.Data)
		return
	}

	bookResult, err := e.invoker.Invoke(ctx, bookReq)
	if err != nil {
		e.settleFailure(ctx, pass, step, &bookReq, err.Error())
		return
	}
	if bookResult.Status == capability.ResultStatusAwaitingApproval {
		e.parkForApproval(ctx, pass, step, spec, searchResult.Data)
		return
	}

	e.settleBooked(ctx, pass, step, bookReq.Tool, searchResult.Data, bookResult.Data)
}

// settleBooked moves a step through found to booked and stores a
// confirmed booking record.
func (e *Engine) settleBooked(
	ctx context.Context,
	pass *executionPass,
	step *plan.Step,
	tool string,
	searchData map[string]interface{},
	bookData map[string]interface{},
) {
	pass.mu.Lock()
	defer pass.mu.Unlock()

	if err := step.MarkFound(searchData); err != nil {
		e.logger.Error("Step cannot record result", "step_id", step.ID(), "error", err)
		return
	}
	applyPriceEstimate(step, searchData)
	e.savePlan(ctx, pass)

	if err := step.Book(); err != nil {
		e.logger.Error("Step cannot book", "step_id", step.ID(), "error", err)
		return
	}

	record, err := booking.NewRecord(step.Type(), tool, searchData, step.ID())
	if err == nil {
		if err := record.Confirm(providerRef(bookData), bookData); err == nil {
			if err := e.bookings.Save(ctx, record); err != nil {
				e.logger.Error("Failed to save booking record",
					"step_id", step.ID(), "error", err)
			}
		}
	}

	e.persistSettlement(ctx, pass, step)
}

// settleFailure records a capability failure on the step and a failed
// booking record. Later independent steps keep executing.
func (e *Engine) settleFailure(
	ctx context.Context,
	pass *executionPass,
	step *plan.Step,
	req *capability.Request,
	detail string,
) {
	pass.mu.Lock()
	defer pass.mu.Unlock()

	if step.Status() == plan.StepStatusPending {
		// The step never started searching (payload construction
		// failed); it still has to pass through searching to fail.
		if err := step.StartSearch(); err != nil {
			e.logger.Error("Step cannot start searching", "step_id", step.ID(), "error", err)
			return
		}
		e.savePlan(ctx, pass)
	}

	if err := step.Fail(detail); err != nil {
		e.logger.Error("Step cannot record failure", "step_id", step.ID(), "error", err)
		return
	}

	tool := ""
	var payload map[string]interface{}
	if req != nil {
		tool = req.Tool
		payload = req.Payload
	}
	if tool != "" {
		record, err := booking.NewRecord(step.Type(), tool, payload, step.ID())
		if err == nil {
			if err := record.Fail(detail); err == nil {
				if err := e.bookings.Save(ctx, record); err != nil {
					e.logger.Error("Failed to save booking record",
						"step_id", step.ID(), "error", err)
				}
			}
		}
	}

	e.logger.Warn("Step failed", "step_id", step.ID(), "title", step.Title(), "error", detail)
	e.persistSettlement(ctx, pass, step)
}

// parkForApproval leaves the step at found and creates a booking
// record awaiting the user's sign-off.
func (e *Engine) parkForApproval(
	ctx context.Context,
	pass *executionPass,
	step *plan.Step,
	spec capability.StepSpec,
	searchData map[string]interface{},
) {
	pass.mu.Lock()
	defer pass.mu.Unlock()

	if err := step.MarkFound(searchData); err != nil {
		e.logger.Error("Step cannot record result", "step_id", step.ID(), "error", err)
		return
	}
	applyPriceEstimate(step, searchData)
	pass.plan.RecalculateTotal()
	e.savePlan(ctx, pass)

	bookReq, bookable := bookingRequest(spec, searchData)
	tool := capability.ToolsForAgent(capability.AgentForType(step.Type()))[0]
	payload := searchData
	if bookable {
		tool = bookReq.Tool
		payload = bookReq.Payload
	}

	record, err := booking.NewRecord(step.Type(), tool, payload, step.ID())
	if err != nil {
		e.logger.Error("Failed to create booking record", "step_id", step.ID(), "error", err)
		return
	}
	if err := record.RequireApproval(); err != nil {
		e.logger.Error("Failed to park booking for approval", "step_id", step.ID(), "error", err)
		return
	}
	if err := e.bookings.Save(ctx, record); err != nil {
		e.logger.Error("Failed to save booking record", "step_id", step.ID(), "error", err)
		return
	}

	e.logger.Info("Booking awaits approval",
		"step_id", step.ID(),
		"booking_id", record.ID(),
		"tool", tool)
}

// persistSettlement recomputes the total, saves the plan and emits the
// settlement event. Callers hold the pass mutex.
func (e *Engine) persistSettlement(ctx context.Context, pass *executionPass, step *plan.Step) {
	pass.plan.RecalculateTotal()
	e.savePlan(ctx, pass)

	e.events.publish(StepSettledEvent{
		PlanID:   pass.plan.ID(),
		StepID:   step.ID(),
		StepType: step.Type(),
		Status:   step.Status(),
		At:       time.Now(),
	})
	e.collector.RecordStepSettled(ctx, step.Type(), step.Status().String())
}

func (e *Engine) savePlan(ctx context.Context, pass *executionPass) {
	err := e.plans.Save(ctx, pass.plan)
	if err == nil {
		return
	}

	// The plan may have been cancelled mid-pass. In-flight calls
	// settle normally and their step transitions are still recorded,
	// so adopt the cancellation and save again.
	if plan.IsInvalidTransition(err) {
		stored, getErr := e.plans.GetByID(ctx, pass.plan.ID())
		if getErr == nil && stored.Status() == plan.PlanStatusCancelled &&
			pass.plan.Status() != plan.PlanStatusCancelled {
			if cancelErr := pass.plan.Cancel(stored.CancelReason()); cancelErr == nil {
				err = e.plans.Save(ctx, pass.plan)
			}
		}
	}
	if err != nil {
		e.logger.Error("Failed to save plan", "plan_id", pass.plan.ID(), "error", err)
	}
}

// planCancelled reloads the plan and reports whether it was cancelled
// since the pass started.
func (e *Engine) planCancelled(ctx context.Context, planID string) bool {
	stored, err := e.plans.GetByID(ctx, planID)
	if err != nil {
		return false
	}
	return stored.Status() == plan.PlanStatusCancelled
}

func stepSpec(step *plan.Step) capability.StepSpec {
	spec := capability.StepSpec{
		Type:        step.Type(),
		Title:       step.Title(),
		Description: step.Description(),
		Date:        step.Date().String(),
		StartTime:   step.StartTime(),
		EndTime:     step.EndTime(),
		Payload:     step.ActionPayload(),
	}
	if step.Location() != nil {
		spec.LocationName = step.Location().Name()
		spec.LocationAddress = step.Location().Address()
	}
	return spec
}

func bookingRequest(spec capability.StepSpec, searchData map[string]interface{}) (capability.Request, bool) {
	if _, ok := capability.BookingToolForType(spec.Type); !ok {
		return capability.Request{}, false
	}
	req, err := capability.BookingRequestForStep(spec, searchData)
	if err != nil {
		return capability.Request{}, false
	}
	return req, true
}

func applyPriceEstimate(step *plan.Step, data map[string]interface{}) {
	for _, key := range []string{"price_usd", "total_usd", "price"} {
		if amount, ok := data[key].(float64); ok {
			if price, err := shared.NewMoneyFromFloat(amount, "USD"); err == nil {
				step.SetEstimatedPrice(price)
			}
			return
		}
	}
}
