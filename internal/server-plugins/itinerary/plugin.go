package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/lo"
	"github.com/travel-butler/trip-engine/internal/booking"
	"github.com/travel-butler/trip-engine/internal/capability"
	"github.com/travel-butler/trip-engine/internal/engine"
	"github.com/travel-butler/trip-engine/internal/export"
	"github.com/travel-butler/trip-engine/internal/plan"
	"github.com/travel-butler/trip-engine/internal/server"
	"github.com/travel-butler/trip-engine/internal/server-plugin/domain"
	"github.com/travel-butler/trip-engine/internal/shared"
	"github.com/travel-butler/trip-engine/internal/trace"
	"github.com/travel-butler/trip-engine/pkg/logger"
	"go.uber.org/fx"
)

// ItineraryServerPlugin exposes the plan lifecycle over MCP: drafting,
// confirmation, execution, approvals and calendar export.
type ItineraryServerPlugin struct {
	engine   *engine.Engine
	bookings booking.Repository
	calendar *export.CalendarExporter
	tracer   *trace.Tracer
	logs     *logger.RingBuffer
	logger   *slog.Logger
}

func NewItineraryServerPlugin(
	eng *engine.Engine,
	bookings booking.Repository,
	calendar *export.CalendarExporter,
	tracer *trace.Tracer,
	logs *logger.RingBuffer,
	logger *slog.Logger,
) domain.ServerPlugin {
	return &ItineraryServerPlugin{
		engine:   eng,
		bookings: bookings,
		calendar: calendar,
		tracer:   tracer,
		logs:     logs,
		logger:   logger,
	}
}

// ServerPlugin interface implementation
func (p *ItineraryServerPlugin) ID() string   { return "itinerary" }
func (p *ItineraryServerPlugin) Name() string { return "Trip Itineraries" }

func (p *ItineraryServerPlugin) Description() string {
	return "Itinerary drafting, confirmation, execution and booking approval for the travel assistant"
}

func (p *ItineraryServerPlugin) Version() string { return "0.2.0" }

// Core plugin - the plan lifecycle has no gateway tool dependency.
func (p *ItineraryServerPlugin) RequiredTools() []string { return nil }

// ResourceProvider implementation
func (p *ItineraryServerPlugin) GetResources(ctx context.Context) ([]domain.Resource, error) {
	return []domain.Resource{
		{
			URI:         "trip://plans/current",
			Name:        "Current Itinerary",
			Description: "The session's current itinerary with all steps, prices and statuses",
			MIMEType:    "application/json",
			Handler:     p.handleCurrentPlanResource,
		},
		{
			URI:         "trip://plans/current/progress",
			Name:        "Execution Progress",
			Description: "Per-step execution phases (waiting, processing, done) for the current itinerary",
			MIMEType:    "application/json",
			Handler:     p.handleProgressResource,
		},
		{
			URI:         "trip://bookings/pending",
			Name:        "Pending Approvals",
			Description: "Booking records waiting for an explicit user approval",
			MIMEType:    "application/json",
			Handler:     p.handlePendingApprovalsResource,
		},
		{
			URI:         "trip://trace/recent",
			Name:        "Recent Tool Invocations",
			Description: "The most recent capability invocations with latency and outcome",
			MIMEType:    "application/json",
			Handler:     p.handleTraceResource,
		},
		{
			URI:         "trip://diagnostics/logs",
			Name:        "Engine Logs",
			Description: "Recent engine log lines with credentials redacted",
			MIMEType:    "text/plain",
			Handler:     p.handleLogsResource,
		},
	}, nil
}

// ToolProvider implementation
func (p *ItineraryServerPlugin) GetTools(ctx context.Context) ([]domain.Tool, error) {
	return []domain.Tool{
		{
			Name:        "generate_itinerary",
			Description: "Create a new draft itinerary from a destination, date range and step list",
			Builder:     p.buildGenerateItineraryTool,
			Handler:     p.handleGenerateItinerary,
		},
		{
			Name:        "get_itinerary",
			Description: "Get the current itinerary snapshot",
			Builder:     p.buildGetItineraryTool,
			Handler:     p.handleGetItinerary,
		},
		{
			Name:        "add_step",
			Description: "Append a step to the current draft itinerary",
			Builder:     p.buildAddStepTool,
			Handler:     p.handleAddStep,
		},
		{
			Name:        "update_step",
			Description: "Update fields of a step on the current itinerary",
			Builder:     p.buildUpdateStepTool,
			Handler:     p.handleUpdateStep,
		},
		{
			Name:        "remove_step",
			Description: "Remove a step from the current draft itinerary",
			Builder:     p.buildRemoveStepTool,
			Handler:     p.handleRemoveStep,
		},
		{
			Name:        "confirm_itinerary",
			Description: "Confirm the current draft and start booking it",
			Builder:     p.buildConfirmItineraryTool,
			Handler:     p.handleConfirmItinerary,
		},
		{
			Name:        "execute_itinerary",
			Description: "Run an execution pass over the current itinerary's runnable steps",
			Builder:     p.buildExecuteItineraryTool,
			Handler:     p.handleExecuteItinerary,
		},
		{
			Name:        "skip_step",
			Description: "Skip a step so the rest of the plan can settle without it",
			Builder:     p.buildSkipStepTool,
			Handler:     p.handleSkipStep,
		},
		{
			Name:        "cancel_itinerary",
			Description: "Cancel the current itinerary",
			Builder:     p.buildCancelItineraryTool,
			Handler:     p.handleCancelItinerary,
		},
		{
			Name:        "approve_booking",
			Description: "Approve or reject a booking that is awaiting approval",
			Builder:     p.buildApproveBookingTool,
			Handler:     p.handleApproveBooking,
		},
		{
			Name:        "export_calendar",
			Description: "Export the current itinerary as calendar events",
			Builder:     p.buildExportCalendarTool,
			Handler:     p.handleExportCalendar,
		},
		{
			Name:        "export_ics",
			Description: "Render the current itinerary as an iCalendar document",
			Builder:     p.buildExportICSTool,
			Handler:     p.handleExportICS,
		},
	}, nil
}

// PromptProvider implementation
func (p *ItineraryServerPlugin) GetPrompts(ctx context.Context) ([]domain.Prompt, error) {
	return []domain.Prompt{
		{
			Name:        "trip_review",
			Description: "Review the current itinerary for gaps, conflicts and budget problems",
			Builder:     p.buildTripReviewPrompt,
			Handler:     p.handleTripReviewPrompt,
		},
	}, nil
}

// Resource handlers
func (p *ItineraryServerPlugin) handleCurrentPlanResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	current, err := p.engine.CurrentPlan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get the current itinerary: %w", err)
	}
	return jsonResource(req.Params.URI, engine.ProjectPlan(current))
}

func (p *ItineraryServerPlugin) handleProgressResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	current, err := p.engine.CurrentPlan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get the current itinerary: %w", err)
	}
	return jsonResource(req.Params.URI, engine.ProjectExecution(current))
}

func (p *ItineraryServerPlugin) handlePendingApprovalsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	records, err := p.bookings.ListAwaitingApproval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}

	pending := lo.Map(records, func(r *booking.Record, _ int) map[string]interface{} {
		return bookingView(r)
	})
	return jsonResource(req.Params.URI, map[string]interface{}{
		"bookings": pending,
		"count":    len(pending),
	})
}

func (p *ItineraryServerPlugin) handleTraceResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	invocations := p.tracer.Recent(50)
	return jsonResource(req.Params.URI, map[string]interface{}{
		"invocations": invocations,
		"count":       len(invocations),
	})
}

func (p *ItineraryServerPlugin) handleLogsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	lines := server.SanitizeLogLines(p.logs.GetLast(200))
	text := ""
	for _, line := range lines {
		text += line + "\n"
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     text,
		},
	}, nil
}

// Tool builders
func (p *ItineraryServerPlugin) buildGenerateItineraryTool() mcp.Tool {
	return mcp.NewTool(
		"generate_itinerary",
		mcp.WithDescription("Create a new draft itinerary from a destination, date range and step list"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the trip, e.g. 'Tokyo in May'"),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Primary destination of the trip"),
		),
		mcp.WithString("start_date",
			mcp.Required(),
			mcp.Description("First day of the trip (YYYY-MM-DD)"),
		),
		mcp.WithString("end_date",
			mcp.Required(),
			mcp.Description("Last day of the trip (YYYY-MM-DD)"),
		),
		mcp.WithArray("steps",
			mcp.Description("Ordered step list; each item has type, title, date and optional description, start_time, end_time, location_name, location_address, price_usd"),
		),
	)
}

func (p *ItineraryServerPlugin) buildGetItineraryTool() mcp.Tool {
	return mcp.NewTool(
		"get_itinerary",
		mcp.WithDescription("Get the current itinerary snapshot"),
	)
}

func (p *ItineraryServerPlugin) buildAddStepTool() mcp.Tool {
	return mcp.NewTool(
		"add_step",
		mcp.WithDescription("Append a step to the current draft itinerary"),
		mcp.WithString("step_type",
			mcp.Required(),
			mcp.Description("Step type: flight, hotel, restaurant, activity, transport or calendar_event"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short step title"),
		),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Day of the step (YYYY-MM-DD)"),
		),
		mcp.WithString("description",
			mcp.Description("Longer description of the step"),
		),
		mcp.WithString("start_time",
			mcp.Description("Start of the step (HH:MM)"),
		),
		mcp.WithString("end_time",
			mcp.Description("End of the step (HH:MM)"),
		),
		mcp.WithString("location_name",
			mcp.Description("Name of the place"),
		),
		mcp.WithString("location_address",
			mcp.Description("Street address of the place"),
		),
		mcp.WithNumber("price_usd",
			mcp.Description("Estimated price in US dollars"),
		),
	)
}

func (p *ItineraryServerPlugin) buildUpdateStepTool() mcp.Tool {
	return mcp.NewTool(
		"update_step",
		mcp.WithDescription("Update fields of a step on the current itinerary"),
		mcp.WithString("step_id",
			mcp.Required(),
			mcp.Description("Identifier of the step to update"),
		),
		mcp.WithString("title",
			mcp.Description("New step title"),
		),
		mcp.WithString("description",
			mcp.Description("New step description"),
		),
		mcp.WithString("notes",
			mcp.Description("Free-form traveller notes"),
		),
		mcp.WithString("date",
			mcp.Description("New day of the step (YYYY-MM-DD)"),
		),
		mcp.WithString("start_time",
			mcp.Description("New start of the step (HH:MM)"),
		),
		mcp.WithString("end_time",
			mcp.Description("New end of the step (HH:MM)"),
		),
		mcp.WithNumber("price_usd",
			mcp.Description("New estimated price in US dollars"),
		),
	)
}

func (p *ItineraryServerPlugin) buildRemoveStepTool() mcp.Tool {
	return mcp.NewTool(
		"remove_step",
		mcp.WithDescription("Remove a step from the current draft itinerary"),
		mcp.WithString("step_id",
			mcp.Required(),
			mcp.Description("Identifier of the step to remove"),
		),
	)
}

func (p *ItineraryServerPlugin) buildConfirmItineraryTool() mcp.Tool {
	return mcp.NewTool(
		"confirm_itinerary",
		mcp.WithDescription("Confirm the current draft itinerary and start booking it"),
	)
}

func (p *ItineraryServerPlugin) buildExecuteItineraryTool() mcp.Tool {
	return mcp.NewTool(
		"execute_itinerary",
		mcp.WithDescription("Run an execution pass over the current itinerary's runnable steps"),
	)
}

func (p *ItineraryServerPlugin) buildSkipStepTool() mcp.Tool {
	return mcp.NewTool(
		"skip_step",
		mcp.WithDescription("Skip a step so the rest of the plan can settle without it"),
		mcp.WithString("step_id",
			mcp.Required(),
			mcp.Description("Identifier of the step to skip"),
		),
	)
}

func (p *ItineraryServerPlugin) buildCancelItineraryTool() mcp.Tool {
	return mcp.NewTool(
		"cancel_itinerary",
		mcp.WithDescription("Cancel the current itinerary"),
		mcp.WithString("reason",
			mcp.Description("Why the trip is being cancelled"),
		),
	)
}

func (p *ItineraryServerPlugin) buildApproveBookingTool() mcp.Tool {
	return mcp.NewTool(
		"approve_booking",
		mcp.WithDescription("Approve or reject a booking that is awaiting approval"),
		mcp.WithString("booking_id",
			mcp.Required(),
			mcp.Description("Identifier of the booking record"),
		),
		mcp.WithBoolean("approved",
			mcp.Required(),
			mcp.Description("true to book, false to reject"),
		),
	)
}

func (p *ItineraryServerPlugin) buildExportCalendarTool() mcp.Tool {
	return mcp.NewTool(
		"export_calendar",
		mcp.WithDescription("Export the current itinerary as calendar events"),
	)
}

func (p *ItineraryServerPlugin) buildExportICSTool() mcp.Tool {
	return mcp.NewTool(
		"export_ics",
		mcp.WithDescription("Render the current itinerary as an iCalendar document"),
	)
}

// Tool handlers
func (p *ItineraryServerPlugin) handleGenerateItinerary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return server.Error("missing_argument", "The itinerary title is required", "", nil), nil
	}
	destination, err := req.RequireString("destination")
	if err != nil {
		return server.Error("missing_argument", "The destination is required", "", nil), nil
	}
	startDate, err := req.RequireString("start_date")
	if err != nil {
		return server.Error("missing_argument", "The start date is required", "", nil), nil
	}
	endDate, err := req.RequireString("end_date")
	if err != nil {
		return server.Error("missing_argument", "The end date is required", "", nil), nil
	}

	draft, err := plan.NewPlan(title, destination, startDate, endDate)
	if err != nil {
		return server.Error("invalid_itinerary", err.Error(), "Dates use the YYYY-MM-DD format", nil), nil
	}

	if rawSteps, ok := req.GetArguments()["steps"].([]interface{}); ok {
		for _, raw := range rawSteps {
			item, ok := raw.(map[string]interface{})
			if !ok {
				return server.Error("invalid_step", "Each step must be an object", "", nil), nil
			}
			step, err := stepFromArguments(draft.NextOrder(), item)
			if err != nil {
				return server.Error("invalid_step", err.Error(), "", nil), nil
			}
			if err := draft.AddStep(step); err != nil {
				return server.Error("invalid_step", err.Error(), "", nil), nil
			}
		}
	}

	registered, err := p.engine.RegisterItinerary(ctx, draft)
	if err != nil {
		return server.Error("register_failed", fmt.Sprintf("Failed to register the itinerary: %v", err), "", nil), nil
	}

	return server.OK(
		fmt.Sprintf("Itinerary '%s' created with %d steps", registered.Title(), len(registered.Steps())),
		engine.ProjectPlan(registered),
	), nil
}

func (p *ItineraryServerPlugin) handleGetItinerary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, err := p.engine.CurrentPlan(ctx)
	if err != nil {
		if errors.Is(err, plan.ErrPlanNotFound) {
			return server.Error("no_itinerary", "No itinerary exists yet", "Create one with generate_itinerary", nil), nil
		}
		return server.Error("load_failed", fmt.Sprintf("Failed to load the itinerary: %v", err), "", nil), nil
	}
	return server.OK("Current itinerary", engine.ProjectPlan(current)), nil
}

func (p *ItineraryServerPlugin) handleAddStep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, err := p.engine.CurrentPlan(ctx)
	if err != nil {
		return server.Error("no_itinerary", "No itinerary exists yet", "Create one with generate_itinerary", nil), nil
	}

	step, err := stepFromArguments(current.NextOrder(), req.GetArguments())
	if err != nil {
		return server.Error("invalid_step", err.Error(), "", nil), nil
	}
	if err := current.AddStep(step); err != nil {
		if errors.Is(err, plan.ErrPlanFrozen) {
			return server.Error("plan_frozen", "Steps can only be added while the itinerary is a draft", "", nil), nil
		}
		return server.Error("invalid_step", err.Error(), "", nil), nil
	}

	updated, err := p.engine.RegisterItinerary(ctx, current)
	if err != nil {
		return server.Error("save_failed", fmt.Sprintf("Failed to save the itinerary: %v", err), "", nil), nil
	}
	return server.OK(fmt.Sprintf("Step '%s' added", step.Title()), engine.ProjectPlan(updated)), nil
}

func (p *ItineraryServerPlugin) handleUpdateStep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stepID, err := req.RequireString("step_id")
	if err != nil {
		return server.Error("missing_argument", "The step identifier is required", "", nil), nil
	}

	current, err := p.engine.CurrentPlan(ctx)
	if err != nil {
		return server.Error("no_itinerary", "No itinerary exists yet", "", nil), nil
	}
	if current.Status() != plan.PlanStatusDraft {
		return server.Error("plan_frozen", "Steps can only be updated while the itinerary is a draft", "", nil), nil
	}
	step, err := current.StepByID(stepID)
	if err != nil {
		return server.Error("step_not_found", fmt.Sprintf("Step '%s' not found", stepID), "", nil), nil
	}

	args := req.GetArguments()
	if title, ok := stringArg(args, "title"); ok {
		if err := step.SetTitle(title); err != nil {
			return server.Error("invalid_step", err.Error(), "", nil), nil
		}
	}
	if description, ok := stringArg(args, "description"); ok {
		step.SetDescription(description)
	}
	if notes, ok := stringArg(args, "notes"); ok {
		step.SetNotes(notes)
	}
	if date, ok := stringArg(args, "date"); ok {
		if err := step.SetDate(date); err != nil {
			return server.Error("invalid_step", err.Error(), "", nil), nil
		}
	}
	start, hasStart := stringArg(args, "start_time")
	end, hasEnd := stringArg(args, "end_time")
	if hasStart || hasEnd {
		if !hasStart {
			start = step.StartTime()
		}
		if !hasEnd {
			end = step.EndTime()
		}
		if err := step.SetTimes(start, end); err != nil {
			return server.Error("invalid_step", err.Error(), "", nil), nil
		}
	}
	if price, ok := args["price_usd"].(float64); ok {
		money, err := shared.NewMoneyFromFloat(price, "USD")
		if err != nil {
			return server.Error("invalid_step", err.Error(), "", nil), nil
		}
		step.SetEstimatedPrice(money)
		current.RecalculateTotal()
	}

	updated, err := p.engine.RegisterItinerary(ctx, current)
	if err != nil {
		return server.Error("save_failed", fmt.Sprintf("Failed to save the itinerary: %v", err), "", nil), nil
	}
	return server.OK(fmt.Sprintf("Step '%s' updated", step.Title()), engine.ProjectPlan(updated)), nil
}

func (p *ItineraryServerPlugin) handleRemoveStep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stepID, err := req.RequireString("step_id")
	if err != nil {
		return server.Error("missing_argument", "The step identifier is required", "", nil), nil
	}

	current, err := p.engine.CurrentPlan(ctx)
	if err != nil {
		return server.Error("no_itinerary", "No itinerary exists yet", "", nil), nil
	}
	if err := current.RemoveStep(stepID); err != nil {
		if errors.Is(err, plan.ErrPlanFrozen) {
			return server.Error("plan_frozen", "Steps can only be removed while the itinerary is a draft", "", nil), nil
		}
		if errors.Is(err, plan.ErrStepNotFound) {
			return server.Error("step_not_found", fmt.Sprintf("Step '%s' not found", stepID), "", nil), nil
		}
		return server.Error("remove_failed", err.Error(), "", nil), nil
	}

	updated, err := p.engine.RegisterItinerary(ctx, current)
	if err != nil {
		return server.Error("save_failed", fmt.Sprintf("Failed to save the itinerary: %v", err), "", nil), nil
	}
	return server.OK("Step removed", engine.ProjectPlan(updated)), nil
}

func (p *ItineraryServerPlugin) handleConfirmItinerary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, err := p.engine.CurrentPlan(ctx)
	if err != nil {
		return server.Error("no_itinerary", "No itinerary exists yet", "Create one with generate_itinerary", nil), nil
	}

	confirmed, err := p.engine.Confirm(ctx, current.ID())
	if err != nil {
		if errors.Is(err, plan.ErrNothingToConfirm) {
			return server.Error("nothing_to_confirm",
				fmt.Sprintf("The itinerary is %s, only drafts can be confirmed", current.Status()),
				"", nil), nil
		}
		return server.Error("confirm_failed", fmt.Sprintf("Failed to confirm the itinerary: %v", err), "", nil), nil
	}
	return server.OK(
		fmt.Sprintf("Itinerary confirmed, status is now %s", confirmed.Status()),
		engine.ProjectPlan(confirmed),
	), nil
}

func (p *ItineraryServerPlugin) handleExecuteItinerary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, err := p.engine.CurrentPlan(ctx)
	if err != nil {
		return server.Error("no_itinerary", "No itinerary exists yet", "", nil), nil
	}

	if current.Status() == plan.PlanStatusDraft {
		return server.Error("not_executable", "The itinerary is still a draft", "Confirm it first", nil), nil
	}

	executed, err := p.engine.ExecutePass(ctx, current.ID())
	if err != nil {
		return server.Error("execution_failed", fmt.Sprintf("Execution pass failed: %v", err), "", nil), nil
	}

	projection := engine.ProjectPlan(executed)
	failed := lo.CountBy(projection.Steps, func(s engine.StepProjection) bool {
		return s.Status == plan.StepStatusFailed.String()
	})
	if failed > 0 {
		return server.Partial(
			fmt.Sprintf("Execution pass finished, %d of %d steps failed", failed, len(projection.Steps)),
			projection,
		), nil
	}
	return server.OK("Execution pass finished", projection), nil
}

func (p *ItineraryServerPlugin) handleSkipStep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stepID, err := req.RequireString("step_id")
	if err != nil {
		return server.Error("missing_argument", "The step identifier is required", "", nil), nil
	}

	current, err := p.engine.CurrentPlan(ctx)
	if err != nil {
		return server.Error("no_itinerary", "No itinerary exists yet", "", nil), nil
	}

	updated, err := p.engine.SkipStep(ctx, current.ID(), stepID)
	if err != nil {
		if errors.Is(err, plan.ErrStepNotFound) {
			return server.Error("step_not_found", fmt.Sprintf("Step '%s' not found", stepID), "", nil), nil
		}
		if plan.IsInvalidTransition(err) {
			return server.Error("not_skippable", fmt.Sprintf("The step cannot be skipped: %v", err), "", nil), nil
		}
		return server.Error("skip_failed", fmt.Sprintf("Failed to skip the step: %v", err), "", nil), nil
	}
	return server.OK("Step skipped", engine.ProjectPlan(updated)), nil
}

func (p *ItineraryServerPlugin) handleCancelItinerary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, err := p.engine.CurrentPlan(ctx)
	if err != nil {
		return server.Error("no_itinerary", "No itinerary exists yet", "", nil), nil
	}

	reason := ""
	if value, ok := stringArg(req.GetArguments(), "reason"); ok {
		reason = value
	}

	cancelled, err := p.engine.Cancel(ctx, current.ID(), reason)
	if err != nil {
		if plan.IsInvalidTransition(err) {
			return server.Error("not_cancellable",
				fmt.Sprintf("The itinerary is already %s", current.Status()),
				"", nil), nil
		}
		return server.Error("cancel_failed", fmt.Sprintf("Failed to cancel the itinerary: %v", err), "", nil), nil
	}
	return server.OK("Itinerary cancelled", engine.ProjectPlan(cancelled)), nil
}

func (p *ItineraryServerPlugin) handleApproveBooking(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bookingID, err := req.RequireString("booking_id")
	if err != nil {
		return server.Error("missing_argument", "The booking identifier is required", "", nil), nil
	}
	approved, ok := req.GetArguments()["approved"].(bool)
	if !ok {
		return server.Error("missing_argument", "The approval decision is required", "Pass approved=true or approved=false", nil), nil
	}

	record, err := p.engine.ApproveBooking(ctx, bookingID, approved)
	if err != nil {
		if errors.Is(err, booking.ErrRecordNotFound) {
			return server.Error("booking_not_found", fmt.Sprintf("Booking '%s' not found", bookingID), "", nil), nil
		}
		if errors.Is(err, booking.ErrNotAwaitingApproval) {
			return server.Error("not_awaiting_approval", "The booking is not awaiting approval", "", nil), nil
		}
		return server.Error("approval_failed", fmt.Sprintf("Failed to apply the decision: %v", err), "", nil), nil
	}

	switch record.Status() {
	case booking.StatusConfirmed:
		return server.OK(
			fmt.Sprintf("Booking confirmed with reference '%s'", record.ProviderRef()),
			bookingView(record),
		), nil
	case booking.StatusCancelled:
		return server.OK("Booking rejected", bookingView(record)), nil
	default:
		return server.Partial(
			fmt.Sprintf("Booking approved but the provider call failed: %s", record.ErrorDetail()),
			bookingView(record),
		), nil
	}
}

func (p *ItineraryServerPlugin) handleExportCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, err := p.engine.CurrentPlan(ctx)
	if err != nil {
		return server.Error("no_itinerary", "No itinerary exists yet", "", nil), nil
	}

	summary, err := p.calendar.Export(ctx, current)
	if err != nil {
		return server.Error("export_failed", fmt.Sprintf("Calendar export failed: %v", err), "", nil), nil
	}
	if summary.Error != "" {
		return server.Partial(
			fmt.Sprintf("Calendar export did not run: %s", summary.Error),
			summary,
		), nil
	}
	if summary.Failed > 0 {
		return server.Partial(
			fmt.Sprintf("Exported %d events, %d failed", summary.Created, summary.Failed),
			summary,
		), nil
	}
	return server.OK(fmt.Sprintf("Exported %d events", summary.Created), summary), nil
}

func (p *ItineraryServerPlugin) handleExportICS(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, err := p.engine.CurrentPlan(ctx)
	if err != nil {
		return server.Error("no_itinerary", "No itinerary exists yet", "", nil), nil
	}

	ics, err := export.WriteICS(current)
	if err != nil {
		return server.Error("export_failed", fmt.Sprintf("Failed to render the calendar: %v", err), "", nil), nil
	}
	return server.OK("iCalendar document rendered", map[string]interface{}{"ics": ics}), nil
}

// stepFromArguments builds a draft step from tool arguments.
func stepFromArguments(order int, args map[string]interface{}) (*plan.Step, error) {
	stepType, _ := stringArg(args, "step_type")
	if stepType == "" {
		stepType, _ = stringArg(args, "type")
	}
	title, _ := stringArg(args, "title")
	date, _ := stringArg(args, "date")

	step, err := plan.NewStep(order, stepType, title, date)
	if err != nil {
		return nil, err
	}

	if description, ok := stringArg(args, "description"); ok {
		step.SetDescription(description)
	}
	start, _ := stringArg(args, "start_time")
	end, _ := stringArg(args, "end_time")
	if start != "" || end != "" {
		if err := step.SetTimes(start, end); err != nil {
			return nil, err
		}
	}
	if name, ok := stringArg(args, "location_name"); ok {
		address, _ := stringArg(args, "location_address")
		location, err := plan.NewLocation(name, address, 0, 0)
		if err != nil {
			return nil, err
		}
		step.SetLocation(location)
	}
	if price, ok := args["price_usd"].(float64); ok {
		money, err := shared.NewMoneyFromFloat(price, "USD")
		if err != nil {
			return nil, err
		}
		step.SetEstimatedPrice(money)
	}
	if payload, ok := args["payload"].(map[string]interface{}); ok {
		step.SetActionPayload(payload)
	}
	step.SetAgent(string(capability.AgentForType(step.Type())))
	return step, nil
}

func stringArg(args map[string]interface{}, key string) (string, bool) {
	value, ok := args[key].(string)
	return value, ok && value != ""
}

func bookingView(r *booking.Record) map[string]interface{} {
	view := map[string]interface{}{
		"id":         r.ID(),
		"type":       r.Type(),
		"capability": r.Capability(),
		"status":     string(r.Status()),
		"created_at": r.CreatedAt(),
	}
	if r.StepID() != "" {
		view["step_id"] = r.StepID()
	}
	if r.ProviderRef() != "" {
		view["provider_ref"] = r.ProviderRef()
	}
	if r.ErrorDetail() != "" {
		view["error"] = r.ErrorDetail()
	}
	return view
}

func jsonResource(uri string, payload interface{}) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize the resource payload: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

var Module = fx.Module("itinerary",
	fx.Provide(
		fx.Annotate(
			NewItineraryServerPlugin,
			fx.As(new(domain.ServerPlugin)),
			fx.ResultTags(`group:"server_plugins"`),
		),
	),
)
