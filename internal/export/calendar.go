package export

import (
	"context"
	"log/slog"

	"github.com/travel-butler/trip-engine/internal/capability"
	"github.com/travel-butler/trip-engine/internal/plan"
)

// maxRetries is the number of additional attempts for events that
// failed in the first batch.
const maxRetries = 2

var stepEmoji = map[string]string{
	capability.StepTypeFlight:        "✈️",
	capability.StepTypeHotel:         "🏨",
	capability.StepTypeRestaurant:    "🍽️",
	capability.StepTypeActivity:      "🎯",
	capability.StepTypeTransport:     "🚗",
	capability.StepTypeCalendarEvent: "📅",
}

// Summary reports how a calendar export went.
type Summary struct {
	Created int    `json:"created"`
	Failed  int    `json:"failed"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CalendarExporter creates one calendar event per itinerary step
// through the calendar capability, retrying events that failed.
type CalendarExporter struct {
	invoker capability.Invoker
	logger  *slog.Logger
}

func NewCalendarExporter(invoker capability.Invoker, logger *slog.Logger) *CalendarExporter {
	return &CalendarExporter{
		invoker: invoker,
		logger:  logger,
	}
}

func (e *CalendarExporter) Export(ctx context.Context, p *plan.Plan) (*Summary, error) {
	steps := p.Steps()
	if len(steps) == 0 {
		return &Summary{Skipped: true}, nil
	}

	events := make([]interface{}, 0, len(steps))
	for _, step := range steps {
		events = append(events, stepToEvent(step))
	}

	e.logger.Info("Exporting itinerary to calendar",
		"plan_id", p.ID(),
		"events", len(events))

	created, failed, err := e.createBatch(ctx, events)
	if err != nil {
		// Typically the user has not connected their calendar yet;
		// surface the reason without failing the caller.
		e.logger.Warn("Calendar export skipped", "error", err)
		return &Summary{Failed: len(events), Error: err.Error()}, nil
	}

	for attempt := 1; attempt <= maxRetries && len(failed) > 0; attempt++ {
		e.logger.Info("Retrying failed calendar events",
			"count", len(failed),
			"attempt", attempt,
			"max_retries", maxRetries)

		retryCreated, retryFailed, retryErr := e.createBatch(ctx, failed)
		if retryErr != nil {
			break
		}
		created += retryCreated
		failed = retryFailed
	}

	if len(failed) > 0 {
		e.logger.Warn("Some events failed to export",
			"failed", len(failed),
			"retries", maxRetries)
	}

	e.logger.Info("Calendar export complete",
		"plan_id", p.ID(),
		"created", created,
		"failed", len(failed))

	return &Summary{Created: created, Failed: len(failed)}, nil
}

func (e *CalendarExporter) createBatch(ctx context.Context, events []interface{}) (int, []interface{}, error) {
	result, err := e.invoker.Invoke(ctx, capability.Request{
		Tool:    capability.ToolCalendarCreate,
		Agent:   capability.AgentCalendar,
		Payload: map[string]interface{}{"events": events},
	})
	if err != nil {
		return 0, nil, err
	}

	created := 0
	if n, ok := result.Data["created"].(float64); ok {
		created = int(n)
	}
	var failed []interface{}
	if list, ok := result.Data["failed"].([]interface{}); ok {
		failed = list
	}
	return created, failed, nil
}

// stepToEvent converts a step into a calendar event payload.
func stepToEvent(step *plan.Step) map[string]interface{} {
	emoji, ok := stepEmoji[step.Type()]
	if !ok {
		emoji = "•"
	}

	description := step.Type()
	if step.Description() != "" {
		description = step.Description() + "\n" + description
	}
	if step.Notes() != "" {
		description += "\nNotes: " + step.Notes()
	}

	start := step.StartTime()
	if start == "" {
		start = "09:00"
	}
	end := step.EndTime()
	if end == "" {
		end = "10:00"
	}

	location := ""
	if step.Location() != nil {
		location = step.Location().Address()
		if location == "" {
			location = step.Location().Name()
		}
	}

	return map[string]interface{}{
		"summary":     emoji + " " + step.Title(),
		"description": description,
		"start":       step.Date().String() + "T" + start + ":00",
		"end":         step.Date().String() + "T" + end + ":00",
		"location":    location,
	}
}
