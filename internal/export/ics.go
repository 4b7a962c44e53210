package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/travel-butler/trip-engine/internal/plan"
)

// WriteICS serializes a plan as an iCalendar document, one VEVENT per
// step, so the itinerary can be imported into any calendar client
// without going through the calendar capability.
func WriteICS(p *plan.Plan) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//trip-engine//itinerary//EN")
	cal.SetName(p.Title())
	cal.SetDescription(fmt.Sprintf("Trip to %s", p.Destination()))

	now := time.Now()
	for _, step := range p.Steps() {
		start, end, err := stepWindow(step)
		if err != nil {
			return "", err
		}

		event := cal.AddEvent(step.ID())
		event.SetCreatedTime(now)
		event.SetDtStampTime(now)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(step.Title())
		if step.Description() != "" {
			event.SetDescription(step.Description())
		}
		if step.Location() != nil {
			event.SetLocation(step.Location().String())
		}
	}

	return cal.Serialize(), nil
}

func stepWindow(step *plan.Step) (time.Time, time.Time, error) {
	startClock := step.StartTime()
	if startClock == "" {
		startClock = "09:00"
	}
	endClock := step.EndTime()
	if endClock == "" {
		endClock = "10:00"
	}

	start, err := step.Date().At(startClock)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := step.Date().At(endClock)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		end = start.Add(time.Hour)
	}
	return start, end, nil
}
