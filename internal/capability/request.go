package capability

import (
	"fmt"
)

// StepSpec is the projection of an itinerary step that the dispatcher
// needs to build a tool call. It deliberately carries plain values so
// the plan domain stays free of gateway concerns.
type StepSpec struct {
	Type            string
	Title           string
	Description     string
	Date            string
	StartTime       string
	EndTime         string
	LocationName    string
	LocationAddress string
	Payload         map[string]interface{}
}

// Request is a fully resolved tool call.
type Request struct {
	Tool    string
	Agent   Agent
	Payload map[string]interface{}
}

// SearchRequestForStep builds the search tool call for a step,
// mirroring how each agent expects its payload.
func SearchRequestForStep(spec StepSpec) (Request, error) {
	agent := AgentForType(spec.Type)
	if len(ToolsForAgent(agent)) == 0 {
		return Request{}, fmt.Errorf("agent %q has no tools configured for step type %q", agent, spec.Type)
	}

	// A caller-provided payload is passed through untouched.
	if len(spec.Payload) > 0 {
		tool, ok := SearchToolForType(spec.Type)
		if !ok {
			return Request{}, fmt.Errorf("no search tool for step type: %s", spec.Type)
		}
		return Request{Tool: tool, Agent: agent, Payload: spec.Payload}, nil
	}

	switch spec.Type {
	case StepTypeFlight:
		return Request{Tool: ToolFlightSearch, Agent: agent, Payload: map[string]interface{}{
			"origin":         "",
			"destination":    "",
			"departure_date": spec.Date,
			"passengers":     1,
		}}, nil

	case StepTypeHotel:
		return Request{Tool: ToolHotelSearch, Agent: agent, Payload: map[string]interface{}{
			"location":  spec.LocationName,
			"check_in":  spec.Date,
			"check_out": spec.Date,
			"guests":    1,
		}}, nil

	case StepTypeRestaurant:
		start := spec.StartTime
		if start == "" {
			start = "19:00"
		}
		return Request{Tool: ToolDiningSearch, Agent: agent, Payload: map[string]interface{}{
			"location":   spec.LocationName,
			"cuisine":    "",
			"party_size": 1,
			"date_time":  fmt.Sprintf("%sT%s", spec.Date, start),
		}}, nil

	case StepTypeActivity:
		return Request{Tool: ToolPlacesSearch, Agent: agent, Payload: map[string]interface{}{
			"query":    spec.Title,
			"location": spec.LocationName,
		}}, nil

	case StepTypeTransport:
		return Request{Tool: ToolDirectionsRoute, Agent: agent, Payload: map[string]interface{}{
			"origin":      "",
			"destination": "",
			"mode":        "driving",
		}}, nil

	case StepTypeCalendarEvent:
		start := spec.StartTime
		if start == "" {
			start = "09:00"
		}
		end := spec.EndTime
		if end == "" {
			end = "10:00"
		}
		return Request{Tool: ToolCalendarCreate, Agent: agent, Payload: map[string]interface{}{
			"events": []interface{}{
				map[string]interface{}{
					"summary":     spec.Title,
					"description": spec.Description,
					"start":       fmt.Sprintf("%sT%s:00", spec.Date, start),
					"end":         fmt.Sprintf("%sT%s:00", spec.Date, end),
					"location":    spec.LocationAddress,
				},
			},
		}}, nil

	default:
		return Request{}, fmt.Errorf("no tool mapping for step type: %s", spec.Type)
	}
}

// BookingRequestForStep builds the booking tool call for a step from
// the search result the agent previously returned.
func BookingRequestForStep(spec StepSpec, searchResult map[string]interface{}) (Request, error) {
	agent := AgentForType(spec.Type)
	tool, ok := BookingToolForType(spec.Type)
	if !ok {
		return Request{}, fmt.Errorf("step type %q is not bookable", spec.Type)
	}

	payload := make(map[string]interface{}, len(searchResult))
	for k, v := range searchResult {
		payload[k] = v
	}
	return Request{Tool: tool, Agent: agent, Payload: payload}, nil
}
