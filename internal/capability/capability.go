package capability

// Agent identifies the specialized agent responsible for a class of
// itinerary steps. Each agent knows which gateway tools it can call.
type Agent string

const (
	AgentFlight     Agent = "flight_agent"
	AgentHotel      Agent = "hotel_agent"
	AgentDining     Agent = "dining_agent"
	AgentPlaces     Agent = "places_agent"
	AgentDirections Agent = "directions_agent"
	AgentCalendar   Agent = "gcal_agent"
	AgentUnknown    Agent = "unknown_agent"
)

// Step type names as they appear on itinerary steps.
const (
	StepTypeFlight        = "flight"
	StepTypeHotel         = "hotel"
	StepTypeRestaurant    = "restaurant"
	StepTypeActivity      = "activity"
	StepTypeTransport     = "transport"
	StepTypeCalendarEvent = "calendar_event"
)

// Gateway tool names.
const (
	ToolFlightSearch    = "flight.search_offers"
	ToolFlightBook      = "flight.book_order"
	ToolHotelSearch     = "hotel.search"
	ToolHotelBook       = "hotel.book"
	ToolDiningSearch    = "dining.search"
	ToolDiningReserve   = "dining.reserve"
	ToolPlacesSearch    = "places.search"
	ToolPlacesDetails   = "places.details"
	ToolDirectionsRoute = "directions.route"
	ToolDirectionsETA   = "directions.eta"
	ToolCalendarCreate  = "gcal.batch_create"
	ToolWalletPass      = "wallet.generate_pkpass"
	ToolNotionExport    = "notion.export_page"
)

var stepTypeToAgent = map[string]Agent{
	StepTypeFlight:        AgentFlight,
	StepTypeHotel:         AgentHotel,
	StepTypeRestaurant:    AgentDining,
	StepTypeActivity:      AgentPlaces,
	StepTypeTransport:     AgentDirections,
	StepTypeCalendarEvent: AgentCalendar,
}

var agentTools = map[Agent][]string{
	AgentFlight:     {ToolFlightSearch, ToolFlightBook},
	AgentHotel:      {ToolHotelSearch, ToolHotelBook},
	AgentDining:     {ToolDiningSearch, ToolDiningReserve},
	AgentPlaces:     {ToolPlacesSearch, ToolPlacesDetails},
	AgentDirections: {ToolDirectionsRoute, ToolDirectionsETA},
	AgentCalendar:   {ToolCalendarCreate},
}

var searchToolForType = map[string]string{
	StepTypeFlight:        ToolFlightSearch,
	StepTypeHotel:         ToolHotelSearch,
	StepTypeRestaurant:    ToolDiningSearch,
	StepTypeActivity:      ToolPlacesSearch,
	StepTypeTransport:     ToolDirectionsRoute,
	StepTypeCalendarEvent: ToolCalendarCreate,
}

var bookingToolForType = map[string]string{
	StepTypeFlight:     ToolFlightBook,
	StepTypeHotel:      ToolHotelBook,
	StepTypeRestaurant: ToolDiningReserve,
}

// AgentForType returns the agent responsible for a step type.
func AgentForType(stepType string) Agent {
	if agent, ok := stepTypeToAgent[stepType]; ok {
		return agent
	}
	return AgentUnknown
}

// ToolsForAgent returns the gateway tools an agent can call.
// An unknown agent has no tools and its steps are skipped.
func ToolsForAgent(agent Agent) []string {
	return agentTools[agent]
}

// SearchToolForType returns the primary search tool for a step type.
func SearchToolForType(stepType string) (string, bool) {
	tool, ok := searchToolForType[stepType]
	return tool, ok
}

// BookingToolForType returns the booking tool for a step type, if the
// type is bookable at all.
func BookingToolForType(stepType string) (string, bool) {
	tool, ok := bookingToolForType[stepType]
	return tool, ok
}
