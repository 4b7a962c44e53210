package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/travel-butler/trip-engine/internal/shared"
)

// Step is one bookable line item of a plan.
type Step struct {
	id             string
	order          int
	stepType       string
	title          string
	description    string
	date           shared.TravelDate
	startTime      string
	endTime        string
	location       *Location
	agent          string
	actionPayload  map[string]interface{}
	estimatedPrice shared.Money
	status         StepStatus
	result         map[string]interface{}
	errorDetail    string
	notes          string
}

// NewStep creates a pending step. The agent is assigned by the caller
// from the step type before the step is dispatched.
func NewStep(order int, stepType, title, date string) (*Step, error) {
	if order < 0 {
		return nil, fmt.Errorf("the step order cannot be negative: %d", order)
	}
	stepType = strings.TrimSpace(stepType)
	if stepType == "" {
		return nil, fmt.Errorf("the step type cannot be empty")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("the step title cannot be empty")
	}
	travelDate, err := shared.NewTravelDate(date)
	if err != nil {
		return nil, err
	}

	return &Step{
		id:             uuid.NewString(),
		order:          order,
		stepType:       stepType,
		title:          title,
		date:           travelDate,
		actionPayload:  map[string]interface{}{},
		estimatedPrice: shared.Zero("USD"),
		status:         StepStatusPending,
	}, nil
}

func (s *Step) ID() string                            { return s.id }
func (s *Step) Order() int                            { return s.order }
func (s *Step) Type() string                          { return s.stepType }
func (s *Step) Title() string                         { return s.title }
func (s *Step) Description() string                   { return s.description }
func (s *Step) Date() shared.TravelDate               { return s.date }
func (s *Step) StartTime() string                     { return s.startTime }
func (s *Step) EndTime() string                       { return s.endTime }
func (s *Step) Location() *Location                   { return s.location }
func (s *Step) Agent() string                         { return s.agent }
func (s *Step) ActionPayload() map[string]interface{} { return s.actionPayload }
func (s *Step) EstimatedPrice() shared.Money          { return s.estimatedPrice }
func (s *Step) Status() StepStatus                    { return s.status }
func (s *Step) Result() map[string]interface{}        { return s.result }
func (s *Step) ErrorDetail() string                   { return s.errorDetail }
func (s *Step) Notes() string                         { return s.notes }

func (s *Step) SetTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("the step title cannot be empty")
	}
	s.title = title
	return nil
}

func (s *Step) SetDescription(description string) {
	s.description = description
}

func (s *Step) SetNotes(notes string) {
	s.notes = notes
}

func (s *Step) SetAgent(agent string) {
	s.agent = agent
}

func (s *Step) SetLocation(location *Location) {
	s.location = location
}

func (s *Step) SetActionPayload(payload map[string]interface{}) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	s.actionPayload = payload
}

func (s *Step) SetDate(date string) error {
	travelDate, err := shared.NewTravelDate(date)
	if err != nil {
		return err
	}
	s.date = travelDate
	return nil
}

// SetTimes sets the wall-clock start and end of the step ("HH:MM").
func (s *Step) SetTimes(start, end string) error {
	for _, clock := range []string{start, end} {
		if clock == "" {
			continue
		}
		if _, err := time.Parse("15:04", clock); err != nil {
			return fmt.Errorf("invalid time %q, expected HH:MM: %w", clock, err)
		}
	}
	s.startTime = start
	s.endTime = end
	return nil
}

func (s *Step) SetEstimatedPrice(price shared.Money) {
	s.estimatedPrice = price
}

// StartSearch moves the step into searching, from pending or from a
// previous failure (retry).
func (s *Step) StartSearch() error {
	return s.transition(StepStatusSearching)
}

// MarkFound records the agent's search result.
func (s *Step) MarkFound(result map[string]interface{}) error {
	if err := s.transition(StepStatusFound); err != nil {
		return err
	}
	s.result = result
	s.errorDetail = ""
	return nil
}

// Book marks the step as booked.
func (s *Step) Book() error {
	return s.transition(StepStatusBooked)
}

// Fail records a capability failure. The failure is data, not a thrown
// error: the rest of the plan keeps executing.
func (s *Step) Fail(detail string) error {
	if err := s.transition(StepStatusFailed); err != nil {
		return err
	}
	s.errorDetail = detail
	return nil
}

// Skip marks the step as skipped by the user.
func (s *Step) Skip() error {
	return s.transition(StepStatusSkipped)
}

func (s *Step) transition(target StepStatus) error {
	if !s.status.CanTransitionTo(target) {
		return newStepTransitionError(s.status, target)
	}
	s.status = target
	return nil
}

// IsSettled reports whether the step is done for this execution pass.
func (s *Step) IsSettled() bool {
	return s.status.IsSettled()
}

// Clone returns a deep copy of the step.
func (s *Step) Clone() *Step {
	clone := *s
	if s.location != nil {
		loc := *s.location
		clone.location = &loc
	}
	clone.actionPayload = clonePayload(s.actionPayload)
	clone.result = clonePayload(s.result)
	return &clone
}

func clonePayload(payload map[string]interface{}) map[string]interface{} {
	if payload == nil {
		return nil
	}
	clone := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		clone[k] = v
	}
	return clone
}
