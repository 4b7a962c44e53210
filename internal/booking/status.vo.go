package booking

import "fmt"

// Status is the lifecycle state of a booking record.
type Status string

const (
	StatusPending          Status = "pending"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusApproved         Status = "approved"
	StatusConfirmed        Status = "confirmed"
	StatusFailed           Status = "failed"
	StatusCancelled        Status = "cancelled"
)

// approved is transient: it is consumed immediately by the confirm
// operation and never rests in storage.
var transitions = map[Status][]Status{
	StatusPending:          {StatusAwaitingApproval, StatusConfirmed, StatusFailed, StatusCancelled},
	StatusAwaitingApproval: {StatusApproved, StatusCancelled},
	StatusApproved:         {StatusConfirmed, StatusFailed},
	StatusConfirmed:        {StatusCancelled},
	StatusFailed:           {},
	StatusCancelled:        {},
}

// NewStatus validates a raw status string.
func NewStatus(status string) (Status, error) {
	s := Status(status)
	if _, ok := transitions[s]; !ok {
		return "", fmt.Errorf("invalid booking status: %s", status)
	}
	return s, nil
}

// CanTransitionTo reports whether the transition is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the record can no longer change.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) String() string {
	return string(s)
}
