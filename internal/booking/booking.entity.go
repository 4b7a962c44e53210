package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is the durable result of attempting to realize one plan step
// against a capability provider. Records outlive the owning plan and
// its steps: approval and retry history is kept for audit even after
// the itinerary is edited or cancelled.
type Record struct {
	id          string
	stepID      string
	bookingType string
	capability  string
	payload     map[string]interface{}
	status      Status
	providerRef string
	result      map[string]interface{}
	errorDetail string
	createdAt   time.Time
	confirmedAt *time.Time
}

// NewRecord creates a pending record for one booking attempt. stepID
// may be empty: a record may reference a step but does not require one.
func NewRecord(bookingType, capability string, payload map[string]interface{}, stepID string) (*Record, error) {
	bookingType = strings.TrimSpace(bookingType)
	if bookingType == "" {
		return nil, fmt.Errorf("the booking type cannot be empty")
	}
	capability = strings.TrimSpace(capability)
	if capability == "" {
		return nil, fmt.Errorf("the capability name cannot be empty")
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}

	return &Record{
		id:          uuid.NewString(),
		stepID:      stepID,
		bookingType: bookingType,
		capability:  capability,
		payload:     payload,
		status:      StatusPending,
		createdAt:   time.Now(),
	}, nil
}

func (r *Record) ID() string                      { return r.id }
func (r *Record) StepID() string                  { return r.stepID }
func (r *Record) Type() string                    { return r.bookingType }
func (r *Record) Capability() string              { return r.capability }
func (r *Record) Payload() map[string]interface{} { return r.payload }
func (r *Record) Status() Status                  { return r.status }
func (r *Record) ProviderRef() string             { return r.providerRef }
func (r *Record) Result() map[string]interface{}  { return r.result }
func (r *Record) ErrorDetail() string             { return r.errorDetail }
func (r *Record) CreatedAt() time.Time            { return r.createdAt }
func (r *Record) ConfirmedAt() *time.Time         { return r.confirmedAt }

// RequireApproval parks the record until a human signs off the spend.
func (r *Record) RequireApproval() error {
	return r.transition(StatusAwaitingApproval)
}

// Approve consumes the approval gate. The caller is expected to
// confirm or fail the record immediately afterwards.
func (r *Record) Approve() error {
	if r.status != StatusAwaitingApproval {
		return ErrNotAwaitingApproval
	}
	return r.transition(StatusApproved)
}

// Confirm records the provider's confirmation.
func (r *Record) Confirm(providerRef string, result map[string]interface{}) error {
	if err := r.transition(StatusConfirmed); err != nil {
		return err
	}
	r.providerRef = providerRef
	r.result = result
	now := time.Now()
	r.confirmedAt = &now
	return nil
}

// Fail records a provider failure.
func (r *Record) Fail(detail string) error {
	if err := r.transition(StatusFailed); err != nil {
		return err
	}
	r.errorDetail = detail
	return nil
}

// Cancel marks the record cancelled. A confirmed booking can still be
// cancelled, reflecting an explicit provider-side cancellation.
func (r *Record) Cancel() error {
	return r.transition(StatusCancelled)
}

func (r *Record) transition(target Status) error {
	if !r.status.CanTransitionTo(target) {
		return &InvalidTransitionError{From: r.status.String(), To: target.String()}
	}
	r.status = target
	return nil
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	clone := *r
	clone.payload = cloneMap(r.payload)
	clone.result = cloneMap(r.result)
	if r.confirmedAt != nil {
		t := *r.confirmedAt
		clone.confirmedAt = &t
	}
	return &clone
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	clone := make(map[string]interface{}, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// InvalidTransitionError reports a booking status change the state
// machine does not allow.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid booking transition: %s -> %s", e.From, e.To)
}
