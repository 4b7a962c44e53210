package booking

import "errors"

var (
	ErrRecordNotFound = errors.New("booking record not found")

	// ErrNotAwaitingApproval is returned when an approval decision is
	// applied to a record that is not waiting for one.
	ErrNotAwaitingApproval = errors.New("booking is not awaiting approval")
)
