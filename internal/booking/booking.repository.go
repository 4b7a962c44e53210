package booking

import "context"

// Repository persists booking records independently of plans.
type Repository interface {
	Save(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, recordID string) (*Record, error)
	ListByStep(ctx context.Context, stepID string) ([]*Record, error)
	ListAwaitingApproval(ctx context.Context) ([]*Record, error)
	List(ctx context.Context) ([]*Record, error)

	// AuthoritativeForStep returns the record that currently speaks
	// for a step's display status: the most recent record that has
	// not failed, or the most recent one if all attempts failed.
	AuthoritativeForStep(ctx context.Context, stepID string) (*Record, error)
}
