package plan

import "context"

// Repository persists plans. Implementations enforce the status state
// machines at the boundary: a save that would move a plan or one of
// its steps through a forbidden transition is rejected.
type Repository interface {
	Save(ctx context.Context, p *Plan) error
	GetByID(ctx context.Context, planID string) (*Plan, error)
	List(ctx context.Context) ([]*Plan, error)
	Delete(ctx context.Context, planID string) error
}
