package infrastructure

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/travel-butler/trip-engine/internal/booking"
	"github.com/samber/lo"
)

// InMemoryBookingRepository stores deep copies of booking records.
// Saves are validated against the stored snapshot so that forbidden
// status jumps are rejected at the boundary.
type InMemoryBookingRepository struct {
	records map[string]*booking.Record
	mu      sync.RWMutex
}

func NewInMemoryBookingRepository() *InMemoryBookingRepository {
	return &InMemoryBookingRepository{
		records: make(map[string]*booking.Record),
	}
}

func (r *InMemoryBookingRepository) Save(ctx context.Context, record *booking.Record) error {
	if record == nil {
		return fmt.Errorf("the booking record cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, exists := r.records[record.ID()]; exists {
		if stored.Status() != record.Status() &&
			!stored.Status().CanTransitionTo(record.Status()) {
			return &booking.InvalidTransitionError{
				From: stored.Status().String(),
				To:   record.Status().String(),
			}
		}
	}

	r.records[record.ID()] = record.Clone()
	return nil
}

func (r *InMemoryBookingRepository) GetByID(ctx context.Context, recordID string) (*booking.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.records[recordID]
	if !exists {
		return nil, booking.ErrRecordNotFound
	}
	return stored.Clone(), nil
}

func (r *InMemoryBookingRepository) List(ctx context.Context) ([]*booking.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedClones(func(*booking.Record) bool { return true }), nil
}

func (r *InMemoryBookingRepository) ListByStep(ctx context.Context, stepID string) ([]*booking.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedClones(func(record *booking.Record) bool {
		return record.StepID() == stepID
	}), nil
}

func (r *InMemoryBookingRepository) ListAwaitingApproval(ctx context.Context) ([]*booking.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedClones(func(record *booking.Record) bool {
		return record.Status() == booking.StatusAwaitingApproval
	}), nil
}

func (r *InMemoryBookingRepository) AuthoritativeForStep(ctx context.Context, stepID string) (*booking.Record, error) {
	records, err := r.ListByStep(ctx, stepID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, booking.ErrRecordNotFound
	}

	// Most recent record that has not failed; failing that, the most
	// recent attempt.
	healthy := lo.Filter(records, func(record *booking.Record, _ int) bool {
		return record.Status() != booking.StatusFailed
	})
	if len(healthy) > 0 {
		return healthy[len(healthy)-1], nil
	}
	return records[len(records)-1], nil
}

// sortedClones returns matching records cloned and ordered by
// creation time, oldest first.
func (r *InMemoryBookingRepository) sortedClones(match func(*booking.Record) bool) []*booking.Record {
	records := make([]*booking.Record, 0, len(r.records))
	for _, stored := range r.records {
		if match(stored) {
			records = append(records, stored.Clone())
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt().Before(records[j].CreatedAt())
	})
	return records
}
