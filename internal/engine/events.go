package engine

import (
	"sync"
	"time"

	"github.com/travel-butler/trip-engine/internal/plan"
)

// StepSettledEvent is emitted once per step settlement. The
// presentation layer paces its own animation off these; the engine
// only guarantees correctness of the final state, not timing.
type StepSettledEvent struct {
	PlanID   string
	StepID   string
	StepType string
	Status   plan.StepStatus
	At       time.Time
}

// StepSettledListener receives settlement events synchronously.
type StepSettledListener func(StepSettledEvent)

type eventBus struct {
	listeners []StepSettledListener
	mu        sync.RWMutex
}

func (b *eventBus) subscribe(listener StepSettledListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, listener)
}

func (b *eventBus) publish(event StepSettledEvent) {
	b.mu.RLock()
	listeners := make([]StepSettledListener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, listener := range listeners {
		listener(event)
	}
}
