package trace

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InvocationStatus is the terminal outcome of a tool invocation.
type InvocationStatus string

const (
	InvocationStatusOK               InvocationStatus = "ok"
	InvocationStatusError            InvocationStatus = "error"
	InvocationStatusAwaitingApproval InvocationStatus = "awaiting_approval"
	InvocationStatusSkipped          InvocationStatus = "skipped"
)

// Invocation is one traced call to a capability tool.
type Invocation struct {
	ID          string           `json:"id"`
	Tool        string           `json:"tool"`
	Agent       string           `json:"agent"`
	PayloadHash string           `json:"payload_hash"`
	Status      InvocationStatus `json:"status"`
	Detail      string           `json:"detail,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	Duration    time.Duration    `json:"duration"`
}

// Tracer records tool invocations in memory. Completed invocations are
// kept for inspection and pruned after a TTL.
type Tracer struct {
	invocations map[string]*Invocation
	order       []string
	mu          sync.RWMutex
	cleanupTTL  time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

func NewTracer(cleanupTTL time.Duration) *Tracer {
	if cleanupTTL <= 0 {
		cleanupTTL = 30 * time.Minute
	}
	tracer := &Tracer{
		invocations: make(map[string]*Invocation),
		cleanupTTL:  cleanupTTL,
		stop:        make(chan struct{}),
	}

	go tracer.cleanupLoop()

	return tracer
}

// Close stops the background cleanup goroutine. The tracer itself
// stays usable.
func (t *Tracer) Close() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
}

// Begin records the start of an invocation and returns its identifier.
func (t *Tracer) Begin(tool, agent, payloadHash string) string {
	inv := &Invocation{
		ID:          uuid.NewString(),
		Tool:        tool,
		Agent:       agent,
		PayloadHash: payloadHash,
		StartedAt:   time.Now(),
	}

	t.mu.Lock()
	t.invocations[inv.ID] = inv
	t.order = append(t.order, inv.ID)
	t.mu.Unlock()

	return inv.ID
}

// Finish records the outcome of a started invocation.
func (t *Tracer) Finish(id string, status InvocationStatus, detail string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	inv, exists := t.invocations[id]
	if !exists {
		return fmt.Errorf("unknown invocation: %s", id)
	}

	inv.Status = status
	inv.Detail = detail
	inv.Duration = time.Since(inv.StartedAt)
	return nil
}

// GetByID retrieves an invocation by identifier.
func (t *Tracer) GetByID(id string) (Invocation, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	inv, exists := t.invocations[id]
	if !exists {
		return Invocation{}, fmt.Errorf("unknown invocation: %s", id)
	}
	return *inv, nil
}

// Recent returns up to n invocations, oldest first.
func (t *Tracer) Recent(n int) []Invocation {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n <= 0 || n > len(t.order) {
		n = len(t.order)
	}

	recent := make([]Invocation, 0, n)
	for _, id := range t.order[len(t.order)-n:] {
		if inv, exists := t.invocations[id]; exists {
			recent = append(recent, *inv)
		}
	}
	return recent
}

// Count returns the number of tracked invocations.
func (t *Tracer) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.invocations)
}

func (t *Tracer) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.cleanup()
		case <-t.stop:
			return
		}
	}
}

// cleanup removes finished invocations older than the TTL.
func (t *Tracer) cleanup() {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.order[:0]
	for _, id := range t.order {
		inv, exists := t.invocations[id]
		if !exists {
			continue
		}
		if inv.Status != "" && now.Sub(inv.StartedAt) > t.cleanupTTL {
			delete(t.invocations, id)
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
}
