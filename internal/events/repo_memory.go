package events

import (
	"context"
	"sync"
)

// MemoryRepo is a simple in-memory event log for tests and early development.
type MemoryRepo struct {
	mu     sync.Mutex
	events []StatusEvent
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, e StatusEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Snapshot returns a copy of everything appended so far.
func (r *MemoryRepo) Snapshot() []StatusEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StatusEvent, len(r.events))
	copy(out, r.events)
	return out
}
