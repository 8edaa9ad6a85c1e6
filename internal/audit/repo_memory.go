package audit

import (
	"context"
	"sync"
)

// MemoryRepo keeps the most recent events in memory. A zero limit keeps everything.
type MemoryRepo struct {
	mu     sync.Mutex
	limit  int
	events []Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

// NewBoundedMemoryRepo drops the oldest events once limit is reached.
func NewBoundedMemoryRepo(limit int) *MemoryRepo { return &MemoryRepo{limit: limit} }

func (r *MemoryRepo) Append(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
	if r.limit > 0 && len(r.events) > r.limit {
		r.events = append(r.events[:0:0], r.events[len(r.events)-r.limit:]...)
	}
	return nil
}

// Events returns a copy, oldest first.
func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
